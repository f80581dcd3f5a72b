// Package errs is the core's structured error model: the five error kinds
// of §7, each mapped to a process exit code, with a latched-underlying-error
// convention matching the wire writer's own latch-at-flush pattern.
package errs

import "fmt"

// Kind identifies one of the five places an error is observable, per §7.
type Kind int

const (
	// KindProtocolViolation is a client protocol violation: invalid object
	// id, invalid opcode, invalid fd, invalid format.
	KindProtocolViolation Kind = iota
	// KindTransientIO is EAGAIN on read or send; callers should not
	// construct an Error for this kind — it is not surfaced.
	KindTransientIO
	// KindFatalClientIO is ECONNRESET, EPIPE, or unexpected close on one client.
	KindFatalClientIO
	// KindSubsystemCrash is a panic or fatal error in a worker thread.
	KindSubsystemCrash
	// KindFatalStartup is a failure to bind the socket, create a poller, or
	// parse args.
	KindFatalStartup
)

// ExitCode maps a Kind to the process exit code a fatal occurrence of it
// should produce. Only KindFatalStartup and KindSubsystemCrash ever reach
// main with a nonzero code; client- and connection-scoped kinds are handled
// without exiting the process.
func (k Kind) ExitCode() int {
	switch k {
	case KindFatalStartup, KindSubsystemCrash:
		return 1
	default:
		return 0
	}
}

func (k Kind) String() string {
	switch k {
	case KindProtocolViolation:
		return "protocol_violation"
	case KindTransientIO:
		return "transient_io"
	case KindFatalClientIO:
		return "fatal_client_io"
	case KindSubsystemCrash:
		return "subsystem_crash"
	case KindFatalStartup:
		return "fatal_startup"
	default:
		return "unknown"
	}
}

// Error is the structured error type every layer of the core returns
// instead of a bare error, once the failure is classified.
type Error struct {
	Kind       Kind
	Message    string
	Underlying error
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// New constructs a bare Error with no underlying cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs an Error of kind, wrapping err.
func Wrap(kind Kind, message string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Underlying: err}
}

// HandleReturn maps err to the exit code its kind implies, without calling
// os.Exit itself — callers (cmd/lumallad's main) remain the only place the
// process actually exits.
func HandleReturn(err error) int {
	if err == nil {
		return 0
	}
	if e, ok := err.(*Error); ok {
		return e.Kind.ExitCode()
	}
	return 1
}
