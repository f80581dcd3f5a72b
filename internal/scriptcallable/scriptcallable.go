// Package scriptcallable backs the config subsystem's CallbackRef table: a
// monotonically allocated integer handle mapped to a compiled script
// callable, executed only on the config thread's own loop iteration (§3,
// §4.16, §9's FFI-callback non-reentrancy discipline applied to scripts).
package scriptcallable

import (
	"fmt"
	"sync"

	"github.com/dop251/goja"
)

// Ref is a CallbackRef: an opaque handle to a registered callable.
type Ref uint64

// Table owns one goja.Runtime and every callable registered against it. A
// Table must only ever be touched from the thread that owns it.
type Table struct {
	vm      *goja.Runtime
	entries map[Ref]*goja.Program
	next    Ref
	mu      sync.Mutex // guards next/entries bookkeeping only, never VM execution
}

// NewTable constructs an empty callable table with a fresh JS runtime.
func NewTable() *Table {
	return &Table{vm: goja.New(), entries: make(map[Ref]*goja.Program)}
}

// Register compiles src and stores it under a freshly allocated Ref.
func (t *Table) Register(src string) (Ref, error) {
	prog, err := goja.Compile("", src, false)
	if err != nil {
		return 0, fmt.Errorf("scriptcallable: compile: %w", err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	ref := t.next
	t.entries[ref] = prog
	return ref, nil
}

// Run executes the callable registered under ref. Must only be called from
// the config thread's own dispatch loop, never from a concurrent goroutine,
// since goja.Runtime is not safe for concurrent use.
func (t *Table) Run(ref Ref) (goja.Value, error) {
	t.mu.Lock()
	prog, ok := t.entries[ref]
	t.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("scriptcallable: unknown ref %d", ref)
	}
	return t.vm.RunProgram(prog)
}

// Forget evicts ref from the table. A second ForgetCallback of the same ref
// is a no-op.
func (t *Table) Forget(ref Ref) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, ref)
}
