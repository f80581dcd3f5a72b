// Package comms is the cross-thread RPC vocabulary: a cloneable bundle of
// typed channels, one per subsystem, plus the message enums each subsystem
// understands (§4.10).
package comms

// MainMessage is the vocabulary understood by the main orchestrator.
type MainMessage struct {
	Shutdown bool
}

// DisplayMessage is the vocabulary understood by the display thread.
type DisplayMessage struct {
	Shutdown                bool
	ActivateSeat             string
	ToggleDebugUI            bool
	StartVideoStream         bool
	SetLayout                string
	AddWindowRule            string
	SetZones                 string
	FocusOrSpawn             string
	CloseCurrentWindow       bool
	MoveCurrentWindowToZone  string
	VtSwitch                 int
}

// RendererMessage is the vocabulary understood by the renderer subsystem.
type RendererMessage struct {
	Shutdown            bool
	SeatSessionCreated  string
	SeatSessionPaused   bool
	SeatSessionResumed  bool
	FileOpenedInSession *FileOpenedInSession
}

// FileOpenedInSession carries a device fd opened by the session manager
// through to the renderer.
type FileOpenedInSession struct {
	Path string
	FD   int
}

// SeatMessage is the vocabulary understood by the seat subsystem.
type SeatMessage struct {
	Shutdown     bool
	SeatEnabled  bool
	SeatDisabled bool
	OpenDevice   string
}

// ConfigMessage is the vocabulary understood by the config subsystem.
type ConfigMessage struct {
	Shutdown              bool
	RunCallback           uint64
	ForgetCallback        uint64
	Startup               bool
	ConnectorChange       []string
	ExtraEnvKey           string
	ExtraEnvValue         string
	SpawnCmd              string
	SpawnArgs             []string
	SetOnStartup          uint64
	SetOnConnectorChange  uint64
	SetLayoutSpaces       string
	LoadConfig            string
}

// InputMessage is the vocabulary understood by the input subsystem.
type InputMessage struct {
	Shutdown bool
	Keymap   *KeymapBinding
}

// KeymapBinding names a key combination and the callback it should invoke.
type KeymapBinding struct {
	KeyName   string
	Modifiers uint32
	Callback  uint64
}
