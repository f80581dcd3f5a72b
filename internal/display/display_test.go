package display

import (
	"encoding/binary"
	"testing"

	"golang.org/x/sys/unix"

	"github.com/bnema/lumalla/internal/globals"
	"github.com/bnema/lumalla/internal/seatcat"
	"github.com/bnema/lumalla/internal/shm"
	"github.com/bnema/lumalla/internal/surfmgr"
	"github.com/bnema/lumalla/internal/wire"
	"github.com/bnema/lumalla/internal/wlproto"
)

func socketpair(t *testing.T) (clientFD, serverFD int) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	if err := unix.SetNonblock(fds[0], true); err != nil {
		t.Fatalf("set nonblock: %v", err)
	}
	if err := unix.SetNonblock(fds[1], true); err != nil {
		t.Fatalf("set nonblock: %v", err)
	}
	t.Cleanup(func() {
		unix.Close(fds[0])
		unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

func newTestSubsystem() *Subsystem {
	s := &Subsystem{
		clients:  make(map[int]*connection),
		shm:      shm.NewManager(),
		surfaces: surfmgr.NewManager(),
		catalog:  globals.NewCatalog(),
		seats:    seatcat.NewManager(),
	}
	s.catalog.Add(wlproto.InterfaceCompositor)
	s.catalog.Add(wlproto.InterfaceShm)
	return s
}

func putHeaderBytes(object wire.ObjectID, size uint16, opcode wire.Opcode) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint32(b[0:4], uint32(object))
	binary.LittleEndian.PutUint16(b[4:6], size)
	binary.LittleEndian.PutUint16(b[6:8], uint16(opcode))
	return b
}

func putUint32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func readAllAvailable(t *testing.T, fd int) []byte {
	t.Helper()
	var out []byte
	buf := make([]byte, 4096)
	for {
		n, err := unix.Read(fd, buf)
		if err != nil {
			break
		}
		if n <= 0 {
			break
		}
		out = append(out, buf[:n]...)
	}
	return out
}

func TestSyncRoundTrip(t *testing.T) {
	clientFD, serverFD := socketpair(t)
	s := newTestSubsystem()
	conn := newConnection(1, serverFD)
	s.clients[serverFD] = conn

	const callbackID = wire.ObjectID(2)
	req := append(putHeaderBytes(1, 12, wlproto.DisplayRequestSync), putUint32(uint32(callbackID))...)
	if _, err := unix.Write(clientFD, req); err != nil {
		t.Fatalf("write sync request: %v", err)
	}

	s.serviceClient(conn)

	out := readAllAvailable(t, clientFD)
	if len(out) != 24 {
		t.Fatalf("response length = %d, want 24", len(out))
	}
	doneHdr := wire.DecodeHeader(out[0:8])
	if doneHdr.Object != callbackID || doneHdr.Opcode != wlproto.CallbackEventDone {
		t.Errorf("first event = %+v, want callback.done on %d", doneHdr, callbackID)
	}
	deleteHdr := wire.DecodeHeader(out[12:20])
	if deleteHdr.Object != 1 || deleteHdr.Opcode != wlproto.DisplayEventDeleteID {
		t.Errorf("second event = %+v, want display.delete_id", deleteHdr)
	}
	deletedID := binary.LittleEndian.Uint32(out[20:24])
	if wire.ObjectID(deletedID) != callbackID {
		t.Errorf("delete_id argument = %d, want %d", deletedID, callbackID)
	}
}

func TestRegistryBindShmEmitsFormats(t *testing.T) {
	clientFD, serverFD := socketpair(t)
	s := newTestSubsystem()
	conn := newConnection(1, serverFD)
	s.clients[serverFD] = conn

	const registryID = wire.ObjectID(2)
	getRegistry := append(putHeaderBytes(1, 12, wlproto.DisplayRequestGetRegistry), putUint32(uint32(registryID))...)
	if _, err := unix.Write(clientFD, getRegistry); err != nil {
		t.Fatalf("write get_registry: %v", err)
	}
	s.serviceClient(conn)
	_ = readAllAvailable(t, clientFD) // drain the initial global advertisements

	shmGlobal, ok := s.catalog.Get(2) // wl_compositor is name 1, wl_shm is name 2
	if !ok {
		t.Fatalf("wl_shm global not found in catalog")
	}

	const shmID = wire.ObjectID(3)
	nameBytes := putUint32(shmGlobal.Name)
	ifaceStr := encodeString("wl_shm")
	versionBytes := putUint32(shmGlobal.Interface.Version())
	idBytes := putUint32(uint32(shmID))
	body := append(append(append(nameBytes, ifaceStr...), versionBytes...), idBytes...)
	bind := append(putHeaderBytes(registryID, uint16(8+len(body)), wlproto.RegistryRequestBind), body...)
	if _, err := unix.Write(clientFD, bind); err != nil {
		t.Fatalf("write bind: %v", err)
	}
	s.serviceClient(conn)

	out := readAllAvailable(t, clientFD)
	if len(out) == 0 {
		t.Fatal("expected format events after binding wl_shm")
	}
	firstHdr := wire.DecodeHeader(out[0:8])
	if firstHdr.Object != shmID || firstHdr.Opcode != wlproto.ShmEventFormat {
		t.Errorf("first event after bind = %+v, want wl_shm.format on %d", firstHdr, shmID)
	}
}

func encodeString(s string) []byte {
	n := len(s) + 1
	out := putUint32(uint32(n))
	out = append(out, s...)
	out = append(out, 0)
	pad := (4 - (n % 4)) % 4
	for i := 0; i < pad; i++ {
		out = append(out, 0)
	}
	return out
}

func TestInvalidObjectZeroDisconnects(t *testing.T) {
	clientFD, serverFD := socketpair(t)
	s := newTestSubsystem()
	conn := newConnection(1, serverFD)
	s.clients[serverFD] = conn

	raw := putHeaderBytes(0, 8, 0)
	if _, err := unix.Write(clientFD, raw); err != nil {
		t.Fatalf("write invalid message: %v", err)
	}

	s.serviceClient(conn)

	if _, stillClient := s.clients[serverFD]; stillClient {
		t.Error("expected connection removed after invalid object")
	}
	out := readAllAvailable(t, clientFD)
	if len(out) < 8 {
		t.Fatalf("expected a wl_display.error event, got %d bytes", len(out))
	}
	hdr := wire.DecodeHeader(out[0:8])
	if hdr.Opcode != wlproto.DisplayEventError {
		t.Errorf("event opcode = %d, want DisplayEventError", hdr.Opcode)
	}
	code := binary.LittleEndian.Uint32(out[12:16])
	if code != wlproto.DisplayErrorInvalidObject {
		t.Errorf("error code = %d, want DisplayErrorInvalidObject", code)
	}
}

func TestUnknownObjectIDDisconnects(t *testing.T) {
	clientFD, serverFD := socketpair(t)
	s := newTestSubsystem()
	conn := newConnection(1, serverFD)
	s.clients[serverFD] = conn

	raw := putHeaderBytes(999, 8, 0)
	if _, err := unix.Write(clientFD, raw); err != nil {
		t.Fatalf("write: %v", err)
	}
	s.serviceClient(conn)

	if _, stillClient := s.clients[serverFD]; stillClient {
		t.Error("expected connection removed after unknown object id")
	}
}

func TestShmPoolLifecycleThroughDispatch(t *testing.T) {
	clientFD, serverFD := socketpair(t)
	s := newTestSubsystem()
	conn := newConnection(1, serverFD)
	s.clients[serverFD] = conn

	const shmID = wire.ObjectID(2)
	conn.registry.Register(shmID, wlproto.InterfaceShm)

	memFD, err := unix.MemfdCreate("test-pool", 0)
	if err != nil {
		t.Fatalf("memfd_create: %v", err)
	}
	defer unix.Close(memFD)
	if err := unix.Ftruncate(memFD, 4096); err != nil {
		t.Fatalf("ftruncate: %v", err)
	}

	const poolID = wire.ObjectID(3)
	body := append(putUint32(uint32(poolID)), putUint32(4096)...)
	createPool := append(putHeaderBytes(shmID, uint16(8+len(body)), wlproto.ShmRequestCreatePool), body...)

	oob := unix.UnixRights(memFD)
	if err := unix.Sendmsg(clientFD, createPool, oob, nil, 0); err != nil {
		t.Fatalf("sendmsg create_pool: %v", err)
	}
	s.serviceClient(conn)

	key := shm.PoolKey{ClientID: uint64(conn.id), ObjectID: uint32(poolID)}
	if _, ok := s.shm.PoolRefCount(key); !ok {
		t.Fatal("pool not registered after create_pool")
	}

	const bufferID = wire.ObjectID(4)
	cbBody := putUint32(uint32(bufferID))
	cbBody = append(cbBody, putUint32(0)...)    // offset
	cbBody = append(cbBody, putUint32(64)...)   // width
	cbBody = append(cbBody, putUint32(16)...)   // height
	cbBody = append(cbBody, putUint32(256)...)  // stride
	cbBody = append(cbBody, putUint32(wlproto.ShmFormatARGB8888)...)
	createBuffer := append(putHeaderBytes(poolID, uint16(8+len(cbBody)), wlproto.ShmPoolRequestCreateBuffer), cbBody...)
	if _, err := unix.Write(clientFD, createBuffer); err != nil {
		t.Fatalf("write create_buffer: %v", err)
	}
	s.serviceClient(conn)

	if rc, _ := s.shm.PoolRefCount(key); rc != 2 {
		t.Errorf("pool refcount after create_buffer = %d, want 2", rc)
	}

	destroyPool := putHeaderBytes(poolID, 8, wlproto.ShmPoolRequestDestroy)
	if _, err := unix.Write(clientFD, destroyPool); err != nil {
		t.Fatalf("write destroy pool: %v", err)
	}
	s.serviceClient(conn)

	if rc, ok := s.shm.PoolRefCount(key); ok {
		t.Errorf("pool still tracked after destroy, refcount %d", rc)
	}
	bufKey := shm.BufferKey{ClientID: uint64(conn.id), ObjectID: uint32(bufferID)}
	if _, _, ok := s.shm.Buffer(bufKey); !ok {
		t.Error("buffer should still be alive after pool destroy while buffer is live")
	}
}
