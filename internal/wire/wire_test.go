package wire

import "testing"

func TestFixedRoundTrip(t *testing.T) {
	cases := []float64{0, 1, -1, 0.5, -0.5, 123.456, -999.001}
	for _, v := range cases {
		got := FixedFromFloat(v).Float()
		if diff := got - v; diff > 1.0/256 || diff < -1.0/256 {
			t.Errorf("FixedFromFloat(%v).Float() = %v, diff %v exceeds 1/256", v, got, diff)
		}
	}
}

func TestFixedFromInt(t *testing.T) {
	if got := FixedFromInt(5).Int(); got != 5 {
		t.Errorf("FixedFromInt(5).Int() = %d, want 5", got)
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	want := Header{Object: 1, Size: 16, Opcode: 3}
	buf := make([]byte, HeaderSize)
	putHeader(buf, want)
	got, err := PeekHeader(buf)
	if err != nil {
		t.Fatalf("PeekHeader: %v", err)
	}
	if got != want {
		t.Errorf("PeekHeader = %+v, want %+v", got, want)
	}
}

func TestPeekHeaderInvalidObject(t *testing.T) {
	buf := make([]byte, HeaderSize)
	if _, err := PeekHeader(buf); err != ErrInvalidObject {
		t.Errorf("PeekHeader with zero object = %v, want ErrInvalidObject", err)
	}
}

func TestPeekHeaderShort(t *testing.T) {
	if _, err := PeekHeader([]byte{1, 2, 3}); err != ErrShortHeader {
		t.Errorf("PeekHeader with short buf = %v, want ErrShortHeader", err)
	}
}

func TestPaddingFor(t *testing.T) {
	cases := map[int]int{0: 0, 1: 3, 2: 2, 3: 1, 4: 0, 5: 3}
	for n, want := range cases {
		if got := paddingFor(n); got != want {
			t.Errorf("paddingFor(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestDecoderStringNullability(t *testing.T) {
	d := NewDecoder([]byte{0, 0, 0, 0})
	s, err := d.String()
	if err != nil || s != "" {
		t.Errorf("String() on zero-length prefix = %q, %v, want empty string, nil", s, err)
	}
}

func TestEncodeDecodeMessageByteIdentical(t *testing.T) {
	w := NewWriterForTest()
	w.StartMessage(1, 0)
	w.PutInt32(-7)
	w.PutUint32(42)
	w.PutFixed(FixedFromInt(3))
	w.PutString("hello")
	w.PutArray([]byte{9, 8, 7})
	if err := w.EndMessage(); err != nil {
		t.Fatalf("EndMessage: %v", err)
	}

	hdr, err := PeekHeader(w.buf)
	if err != nil {
		t.Fatalf("PeekHeader: %v", err)
	}
	d := NewDecoder(w.buf[HeaderSize:hdr.Size])
	if v, err := d.Int32(); err != nil || v != -7 {
		t.Errorf("Int32 = %d, %v, want -7", v, err)
	}
	if v, err := d.Uint32(); err != nil || v != 42 {
		t.Errorf("Uint32 = %d, %v, want 42", v, err)
	}
	if v, err := d.Fixed(); err != nil || v.Int() != 3 {
		t.Errorf("Fixed = %v, %v, want 3", v, err)
	}
	if s, err := d.String(); err != nil || s != "hello" {
		t.Errorf("String = %q, %v, want hello", s, err)
	}
	if a, err := d.Array(); err != nil || string(a) != "\x09\x08\x07" {
		t.Errorf("Array = %v, %v, want [9 8 7]", a, err)
	}
	if d.Remaining() != 0 {
		t.Errorf("Remaining() = %d, want 0", d.Remaining())
	}
}

// NewWriterForTest builds a Writer with no backing fd, suitable for exercising
// the encode-only path without a real socket.
func NewWriterForTest() *Writer {
	return &Writer{fd: -1, buf: make([]byte, 0, MaxMessageSize), msgAt: -1}
}
