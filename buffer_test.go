package reactor

import "testing"

func TestByteBufferAppendAndSize(t *testing.T) {
	b := NewByteBuffer(0)
	b.Append([]byte("ping"))
	b.Append([]byte("\n"))

	if b.Size() != 5 {
		t.Errorf("Size() = %d, want 5", b.Size())
	}
	if b.String() != "ping\n" {
		t.Errorf("String() = %q, want %q", b.String(), "ping\n")
	}
}

func TestByteBufferBinarySafe(t *testing.T) {
	b := NewByteBuffer(0)
	b.Append([]byte{0x00, 'a', 0x00, 'b'})

	if b.Size() != 4 {
		t.Errorf("Size() = %d, want 4", b.Size())
	}
	if b.Bytes()[0] != 0x00 || b.Bytes()[2] != 0x00 {
		t.Error("buffer should preserve embedded NUL bytes")
	}
}

func TestByteBufferClear(t *testing.T) {
	b := NewByteBuffer(0)
	b.Append([]byte("hello"))
	b.Clear()

	if b.Size() != 0 {
		t.Errorf("Size() after Clear() = %d, want 0", b.Size())
	}
	b.Append([]byte("world"))
	if b.String() != "world" {
		t.Errorf("String() after Clear()+Append = %q, want %q", b.String(), "world")
	}
}
