package reactor

// ByteBuffer is a growable, binary-safe byte container (spec §3): may
// hold NUL bytes, supports append, size, clear, and copying its contents
// out as a string.
type ByteBuffer struct {
	data []byte
}

// NewByteBuffer creates an empty buffer, optionally pre-sized.
func NewByteBuffer(capacityHint int) *ByteBuffer {
	return &ByteBuffer{data: make([]byte, 0, capacityHint)}
}

// Append copies p onto the end of the buffer.
func (b *ByteBuffer) Append(p []byte) {
	b.data = append(b.data, p...)
}

// Size returns the number of bytes currently held.
func (b *ByteBuffer) Size() int {
	return len(b.data)
}

// Clear empties the buffer without releasing its backing array.
func (b *ByteBuffer) Clear() {
	b.data = b.data[:0]
}

// Bytes returns the buffer's contents. The returned slice aliases the
// buffer's backing array and is only valid until the next Append/Clear.
func (b *ByteBuffer) Bytes() []byte {
	return b.data
}

// String copies the buffer's contents out as a string.
func (b *ByteBuffer) String() string {
	return string(b.data)
}
