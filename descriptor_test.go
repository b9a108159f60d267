package reactor

import "testing"

func TestInvalidDescriptor(t *testing.T) {
	d := InvalidDescriptor()
	if d.Valid() {
		t.Error("InvalidDescriptor() should not be Valid")
	}
}

func TestDescriptorTakeInvalidatesSource(t *testing.T) {
	d := NewDescriptor(7)
	moved := d.Take()

	if d.Valid() {
		t.Error("source Descriptor should be invalid after Take")
	}
	if !moved.Valid() || moved.Fd() != 7 {
		t.Errorf("moved Descriptor = %+v, want valid fd=7", moved)
	}
}

func TestDescriptorEqualAndLess(t *testing.T) {
	a := NewDescriptor(3)
	b := NewDescriptor(3)
	c := NewDescriptor(4)

	if !a.Equal(b) {
		t.Error("descriptors with the same fd should be Equal")
	}
	if a.Equal(c) {
		t.Error("descriptors with different fds should not be Equal")
	}
	if !a.Less(c) || c.Less(a) {
		t.Error("Less should order by the underlying fd")
	}
}
