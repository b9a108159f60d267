package reactor

import "testing"

func TestNewConnectionStartsOpen(t *testing.T) {
	local, _ := NewEndpoint(FamilyIPv4, "127.0.0.1", 18080)
	remote, _ := NewEndpoint(FamilyIPv4, "127.0.0.1", 54321)
	conn := newConnection(9, local, remote)

	if !conn.Open() {
		t.Error("a freshly accepted connection should be Open")
	}
	if conn.Fd() != 9 {
		t.Errorf("Fd() = %d, want 9", conn.Fd())
	}
	if conn.LocalEndpoint() != local {
		t.Errorf("LocalEndpoint() = %+v, want %+v", conn.LocalEndpoint(), local)
	}
	if conn.RemoteEndpoint() != remote {
		t.Errorf("RemoteEndpoint() = %+v, want %+v", conn.RemoteEndpoint(), remote)
	}
}

func TestConnStateEnqueueDropsEmptyChunks(t *testing.T) {
	local, _ := NewEndpoint(FamilyIPv4, "127.0.0.1", 18080)
	remote, _ := NewEndpoint(FamilyIPv4, "127.0.0.1", 54321)
	st := newConnState(newConnection(9, local, remote))

	st.enqueue(nil)
	st.enqueue([]byte{})
	if st.hasPendingWrites() {
		t.Error("enqueuing only empty chunks should leave the output queue empty")
	}

	st.enqueue([]byte("hello"))
	if !st.hasPendingWrites() {
		t.Error("enqueuing a non-empty chunk should leave the output queue non-empty")
	}
}
