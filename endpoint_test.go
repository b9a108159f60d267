package reactor

import (
	"testing"

	"golang.org/x/sys/unix"

	"github.com/behrlich/go-reactor/internal/sockaddr"
)

func TestNewEndpointPortBoundaries(t *testing.T) {
	cases := []struct {
		port    int
		wantErr bool
	}{
		{0, true},
		{65536, true},
		{1, false},
		{65535, false},
		{18080, false},
	}
	for _, tc := range cases {
		_, err := NewEndpoint(FamilyIPv4, "127.0.0.1", tc.port)
		if (err != nil) != tc.wantErr {
			t.Errorf("NewEndpoint(port=%d) error = %v, wantErr %v", tc.port, err, tc.wantErr)
		}
		if err != nil && !IsKind(err, KindInvalidPort) {
			t.Errorf("NewEndpoint(port=%d) err Kind = %v, want InvalidPort", tc.port, err)
		}
	}
}

func TestEndpointAccessors(t *testing.T) {
	ep, err := NewEndpoint(FamilyIPv6, "::1", 9000)
	if err != nil {
		t.Fatalf("NewEndpoint() error = %v", err)
	}
	if ep.Family() != FamilyIPv6 {
		t.Errorf("Family() = %v, want FamilyIPv6", ep.Family())
	}
	if ep.Address() != "::1" {
		t.Errorf("Address() = %q, want ::1", ep.Address())
	}
	if ep.Port() != 9000 {
		t.Errorf("Port() = %d, want 9000", ep.Port())
	}
}

func TestEndpointToKernelRoundTrip(t *testing.T) {
	ep, err := NewEndpoint(FamilyIPv4, "127.0.0.1", 18080)
	if err != nil {
		t.Fatalf("NewEndpoint() error = %v", err)
	}
	sa, err := ep.ToKernel()
	if err != nil {
		t.Fatalf("ToKernel() error = %v", err)
	}
	if sa == nil {
		t.Fatal("ToKernel() returned nil")
	}
	family, address, port, err := sockaddr.FromKernel(sa.(unix.Sockaddr))
	if err != nil {
		t.Fatalf("FromKernel() error = %v", err)
	}
	if back := endpointFromKernel(family, address, port); back != ep {
		t.Errorf("round trip = %+v, want %+v", back, ep)
	}
}
