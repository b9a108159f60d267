package sockaddr

import "testing"

func TestRoundTripIPv4(t *testing.T) {
	sa, err := ToKernel(FamilyIPv4, "127.0.0.1", 18080)
	if err != nil {
		t.Fatalf("ToKernel: %v", err)
	}
	family, address, port, err := FromKernel(sa)
	if err != nil {
		t.Fatalf("FromKernel: %v", err)
	}
	if family != FamilyIPv4 {
		t.Errorf("family = %v, want ipv4", family)
	}
	if address != "127.0.0.1" {
		t.Errorf("address = %q, want 127.0.0.1", address)
	}
	if port != 18080 {
		t.Errorf("port = %d, want 18080", port)
	}
}

func TestRoundTripIPv6(t *testing.T) {
	sa, err := ToKernel(FamilyIPv6, "::1", 443)
	if err != nil {
		t.Fatalf("ToKernel: %v", err)
	}
	family, address, port, err := FromKernel(sa)
	if err != nil {
		t.Fatalf("FromKernel: %v", err)
	}
	if family != FamilyIPv6 {
		t.Errorf("family = %v, want ipv6", family)
	}
	if address != "::1" {
		t.Errorf("address = %q, want ::1", address)
	}
	if port != 443 {
		t.Errorf("port = %d, want 443", port)
	}
}

func TestToKernelInvalidAddress(t *testing.T) {
	if _, err := ToKernel(FamilyIPv4, "not-an-ip", 80); err != ErrInvalidAddress {
		t.Errorf("expected ErrInvalidAddress, got %v", err)
	}
}

func TestDomain(t *testing.T) {
	if Domain(FamilyIPv4) == Domain(FamilyIPv6) {
		t.Error("expected distinct AF_* constants for ipv4 and ipv6")
	}
}
