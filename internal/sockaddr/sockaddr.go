// Package sockaddr materializes the kernel address structures
// (sockaddr_in / sockaddr_in6) the reactor needs for bind/connect/accept,
// and converts the notifications the kernel returns back into plain
// Go values. Layout mirrors struct sockaddr_in / sockaddr_in6 exactly;
// byte order on the wire is always network (big-endian) order.
package sockaddr

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// Family identifies the address family of an Endpoint.
type Family int

const (
	// FamilyIPv4 selects AF_INET / sockaddr_in.
	FamilyIPv4 Family = iota
	// FamilyIPv6 selects AF_INET6 / sockaddr_in6.
	FamilyIPv6
)

func (f Family) String() string {
	switch f {
	case FamilyIPv4:
		return "ipv4"
	case FamilyIPv6:
		return "ipv6"
	default:
		return "unknown"
	}
}

// ErrInvalidAddress is returned when the textual address cannot be parsed
// into a binary representation for the requested family.
var ErrInvalidAddress = fmt.Errorf("sockaddr: invalid address literal")

// ToKernel materializes the kernel sockaddr for (family, address, port).
// It returns a *unix.SockaddrInet4 or *unix.SockaddrInet6 depending on
// family; x/sys/unix turns that into a sockaddr_in or sockaddr_in6 of the
// matching length when it is passed to bind(2)/connect(2).
func ToKernel(family Family, address string, port int) (unix.Sockaddr, error) {
	switch family {
	case FamilyIPv4:
		ip := net.ParseIP(address)
		if ip == nil {
			if address == "" {
				ip = net.IPv4zero
			} else {
				return nil, ErrInvalidAddress
			}
		}
		ip4 := ip.To4()
		if ip4 == nil {
			return nil, ErrInvalidAddress
		}
		sa := &unix.SockaddrInet4{Port: port}
		copy(sa.Addr[:], ip4)
		return sa, nil
	case FamilyIPv6:
		ip := net.ParseIP(address)
		if ip == nil {
			if address == "" {
				ip = net.IPv6zero
			} else {
				return nil, ErrInvalidAddress
			}
		}
		ip16 := ip.To16()
		if ip16 == nil {
			return nil, ErrInvalidAddress
		}
		sa := &unix.SockaddrInet6{Port: port}
		copy(sa.Addr[:], ip16)
		return sa, nil
	default:
		return nil, fmt.Errorf("sockaddr: unknown family %v", family)
	}
}

// FromKernel decodes a unix.Sockaddr returned by getsockname/getpeername/
// accept back into (family, address, port).
func FromKernel(sa unix.Sockaddr) (family Family, address string, port int, err error) {
	switch v := sa.(type) {
	case *unix.SockaddrInet4:
		return FamilyIPv4, net.IP(v.Addr[:]).String(), v.Port, nil
	case *unix.SockaddrInet6:
		return FamilyIPv6, net.IP(v.Addr[:]).String(), v.Port, nil
	default:
		return 0, "", 0, fmt.Errorf("sockaddr: unsupported kernel address type %T", sa)
	}
}

// Domain returns the AF_* constant to pass to socket(2) for a family.
func Domain(family Family) int {
	if family == FamilyIPv6 {
		return unix.AF_INET6
	}
	return unix.AF_INET
}

