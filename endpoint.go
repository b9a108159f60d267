package reactor

import "github.com/behrlich/go-reactor/internal/sockaddr"

// Family is the address family of an Endpoint.
type Family int

const (
	FamilyIPv4 Family = iota
	FamilyIPv6
)

// Endpoint is an immutable (family, address, port) triple (spec §3).
// Address is a textual literal; this type does not validate it is a
// well-formed IP literal, only that port falls in range. Materializing
// the kernel address structure (ToKernel) is where an unparsable address
// surfaces as an error.
type Endpoint struct {
	family  Family
	address string
	port    int
}

// NewEndpoint validates port and constructs an Endpoint. Port 0 and port
// 65536 are rejected with InvalidPort; 1 and 65535 are accepted.
func NewEndpoint(family Family, address string, port int) (Endpoint, error) {
	if port < 1 || port > 65535 {
		return Endpoint{}, NewError("NewEndpoint", KindInvalidPort, "port must be in [1, 65535]")
	}
	return Endpoint{family: family, address: address, port: port}, nil
}

func (e Endpoint) Family() Family  { return e.family }
func (e Endpoint) Address() string { return e.address }
func (e Endpoint) Port() int       { return e.port }

// ToKernel materializes the kernel sockaddr structure for this endpoint.
func (e Endpoint) ToKernel() (any, error) {
	fam := sockaddr.FamilyIPv4
	if e.family == FamilyIPv6 {
		fam = sockaddr.FamilyIPv6
	}
	return sockaddr.ToKernel(fam, e.address, e.port)
}

// endpointFromKernel decodes a kernel sockaddr back into an Endpoint,
// used after accept() to record a connection's remote endpoint (spec
// §3's round-trip law, tested in internal/sockaddr).
func endpointFromKernel(family sockaddr.Family, address string, port int) Endpoint {
	f := FamilyIPv4
	if family == sockaddr.FamilyIPv6 {
		f = FamilyIPv6
	}
	return Endpoint{family: f, address: address, port: port}
}
