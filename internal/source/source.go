package source

import (
	"context"
	"net/netip"
)

// Collector enumerates the origin IPs currently carrying traffic for a
// tunnel. An enumeration failure is returned whole, a partial set is never
// produced silently.
type Collector interface {
	ActiveIPs(ctx context.Context, accountID, tunnelID string) (IPSet, error)
}

// IPSet holds one tunnel's distinct active origin IPs, partitioned by
// address family.
type IPSet struct {
	v4 map[string]struct{}
	v6 map[string]struct{}
}

func NewIPSet() IPSet {
	return IPSet{
		v4: make(map[string]struct{}),
		v6: make(map[string]struct{}),
	}
}

// Add classifies addr and records it in exactly one family partition.
// Malformed addresses are dropped, they never fail a collection. Addresses
// are normalized through netip so textual variants of the same IP collapse.
func (s IPSet) Add(addr string) {
	a, err := netip.ParseAddr(addr)
	if err != nil {
		return
	}
	a = a.Unmap()
	if a.Is4() {
		s.v4[a.String()] = struct{}{}
		return
	}
	s.v6[a.String()] = struct{}{}
}

// ForType returns the partition matching a DNS record type, "A" for IPv4 and
// "AAAA" for IPv6. Unknown types return an empty slice.
func (s IPSet) ForType(recordType string) []string {
	var part map[string]struct{}
	switch recordType {
	case "A":
		part = s.v4
	case "AAAA":
		part = s.v6
	default:
		return nil
	}
	ips := make([]string, 0, len(part))
	for ip := range part {
		ips = append(ips, ip)
	}
	return ips
}

func (s IPSet) Len() int {
	return len(s.v4) + len(s.v6)
}
