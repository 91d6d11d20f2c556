package source

import (
	"testing"
)

func TestIPSetFamilyPartition(t *testing.T) {
	tests := []struct {
		name   string
		addr   string
		family string // "A", "AAAA" or "" for dropped
	}{
		{name: "ipv4", addr: "1.2.3.4", family: "A"},
		{name: "ipv6", addr: "2001:db8::1", family: "AAAA"},
		{name: "ipv4 mapped ipv6 routes to ipv4", addr: "::ffff:1.2.3.4", family: "A"},
		{name: "loopback v6", addr: "::1", family: "AAAA"},
		{name: "malformed dropped", addr: "not-an-ip", family: ""},
		{name: "empty dropped", addr: "", family: ""},
		{name: "hostname dropped", addr: "origin.example.com", family: ""},
		{name: "ipv4 with port dropped", addr: "1.2.3.4:443", family: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewIPSet()
			s.Add(tt.addr)

			a := len(s.ForType("A"))
			aaaa := len(s.ForType("AAAA"))

			// Exactly one of {IPv4, IPv6, discarded}, never both
			switch tt.family {
			case "A":
				if a != 1 || aaaa != 0 {
					t.Errorf("Add(%q): A=%d AAAA=%d, want A only", tt.addr, a, aaaa)
				}
			case "AAAA":
				if a != 0 || aaaa != 1 {
					t.Errorf("Add(%q): A=%d AAAA=%d, want AAAA only", tt.addr, a, aaaa)
				}
			default:
				if a != 0 || aaaa != 0 {
					t.Errorf("Add(%q): A=%d AAAA=%d, want discarded", tt.addr, a, aaaa)
				}
			}
		})
	}
}

func TestIPSetDedup(t *testing.T) {
	s := NewIPSet()
	s.Add("1.2.3.4")
	s.Add("1.2.3.4")
	s.Add("2001:db8::1")
	s.Add("2001:db8:0:0:0:0:0:1") // textual variant of the same address

	if got := len(s.ForType("A")); got != 1 {
		t.Errorf("A count = %d, want 1", got)
	}
	if got := len(s.ForType("AAAA")); got != 1 {
		t.Errorf("AAAA count = %d, want 1", got)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestIPSetForTypeUnknown(t *testing.T) {
	s := NewIPSet()
	s.Add("1.2.3.4")
	if got := s.ForType("CNAME"); got != nil {
		t.Errorf("ForType(CNAME) = %v, want nil", got)
	}
}
