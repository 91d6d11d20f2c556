package reconcile

import (
	"net/netip"
	"sort"

	"github.com/cfargo/tunnel-dns-sync/internal/provider"
)

// ComputeDiff compares one target's current records against the desired IP
// set by record content. Desired IPs are treated as a set, duplicates
// collapse. No side effects.
//
// An empty desired set is not a no-op: it deletes every current record. The
// published records always equal the live connection set, so a tunnel with no
// active connections of a family has all matching records removed.
func ComputeDiff(current []provider.Record, desired []string) Diff {
	var diff Diff

	existing := make(map[string]struct{}, len(current))
	for _, r := range current {
		existing[normalizeIP(r.Content)] = struct{}{}
	}

	want := make(map[string]struct{}, len(desired))
	for _, ip := range desired {
		want[normalizeIP(ip)] = struct{}{}
	}

	for ip := range want {
		if _, ok := existing[ip]; !ok {
			diff.Create = append(diff.Create, ip)
		}
	}
	sort.Strings(diff.Create)

	for _, r := range current {
		if _, ok := want[normalizeIP(r.Content)]; !ok {
			diff.Delete = append(diff.Delete, r)
		}
	}
	return diff
}

// normalizeIP collapses textual variants of the same address, notably IPv6
// zero compression and 4-in-6 mapped forms. Unparseable content passes
// through untouched so a garbage record still compares (and deletes) by its
// literal value.
func normalizeIP(s string) string {
	a, err := netip.ParseAddr(s)
	if err != nil {
		return s
	}
	return a.Unmap().String()
}
