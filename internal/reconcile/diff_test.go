package reconcile

import (
	"reflect"
	"testing"

	"github.com/cfargo/tunnel-dns-sync/internal/provider"
)

func TestComputeDiff(t *testing.T) {
	tests := []struct {
		name         string
		current      []provider.Record
		desired      []string
		expectCreate []string
		expectDelete []string // record IDs
	}{
		{
			name:         "both empty",
			current:      nil,
			desired:      nil,
			expectCreate: nil,
			expectDelete: nil,
		},
		{
			name: "in sync",
			current: []provider.Record{
				{ID: "x1", Type: "A", Content: "1.2.3.4"},
			},
			desired:      []string{"1.2.3.4"},
			expectCreate: nil,
			expectDelete: nil,
		},
		{
			name: "missing record created, existing kept",
			current: []provider.Record{
				{ID: "x1", Type: "A", Content: "1.2.3.4"},
			},
			desired:      []string{"1.2.3.4", "5.6.7.8"},
			expectCreate: []string{"5.6.7.8"},
			expectDelete: nil,
		},
		{
			name: "stale record deleted",
			current: []provider.Record{
				{ID: "x1", Type: "A", Content: "1.2.3.4"},
				{ID: "x2", Type: "A", Content: "9.9.9.9"},
			},
			desired:      []string{"1.2.3.4"},
			expectCreate: nil,
			expectDelete: []string{"x2"},
		},
		{
			name: "rotation creates and deletes disjoint sets",
			current: []provider.Record{
				{ID: "x1", Type: "A", Content: "1.2.3.4"},
			},
			desired:      []string{"5.6.7.8"},
			expectCreate: []string{"5.6.7.8"},
			expectDelete: []string{"x1"},
		},
		{
			name: "empty desired deletes everything",
			current: []provider.Record{
				{ID: "x1", Type: "A", Content: "1.2.3.4"},
				{ID: "x2", Type: "A", Content: "5.6.7.8"},
			},
			desired:      nil,
			expectCreate: nil,
			expectDelete: []string{"x1", "x2"},
		},
		{
			name:         "duplicate desired IPs collapse",
			current:      nil,
			desired:      []string{"1.2.3.4", "1.2.3.4", "1.2.3.4"},
			expectCreate: []string{"1.2.3.4"},
			expectDelete: nil,
		},
		{
			name: "ipv6 textual variants compare equal",
			current: []provider.Record{
				{ID: "x1", Type: "AAAA", Content: "2001:db8:0:0:0:0:0:1"},
			},
			desired:      []string{"2001:db8::1"},
			expectCreate: nil,
			expectDelete: nil,
		},
		{
			name: "unparseable content compares by literal value",
			current: []provider.Record{
				{ID: "x1", Type: "A", Content: "not-an-ip"},
			},
			desired:      []string{"1.2.3.4"},
			expectCreate: []string{"1.2.3.4"},
			expectDelete: []string{"x1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diff := ComputeDiff(tt.current, tt.desired)

			if !reflect.DeepEqual(diff.Create, tt.expectCreate) {
				t.Errorf("Create = %v, want %v", diff.Create, tt.expectCreate)
			}

			var deleteIDs []string
			for _, r := range diff.Delete {
				deleteIDs = append(deleteIDs, r.ID)
			}
			if !reflect.DeepEqual(deleteIDs, tt.expectDelete) {
				t.Errorf("Delete = %v, want %v", deleteIDs, tt.expectDelete)
			}

			// An IP either needs creating or its record deleting, never both
			deleted := make(map[string]bool)
			for _, r := range diff.Delete {
				deleted[r.Content] = true
			}
			for _, ip := range diff.Create {
				if deleted[ip] {
					t.Errorf("IP %s present in both Create and Delete", ip)
				}
			}
		})
	}
}

func TestComputeDiffPure(t *testing.T) {
	current := []provider.Record{
		{ID: "x1", Type: "A", Content: "1.2.3.4"},
	}
	desired := []string{"5.6.7.8"}

	first := ComputeDiff(current, desired)
	second := ComputeDiff(current, desired)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("diff not deterministic: %v != %v", first, second)
	}

	if current[0].Content != "1.2.3.4" || desired[0] != "5.6.7.8" {
		t.Error("inputs mutated by ComputeDiff")
	}
}
