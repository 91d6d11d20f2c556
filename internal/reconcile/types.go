package reconcile

import (
	"github.com/cfargo/tunnel-dns-sync/internal/provider"
)

// Target is one reconciliation unit: the records of a single
// (zone, domain, record type) triple against the desired IP set. Targets are
// rebuilt every cycle and never outlive it.
type Target struct {
	Tunnel  string
	ZoneID  string
	Domain  string
	Type    string
	Desired []string
}

// Diff splits a target's drift into records to create and records to delete.
// An IP is either missing (create) or a record is stale (delete), never both.
type Diff struct {
	Create []string
	Delete []provider.Record
}

func (d Diff) IsEmpty() bool {
	return len(d.Create) == 0 && len(d.Delete) == 0
}

type Results struct {
	Created        []provider.Record
	Deleted        []provider.Record
	SkippedTargets []Target
	FailedTunnels  []string
	Failures       []OperationResult
}

type OperationResult struct {
	Target Target
	Record provider.Record
	Op     string
	Error  string
}
