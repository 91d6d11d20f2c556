package provider

import (
	"context"
)

// Provider is the DNS backend being reconciled against. Records are scoped to
// one (zone, domain, type) triple per list call; deletions are keyed by the
// provider-assigned record ID.
type Provider interface {
	ListRecords(ctx context.Context, zoneID, domain, recordType string) ([]Record, error)
	CreateRecord(ctx context.Context, zoneID string, record Record) error
	DeleteRecord(ctx context.Context, zoneID string, record Record) error
}

type Record struct {
	ID      string
	Name    string
	Type    string
	Content string
	TTL     int
}
