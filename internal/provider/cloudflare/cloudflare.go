package cloudflare

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cloudflare/cloudflare-go"

	"github.com/cfargo/tunnel-dns-sync/internal/config"
	"github.com/cfargo/tunnel-dns-sync/internal/metrics"
	"github.com/cfargo/tunnel-dns-sync/internal/provider"
)

type CloudflareProvider struct {
	client  *cloudflare.API
	metrics *metrics.Metrics
	ttl     int
}

func New(cfg config.Cloudflare, metrics *metrics.Metrics) (*CloudflareProvider, error) {
	token := cfg.Token
	if token == "" {
		return nil, fmt.Errorf("cloudflare API token required")
	}

	client, err := cloudflare.NewWithAPIToken(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Cloudflare client: %w", err)
	}

	return &CloudflareProvider{
		client:  client,
		metrics: metrics,
		ttl:     cfg.TTL,
	}, nil
}

func (p *CloudflareProvider) ListRecords(ctx context.Context, zoneID, domain, recordType string) ([]provider.Record, error) {
	slog.Debug("Listing DNS records", "zone", zoneID, "domain", domain, "type", recordType)
	start := time.Now()

	// Get all matching records for the domain with pagination
	var allRecords []cloudflare.DNSRecord
	page := 1
	for {
		rc := cloudflare.ZoneIdentifier(zoneID)
		params := cloudflare.ListDNSRecordsParams{
			Type: recordType,
			Name: domain,
			ResultInfo: cloudflare.ResultInfo{
				Page:    page,
				PerPage: 100,
			},
		}

		records, resultInfo, err := p.client.ListDNSRecords(ctx, rc, params)
		if err != nil {
			p.metrics.IncDNSRequest("read", zoneID, recordType, false)
			return nil, fmt.Errorf("failed to list DNS records: %w", err)
		}

		allRecords = append(allRecords, records...)
		if page >= resultInfo.TotalPages {
			break
		}
		page++
	}

	// Convert to provider records
	var result []provider.Record
	for _, r := range allRecords {
		result = append(result, provider.Record{
			ID:      r.ID,
			Name:    r.Name,
			Type:    r.Type,
			Content: r.Content,
			TTL:     r.TTL,
		})
	}

	p.metrics.IncDNSRequest("read", zoneID, recordType, true)
	slog.Debug("Retrieved DNS records", "zone", zoneID, "domain", domain, "type", recordType, "count", len(result), "duration", time.Since(start))
	return result, nil
}

func (p *CloudflareProvider) CreateRecord(ctx context.Context, zoneID string, record provider.Record) error {
	slog.Info("Creating DNS record", "zone", zoneID, "name", record.Name, "type", record.Type, "content", record.Content)
	start := time.Now()

	ttl := record.TTL
	if ttl == 0 {
		ttl = p.ttl
	}

	// Managed records are never proxied, they must resolve to the origin IP.
	params := cloudflare.CreateDNSRecordParams{
		Type:    record.Type,
		Name:    record.Name,
		Content: record.Content,
		TTL:     ttl,
		Proxied: cloudflare.BoolPtr(false),
	}

	_, err := p.client.CreateDNSRecord(ctx, cloudflare.ZoneIdentifier(zoneID), params)
	if err != nil {
		p.metrics.IncDNSRequest("create", zoneID, record.Type, false)
		return fmt.Errorf("failed to create DNS record: %w", err)
	}

	p.metrics.IncDNSRequest("create", zoneID, record.Type, true)
	slog.Debug("Created DNS record", "zone", zoneID, "name", record.Name, "type", record.Type, "duration", time.Since(start))
	return nil
}

func (p *CloudflareProvider) DeleteRecord(ctx context.Context, zoneID string, record provider.Record) error {
	slog.Info("Deleting DNS record", "zone", zoneID, "name", record.Name, "type", record.Type, "record_id", record.ID)
	start := time.Now()

	err := p.client.DeleteDNSRecord(ctx, cloudflare.ZoneIdentifier(zoneID), record.ID)
	if err != nil {
		p.metrics.IncDNSRequest("delete", zoneID, record.Type, false)
		return fmt.Errorf("failed to delete DNS record: %w", err)
	}

	p.metrics.IncDNSRequest("delete", zoneID, record.Type, true)
	slog.Debug("Deleted DNS record", "zone", zoneID, "name", record.Name, "type", record.Type, "duration", time.Since(start))
	return nil
}
