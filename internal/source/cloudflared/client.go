package cloudflared

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cloudflare/cloudflare-go"

	"github.com/cfargo/tunnel-dns-sync/internal/metrics"
	"github.com/cfargo/tunnel-dns-sync/internal/source"
)

// Client collects active origin IPs from a tunnel's live connections via the
// Cloudflare API.
type Client struct {
	api     *cloudflare.API
	metrics *metrics.Metrics
}

func New(token string, metrics *metrics.Metrics) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("cloudflare API token required")
	}

	api, err := cloudflare.NewWithAPIToken(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Cloudflare client: %w", err)
	}
	return &Client{api: api, metrics: metrics}, nil
}

func (c *Client) ActiveIPs(ctx context.Context, accountID, tunnelID string) (source.IPSet, error) {
	slog.Debug("Listing tunnel connections", "tunnel", tunnelID)
	start := time.Now()

	conns, err := c.api.ListTunnelConnections(ctx, cloudflare.AccountIdentifier(accountID), tunnelID)
	if err != nil {
		c.metrics.IncTunnelRequest(false)
		return source.IPSet{}, fmt.Errorf("failed to list tunnel connections: %w", err)
	}

	ips := collectOriginIPs(conns)
	c.metrics.IncTunnelRequest(true)
	slog.Debug("Collected active origin IPs", "tunnel", tunnelID, "count", ips.Len(), "duration", time.Since(start))
	return ips, nil
}

// collectOriginIPs flattens every client's connections into one deduplicated
// IP set. Connections without an origin IP are skipped, not errors.
func collectOriginIPs(conns []cloudflare.Connection) source.IPSet {
	ips := source.NewIPSet()
	for _, client := range conns {
		for _, conn := range client.Connections {
			if conn.OriginIP == "" {
				continue
			}
			ips.Add(conn.OriginIP)
		}
	}
	return ips
}
