package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cfargo/tunnel-dns-sync/internal/config"
	"github.com/cfargo/tunnel-dns-sync/internal/metrics"
	"github.com/cfargo/tunnel-dns-sync/internal/provider"
	"github.com/cfargo/tunnel-dns-sync/internal/source"
)

type Engine interface {
	Sync(ctx context.Context) (Results, error)
}

type engine struct {
	collector source.Collector
	dns       provider.Provider
	dryRun    bool
	metrics   *metrics.Metrics
	cfg       *config.Config
}

func NewEngine(collector source.Collector, dns provider.Provider, cfg *config.Config, metrics *metrics.Metrics) *engine {
	return &engine{
		collector: collector,
		dns:       dns,
		dryRun:    cfg.Reconcile.DryRun,
		metrics:   metrics,
		cfg:       cfg,
	}
}

// Sync runs one full reconciliation cycle across every configured tunnel.
// The engine holds no state between cycles, every cycle re-reads the live
// connection set and the provider's records. A tunnel failure never stops
// the remaining tunnels.
func (e *engine) Sync(ctx context.Context) (Results, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.CycleTimeout)
	defer cancel()

	agg := newAggregator()
	for _, tunnel := range e.cfg.Tunnels {
		if err := e.syncTunnel(ctx, tunnel, agg); err != nil {
			slog.Error("Tunnel sync failed", "tunnel", tunnel.DisplayName(), "error", err)
			agg.tunnelFailed(tunnel.DisplayName())
		}
	}
	return agg.results(), nil
}

func (e *engine) syncTunnel(ctx context.Context, tunnel config.Tunnel, agg *aggregator) error {
	ips, err := e.collector.ActiveIPs(ctx, e.cfg.Cloudflare.AccountID, tunnel.ID)
	if err != nil {
		return fmt.Errorf("collect active IPs: %w", err)
	}

	e.metrics.SetDesiredIPs(tunnel.DisplayName(), "A", len(ips.ForType("A")))
	e.metrics.SetDesiredIPs(tunnel.DisplayName(), "AAAA", len(ips.ForType("AAAA")))

	targets := buildTargets(tunnel, ips)
	slog.Debug("Reconciling targets", "tunnel", tunnel.DisplayName(), "count", len(targets), "active_ips", ips.Len())

	// Targets share nothing, fan out across the tunnel's triples.
	wg := &sync.WaitGroup{}
	for _, target := range targets {
		wg.Add(1)
		go func(target Target) {
			defer wg.Done()
			e.reconcileTarget(ctx, target, agg)
		}(target)
	}
	wg.Wait()
	return nil
}

// buildTargets derives one target per declared (zone, domain, type) triple,
// carrying the IP subset of the matching address family. Record types are an
// explicit allow-list: an undeclared type never produces a target.
func buildTargets(tunnel config.Tunnel, ips source.IPSet) []Target {
	var targets []Target
	for _, zone := range tunnel.Zones {
		for _, domain := range zone.Domains {
			for _, recordType := range domain.Types {
				targets = append(targets, Target{
					Tunnel:  tunnel.DisplayName(),
					ZoneID:  zone.ID,
					Domain:  domain.Name,
					Type:    recordType,
					Desired: ips.ForType(recordType),
				})
			}
		}
	}
	return targets
}

func (e *engine) reconcileTarget(ctx context.Context, target Target, agg *aggregator) {
	current, err := e.dns.ListRecords(ctx, target.ZoneID, target.Domain, target.Type)
	if err != nil {
		slog.Error("Failed to list records, skipping target",
			"tunnel", target.Tunnel, "zone", target.ZoneID, "domain", target.Domain, "type", target.Type, "error", err)
		agg.targetSkipped(target)
		return
	}

	diff := ComputeDiff(current, target.Desired)
	if diff.IsEmpty() {
		slog.Debug("Records in sync",
			"tunnel", target.Tunnel, "zone", target.ZoneID, "domain", target.Domain, "type", target.Type, "records", len(current))
		return
	}

	if e.dryRun {
		slog.Info("Dry run mode - would create records",
			"tunnel", target.Tunnel, "domain", target.Domain, "type", target.Type, "ips", diff.Create)
		slog.Info("Dry run mode - would delete records",
			"tunnel", target.Tunnel, "domain", target.Domain, "type", target.Type, "count", len(diff.Delete))
		return
	}

	// Phase one: create every missing record. A failed create does not stop
	// its siblings, the next cycle recomputes against actual provider state.
	wg := &sync.WaitGroup{}
	for _, ip := range diff.Create {
		wg.Add(1)
		go func(ip string) {
			defer wg.Done()
			record := provider.Record{
				Name:    target.Domain,
				Type:    target.Type,
				Content: ip,
				TTL:     e.cfg.Cloudflare.TTL,
			}
			if err := e.dns.CreateRecord(ctx, target.ZoneID, record); err != nil {
				slog.Error("Failed to create record",
					"tunnel", target.Tunnel, "zone", target.ZoneID, "domain", target.Domain, "type", target.Type, "content", ip, "error", err)
				agg.failure(target, record, "create", err)
				return
			}
			agg.created(record)
		}(ip)
	}

	// Every create must settle before the first delete is issued. During an
	// IP rotation the published set then never drops to zero.
	wg.Wait()

	// Phase two: delete stale records, keyed by provider record ID.
	wg = &sync.WaitGroup{}
	for _, record := range diff.Delete {
		wg.Add(1)
		go func(record provider.Record) {
			defer wg.Done()
			if err := e.dns.DeleteRecord(ctx, target.ZoneID, record); err != nil {
				slog.Error("Failed to delete record",
					"tunnel", target.Tunnel, "zone", target.ZoneID, "domain", target.Domain, "type", target.Type, "record_id", record.ID, "content", record.Content, "error", err)
				agg.failure(target, record, "delete", err)
				return
			}
			agg.deleted(record)
		}(record)
	}
	wg.Wait()
}

// aggregator collects results from concurrently reconciled targets.
type aggregator struct {
	mu  sync.Mutex
	res Results
}

func newAggregator() *aggregator {
	return &aggregator{}
}

func (a *aggregator) created(r provider.Record) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.res.Created = append(a.res.Created, r)
}

func (a *aggregator) deleted(r provider.Record) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.res.Deleted = append(a.res.Deleted, r)
}

func (a *aggregator) targetSkipped(t Target) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.res.SkippedTargets = append(a.res.SkippedTargets, t)
}

func (a *aggregator) tunnelFailed(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.res.FailedTunnels = append(a.res.FailedTunnels, name)
}

func (a *aggregator) failure(t Target, r provider.Record, op string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.res.Failures = append(a.res.Failures, OperationResult{
		Target: t,
		Record: r,
		Op:     op,
		Error:  err.Error(),
	})
}

func (a *aggregator) results() Results {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.res
}
