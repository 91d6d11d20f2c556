package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultSyncInterval = time.Hour
	defaultCycleTimeout = 10 * time.Minute
	defaultTTL          = 60
	defaultLogLevel     = "info"
	defaultLogEnv       = "prod"
)

type Config struct {
	SyncInterval time.Duration `yaml:"syncInterval"`
	CycleTimeout time.Duration `yaml:"cycleTimeout"`
	Log          Log           `yaml:"log"`
	Cloudflare   Cloudflare    `yaml:"cloudflare"`
	Reconcile    Reconcile     `yaml:"reconcile"`
	Tunnels      []Tunnel      `yaml:"tunnels"`
}

type Cloudflare struct {
	AccountID string `yaml:"accountId"`
	Token     string `yaml:"token"`
	TTL       int    `yaml:"ttl"`
}

type Log struct {
	Level string `yaml:"level"`
	Env   string `yaml:"env"`
}

type Reconcile struct {
	DryRun bool `yaml:"dryRun"`
}

// Tunnel declares which DNS records one tunnel's connection IPs feed. Records
// are only ever managed for the record types a domain explicitly lists.
type Tunnel struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Zones []Zone `yaml:"zones"`
}

type Zone struct {
	ID      string   `yaml:"id"`
	Domains []Domain `yaml:"domains"`
}

type Domain struct {
	Name  string   `yaml:"name"`
	Types []string `yaml:"types"`
}

func Load(path string) (*Config, error) {
	configFile := true
	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Default().Warn("fail find config file, proceeding", "path", path)
		configFile = false
	}

	var cfg Config
	if configFile {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, err
		}
		if err := f.Close(); err != nil {
			slog.Default().Warn("fail close config file", "path", path, "error", err)
		}
	}

	if cfg.SyncInterval == 0 {
		cfg.SyncInterval = defaultSyncInterval
	}
	if cfg.CycleTimeout == 0 {
		cfg.CycleTimeout = defaultCycleTimeout
	}
	if cfg.Cloudflare.TTL == 0 {
		cfg.Cloudflare.TTL = defaultTTL
	}

	// Set log defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultLogLevel
	}
	if cfg.Log.Env == "" {
		cfg.Log.Env = defaultLogEnv
	}

	// Override from environment if set
	if token := os.Getenv("TUNNEL_DNS_SYNC_CLOUDFLARE_TOKEN"); token != "" {
		cfg.Cloudflare.Token = token
	}
	if account := os.Getenv("TUNNEL_DNS_SYNC_CLOUDFLARE_ACCOUNT"); account != "" {
		cfg.Cloudflare.AccountID = account
	}
	if syncInterval := os.Getenv("TUNNEL_DNS_SYNC_INTERVAL"); syncInterval != "" {
		if interval, err := time.ParseDuration(syncInterval); err == nil {
			cfg.SyncInterval = interval
		} else {
			slog.Default().Warn("fail parse sync interval to duration from string", "interval", syncInterval, "error", err)
		}
	}
	if cycleTimeout := os.Getenv("TUNNEL_DNS_SYNC_CYCLE_TIMEOUT"); cycleTimeout != "" {
		if timeout, err := time.ParseDuration(cycleTimeout); err == nil {
			cfg.CycleTimeout = timeout
		} else {
			slog.Default().Warn("fail parse cycle timeout to duration from string", "timeout", cycleTimeout, "error", err)
		}
	}
	if dnsTtl := os.Getenv("TUNNEL_DNS_SYNC_TTL"); dnsTtl != "" {
		if ttl, err := strconv.Atoi(dnsTtl); err == nil {
			cfg.Cloudflare.TTL = ttl
		} else {
			slog.Default().Warn("fail parse ttl to int from string", "ttl", dnsTtl, "error", err)
		}
	}
	if dryRun := os.Getenv("TUNNEL_DNS_SYNC_DRYRUN"); dryRun != "" {
		switch strings.ToLower(dryRun) {
		case "true":
			cfg.Reconcile.DryRun = true
		case "false":
			cfg.Reconcile.DryRun = false
		default:
			slog.Default().Warn("fail parse dryrun to bool from string", "dryrun", dryRun)
		}
	}
	if loglevel := os.Getenv("TUNNEL_DNS_SYNC_LOG_LEVEL"); loglevel != "" {
		cfg.Log.Level = loglevel
	}
	if logenv := os.Getenv("TUNNEL_DNS_SYNC_LOG_ENV"); logenv != "" {
		cfg.Log.Env = logenv
	}
	return &cfg, nil
}

// Validate rejects configuration the sync cycle cannot safely run against.
// A validation failure is fatal to the whole cycle, no tunnels are processed.
func (c *Config) Validate() error {
	if c.Cloudflare.Token == "" {
		return fmt.Errorf("cloudflare API token required")
	}
	if c.Cloudflare.AccountID == "" {
		return fmt.Errorf("cloudflare account ID required")
	}
	if len(c.Tunnels) == 0 {
		return fmt.Errorf("at least one tunnel required")
	}
	for i, t := range c.Tunnels {
		if t.ID == "" {
			return fmt.Errorf("tunnel[%d]: tunnel ID required", i)
		}
		for _, z := range t.Zones {
			if z.ID == "" {
				return fmt.Errorf("tunnel %s: zone ID required", t.ID)
			}
			for _, d := range z.Domains {
				if d.Name == "" {
					return fmt.Errorf("tunnel %s zone %s: domain name required", t.ID, z.ID)
				}
				if len(d.Types) == 0 {
					return fmt.Errorf("tunnel %s domain %s: at least one record type required", t.ID, d.Name)
				}
				for _, rt := range d.Types {
					if rt != "A" && rt != "AAAA" {
						return fmt.Errorf("tunnel %s domain %s: unsupported record type %q, must be A or AAAA", t.ID, d.Name, rt)
					}
				}
			}
		}
	}
	return nil
}

// DisplayName returns the friendly name for logs, falling back to the ID.
func (t Tunnel) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return t.ID
}
