package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"consistenthasher/internal/keyspace"
	"consistenthasher/internal/ring"
)

// Keys of the settings read from flags, environment (RINGD_*) and config files.
const (
	KeyListenAddr    = "listen-addr"
	KeyMetricsAddr   = "metrics-addr"
	KeyVNodes        = "vnodes"
	KeyHash          = "hash"
	KeyBuckets       = "buckets"
	KeyRemoveTimeout = "remove-timeout"
)

// Config holds the ring daemon configuration.
type Config struct {
	ListenAddr    string
	MetricsAddr   string // empty disables the metrics endpoint
	VNodes        int
	Hash          string
	Buckets       []string // initial buckets
	RemoveTimeout time.Duration
}

// SetDefaults registers the default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyListenAddr, "127.0.0.1:50051")
	v.SetDefault(KeyMetricsAddr, "")
	v.SetDefault(KeyVNodes, ring.DefaultVirtualNodes)
	v.SetDefault(KeyHash, "sha1")
	v.SetDefault(KeyBuckets, "")
	v.SetDefault(KeyRemoveTimeout, 5*time.Second)
}

// Load reads the configuration from v. Environment variables prefixed
// with RINGD_ override other sources.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix("RINGD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	buckets, err := ParseBuckets(v.GetString(KeyBuckets))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ListenAddr:    v.GetString(KeyListenAddr),
		MetricsAddr:   v.GetString(KeyMetricsAddr),
		VNodes:        v.GetInt(KeyVNodes),
		Hash:          v.GetString(KeyHash),
		Buckets:       buckets,
		RemoveTimeout: v.GetDuration(KeyRemoveTimeout),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the daemon can not run with.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address cannot be empty")
	}
	if c.VNodes < 1 {
		return fmt.Errorf("vnodes must be at least 1, got %d", c.VNodes)
	}
	if c.RemoveTimeout <= 0 {
		return fmt.Errorf("remove timeout must be positive, got %s", c.RemoveTimeout)
	}
	if _, err := keyspace.HashByName(c.Hash); err != nil {
		return err
	}
	return nil
}

// HashFunc returns the configured hash function.
func (c *Config) HashFunc() keyspace.HashFunc {
	fn, err := keyspace.HashByName(c.Hash)
	if err != nil {
		// Validate rejects unknown names.
		return keyspace.SHA1
	}
	return fn
}

// ParseBuckets parses a comma-separated list of bucket names:
// "node1,node2,node3". Duplicates are rejected.
func ParseBuckets(bucketsStr string) ([]string, error) {
	if strings.TrimSpace(bucketsStr) == "" {
		return []string{}, nil
	}

	parts := strings.Split(bucketsStr, ",")
	buckets := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))

	for _, part := range parts {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		if strings.ContainsAny(name, " \t=") {
			return nil, fmt.Errorf("invalid bucket name: %q", name)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate bucket name: %s", name)
		}
		seen[name] = true
		buckets = append(buckets, name)
	}

	return buckets, nil
}
