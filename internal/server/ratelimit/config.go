package ratelimit

import (
	"strconv"
	"strings"
	"time"
)

// EndpointConfig is the limit applied to one method and path.
type EndpointConfig struct {
	Path   string // exact path, or a prefix when it ends with "/"
	Method string
	Limit  int // requests per window; 0 means unlimited
	Window time.Duration
	Burst  int // bucket capacity, Limit when 0
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled       bool
	DefaultLimit  int
	DefaultWindow time.Duration
	// MaxBuckets bounds the tracked client buckets; the least recently
	// used is evicted first
	MaxBuckets      int
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// DefaultMaxBuckets is used when Config.MaxBuckets is not set
const DefaultMaxBuckets = 10000

// LoadConfig reads rate limiting configuration through getenv.
func LoadConfig(getenv func(string) string) *Config {
	env := envReader(getenv)
	if !env.bool("RATE_LIMIT_ENABLED", true) {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    env.int("RATE_LIMIT_DEFAULT_LIMIT", 600),
		DefaultWindow:   env.duration("RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
		MaxBuckets:      env.int("RATE_LIMIT_MAX_BUCKETS", DefaultMaxBuckets),
		Whitelist:       parseIPList(getenv("RATE_LIMIT_WHITELIST")),
		Blacklist:       parseIPList(getenv("RATE_LIMIT_BLACKLIST")),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the endpoint-specific limits. Starting an
// analysis costs six model calls and is limited hardest.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		{Path: "/analyses", Method: "POST", Limit: 20, Window: time.Hour, Burst: 3},
		{Path: "/analyses/stream", Method: "POST", Limit: 20, Window: time.Hour, Burst: 3},
		{Path: "/analyses/", Method: "DELETE", Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/health", Method: "GET", Limit: 0},
	}
}

// MatchEndpoint returns the config for method and path, preferring an exact
// path over the longest matching prefix. It returns nil when nothing matches.
func MatchEndpoint(path, method string, configs []EndpointConfig) *EndpointConfig {
	var best *EndpointConfig
	for i := range configs {
		c := &configs[i]
		if c.Method != method {
			continue
		}
		if c.Path == path {
			return c
		}
		if strings.HasSuffix(c.Path, "/") && strings.HasPrefix(path, c.Path) {
			if best == nil || len(c.Path) > len(best.Path) {
				best = c
			}
		}
	}
	return best
}

type envReader func(string) string

func (e envReader) int(key string, def int) int {
	if v, err := strconv.Atoi(e(key)); err == nil {
		return v
	}
	return def
}

func (e envReader) bool(key string, def bool) bool {
	if v, err := strconv.ParseBool(e(key)); err == nil {
		return v
	}
	return def
}

func (e envReader) duration(key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(e(key)); err == nil {
		return v
	}
	return def
}

// parseIPList parses a comma-separated list of addresses into a set
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
