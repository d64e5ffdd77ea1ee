package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// CacheConfig defines settings for the response cache middleware.
// When Enabled is false or no Redis client is configured, caching will be disabled.
// Methods lists the HTTP methods to cache (e.g. GET, HEAD). TTL defines the
// lifetime of cache entries. KeyStrategy determines which parts of the request
// contribute to the cache key. Prefix namespaces the keys so a write can drop
// every cached listing at once, and MaxBodyBytes caps what is stored.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* variables from the process environment.
func LoadCacheConfig() CacheConfig { return CacheConfigFromEnv(os.LookupEnv) }

// CacheConfigFromEnv builds a CacheConfig from lookup. Defaults are used when
// variables are not set. All methods are upper-cased.
func CacheConfigFromEnv(lookup func(string) (string, bool)) CacheConfig {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return def
	}
	return CacheConfig{
		Enabled:      parseBool(get("CACHE_ENABLED", "true"), true),
		Methods:      parseMethods(get("CACHE_METHODS", "GET")),
		TTL:          parseDur(get("CACHE_TTL", "30s")),
		KeyStrategy:  get("CACHE_KEY_STRATEGY", "route_query"),
		Prefix:       get("CACHE_PREFIX", "laptops-cache"),
		MaxBodyBytes: atoi(get("CACHE_MAX_BODY_BYTES", "1048576")),
	}
}

func parseMethods(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			m[p] = true
		}
	}
	return m
}

func atoi(s string) int {
	i, _ := strconv.Atoi(s)
	return i
}

func parseDur(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Second
	}
	return d
}
