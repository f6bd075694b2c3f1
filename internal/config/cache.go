package config

import (
    "strings"
    "time"
)

// CacheConfig defines settings for the asset response cache.  When Enabled
// is false or no Redis client is configured, caching is disabled.  Only
// responses up to MaxBodyBytes are stored; larger assets are always read
// from the asset store.
type CacheConfig struct {
    Enabled      bool
    Methods      map[string]bool
    TTL          time.Duration
    Prefix       string
    MaxBodyBytes int
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
func LoadCacheConfig() CacheConfig {
    return CacheConfig{
        Enabled:      envBool("CACHE_ENABLED", true),
        Methods:      parseMethods(getenv("CACHE_METHODS", "GET")),
        TTL:          envDur("CACHE_TTL", 10*time.Minute),
        Prefix:       getenv("CACHE_PREFIX", "croab:cache"),
        MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 2<<20),
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
