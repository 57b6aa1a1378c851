package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	platformstrings "equilibrium/pkg/platform/strings"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr string
}

// Placement holds the tree and bonus settings.
type Placement struct {
	MaxChildrenPerNode           int
	DefaultReferralBonusPercent  int
	DefaultPlacementBonusPercent int
	MaxAttempts                  int
	TxTimeout                    time.Duration
	TariffFile                   string
}

// RedisConfig configures the tree cache. An empty URL disables caching.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	TreeCacheTTL time.Duration
}

// Kafka configures the outbox relay. No brokers means events are logged.
type Kafka struct {
	Brokers      []string
	Topic        string
	PollInterval time.Duration
	BatchSize    int
}

type Log struct {
	Level  string
	Format string
}

// Config is the full process configuration.
type Config struct {
	Server      Server
	DatabaseURL string
	Placement   Placement
	Redis       RedisConfig
	Kafka       Kafka
	Log         Log
}

// FromEnv reads configuration from environment variables, applying defaults
// for anything unset. Malformed values are reported rather than ignored.
func FromEnv() (Config, error) {
	return fromLookup(os.LookupEnv)
}

type lookupFunc func(string) (string, bool)

func fromLookup(lookup lookupFunc) (Config, error) {
	r := reader{lookup: lookup}
	cfg := Config{
		Server: Server{
			Addr: r.string("EQ_ADDR", ":8080"),
		},
		DatabaseURL: r.string("DATABASE_URL", ""),
		Placement: Placement{
			MaxChildrenPerNode:           r.int("MAX_CHILDREN_PER_NODE", 3, 1, 1000),
			DefaultReferralBonusPercent:  r.int("DEFAULT_REFERRAL_BONUS_PERCENT", 50, 0, 100),
			DefaultPlacementBonusPercent: r.int("DEFAULT_PLACEMENT_BONUS_PERCENT", 50, 0, 100),
			MaxAttempts:                  r.int("PLACEMENT_MAX_ATTEMPTS", 3, 1, 100),
			TxTimeout:                    r.duration("PLACEMENT_TX_TIMEOUT", 5*time.Second),
			TariffFile:                   r.string("TARIFF_FILE", ""),
		},
		Redis: RedisConfig{
			URL:          r.string("REDIS_URL", ""),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			TreeCacheTTL: r.duration("TREE_CACHE_TTL", 30*time.Second),
		},
		Kafka: Kafka{
			Brokers:      r.list("KAFKA_BROKERS"),
			Topic:        r.string("KAFKA_TOPIC", "equilibrium.placement-events"),
			PollInterval: r.duration("OUTBOX_POLL_INTERVAL", time.Second),
			BatchSize:    r.int("OUTBOX_BATCH_SIZE", 100, 1, 10000),
		},
		Log: Log{
			Level:  r.string("LOG_LEVEL", "info"),
			Format: r.string("LOG_FORMAT", "json"),
		},
	}
	if r.err != nil {
		return Config{}, r.err
	}
	return cfg, nil
}

// reader keeps the first parse error so FromEnv can stay declarative.
type reader struct {
	lookup lookupFunc
	err    error
}

func (r *reader) raw(key string) (string, bool) {
	v, ok := r.lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (r *reader) string(key, def string) string {
	if v, ok := r.raw(key); ok {
		return v
	}
	return def
}

func (r *reader) int(key string, def, lo, hi int) int {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(fmt.Errorf("%s: %q is not an integer", key, v))
		return def
	}
	if n < lo || n > hi {
		r.fail(fmt.Errorf("%s: %d outside [%d, %d]", key, n, lo, hi))
		return def
	}
	return n
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		r.fail(fmt.Errorf("%s: %q is not a positive duration", key, v))
		return def
	}
	return d
}

func (r *reader) list(key string) []string {
	v, ok := r.raw(key)
	if !ok {
		return nil
	}
	return platformstrings.SplitList(v)
}

func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}
