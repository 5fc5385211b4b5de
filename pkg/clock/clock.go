// Package clock supplies the wall clock used to timestamp sessions,
// optionally corrected by an NTP offset.
package clock

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/beevik/ntp"
	"github.com/korthochain/classvdf/pkg/logger"
	"go.uber.org/zap"
)

var ErrNoServer = errors.New("clock: no ntp server answered")

type Clock interface {
	Now() time.Time
}

type localClock struct{}

func (localClock) Now() time.Time { return time.Now() }

// Local is the unadjusted system clock.
func Local() Clock {
	return localClock{}
}

type Config struct {
	// Servers are queried in order until one answers. An empty list
	// selects the local clock.
	Servers []string `yaml:"servers"`
	// Timeout bounds each query, in seconds.
	Timeout int `yaml:"timeout"`
	// Interval between refreshes, in minutes.
	Interval int `yaml:"interval"`
}

func DefaultConfig() *Config {
	return &Config{
		Servers:  []string{"pool.ntp.org", "time.cloudflare.com", "time.google.com"},
		Timeout:  3,
		Interval: 30,
	}
}

// NTPClock is the local clock shifted by the offset last reported by an NTP
// server. Until the first successful Sync the offset is zero.
type NTPClock struct {
	servers  []string
	timeout  time.Duration
	interval time.Duration
	offset   int64
	logger   *zap.Logger
	query    func(host string, opt ntp.QueryOptions) (*ntp.Response, error)
}

func NewNTP(cfg *Config, log *zap.Logger) *NTPClock {
	return &NTPClock{
		servers:  cfg.Servers,
		timeout:  time.Duration(cfg.Timeout) * time.Second,
		interval: time.Duration(cfg.Interval) * time.Minute,
		logger:   logger.Named(log, "clock"),
		query:    ntp.QueryWithOptions,
	}
}

// New returns the local clock when cfg names no server and an NTPClock
// otherwise.
func New(cfg *Config, log *zap.Logger) Clock {
	if cfg == nil || len(cfg.Servers) == 0 {
		return Local()
	}
	return NewNTP(cfg, log)
}

func (c *NTPClock) Now() time.Time {
	return time.Now().Add(c.Offset())
}

func (c *NTPClock) Offset() time.Duration {
	return time.Duration(atomic.LoadInt64(&c.offset))
}

// Sync queries the servers in order and adopts the first valid offset.
func (c *NTPClock) Sync() error {
	for _, host := range c.servers {
		resp, err := c.query(host, ntp.QueryOptions{Timeout: c.timeout, TTL: 30})
		if err == nil {
			err = resp.Validate()
		}
		if err != nil {
			c.logger.Debug("ntp query failed", zap.String("server", host), zap.Error(err))
			continue
		}
		atomic.StoreInt64(&c.offset, int64(resp.ClockOffset))
		c.logger.Info("clock synced", zap.String("server", host), zap.Duration("offset", resp.ClockOffset))
		return nil
	}
	c.logger.Warn("no ntp server answered", zap.Strings("servers", c.servers))
	return ErrNoServer
}

// Run syncs immediately and then every interval until ctx is done.
func (c *NTPClock) Run(ctx context.Context) {
	c.Sync()
	if c.interval <= 0 {
		return
	}
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sync()
		}
	}
}
