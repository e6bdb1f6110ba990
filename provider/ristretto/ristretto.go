package ristretto

import (
	"context"
	"errors"
	"time"

	rc "github.com/dgraph-io/ristretto"

	pr "github.com/unkn0wn-root/lockaside/provider"
)

// Ristretto is a cost-bounded near cache. lockaside passes len(value) as cost,
// so MaxCost is effectively a byte budget.
type Ristretto struct {
	c          *rc.Cache
	syncWrites bool
}

var _ pr.Provider = (*Ristretto)(nil)

type Config struct {
	NumCounters int64 // ~10x the expected number of entries
	MaxCost     int64 // byte budget
	BufferItems int64 // 64 is the ristretto recommendation
	Metrics     bool
	// SyncWrites waits for each Set to be applied before returning.
	// Ristretto admits writes asynchronously; without this a Get right after
	// Set may miss.
	SyncWrites bool
}

func New(cfg Config) (*Ristretto, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, errors.New("ristretto: invalid config")
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &Ristretto{c: c, syncWrites: cfg.SyncWrites}, nil
}

func (p *Ristretto) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := p.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, _ := v.([]byte)
	if b == nil {
		p.c.Del(key)
		return nil, false, nil
	}
	return b, true, nil
}

func (p *Ristretto) Set(_ context.Context, key string, value []byte, cost int64, ttl time.Duration) (bool, error) {
	if ttl < 0 {
		ttl = 0 // ristretto: 0 => no expiry
	}
	ok := p.c.SetWithTTL(key, value, cost, ttl)
	if ok && p.syncWrites {
		p.c.Wait()
	}
	return ok, nil
}

func (p *Ristretto) Del(_ context.Context, key string) error {
	p.c.Del(key)
	return nil
}

func (p *Ristretto) Close(_ context.Context) error {
	p.c.Close()
	return nil
}

// Metrics exposes ristretto's counters (nil unless Config.Metrics).
func (p *Ristretto) Metrics() *rc.Metrics { return p.c.Metrics }
