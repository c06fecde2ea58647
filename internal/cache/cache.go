// Package cache holds per-owner aggregate results between writes.
//
// KEY LAYOUT:
// Each owner has one key; every cached result is a field under that key, so
// a single Invalidate drops everything derived from the owner's entries.
//
//	mindspace:aggregates:student:c9l...      → {"g3:trend:7:2026-10-15": {...}, "g3:stats:week:2026-10-15": {...}}
//	mindspace:aggregates:student:c9l...:gen  → 3
//
// WHY A GENERATION?
// A trend read and a mood write can overlap:
//
//	reader: Load (miss) → query store (old rows)
//	writer:                                  write row → Invalidate
//	reader:                                                          Save (old result)
//
// Deleting the key alone would let the reader put the pre-write result back
// and serve it until the TTL runs out. Invalidate therefore also bumps a
// per-owner generation, and every field name carries the generation seen at
// Load time. A Save that started before the write lands under the old
// generation, which no later Load asks for.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sakif/mindspace/internal/metrics"
	"github.com/sakif/mindspace/internal/model"
)

// Store is a field-addressed byte cache with key-level invalidation.
type Store interface {
	// Generation returns the current generation of key, 0 before the first
	// Invalidate. Generations never expire.
	Generation(ctx context.Context, key string) (int64, error)
	// GetField returns (nil, false, nil) on a miss.
	GetField(ctx context.Context, key, field string) ([]byte, bool, error)
	SetField(ctx context.Context, key, field string, value []byte) error
	// Invalidate bumps the generation of key and drops all its fields.
	Invalidate(ctx context.Context, key string) error
}

// DefaultTTL bounds how long an owner's aggregates survive without a write.
const DefaultTTL = 10 * time.Minute

// Generation is the owner's cache generation observed by Load. Pass it back
// to Save unchanged.
type Generation struct {
	n     int64
	valid bool
}

// Aggregates stores JSON-encoded aggregate results per owner. Store errors
// are logged and reported as misses.
type Aggregates struct {
	store  Store
	logger zerolog.Logger
}

func NewAggregates(store Store, logger zerolog.Logger) *Aggregates {
	return &Aggregates{store: store, logger: logger}
}

func ownerKey(owner model.Owner) string {
	return "mindspace:aggregates:" + owner.String()
}

func fieldName(gen Generation, kind, params string) string {
	return fmt.Sprintf("g%d:%s:%s", gen.n, kind, params)
}

// Load decodes the cached value for kind/params into dst and reports whether
// it was found. On a miss the returned Generation must be handed to Save
// together with the freshly computed value.
func (a *Aggregates) Load(ctx context.Context, owner model.Owner, kind, params string, dst any) (Generation, bool) {
	if a == nil {
		return Generation{}, false
	}

	key := ownerKey(owner)
	n, err := a.store.Generation(ctx, key)
	if err != nil {
		a.logger.Warn().Err(err).Str("owner", owner.String()).Msg("aggregate cache generation read failed")
		metrics.AggregateCache.WithLabelValues(kind, "miss").Inc()
		return Generation{}, false
	}
	gen := Generation{n: n, valid: true}

	raw, ok, err := a.store.GetField(ctx, key, fieldName(gen, kind, params))
	if err != nil {
		a.logger.Warn().Err(err).Str("owner", owner.String()).Str("kind", kind).Msg("aggregate cache read failed")
		ok = false
	}
	if ok {
		if err := json.Unmarshal(raw, dst); err != nil {
			a.logger.Warn().Err(err).Str("kind", kind).Msg("discarding undecodable cached aggregate")
			ok = false
		}
	}

	result := "miss"
	if ok {
		result = "hit"
	}
	metrics.AggregateCache.WithLabelValues(kind, result).Inc()
	return gen, ok
}

// Save caches v under the generation Load returned. Nothing is written when
// that generation could not be read.
func (a *Aggregates) Save(ctx context.Context, owner model.Owner, gen Generation, kind, params string, v any) {
	if a == nil || !gen.valid {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		a.logger.Warn().Err(err).Str("kind", kind).Msg("encoding aggregate for cache")
		return
	}
	if err := a.store.SetField(ctx, ownerKey(owner), fieldName(gen, kind, params), raw); err != nil {
		a.logger.Warn().Err(err).Str("owner", owner.String()).Str("kind", kind).Msg("aggregate cache write failed")
	}
}

// Invalidate drops every cached aggregate of owner, including any Save still
// in flight from a read that began before this call.
func (a *Aggregates) Invalidate(ctx context.Context, owner model.Owner) {
	if a == nil {
		return
	}
	if err := a.store.Invalidate(ctx, ownerKey(owner)); err != nil {
		a.logger.Warn().Err(err).Str("owner", owner.String()).Msg("aggregate cache invalidation failed")
	}
}

func generationKey(key string) string {
	return key + ":gen"
}
