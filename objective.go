package pso

import (
	"context"
	"crypto/sha1"
	"encoding/binary"
	"log/slog"
	"math"
)

func hashPos(pos []float64) [sha1.Size]byte {
	data := make([]byte, len(pos)*8)
	for i, x := range pos {
		binary.BigEndian.PutUint64(data[i*8:], math.Float64bits(x))
	}
	return sha1.Sum(data)
}

// CacheObjective memoizes objective values by exact position.  Particles
// pinned against a bound revisit the same position often, so caching can
// save a lot of expensive evaluations.  Failed evaluations are not cached.
type CacheObjective struct {
	obj   Objectiver
	cache map[[sha1.Size]byte]float64
	Hits  int
}

func NewCacheObjective(obj Objectiver) *CacheObjective {
	return &CacheObjective{
		obj:   obj,
		cache: map[[sha1.Size]byte]float64{},
	}
}

func (c *CacheObjective) Objective(v []float64) (float64, error) {
	h := hashPos(v)
	if val, ok := c.cache[h]; ok {
		c.Hits++
		return val, nil
	}

	val, err := c.obj.Objective(v)
	if err != nil {
		return val, err
	}
	c.cache[h] = val
	return val, nil
}

// ObjectiveLogger counts evaluations of the wrapped objective and logs each
// one at debug level.
type ObjectiveLogger struct {
	Objectiver
	Count int
	log   *slog.Logger
}

// NewObjectiveLogger wraps obj.  A nil logger discards output and only the
// evaluation count is kept.
func NewObjectiveLogger(obj Objectiver, logger *slog.Logger) *ObjectiveLogger {
	if logger == nil {
		logger = DiscardLogger()
	}
	return &ObjectiveLogger{Objectiver: obj, log: logger}
}

func (ol *ObjectiveLogger) Objective(v []float64) (float64, error) {
	val, err := ol.Objectiver.Objective(v)

	ol.Count++
	if err != nil {
		ol.log.Error("objective failed", "eval", ol.Count, "pos", v, "error", err)
	} else {
		ol.log.Debug("objective", "eval", ol.Count, "pos", v, "val", val)
	}
	return val, err
}

// DiscardLogger returns a logger that drops all records.
func DiscardLogger() *slog.Logger {
	return slog.New(discardHandler{})
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h discardHandler) WithGroup(string) slog.Handler           { return h }
