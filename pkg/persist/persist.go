// Package persist saves and restores the showroom parameter tree through a
// single durable key-value slot. Writes are debounced and idempotent; reads
// are fail-soft and merge additively over the compiled defaults.
package persist

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"showroomgo/pkg/params"
	"showroomgo/pkg/paths"
	"showroomgo/pkg/store"
)

// StateKey is the fixed, versioned identifier of the durable slot.
const StateKey = "showroom.params.v1"

// DefaultDebounce is the quiescence window for MarkDirty.
const DefaultDebounce = 250 * time.Millisecond

const payloadVersion = 1

// Payload is the versioned envelope written to the durable slot.
type Payload struct {
	V       int             `json:"v"`
	SavedAt int64           `json:"savedAt"`
	Reason  string          `json:"reason"`
	Data    json.RawMessage `json:"data"`
}

// Store persists a filtered projection of the parameter model.
type Store struct {
	state    store.StateStore
	model    *params.Model
	key      string
	debounce time.Duration

	mu          sync.Mutex
	lastWritten string
	pending     handle
}

// handle is a cancellable scheduled task.
type handle struct {
	timer *time.Timer
}

func schedule(fn func(), delay time.Duration) handle {
	return handle{timer: time.AfterFunc(delay, fn)}
}

func (h handle) cancel() {
	if h.timer != nil {
		h.timer.Stop()
	}
}

// New creates a persistence store bound to the given model and durable slot.
// A non-positive debounce falls back to DefaultDebounce.
func New(st store.StateStore, model *params.Model, debounce time.Duration) *Store {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Store{
		state:    st,
		model:    model,
		key:      StateKey,
		debounce: debounce,
	}
}

// Load reads the durable slot and deep-merges the payload into the live tree.
// It returns false and leaves the model untouched when the slot is absent or
// the payload is malformed (bad JSON, wrong version, non-object data). Keys
// absent from the payload keep their current values; arrays are replaced
// wholesale.
func (s *Store) Load(ctx context.Context) bool {
	raw, ok := s.state.GetState(ctx, s.key)
	if !ok || raw == "" {
		return false
	}

	var payload Payload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		slog.Warn("Persist: ignoring malformed payload", "key", s.key, "error", err)
		return false
	}
	if payload.V != payloadVersion {
		slog.Warn("Persist: ignoring payload with unknown version", "key", s.key, "version", payload.V)
		return false
	}

	var data map[string]any
	if err := json.Unmarshal(payload.Data, &data); err != nil || data == nil {
		slog.Warn("Persist: ignoring payload with non-object data", "key", s.key)
		return false
	}

	mergeInto(s.model.Tree(), data)
	slog.Info("Persist: state restored", "key", s.key, "savedReason", payload.Reason)
	return true
}

// SaveNow serializes the filtered projection and writes it, unless the
// serialized form matches the last successfully written form. Returns false
// on serialization or storage failure; never panics or propagates.
func (s *Store) SaveNow(ctx context.Context, reason string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending.cancel()
	return s.saveLocked(ctx, reason)
}

func (s *Store) saveLocked(ctx context.Context, reason string) bool {
	data, err := json.Marshal(s.projection())
	if err != nil {
		slog.Error("Persist: failed to serialize projection", "error", err)
		return false
	}
	if string(data) == s.lastWritten {
		return true
	}

	envelope, err := json.Marshal(Payload{
		V:       payloadVersion,
		SavedAt: time.Now().UnixMilli(),
		Reason:  reason,
		Data:    data,
	})
	if err != nil {
		slog.Error("Persist: failed to serialize envelope", "error", err)
		return false
	}

	if err := s.state.SetState(ctx, s.key, string(envelope)); err != nil {
		slog.Error("Persist: failed to write state", "key", s.key, "error", err)
		return false
	}
	s.lastWritten = string(data)
	slog.Debug("Persist: state saved", "reason", reason, "bytes", len(envelope))
	return true
}

// MarkDirty schedules a save after the quiescence window. Each call cancels
// the previously scheduled task, so a burst of edits yields a single write
// reflecting the burst's final state.
func (s *Store) MarkDirty(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending.cancel()
	s.pending = schedule(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.saveLocked(context.Background(), reason)
	}, s.debounce)
}

// Reset deletes the durable slot and clears the last-written cache so the
// next SaveNow is not suppressed by a stale comparison.
func (s *Store) Reset(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending.cancel()
	if err := s.state.DeleteState(ctx, s.key); err != nil {
		slog.Error("Persist: failed to delete state", "key", s.key, "error", err)
	}
	s.lastWritten = ""
}

// Close cancels any pending debounced save and attempts a best-effort final
// flush.
func (s *Store) Close(ctx context.Context) {
	s.SaveNow(ctx, "shutdown")
}

// projection returns a deep copy of the live tree with transient subtrees
// removed.
func (s *Store) projection() map[string]any {
	out := paths.DeepCopy(s.model.Tree()).(map[string]any)
	for _, p := range s.model.Transient() {
		prune(out, p)
	}
	return out
}

func prune(root map[string]any, p paths.Path) {
	if len(p) == 0 {
		return
	}
	if len(p) == 1 {
		delete(root, p[0])
		return
	}
	child, ok := root[p[0]].(map[string]any)
	if !ok {
		return
	}
	prune(child, p[1:])
}

// mergeInto recursively applies src over dst: nested maps merge, arrays and
// scalars are replaced, keys absent from src are left alone.
func mergeInto(dst, src map[string]any) {
	for k, v := range src {
		if srcMap, ok := v.(map[string]any); ok {
			if dstMap, ok := dst[k].(map[string]any); ok {
				mergeInto(dstMap, srcMap)
				continue
			}
		}
		dst[k] = paths.DeepCopy(v)
	}
}
