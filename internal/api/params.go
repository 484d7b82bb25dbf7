package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"

	"showroomgo/pkg/params"
	"showroomgo/pkg/paths"
	"showroomgo/pkg/persist"
)

// ParamsHandler exposes the parameter tree over HTTP: read, batched writes
// and snapshot resets. All mutations funnel through here (or the in-process
// binding registry), so a single mutex serializes tree access.
type ParamsHandler struct {
	mu      sync.Mutex
	model   *params.Model
	persist *persist.Store
	hub     *EventHub
}

// NewParamsHandler creates a new ParamsHandler.
func NewParamsHandler(model *params.Model, st *persist.Store, hub *EventHub) *ParamsHandler {
	return &ParamsHandler{
		model:   model,
		persist: st,
		hub:     hub,
	}
}

// ParamsResponse represents the params API response.
type ParamsResponse struct {
	Params map[string]any `json:"params"`
	Schema []params.Field `json:"schema"`
}

// UpdateRequest carries a batch of path-addressed writes.
type UpdateRequest struct {
	Changes map[string]any `json:"changes"`
}

// ResetRequest names the subtrees to restore from defaults. An empty list
// resets the whole tree.
type ResetRequest struct {
	Paths []string `json:"paths"`
}

// HandleGet returns the live tree and the declared schema.
func (h *ParamsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	resp := ParamsResponse{
		Params: paths.DeepCopy(h.model.Tree()).(map[string]any),
		Schema: h.model.Schema(),
	}
	h.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("Failed to encode params response", "error", err)
	}
}

// HandleUpdate applies a batch of writes. Declared fields are validated
// against their schema kind; writes under panels. and session. are accepted
// for any well-formed leaf. Anything else is rejected before any change is
// applied.
func (h *ParamsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	defer func() { _ = r.Body.Close() }()

	if len(req.Changes) == 0 {
		http.Error(w, "No changes supplied", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	changed := make([]string, 0, len(req.Changes))
	for path, value := range req.Changes {
		if err := h.checkWrite(path, value); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		changed = append(changed, path)
	}
	sort.Strings(changed)

	// Dry-run the whole batch against a copy first: checkWrite validates
	// types, but a write can still fail structurally (descending through a
	// scalar). The live tree is only touched once every write is known good,
	// in the same deterministic order.
	trial := paths.DeepCopy(h.model.Tree()).(map[string]any)
	for _, path := range changed {
		if err := paths.Set(trial, paths.Parse(path), req.Changes[path]); err != nil {
			http.Error(w, fmt.Sprintf("write %s: %v", path, err), http.StatusBadRequest)
			return
		}
	}
	for _, path := range changed {
		if err := paths.Set(h.model.Tree(), paths.Parse(path), req.Changes[path]); err != nil {
			// The trial copy had identical shape; this cannot fail.
			slog.Error("Params: live write failed after trial pass", "path", path, "error", err)
		}
	}

	h.persist.MarkDirty(strings.Join(changed, ","))
	h.hub.Broadcast("params.changed", req.Changes)
	slog.Debug("Params updated", "paths", changed)

	h.writeTree(w)
}

// HandleReset restores the named subtrees (or everything) from the startup
// snapshot, flushes immediately and notifies viewers.
func (h *ParamsHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	// An empty body means full reset.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	defer func() { _ = r.Body.Close() }()

	h.mu.Lock()
	defer h.mu.Unlock()

	targets := req.Paths
	if len(targets) == 0 {
		targets = topLevelKeys(h.model.Snapshot())
	}

	for _, path := range targets {
		p := paths.Parse(path)
		def, ok := paths.Get(h.model.Snapshot(), p)
		if !ok {
			continue
		}
		if err := paths.Set(h.model.Tree(), p, paths.DeepCopy(def)); err != nil {
			slog.Error("Params reset write failed", "path", path, "error", err)
		}
	}

	h.persist.SaveNow(r.Context(), "reset")
	h.hub.Broadcast("params.reset", targets)
	slog.Info("Params reset", "paths", targets)

	h.writeTree(w)
}

// checkWrite validates one write against the declared schema. Paths outside
// the schema are writable only in the panels and session groups, and only
// with scalar leaves.
func (h *ParamsHandler) checkWrite(path string, value any) error {
	if f, ok := h.model.Field(path); ok {
		if !f.Accepts(value) {
			return fmt.Errorf("invalid value for %s", path)
		}
		return nil
	}
	if strings.HasPrefix(path, "panels.") || strings.HasPrefix(path, "session.") {
		switch value.(type) {
		case bool, float64, string:
			return nil
		}
		return fmt.Errorf("invalid value for %s", path)
	}
	return fmt.Errorf("unknown parameter %s", path)
}

func (h *ParamsHandler) writeTree(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	resp := ParamsResponse{
		Params: paths.DeepCopy(h.model.Tree()).(map[string]any),
		Schema: h.model.Schema(),
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("Failed to encode params response", "error", err)
	}
}

func topLevelKeys(tree map[string]any) []string {
	keys := make([]string, 0, len(tree))
	for k := range tree {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
