package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"showroomgo/pkg/params"
	"showroomgo/pkg/paths"
	"showroomgo/pkg/persist"
)

// mockStateStore is an in-memory StateStore for handler tests.
type mockStateStore struct {
	mu    sync.Mutex
	state map[string]string
}

func newMockStateStore() *mockStateStore {
	return &mockStateStore{state: make(map[string]string)}
}

func (m *mockStateStore) GetState(ctx context.Context, key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.state[key]
	return v, ok
}

func (m *mockStateStore) SetState(ctx context.Context, key, val string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state[key] = val
	return nil
}

func (m *mockStateStore) DeleteState(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.state, key)
	return nil
}

func setupParamsHandler(t *testing.T) (*ParamsHandler, *params.Model, *mockStateStore) {
	t.Helper()
	model, err := params.New()
	if err != nil {
		t.Fatalf("params.New() error = %v", err)
	}
	mem := newMockStateStore()
	st := persist.New(mem, model, time.Minute)
	return NewParamsHandler(model, st, NewEventHub()), model, mem
}

func decodeParams(t *testing.T, rec *httptest.ResponseRecorder) ParamsResponse {
	t.Helper()
	var resp ParamsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestHandleGet(t *testing.T) {
	h, _, _ := setupParamsHandler(t)

	rec := httptest.NewRecorder()
	h.HandleGet(rec, httptest.NewRequest(http.MethodGet, "/api/params", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decodeParams(t, rec)
	if len(resp.Schema) == 0 {
		t.Error("response schema is empty")
	}
	if _, ok := resp.Params["camera"]; !ok {
		t.Error("response params missing camera group")
	}
}

func TestHandleUpdate(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		checkPath  string
		wantValue  any
	}{
		{
			name:       "valid number write",
			body:       `{"changes":{"camera.fov":1.2}}`,
			wantStatus: http.StatusOK,
			checkPath:  "camera.fov",
			wantValue:  1.2,
		},
		{
			name:       "valid enum write",
			body:       `{"changes":{"environment.skybox":"night"}}`,
			wantStatus: http.StatusOK,
			checkPath:  "environment.skybox",
			wantValue:  "night",
		},
		{
			name:       "numeric enum keeps number type",
			body:       `{"changes":{"ground.majorEvery":20}}`,
			wantStatus: http.StatusOK,
			checkPath:  "ground.majorEvery",
			wantValue:  20.0,
		},
		{
			name:       "panel collapse state",
			body:       `{"changes":{"panels.render.open":true}}`,
			wantStatus: http.StatusOK,
			checkPath:  "panels.render.open",
			wantValue:  true,
		},
		{
			name:       "wrong type rejected",
			body:       `{"changes":{"camera.fov":"wide"}}`,
			wantStatus: http.StatusBadRequest,
			checkPath:  "camera.fov",
			wantValue:  0.9,
		},
		{
			name:       "off-list enum option rejected",
			body:       `{"changes":{"environment.skybox":"void"}}`,
			wantStatus: http.StatusBadRequest,
			checkPath:  "environment.skybox",
			wantValue:  "studio",
		},
		{
			name:       "unknown path rejected",
			body:       `{"changes":{"camera.rollSpeed":1}}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "write through session scalar rejected",
			body:       `{"changes":{"session.fps.bogus":true}}`,
			wantStatus: http.StatusBadRequest,
			checkPath:  "session.fps",
			wantValue:  0.0,
		},
		{
			name:       "empty batch rejected",
			body:       `{"changes":{}}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed json rejected",
			body:       `{"changes":`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, model, _ := setupParamsHandler(t)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPut, "/api/params", strings.NewReader(tt.body))
			h.HandleUpdate(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.checkPath != "" {
				got, _ := paths.Get(model.Tree(), paths.Parse(tt.checkPath))
				if got != tt.wantValue {
					t.Errorf("%s = %v, want %v", tt.checkPath, got, tt.wantValue)
				}
			}
		})
	}
}

func TestHandleUpdate_RejectedBatchIsAtomic(t *testing.T) {
	h, model, _ := setupParamsHandler(t)

	rec := httptest.NewRecorder()
	body := `{"changes":{"camera.fov":1.2,"camera.rollSpeed":1}}`
	h.HandleUpdate(rec, httptest.NewRequest(http.MethodPut, "/api/params", strings.NewReader(body)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got, _ := paths.Get(model.Tree(), paths.Parse("camera.fov")); got != 0.9 {
		t.Errorf("camera.fov = %v, valid half of rejected batch was applied", got)
	}
}

func TestHandleUpdate_StructuralFailureIsAtomic(t *testing.T) {
	h, model, mem := setupParamsHandler(t)

	// session.fps.bogus clears the type check (session-prefixed bool) but the
	// write must descend through the scalar session.fps, so it can only fail
	// at apply time. The valid write in the same batch must not go through.
	rec := httptest.NewRecorder()
	body := `{"changes":{"camera.fov":1.2,"session.fps.bogus":true}}`
	h.HandleUpdate(rec, httptest.NewRequest(http.MethodPut, "/api/params", strings.NewReader(body)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got, _ := paths.Get(model.Tree(), paths.Parse("camera.fov")); got != 0.9 {
		t.Errorf("camera.fov = %v, partial application of rejected batch", got)
	}
	if got, _ := paths.Get(model.Tree(), paths.Parse("session.fps")); got != 0.0 {
		t.Errorf("session.fps = %v, scalar replaced by rejected write", got)
	}
	// No save may be scheduled for a rejected batch.
	if _, ok := mem.GetState(context.Background(), persist.StateKey); ok {
		t.Error("rejected batch reached the persistence store")
	}
}

func TestHandleReset_Subtree(t *testing.T) {
	h, model, mem := setupParamsHandler(t)

	if err := paths.Set(model.Tree(), paths.Parse("camera.fov"), 1.5); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := paths.Set(model.Tree(), paths.Parse("movement.moveSpeed"), 15.0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/params/reset", strings.NewReader(`{"paths":["camera"]}`))
	h.HandleReset(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got, _ := paths.Get(model.Tree(), paths.Parse("camera.fov")); got != 0.9 {
		t.Errorf("camera.fov = %v, want default 0.9", got)
	}
	// Subtrees outside the request keep their edits.
	if got, _ := paths.Get(model.Tree(), paths.Parse("movement.moveSpeed")); got != 15.0 {
		t.Errorf("movement.moveSpeed = %v, want untouched 15", got)
	}
	// Reset flushes immediately.
	if _, ok := mem.GetState(context.Background(), persist.StateKey); !ok {
		t.Error("reset did not flush state")
	}
}

func TestHandleReset_FullWithEmptyBody(t *testing.T) {
	h, model, _ := setupParamsHandler(t)

	if err := paths.Set(model.Tree(), paths.Parse("camera.fov"), 1.5); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := paths.Set(model.Tree(), paths.Parse("movement.moveSpeed"), 15.0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	rec := httptest.NewRecorder()
	h.HandleReset(rec, httptest.NewRequest(http.MethodPost, "/api/params/reset", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got, _ := paths.Get(model.Tree(), paths.Parse("camera.fov")); got != 0.9 {
		t.Errorf("camera.fov = %v, want default 0.9", got)
	}
	if got, _ := paths.Get(model.Tree(), paths.Parse("movement.moveSpeed")); got != 6.0 {
		t.Errorf("movement.moveSpeed = %v, want default 6", got)
	}
}

func TestHandleReset_AbsentPathIsNoop(t *testing.T) {
	h, model, _ := setupParamsHandler(t)
	before, _ := paths.Get(model.Tree(), paths.Parse("camera.fov"))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/params/reset", strings.NewReader(`{"paths":["nope"]}`))
	h.HandleReset(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got, _ := paths.Get(model.Tree(), paths.Parse("camera.fov")); got != before {
		t.Errorf("camera.fov changed by absent-path reset")
	}
}
