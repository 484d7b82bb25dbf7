package store

import (
	"context"
	"path/filepath"
	"testing"

	"showroomgo/pkg/db"
)

// setupTestStore creates a test database and store for each test.
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	d, err := db.Init(dbPath)
	if err != nil {
		t.Fatalf("Failed to init DB: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	return NewSQLiteStore(d)
}

func TestStateStore_GetSetDelete(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		setup  func(s *SQLiteStore)
		key    string
		want   string
		wantOK bool
	}{
		{
			name:   "missing key",
			setup:  func(s *SQLiteStore) {},
			key:    "showroom.params.v1",
			wantOK: false,
		},
		{
			name: "set then get",
			setup: func(s *SQLiteStore) {
				_ = s.SetState(ctx, "showroom.params.v1", `{"v":1}`)
			},
			key:    "showroom.params.v1",
			want:   `{"v":1}`,
			wantOK: true,
		},
		{
			name: "overwrite",
			setup: func(s *SQLiteStore) {
				_ = s.SetState(ctx, "k", "first")
				_ = s.SetState(ctx, "k", "second")
			},
			key:    "k",
			want:   "second",
			wantOK: true,
		},
		{
			name: "delete",
			setup: func(s *SQLiteStore) {
				_ = s.SetState(ctx, "k", "v")
				_ = s.DeleteState(ctx, "k")
			},
			key:    "k",
			wantOK: false,
		},
		{
			name: "delete missing key is a no-op",
			setup: func(s *SQLiteStore) {
				_ = s.DeleteState(ctx, "never-set")
			},
			key:    "never-set",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := setupTestStore(t)
			tt.setup(s)

			got, ok := s.GetState(ctx, tt.key)
			if ok != tt.wantOK {
				t.Fatalf("GetState() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("GetState() = %q, want %q", got, tt.want)
			}
		})
	}
}
