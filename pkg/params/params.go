// Package params holds the canonical parameter tree driving the showroom
// viewer: camera, ground grid, movement, prop animation, environment and
// render pipeline settings. The tree shape is fixed at startup; only leaf
// values change at runtime, and every mutation goes through pkg/paths so the
// binding layer and the persistence store see a single write path.
package params

import (
	"fmt"

	"showroomgo/pkg/paths"
)

// Model owns the live tree and the immutable startup snapshot.
type Model struct {
	tree     map[string]any
	snapshot map[string]any
	schema   []Field
}

// New builds the default tree, captures the startup snapshot and verifies
// that every declared field resolves to a leaf of the declared kind. The
// snapshot is taken here, before any persisted or user-driven mutation.
func New() (*Model, error) {
	m := &Model{
		tree:   DefaultTree(),
		schema: Schema(),
	}
	m.snapshot = paths.DeepCopy(m.tree).(map[string]any)

	for _, f := range m.schema {
		if err := f.validate(m.tree); err != nil {
			return nil, fmt.Errorf("params schema: %w", err)
		}
	}
	return m, nil
}

// Tree returns the live tree reference. Callers mutate it only through
// pkg/paths.
func (m *Model) Tree() map[string]any { return m.tree }

// Snapshot returns the startup default snapshot. It is immutable by
// convention: callers copy out of it, never into it.
func (m *Model) Snapshot() map[string]any { return m.snapshot }

// Schema returns the declared bindable fields.
func (m *Model) Schema() []Field { return m.schema }

// Field looks up a declared field by dotted path.
func (m *Model) Field(path string) (Field, bool) {
	for _, f := range m.schema {
		if f.Path == path {
			return f, true
		}
	}
	return Field{}, false
}

// Transient lists subtrees excluded from the persisted projection. The
// session group holds runtime-only values the renderer derives every frame.
func (m *Model) Transient() []paths.Path {
	return []paths.Path{paths.Parse("session")}
}

// DefaultTree returns the literal default parameter tree. Field names and
// ranges are a contract with the viewer front-end; they are not re-derived
// here.
func DefaultTree() map[string]any {
	return map[string]any{
		"camera": map[string]any{
			"fov":      0.9,
			"pitchMin": -1.45,
			"pitchMax": 1.45,
			"inertia":  0.7,
			"minZ":     0.05,
			"maxZ":     400.0,
		},
		"ground": map[string]any{
			"visible":    true,
			"size":       200.0,
			"lineWidth":  0.02,
			"majorEvery": 10.0,
			"fadeStart":  40.0,
			"fadeEnd":    90.0,
			"color":      []any{0.24, 0.26, 0.30},
			"opacity":    0.85,
		},
		"movement": map[string]any{
			"moveSpeed":        6.0,
			"sprintMultiplier": 2.5,
			"mouseTurnSpeed":   1.0,
			"gravity":          -9.81,
			"jumpHeight":       1.2,
			"eyeHeight":        1.7,
		},
		"prop": map[string]any{
			"spinEnabled":  true,
			"spinSpeed":    0.35,
			"bobEnabled":   true,
			"bobAmplitude": 0.08,
			"bobFrequency": 0.5,
		},
		"environment": map[string]any{
			"intensity":  1.0,
			"rotation":   0.0,
			"tint":       []any{1.0, 1.0, 1.0},
			"skybox":     "studio",
			"fog":        false,
			"fogDensity": 0.01,
		},
		"render": map[string]any{
			"exposure":    1.0,
			"contrast":    1.0,
			"toneMapping": "aces",
			"fxaa":        true,
			"bloom": map[string]any{
				"enabled":   true,
				"weight":    0.15,
				"threshold": 0.8,
			},
			"sharpen": map[string]any{
				"enabled": false,
				"amount":  0.2,
			},
			"grain": map[string]any{
				"enabled":   false,
				"intensity": 8.0,
			},
			"vignette": map[string]any{
				"enabled": true,
				"weight":  0.4,
			},
		},
		// Editor panel collapse state, one flag per section. Persisted like
		// any other parameter but intentionally outside the schema: sections
		// come and go with the panel layout.
		"panels": map[string]any{
			"camera":      map[string]any{"open": true},
			"ground":      map[string]any{"open": false},
			"movement":    map[string]any{"open": false},
			"prop":        map[string]any{"open": false},
			"environment": map[string]any{"open": false},
			"render":      map[string]any{"open": false},
		},
		// Runtime-only values mirrored by the renderer. Never persisted.
		"session": map[string]any{
			"fps":           0.0,
			"pointerLocked": false,
		},
	}
}
