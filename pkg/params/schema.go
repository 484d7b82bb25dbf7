package params

import (
	"fmt"
	"strconv"

	"showroomgo/pkg/paths"
)

// Kind tags the declared value type of a bindable field. Declaring the kind
// here keeps UI round-trips type-stable without runtime sniffing.
type Kind string

const (
	KindNumber Kind = "number"
	KindToggle Kind = "toggle"
	KindEnum   Kind = "enum"
	KindColor  Kind = "color"
)

// Field declares one bindable leaf of the parameter tree.
type Field struct {
	Path    string   `json:"path"`
	Label   string   `json:"label"`
	Kind    Kind     `json:"kind"`
	Min     float64  `json:"min,omitempty"`
	Max     float64  `json:"max,omitempty"`
	Step    float64  `json:"step,omitempty"`
	Options []string `json:"options,omitempty"`
	// Numeric marks an enum whose committed value is a number, not a string.
	Numeric bool `json:"numeric,omitempty"`
}

// validate checks that the field resolves to a leaf of the declared kind in
// the given tree.
func (f Field) validate(tree map[string]any) error {
	v, ok := paths.Get(tree, paths.Parse(f.Path))
	if !ok {
		return fmt.Errorf("field %q not present in default tree", f.Path)
	}
	switch f.Kind {
	case KindNumber:
		if _, ok := v.(float64); !ok {
			return fmt.Errorf("field %q: want number, tree has %T", f.Path, v)
		}
	case KindToggle:
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("field %q: want bool, tree has %T", f.Path, v)
		}
	case KindEnum:
		if f.Numeric {
			if _, ok := v.(float64); !ok {
				return fmt.Errorf("field %q: want numeric enum, tree has %T", f.Path, v)
			}
		} else if _, ok := v.(string); !ok {
			return fmt.Errorf("field %q: want string enum, tree has %T", f.Path, v)
		}
		if len(f.Options) == 0 {
			return fmt.Errorf("field %q: enum with no options", f.Path)
		}
	case KindColor:
		arr, ok := v.([]any)
		if !ok || len(arr) != 3 {
			return fmt.Errorf("field %q: want RGB triple, tree has %T", f.Path, v)
		}
	default:
		return fmt.Errorf("field %q: unknown kind %q", f.Path, f.Kind)
	}
	return nil
}

// Accepts reports whether v is a well-typed value for the field. Enum values
// must also be one of the declared options.
func (f Field) Accepts(v any) bool {
	switch f.Kind {
	case KindNumber:
		_, ok := v.(float64)
		return ok
	case KindToggle:
		_, ok := v.(bool)
		return ok
	case KindEnum:
		var opt string
		switch val := v.(type) {
		case string:
			if f.Numeric {
				return false
			}
			opt = val
		case float64:
			if !f.Numeric {
				return false
			}
			opt = strconv.FormatFloat(val, 'f', -1, 64)
		default:
			return false
		}
		for _, o := range f.Options {
			if o == opt {
				return true
			}
		}
		return false
	case KindColor:
		arr, ok := v.([]any)
		if !ok || len(arr) != 3 {
			return false
		}
		for _, c := range arr {
			if _, ok := c.(float64); !ok {
				return false
			}
		}
		return true
	}
	return false
}

// Schema enumerates every field the editor panel binds. Paths here are
// asserted against the default tree at startup, so a typo fails fast instead
// of producing an inert binding.
func Schema() []Field {
	return []Field{
		{Path: "camera.fov", Label: "Field of View", Kind: KindNumber, Min: 0.4, Max: 1.6, Step: 0.05},
		{Path: "camera.pitchMin", Label: "Pitch Min", Kind: KindNumber, Min: -1.55, Max: 0, Step: 0.05},
		{Path: "camera.pitchMax", Label: "Pitch Max", Kind: KindNumber, Min: 0, Max: 1.55, Step: 0.05},
		{Path: "camera.inertia", Label: "Inertia", Kind: KindNumber, Min: 0, Max: 0.95, Step: 0.05},

		{Path: "ground.visible", Label: "Show Grid", Kind: KindToggle},
		{Path: "ground.size", Label: "Grid Size", Kind: KindNumber, Min: 50, Max: 500, Step: 10},
		{Path: "ground.lineWidth", Label: "Line Width", Kind: KindNumber, Min: 0.005, Max: 0.1, Step: 0.005},
		{Path: "ground.majorEvery", Label: "Major Line Every", Kind: KindEnum, Options: []string{"5", "10", "20"}, Numeric: true},
		{Path: "ground.fadeStart", Label: "Fade Start", Kind: KindNumber, Min: 5, Max: 200, Step: 5},
		{Path: "ground.fadeEnd", Label: "Fade End", Kind: KindNumber, Min: 10, Max: 400, Step: 5},
		{Path: "ground.color", Label: "Grid Color", Kind: KindColor},
		{Path: "ground.opacity", Label: "Grid Opacity", Kind: KindNumber, Min: 0, Max: 1, Step: 0.05},

		{Path: "movement.moveSpeed", Label: "Move Speed", Kind: KindNumber, Min: 1, Max: 30, Step: 0.5},
		{Path: "movement.sprintMultiplier", Label: "Sprint Multiplier", Kind: KindNumber, Min: 1, Max: 5, Step: 0.25},
		{Path: "movement.mouseTurnSpeed", Label: "Mouse Turn Speed", Kind: KindNumber, Min: 0.1, Max: 4, Step: 0.1},
		{Path: "movement.jumpHeight", Label: "Jump Height", Kind: KindNumber, Min: 0, Max: 4, Step: 0.1},
		{Path: "movement.eyeHeight", Label: "Eye Height", Kind: KindNumber, Min: 0.8, Max: 2.4, Step: 0.05},

		{Path: "prop.spinEnabled", Label: "Spin", Kind: KindToggle},
		{Path: "prop.spinSpeed", Label: "Spin Speed", Kind: KindNumber, Min: 0, Max: 2, Step: 0.05},
		{Path: "prop.bobEnabled", Label: "Bob", Kind: KindToggle},
		{Path: "prop.bobAmplitude", Label: "Bob Amplitude", Kind: KindNumber, Min: 0, Max: 0.5, Step: 0.01},
		{Path: "prop.bobFrequency", Label: "Bob Frequency", Kind: KindNumber, Min: 0.05, Max: 3, Step: 0.05},

		{Path: "environment.intensity", Label: "Env Intensity", Kind: KindNumber, Min: 0, Max: 4, Step: 0.1},
		{Path: "environment.rotation", Label: "Env Rotation", Kind: KindNumber, Min: 0, Max: 6.28, Step: 0.01},
		{Path: "environment.tint", Label: "Env Tint", Kind: KindColor},
		{Path: "environment.skybox", Label: "Skybox", Kind: KindEnum, Options: []string{"studio", "sunset", "night"}},
		{Path: "environment.fog", Label: "Fog", Kind: KindToggle},
		{Path: "environment.fogDensity", Label: "Fog Density", Kind: KindNumber, Min: 0.001, Max: 0.1, Step: 0.001},

		{Path: "render.exposure", Label: "Exposure", Kind: KindNumber, Min: 0.1, Max: 4, Step: 0.05},
		{Path: "render.contrast", Label: "Contrast", Kind: KindNumber, Min: 0.5, Max: 2, Step: 0.05},
		{Path: "render.toneMapping", Label: "Tone Mapping", Kind: KindEnum, Options: []string{"aces", "standard", "none"}},
		{Path: "render.fxaa", Label: "FXAA", Kind: KindToggle},
		{Path: "render.bloom.enabled", Label: "Bloom", Kind: KindToggle},
		{Path: "render.bloom.weight", Label: "Bloom Weight", Kind: KindNumber, Min: 0, Max: 1, Step: 0.01},
		{Path: "render.bloom.threshold", Label: "Bloom Threshold", Kind: KindNumber, Min: 0, Max: 1.5, Step: 0.05},
		{Path: "render.sharpen.enabled", Label: "Sharpen", Kind: KindToggle},
		{Path: "render.sharpen.amount", Label: "Sharpen Amount", Kind: KindNumber, Min: 0, Max: 1, Step: 0.05},
		{Path: "render.grain.enabled", Label: "Grain", Kind: KindToggle},
		{Path: "render.grain.intensity", Label: "Grain Intensity", Kind: KindNumber, Min: 0, Max: 30, Step: 1},
		{Path: "render.vignette.enabled", Label: "Vignette", Kind: KindToggle},
		{Path: "render.vignette.weight", Label: "Vignette Weight", Kind: KindNumber, Min: 0, Max: 2, Step: 0.05},
	}
}
