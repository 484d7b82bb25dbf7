// Package binding wires UI controls to parameter tree paths bidirectionally.
// User edits write through pkg/paths and mark the persistence store dirty;
// bulk resets copy defaults out of the startup snapshot and refresh every
// bound control. The UI host is abstracted behind a control factory, so the
// registry itself never touches a toolkit.
package binding

import (
	"log/slog"
	"strconv"

	"showroomgo/pkg/params"
	"showroomgo/pkg/paths"
)

// Control is one live UI control. SetValue pushes a model value into the
// control without emitting a change event.
type Control interface {
	SetValue(v any)
}

// Factory creates controls; the UI host implements it. Options for each kind
// come from the declared field.
type Factory interface {
	NewNumeric(f params.Field, value float64, onChange func(float64)) Control
	NewEnum(f params.Field, value string, onChange func(string)) Control
	NewToggle(f params.Field, value bool, onChange func(bool)) Control
	NewColor(f params.Field, value [3]float64, onChange func([3]float64)) Control
}

// Saver receives dirty marks after every model write.
type Saver interface {
	MarkDirty(reason string)
}

type entry struct {
	path    paths.Path
	refresh func()
}

// Registry associates controls with parameter paths.
type Registry struct {
	model   *params.Model
	saver   Saver
	factory Factory
	entries []entry
}

// NewRegistry creates a registry over the given model, persistence store and
// control factory.
func NewRegistry(model *params.Model, saver Saver, factory Factory) *Registry {
	return &Registry{
		model:   model,
		saver:   saver,
		factory: factory,
	}
}

// BindNumeric creates a slider-style control for a numeric leaf. The optional
// onExtra hook fires after each committed change, carrying the new value.
//
// A path that does not resolve to a numeric leaf yields an inert binding: the
// control is created with the snapshot (or min) fallback, but refresh and
// write-back are no-ops.
func (r *Registry) BindNumeric(path string, min, max, step float64, onExtra func(float64)) Control {
	p := paths.Parse(path)
	field, ok := r.model.Field(path)
	if !ok {
		field = params.Field{Path: path, Kind: params.KindNumber, Min: min, Max: max, Step: step}
	}
	field.Min, field.Max, field.Step = min, max, step

	cur, live := r.numericAt(p)
	if !live {
		slog.Debug("Binding: inert numeric binding", "path", path)
		return r.factory.NewNumeric(field, cur, func(float64) {})
	}

	var ctrl Control
	ctrl = r.factory.NewNumeric(field, cur, func(v float64) {
		if err := paths.Set(r.model.Tree(), p, v); err != nil {
			slog.Error("Binding: write failed", "path", path, "error", err)
			return
		}
		r.saver.MarkDirty(path)
		if onExtra != nil {
			onExtra(v)
		}
	})
	r.entries = append(r.entries, entry{path: p, refresh: func() {
		if v, ok := r.numericAt(p); ok {
			ctrl.SetValue(v)
		}
	}})
	return ctrl
}

// BindEnum creates a fixed-choice control. When the field is declared numeric
// (or, for undeclared paths, the current model value is a number), the
// committed option is coerced to a number before writing back, preserving the
// leaf's type across UI round-trips.
func (r *Registry) BindEnum(path string, options []string, onExtra func(string)) Control {
	p := paths.Parse(path)
	field, declared := r.model.Field(path)
	if !declared {
		field = params.Field{Path: path, Kind: params.KindEnum, Options: options}
	}
	if len(options) > 0 {
		field.Options = options
	}

	cur, ok := paths.Get(r.model.Tree(), p)
	numeric := field.Numeric
	if !declared {
		_, numeric = cur.(float64)
	}

	display, live := enumDisplay(cur, ok)
	if !live {
		slog.Debug("Binding: inert enum binding", "path", path)
		return r.factory.NewEnum(field, display, func(string) {})
	}

	var ctrl Control
	ctrl = r.factory.NewEnum(field, display, func(v string) {
		var committed any = v
		if numeric {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				slog.Error("Binding: non-numeric option for numeric field", "path", path, "option", v)
				return
			}
			committed = f
		}
		if err := paths.Set(r.model.Tree(), p, committed); err != nil {
			slog.Error("Binding: write failed", "path", path, "error", err)
			return
		}
		r.saver.MarkDirty(path)
		if onExtra != nil {
			onExtra(v)
		}
	})
	r.entries = append(r.entries, entry{path: p, refresh: func() {
		if v, ok := paths.Get(r.model.Tree(), p); ok {
			if display, ok := enumDisplay(v, true); ok {
				ctrl.SetValue(display)
			}
		}
	}})
	return ctrl
}

// BindBoolean creates a two-state control for a boolean leaf.
func (r *Registry) BindBoolean(path string, onExtra func(bool)) Control {
	p := paths.Parse(path)
	field, ok := r.model.Field(path)
	if !ok {
		field = params.Field{Path: path, Kind: params.KindToggle}
	}

	cur, live := r.boolAt(p)
	if !live {
		slog.Debug("Binding: inert boolean binding", "path", path)
		return r.factory.NewToggle(field, cur, func(bool) {})
	}

	var ctrl Control
	ctrl = r.factory.NewToggle(field, cur, func(v bool) {
		if err := paths.Set(r.model.Tree(), p, v); err != nil {
			slog.Error("Binding: write failed", "path", path, "error", err)
			return
		}
		r.saver.MarkDirty(path)
		if onExtra != nil {
			onExtra(v)
		}
	})
	r.entries = append(r.entries, entry{path: p, refresh: func() {
		if v, ok := r.boolAt(p); ok {
			ctrl.SetValue(v)
		}
	}})
	return ctrl
}

// BindColor creates a color-picker control for an RGB triple leaf.
func (r *Registry) BindColor(path string, onExtra func([3]float64)) Control {
	p := paths.Parse(path)
	field, ok := r.model.Field(path)
	if !ok {
		field = params.Field{Path: path, Kind: params.KindColor}
	}

	cur, live := r.colorAt(p)
	if !live {
		slog.Debug("Binding: inert color binding", "path", path)
		return r.factory.NewColor(field, cur, func([3]float64) {})
	}

	var ctrl Control
	ctrl = r.factory.NewColor(field, cur, func(v [3]float64) {
		val := []any{v[0], v[1], v[2]}
		if err := paths.Set(r.model.Tree(), p, val); err != nil {
			slog.Error("Binding: write failed", "path", path, "error", err)
			return
		}
		r.saver.MarkDirty(path)
		if onExtra != nil {
			onExtra(v)
		}
	})
	r.entries = append(r.entries, entry{path: p, refresh: func() {
		if v, ok := r.colorAt(p); ok {
			ctrl.SetValue(v)
		}
	}})
	return ctrl
}

// Refresh re-reads the model into every bound control whose path starts with
// prefix. An empty prefix refreshes everything; used after a bulk reset.
func (r *Registry) Refresh(prefix string) {
	pre := paths.Parse(prefix)
	for _, e := range r.entries {
		if e.path.HasPrefix(pre) {
			e.refresh()
		}
	}
}

// ResetSubtree copies the given subtrees out of the startup snapshot into the
// live model, then refreshes every control. Paths absent from the snapshot
// are silently skipped. The reset is persisted like any other edit.
func (r *Registry) ResetSubtree(pathList ...string) {
	changed := false
	for _, path := range pathList {
		p := paths.Parse(path)
		def, ok := paths.Get(r.model.Snapshot(), p)
		if !ok {
			slog.Debug("Binding: reset skipped, path not in snapshot", "path", path)
			continue
		}
		if err := paths.Set(r.model.Tree(), p, paths.DeepCopy(def)); err != nil {
			slog.Error("Binding: reset write failed", "path", path, "error", err)
			continue
		}
		changed = true
	}
	if changed {
		r.saver.MarkDirty("reset")
	}
	r.Refresh("")
}

// Bindings reports how many live bindings the registry holds.
func (r *Registry) Bindings() int { return len(r.entries) }

func (r *Registry) numericAt(p paths.Path) (float64, bool) {
	if v, ok := paths.Get(r.model.Tree(), p); ok {
		if f, ok := v.(float64); ok {
			return f, true
		}
	}
	// Fallback for the control's initial display only.
	if v, ok := paths.Get(r.model.Snapshot(), p); ok {
		if f, ok := v.(float64); ok {
			return f, false
		}
	}
	return 0, false
}

func (r *Registry) boolAt(p paths.Path) (bool, bool) {
	if v, ok := paths.Get(r.model.Tree(), p); ok {
		if b, ok := v.(bool); ok {
			return b, true
		}
	}
	return false, false
}

func (r *Registry) colorAt(p paths.Path) ([3]float64, bool) {
	v, ok := paths.Get(r.model.Tree(), p)
	if !ok {
		return [3]float64{}, false
	}
	arr, ok := v.([]any)
	if !ok || len(arr) != 3 {
		return [3]float64{}, false
	}
	var out [3]float64
	for i, c := range arr {
		f, ok := c.(float64)
		if !ok {
			return [3]float64{}, false
		}
		out[i] = f
	}
	return out, true
}

func enumDisplay(v any, ok bool) (string, bool) {
	if !ok {
		return "", false
	}
	switch val := v.(type) {
	case string:
		return val, true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	default:
		return "", false
	}
}
