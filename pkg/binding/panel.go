package binding

import "showroomgo/pkg/params"

// Hooks are side-channels the panel mirrors specific edits into, beyond the
// normal model write. The viewer uses them to update HUD readouts without
// polling the tree.
type Hooks struct {
	MoveSpeed func(float64)
	MouseTurn func(float64)
}

// BuildPanel walks the declared schema and binds one control per field, plus
// a collapse toggle per section. Section order follows the schema declaration
// order.
func BuildPanel(r *Registry, hooks Hooks) {
	seen := make(map[string]bool)
	for _, f := range r.model.Schema() {
		section := sectionOf(f.Path)
		if section != "" && !seen[section] {
			seen[section] = true
			r.BindBoolean("panels."+section+".open", nil)
		}
		bindField(r, f, hooks)
	}
}

func bindField(r *Registry, f params.Field, hooks Hooks) {
	switch f.Kind {
	case params.KindNumber:
		var extra func(float64)
		switch f.Path {
		case "movement.moveSpeed":
			extra = hooks.MoveSpeed
		case "movement.mouseTurnSpeed":
			extra = hooks.MouseTurn
		}
		r.BindNumeric(f.Path, f.Min, f.Max, f.Step, extra)
	case params.KindEnum:
		r.BindEnum(f.Path, f.Options, nil)
	case params.KindToggle:
		r.BindBoolean(f.Path, nil)
	case params.KindColor:
		r.BindColor(f.Path, nil)
	}
}

func sectionOf(path string) string {
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			return path[:i]
		}
	}
	return ""
}
