package binding

import (
	"testing"

	"showroomgo/pkg/paths"
)

func TestBuildPanel_BindsEverything(t *testing.T) {
	r, model, factory, _ := newTestRegistry(t)

	BuildPanel(r, Hooks{})

	// One control per declared field, plus one collapse toggle per section.
	sections := make(map[string]bool)
	for _, f := range model.Schema() {
		if _, ok := factory.controls[f.Path]; !ok {
			t.Errorf("no control bound for %s", f.Path)
		}
		sections[sectionOf(f.Path)] = true
	}
	for s := range sections {
		if _, ok := factory.controls["panels."+s+".open"]; !ok {
			t.Errorf("no collapse toggle bound for section %s", s)
		}
	}
	if got, want := r.Bindings(), len(model.Schema())+len(sections); got != want {
		t.Errorf("Bindings() = %d, want %d", got, want)
	}
}

func TestBuildPanel_Hooks(t *testing.T) {
	r, model, factory, _ := newTestRegistry(t)

	var speed, turn float64
	BuildPanel(r, Hooks{
		MoveSpeed: func(v float64) { speed = v },
		MouseTurn: func(v float64) { turn = v },
	})

	factory.numeric["movement.moveSpeed"](10)
	factory.numeric["movement.mouseTurnSpeed"](2)

	if speed != 10 {
		t.Errorf("MoveSpeed hook got %v, want 10", speed)
	}
	if turn != 2 {
		t.Errorf("MouseTurn hook got %v, want 2", turn)
	}
	if got, _ := paths.Get(model.Tree(), paths.Parse("movement.moveSpeed")); got != 10.0 {
		t.Errorf("movement.moveSpeed = %v, want 10 (hook fires in addition to write)", got)
	}
}
