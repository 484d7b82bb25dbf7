package params

import (
	"testing"

	"showroomgo/pkg/paths"
)

func TestNew_SchemaResolves(t *testing.T) {
	m, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if len(m.Schema()) == 0 {
		t.Fatal("Schema() is empty")
	}
	for _, f := range m.Schema() {
		if _, ok := paths.Get(m.Tree(), paths.Parse(f.Path)); !ok {
			t.Errorf("schema field %q does not resolve in tree", f.Path)
		}
	}
}

func TestSnapshot_IsolatedFromLiveTree(t *testing.T) {
	m, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := paths.Set(m.Tree(), paths.Parse("movement.moveSpeed"), 12.0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if got, _ := paths.Get(m.Tree(), paths.Parse("movement.moveSpeed")); got != 12.0 {
		t.Errorf("live moveSpeed = %v, want 12", got)
	}
	if got, _ := paths.Get(m.Snapshot(), paths.Parse("movement.moveSpeed")); got != 6.0 {
		t.Errorf("snapshot moveSpeed = %v, want 6", got)
	}
}

func TestField_Lookup(t *testing.T) {
	m, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	f, ok := m.Field("environment.skybox")
	if !ok {
		t.Fatal("Field(environment.skybox) not found")
	}
	if f.Kind != KindEnum {
		t.Errorf("Kind = %q, want %q", f.Kind, KindEnum)
	}
	if len(f.Options) != 3 {
		t.Errorf("Options = %v, want 3 entries", f.Options)
	}

	if _, ok := m.Field("no.such.field"); ok {
		t.Error("Field() found a field that does not exist")
	}
}

func TestFieldValidate(t *testing.T) {
	tree := DefaultTree()

	tests := []struct {
		name    string
		field   Field
		wantErr bool
	}{
		{"valid number", Field{Path: "camera.fov", Kind: KindNumber}, false},
		{"valid toggle", Field{Path: "ground.visible", Kind: KindToggle}, false},
		{"valid color", Field{Path: "ground.color", Kind: KindColor}, false},
		{"valid numeric enum", Field{Path: "ground.majorEvery", Kind: KindEnum, Options: []string{"5", "10"}, Numeric: true}, false},
		{"missing path", Field{Path: "camera.zoom", Kind: KindNumber}, true},
		{"kind mismatch", Field{Path: "ground.visible", Kind: KindNumber}, true},
		{"enum without options", Field{Path: "environment.skybox", Kind: KindEnum}, true},
		{"string enum on numeric leaf", Field{Path: "ground.majorEvery", Kind: KindEnum, Options: []string{"x"}}, true},
		{"color on scalar", Field{Path: "camera.fov", Kind: KindColor}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.field.validate(tree)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFieldAccepts(t *testing.T) {
	number := Field{Path: "camera.fov", Kind: KindNumber}
	toggle := Field{Path: "ground.visible", Kind: KindToggle}
	skybox := Field{Path: "environment.skybox", Kind: KindEnum, Options: []string{"studio", "sunset", "night"}}
	major := Field{Path: "ground.majorEvery", Kind: KindEnum, Options: []string{"5", "10", "20"}, Numeric: true}
	color := Field{Path: "ground.color", Kind: KindColor}

	tests := []struct {
		name  string
		field Field
		value any
		want  bool
	}{
		{"number ok", number, 1.2, true},
		{"number rejects string", number, "1.2", false},
		{"toggle ok", toggle, true, true},
		{"toggle rejects number", toggle, 1.0, false},
		{"enum ok", skybox, "sunset", true},
		{"enum rejects unknown option", skybox, "void", false},
		{"enum rejects number", skybox, 2.0, false},
		{"numeric enum ok", major, 10.0, true},
		{"numeric enum rejects off-list", major, 7.0, false},
		{"numeric enum rejects string", major, "10", false},
		{"color ok", color, []any{0.1, 0.2, 0.3}, true},
		{"color rejects short array", color, []any{0.1, 0.2}, false},
		{"color rejects mixed types", color, []any{0.1, "x", 0.3}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.field.Accepts(tt.value); got != tt.want {
				t.Errorf("Accepts(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestTransient_CoversSession(t *testing.T) {
	m, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	found := false
	for _, p := range m.Transient() {
		if p.String() == "session" {
			found = true
		}
		if _, ok := paths.Get(m.Tree(), p); !ok {
			t.Errorf("transient path %q does not resolve in tree", p)
		}
	}
	if !found {
		t.Error("Transient() does not include session")
	}
}
