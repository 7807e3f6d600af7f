package kitchen

import (
	"testing"

	"virtual-kitchen/internal/core/catalog"
)

func TestResolve(t *testing.T) {
	store := testCatalog()
	r := NewResolver(store, "")
	onion, _ := store.IngredientByID(2)

	tests := []struct {
		name    string
		state   string
		actions []string
		want    string
		ok      bool
	}{
		{name: "scalar from", state: "whole", actions: []string{"slice"}, want: "slice", ok: true},
		{name: "array from", state: "sliced", actions: []string{"dice"}, want: "dice", ok: true},
		{name: "declared order wins", state: "whole", actions: []string{"slice", "dice"}, want: "slice", ok: true},
		{name: "skips unknown actions", state: "sliced", actions: []string{"mix", "slice", "dice"}, want: "dice", ok: true},
		{name: "no match", state: "diced", actions: []string{"slice", "dice"}},
		{name: "no actions", state: "whole"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := &Instance{Ingredient: onion, State: tt.state}
			got, ok := r.Resolve(inst, catalog.Utensil{Actions: tt.actions})
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if ok && got.Action != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got.Action)
			}
		})
	}
}

func TestVisualFor(t *testing.T) {
	store := testCatalog()
	store.Append(catalog.Ingredient{
		Name:         "Grated Lime",
		BaseName:     "Lime",
		Image:        "/images/zest.png",
		States:       []catalog.State{{Name: "grated"}},
		DefaultState: "grated",
	})
	r := NewResolver(store, "/assets/")

	lime, _ := store.IngredientByID(1)
	derived := catalog.Ingredient{Name: "Sliced Lime", BaseName: "Lime", States: []catalog.State{{Name: "sliced"}}, DefaultState: "sliced"}

	tests := []struct {
		name  string
		def   catalog.Ingredient
		state string
		want  string
	}{
		{name: "own state", def: lime, state: "sliced", want: "/images/lime_sliced.png"},
		{name: "base definition state", def: derived, state: "juiced", want: "/images/lime_juiced.png"},
		{name: "sibling definition", def: lime, state: "grated", want: "/images/zest.png"},
		{name: "convention", def: lime, state: "zested", want: "/assets/lime_zested.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.VisualFor(tt.def, tt.state); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
