package kitchen

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"virtual-kitchen/internal/core/catalog"
)

func testCatalog() *catalog.Store {
	return catalog.NewStore(
		[]catalog.Ingredient{
			{
				ID:    1,
				Name:  "Lime",
				Image: "/images/lime.png",
				Tags:  []string{"fruit", "whole"},
				Sizes: map[string]float64{"chopping_board": 0.4},
				States: []catalog.State{
					{Name: "whole", Image: "/images/lime.png"},
					{Name: "sliced", Image: "/images/lime_sliced.png"},
					{Name: "juiced", Image: "/images/lime_juiced.png"},
				},
				DefaultState: "whole",
				AllowedActions: map[string]catalog.Rule{
					"slice":   {From: catalog.StateSet{"whole"}, To: "sliced"},
					"squeeze": {From: catalog.StateSet{"sliced"}, To: "juiced"},
				},
			},
			{
				ID:     2,
				Name:   "Onion",
				Image:  "/images/onion.png",
				Tags:   []string{"vegetable"},
				States: []catalog.State{{Name: "whole", Image: "/images/onion.png"}, {Name: "sliced"}, {Name: "diced"}},
				AllowedActions: map[string]catalog.Rule{
					"slice": {From: catalog.StateSet{"whole"}, To: "sliced"},
					"dice":  {From: catalog.StateSet{"whole", "sliced"}, To: "diced"},
				},
				DefaultState: "whole",
			},
			{
				ID:           3,
				Name:         "Salt",
				Image:        "/images/salt.png",
				States:       []catalog.State{{Name: "ground", Image: "/images/salt.png"}},
				DefaultState: "ground",
			},
		},
		[]catalog.Cookware{
			{ID: 1, Name: "Chopping Board", AcceptsStates: []string{"whole"}},
			{ID: 2, Name: "Cutting Mat", AcceptsStates: []string{"whole", "sliced"}},
			{ID: 3, Name: "Juicer", AcceptsStates: []string{"sliced"}, CentersIngredients: true, ClearBeforeAdd: true},
			{ID: 4, Name: "Bowl", AcceptsStates: []string{catalog.WildcardState}},
		},
		[]catalog.Utensil{
			{ID: 1, Name: "Knife", Actions: []string{"slice"}, CompatibleWith: []string{"chopping_board"}},
			{ID: 2, Name: "Chef Knife", Actions: []string{"dice", "slice"}, CompatibleWith: []string{"cutting_mat"}},
			{ID: 3, Name: "Whisk", Actions: []string{"mix"}, CompatibleWith: []string{"bowl"}},
		},
	)
}

// recorder 收集通知
type recorder struct {
	events []Event
}

func (r *recorder) Notify(e Event) {
	r.events = append(r.events, e)
}

func (r *recorder) kinds() []EventKind {
	out := make([]EventKind, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("inst-%d", n)
	}
}

func newTestWorkspace(t *testing.T, opts ...Option) (*Workspace, *recorder) {
	t.Helper()
	rec := &recorder{}
	opts = append([]Option{WithNotifier(rec), WithIDGenerator(sequentialIDs())}, opts...)
	return New(testCatalog(), opts...), rec
}

func mustIngredient(t *testing.T, ws *Workspace, id int) catalog.Ingredient {
	t.Helper()
	def, ok := ws.Catalog().IngredientByID(id)
	if !ok {
		t.Fatalf("ingredient %d missing", id)
	}
	return def
}

func TestSelectCookwareResetsScene(t *testing.T) {
	ws, _ := newTestWorkspace(t)

	if ws.Phase() != PhaseEmpty {
		t.Fatalf("expected empty phase, got %s", ws.Phase())
	}

	for _, id := range []int{1, 2, 4} {
		ws.SelectCookwareByID(4)
		ws.SelectUtensilByID(3)
		ws.PlaceIngredient(mustIngredient(t, ws, 1), 10, 10)
		ws.PlaceIngredient(mustIngredient(t, ws, 3), 20, 20)

		out := ws.SelectCookwareByID(id)
		if !out.Changed {
			t.Fatal("expected selecting cookware to change the workspace")
		}
		snap := ws.Snapshot()
		if len(snap.Ingredients) != 0 {
			t.Fatalf("expected no ingredients after selecting cookware %d, got %d", id, len(snap.Ingredients))
		}
		if snap.Utensil != nil {
			t.Fatal("expected utensil to be cleared")
		}
		if snap.Phase != PhaseStaged.String() {
			t.Fatalf("expected staged phase, got %s", snap.Phase)
		}
	}
}

func TestSelectCookwareDiscardsWithoutEmitting(t *testing.T) {
	ws, rec := newTestWorkspace(t)

	ws.SelectCookwareByID(1)
	ws.PlaceIngredient(mustIngredient(t, ws, 1), 10, 10)
	ws.SelectCookwareByID(4)

	if len(rec.events) != 0 {
		t.Fatalf("expected cookware change to discard silently, got %v", rec.kinds())
	}
}

func TestSelectUtensilToggles(t *testing.T) {
	ws, _ := newTestWorkspace(t)
	ws.SelectCookwareByID(1)

	for _, id := range []int{1, 2, 3} {
		u, _ := ws.Catalog().UtensilByID(id)
		ws.SelectUtensil(&u)
		if ws.Snapshot().Utensil == nil {
			t.Fatalf("expected utensil %d to be active", id)
		}
		ws.SelectUtensil(&u)
		if ws.Snapshot().Utensil != nil {
			t.Fatalf("expected second selection of utensil %d to clear it", id)
		}
	}

	knife, _ := ws.Catalog().UtensilByID(1)
	whisk, _ := ws.Catalog().UtensilByID(3)
	ws.SelectUtensil(&knife)
	ws.SelectUtensil(&whisk)
	if got := ws.Snapshot().Utensil; got == nil || got.ID != 3 {
		t.Fatalf("expected switching utensils to activate whisk, got %+v", got)
	}

	if out := ws.SelectUtensil(nil); !out.Changed || ws.Snapshot().Utensil != nil {
		t.Fatal("expected nil to select bare hands")
	}
	if out := ws.SelectUtensil(nil); out.Changed {
		t.Fatal("expected bare hands twice to be a no-op")
	}
}

func TestPlaceIngredientRoundTrip(t *testing.T) {
	ws, _ := newTestWorkspace(t)
	ws.SelectCookwareByID(1)

	out := ws.PlaceIngredient(mustIngredient(t, ws, 1), 120, 80)
	if !out.Changed || out.Diagnostic != nil {
		t.Fatalf("expected placement to succeed, got %+v", out)
	}

	snap := ws.Snapshot()
	if len(snap.Ingredients) != 1 {
		t.Fatalf("expected exactly one instance, got %d", len(snap.Ingredients))
	}
	inst := snap.Ingredients[0]
	if inst.State != "whole" {
		t.Fatalf("expected whole, got %q", inst.State)
	}
	if inst.X != 120 || inst.Y != 80 {
		t.Fatalf("expected drop point (120, 80), got (%v, %v)", inst.X, inst.Y)
	}
	if inst.SizeRatio != 0.4 || math.Abs(inst.Size-120) > 1e-9 {
		t.Fatalf("expected board ratio 0.4 (120px), got %v (%vpx)", inst.SizeRatio, inst.Size)
	}
	if inst.Image != "/images/lime.png" {
		t.Fatalf("expected default visual, got %q", inst.Image)
	}
}

func TestPlaceIngredientUniqueInstanceIDs(t *testing.T) {
	ws := New(testCatalog())
	ws.SelectCookwareByID(4)

	lime := mustIngredient(t, ws, 1)
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		ws.PlaceIngredient(lime, 0, 0)
	}
	for _, inst := range ws.Snapshot().Ingredients {
		if seen[inst.InstanceID] {
			t.Fatalf("duplicate instance id %s", inst.InstanceID)
		}
		seen[inst.InstanceID] = true
	}
}

func TestPlaceIngredientRejections(t *testing.T) {
	tests := []struct {
		name     string
		cookware int
		ingID    int
		state    string
		want     error
	}{
		{name: "no cookware", ingID: 1, want: ErrNoCookware},
		{name: "state not accepted", cookware: 1, ingID: 3, want: ErrStateNotAccepted},
		{name: "explicit state not accepted", cookware: 1, ingID: 1, state: "sliced", want: ErrStateNotAccepted},
		{name: "unknown state", cookware: 4, ingID: 1, state: "grilled", want: ErrUnknownDefinition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws, rec := newTestWorkspace(t)
			if tt.cookware != 0 {
				ws.SelectCookwareByID(tt.cookware)
			}
			out := ws.PlaceIngredientInState(mustIngredient(t, ws, tt.ingID), tt.state, 5, 5)
			if out.Changed {
				t.Fatal("expected no change")
			}
			if !errors.Is(out.Diagnostic, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, out.Diagnostic)
			}
			if len(ws.Snapshot().Ingredients) != 0 || len(rec.events) != 0 {
				t.Fatal("expected workspace untouched")
			}
		})
	}
}

func TestWildcardCookwareAcceptsAnyState(t *testing.T) {
	ws, _ := newTestWorkspace(t)
	ws.SelectCookwareByID(4)

	out := ws.PlaceIngredient(mustIngredient(t, ws, 3), 0, 0)
	if !out.Changed {
		t.Fatalf("expected bowl to accept ground salt, got %v", out.Diagnostic)
	}
	if got := ws.Snapshot().Ingredients[0].SizeRatio; got != DefaultSizeRatio {
		t.Fatalf("expected default size ratio, got %v", got)
	}
}

func TestSliceLimeScenario(t *testing.T) {
	ws, rec := newTestWorkspace(t)

	ws.SelectCookwareByID(1)
	ws.PlaceIngredient(mustIngredient(t, ws, 1), 100, 100)
	ws.SelectUtensilByID(1)

	id := ws.Snapshot().Ingredients[0].InstanceID
	out := ws.ApplyUtensil(id)
	if !out.Changed {
		t.Fatalf("expected slice to apply, got %v", out.Diagnostic)
	}

	inst := ws.Snapshot().Ingredients[0]
	if inst.State != "sliced" || inst.Image != "/images/lime_sliced.png" {
		t.Fatalf("expected sliced lime visual, got %q / %q", inst.State, inst.Image)
	}

	if len(rec.events) != 2 {
		t.Fatalf("expected action and processed events, got %v", rec.kinds())
	}
	if rec.events[0].Kind != EventActionPerformed || rec.events[0].Action != "slice" {
		t.Fatalf("expected slice action event, got %+v", rec.events[0])
	}
	processed := rec.events[1]
	if processed.Kind != EventProcessedIngredient || processed.Ingredient.Name != "Sliced Lime" {
		t.Fatalf("expected Sliced Lime to be announced, got %+v", processed)
	}

	sliced, ok := ws.Catalog().FindIngredient(func(ing catalog.Ingredient) bool { return ing.Name == "Sliced Lime" })
	if !ok {
		t.Fatal("expected Sliced Lime in the session catalog")
	}
	if sliced.DefaultState != "sliced" || sliced.ID == 0 {
		t.Fatalf("unexpected derived entry %+v", sliced)
	}

	// 再切一次：sliced 沒有對應規則，且砧板不接受 sliced
	rec.events = nil
	out = ws.ApplyUtensil(id)
	if out.Changed || len(rec.events) != 0 {
		t.Fatalf("expected repeat slice to be a silent no-op, got %+v", out)
	}
	if ws.Snapshot().Ingredients[0].State != "sliced" {
		t.Fatal("expected state to stay sliced")
	}
}

func TestSliceTwiceDoesNotDuplicateCatalogEntry(t *testing.T) {
	ws, rec := newTestWorkspace(t)
	ws.SelectCookwareByID(1)
	ws.SelectUtensilByID(1)

	lime := mustIngredient(t, ws, 1)
	ws.PlaceIngredient(lime, 0, 0)
	ws.PlaceIngredient(lime, 50, 50)
	for _, inst := range ws.Snapshot().Ingredients {
		ws.ApplyUtensil(inst.InstanceID)
	}

	before, _, _ := testCatalog().Counts()
	after, _, _ := ws.Catalog().Counts()
	if after != before+1 {
		t.Fatalf("expected exactly one derived entry, got %d new", after-before)
	}

	var actions, processed int
	for _, e := range rec.events {
		switch e.Kind {
		case EventActionPerformed:
			actions++
		case EventProcessedIngredient:
			processed++
		}
	}
	if actions != 2 || processed != 1 {
		t.Fatalf("expected 2 actions and 1 processed event, got %d and %d", actions, processed)
	}
}

func TestApplyUtensilNoMatchLeavesStateUnchanged(t *testing.T) {
	ws, rec := newTestWorkspace(t)
	ws.SelectCookwareByID(4)
	ws.PlaceIngredient(mustIngredient(t, ws, 1), 0, 0)
	ws.PlaceIngredient(mustIngredient(t, ws, 2), 0, 0)
	ws.PlaceIngredient(mustIngredient(t, ws, 3), 0, 0)
	ws.SelectUtensilByID(3)

	for _, inst := range ws.Snapshot().Ingredients {
		out := ws.ApplyUtensil(inst.InstanceID)
		if !errors.Is(out.Diagnostic, ErrNoApplicableTransition) {
			t.Fatalf("expected no applicable transition for %s, got %v", inst.Name, out.Diagnostic)
		}
	}
	for i, inst := range ws.Snapshot().Ingredients {
		if inst.State != inst.DefaultState {
			t.Fatalf("instance %d changed state to %q", i, inst.State)
		}
	}
	if len(rec.events) != 0 {
		t.Fatalf("expected no events, got %v", rec.kinds())
	}
}

func TestApplyUtensilPreChecks(t *testing.T) {
	ws, _ := newTestWorkspace(t)

	if out := ws.ApplyUtensil("missing"); !errors.Is(out.Diagnostic, ErrNoCookware) {
		t.Fatalf("expected no cookware, got %v", out.Diagnostic)
	}

	ws.SelectCookwareByID(4)
	ws.PlaceIngredient(mustIngredient(t, ws, 1), 0, 0)
	ws.SelectUtensilByID(1)

	id := ws.Snapshot().Ingredients[0].InstanceID
	if out := ws.ApplyUtensil(id); !errors.Is(out.Diagnostic, ErrUtensilIncompatible) {
		t.Fatalf("expected knife to be incompatible with bowl, got %v", out.Diagnostic)
	}
	if out := ws.ApplyUtensil("missing"); !errors.Is(out.Diagnostic, ErrInstanceNotFound) {
		t.Fatalf("expected instance not found, got %v", out.Diagnostic)
	}
}

func TestResolverFirstMatchWins(t *testing.T) {
	ws, rec := newTestWorkspace(t)
	ws.SelectCookwareByID(2)
	ws.PlaceIngredient(mustIngredient(t, ws, 2), 0, 0)
	ws.SelectUtensilByID(2) // Chef Knife: dice 先於 slice

	id := ws.Snapshot().Ingredients[0].InstanceID
	ws.ApplyUtensil(id)

	inst := ws.Snapshot().Ingredients[0]
	if inst.State != "diced" {
		t.Fatalf("expected dice to win by utensil order, got %q", inst.State)
	}
	if rec.events[0].Action != "dice" {
		t.Fatalf("expected dice action, got %q", rec.events[0].Action)
	}
	// 洋蔥的 diced 狀態沒有圖片，依慣例推導
	if inst.Image != "/images/onion_diced.png" {
		t.Fatalf("expected conventional visual, got %q", inst.Image)
	}
}

func TestClearBeforeAddEmitsPreviousInstance(t *testing.T) {
	ws, rec := newTestWorkspace(t)
	ws.SelectCookwareByID(3)

	sliced := mustIngredient(t, ws, 1)
	first := ws.PlaceIngredientInState(sliced, "sliced", 10, 10)
	if !first.Changed {
		t.Fatalf("expected first placement, got %v", first.Diagnostic)
	}
	firstID := ws.Snapshot().Ingredients[0].InstanceID
	if len(rec.events) != 0 {
		t.Fatalf("expected no events on first placement, got %v", rec.kinds())
	}

	second := ws.PlaceIngredientInState(sliced, "sliced", 400, 300)
	if len(second.Events) != 1 || second.Events[0].Kind != EventProcessedIngredient {
		t.Fatalf("expected previous instance to be emitted, got %+v", second.Events)
	}
	if second.Events[0].InstanceID != firstID {
		t.Fatalf("expected event for %s, got %s", firstID, second.Events[0].InstanceID)
	}
	if second.Events[0].Ingredient.DefaultState != "sliced" {
		t.Fatalf("expected emitted definition to default to sliced, got %+v", second.Events[0].Ingredient)
	}

	snap := ws.Snapshot()
	if len(snap.Ingredients) != 1 || snap.Ingredients[0].InstanceID == firstID {
		t.Fatalf("expected only the new instance to remain, got %+v", snap.Ingredients)
	}
	if snap.Ingredients[0].X != 300 || snap.Ingredients[0].Y != 200 {
		t.Fatalf("expected centred placement, got (%v, %v)", snap.Ingredients[0].X, snap.Ingredients[0].Y)
	}
}

func TestHandRuleSqueeze(t *testing.T) {
	ws, rec := newTestWorkspace(t)
	ws.SelectCookwareByID(3)
	ws.PlaceIngredientInState(mustIngredient(t, ws, 1), "sliced", 0, 0)

	id := ws.Snapshot().Ingredients[0].InstanceID
	out := ws.ApplyUtensil(id)
	if !out.Changed {
		t.Fatalf("expected squeeze by hand, got %v", out.Diagnostic)
	}
	if got := ws.Snapshot().Ingredients[0]; got.State != "juiced" || got.Image != "/images/lime_juiced.png" {
		t.Fatalf("expected juiced lime, got %q / %q", got.State, got.Image)
	}
	if rec.events[0].Action != "squeeze" {
		t.Fatalf("expected squeeze action, got %+v", rec.events[0])
	}

	// 榨過的不能再榨
	if out := ws.ApplyUtensil(id); !errors.Is(out.Diagnostic, ErrNoApplicableTransition) {
		t.Fatalf("expected no hand rule for juiced lime, got %v", out.Diagnostic)
	}
}

func TestHandRulesCanBeReplaced(t *testing.T) {
	ws, _ := newTestWorkspace(t, WithHandRules(nil))
	ws.SelectCookwareByID(3)
	ws.PlaceIngredientInState(mustIngredient(t, ws, 1), "sliced", 0, 0)

	out := ws.ApplyUtensil(ws.Snapshot().Ingredients[0].InstanceID)
	if out.Changed {
		t.Fatal("expected no bare-hand transitions without rules")
	}
}

func TestRemoveIngredientEmitsProcessed(t *testing.T) {
	ws, rec := newTestWorkspace(t)
	ws.SelectCookwareByID(2)
	ws.PlaceIngredient(mustIngredient(t, ws, 2), 0, 0)
	ws.SelectUtensilByID(2)

	id := ws.Snapshot().Ingredients[0].InstanceID
	ws.ApplyUtensil(id)
	rec.events = nil

	out := ws.RemoveIngredient(id)
	if !out.Changed || len(ws.Snapshot().Ingredients) != 0 {
		t.Fatal("expected instance to be removed")
	}
	if len(rec.events) != 1 || rec.events[0].Ingredient.Name != "Diced Onion" {
		t.Fatalf("expected Diced Onion to be emitted, got %+v", rec.events)
	}

	if out := ws.RemoveIngredient(id); !errors.Is(out.Diagnostic, ErrInstanceNotFound) {
		t.Fatalf("expected removed instance to be gone, got %v", out.Diagnostic)
	}
}

func TestRemoveUnprocessedIngredientEmitsOriginal(t *testing.T) {
	ws, rec := newTestWorkspace(t)
	ws.SelectCookwareByID(1)
	ws.PlaceIngredient(mustIngredient(t, ws, 1), 0, 0)

	before, _, _ := ws.Catalog().Counts()
	ws.RemoveIngredient(ws.Snapshot().Ingredients[0].InstanceID)
	after, _, _ := ws.Catalog().Counts()

	if after != before {
		t.Fatal("expected no new catalog entry for an unprocessed ingredient")
	}
	if rec.events[0].Ingredient.ID != 1 {
		t.Fatalf("expected the original lime to be emitted, got %+v", rec.events[0].Ingredient)
	}
}

func TestMoveIngredient(t *testing.T) {
	ws, _ := newTestWorkspace(t)
	ws.SelectCookwareByID(1)
	ws.PlaceIngredient(mustIngredient(t, ws, 1), 0, 0)

	id := ws.Snapshot().Ingredients[0].InstanceID
	if out := ws.MoveIngredient(id, 42, 24); !out.Changed {
		t.Fatal("expected move to change coordinates")
	}
	inst := ws.Snapshot().Ingredients[0]
	if inst.X != 42 || inst.Y != 24 || inst.State != "whole" {
		t.Fatalf("unexpected instance after move: %+v", inst)
	}

	ws.SelectCookwareByID(3)
	ws.PlaceIngredientInState(mustIngredient(t, ws, 1), "sliced", 0, 0)
	id = ws.Snapshot().Ingredients[0].InstanceID
	if out := ws.MoveIngredient(id, 1, 1); out.Changed {
		t.Fatal("expected centred cookware to pin ingredients")
	}
}

func TestDispatch(t *testing.T) {
	ws, _ := newTestWorkspace(t)

	steps := []Drag{
		CookwareDrag{CookwareID: 1},
		IngredientDrag{IngredientID: 1, X: 30, Y: 40},
		UtensilDrag{UtensilID: 1},
	}
	for _, d := range steps {
		if out := ws.Dispatch(d); !out.Changed {
			t.Fatalf("expected %s drag to apply, got %v", d.Kind(), out.Diagnostic)
		}
	}

	snap := ws.Snapshot()
	if snap.Cookware.Name != "Chopping Board" || snap.Utensil.Name != "Knife" || len(snap.Ingredients) != 1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	if out := ws.Dispatch(CookwareDrag{CookwareID: 99}); !errors.Is(out.Diagnostic, ErrUnknownDefinition) {
		t.Fatalf("expected unknown cookware, got %v", out.Diagnostic)
	}
}

func TestClearCookware(t *testing.T) {
	ws, _ := newTestWorkspace(t)
	if out := ws.ClearCookware(); out.Changed {
		t.Fatal("expected clearing an empty workspace to be a no-op")
	}
	ws.SelectCookwareByID(1)
	ws.PlaceIngredient(mustIngredient(t, ws, 1), 0, 0)
	if out := ws.ClearCookware(); !out.Changed || ws.Phase() != PhaseEmpty {
		t.Fatal("expected workspace to return to empty")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	ws, _ := newTestWorkspace(t)
	ws.SelectCookwareByID(1)
	ws.PlaceIngredient(mustIngredient(t, ws, 1), 0, 0)

	snap := ws.Snapshot()
	snap.Ingredients[0].State = "mutated"
	snap.Ingredients[0].Tags[0] = "mutated"
	snap.Cookware.AcceptsStates[0] = "mutated"

	again := ws.Snapshot()
	if again.Ingredients[0].State != "whole" || again.Ingredients[0].Tags[0] != "fruit" || again.Cookware.AcceptsStates[0] != "whole" {
		t.Fatal("expected snapshot mutation not to leak into the workspace")
	}
}
