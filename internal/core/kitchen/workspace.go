// Package kitchen 實作工作區狀態機與食材轉換引擎
package kitchen

import (
	"errors"
	"fmt"

	"virtual-kitchen/internal/core/catalog"
	"virtual-kitchen/internal/pkg/common"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Phase 工作區階段
type Phase int

const (
	// PhaseEmpty 尚未選擇廚具
	PhaseEmpty Phase = iota
	// PhaseStaged 已選擇廚具
	PhaseStaged
)

func (p Phase) String() string {
	switch p {
	case PhaseEmpty:
		return "empty"
	case PhaseStaged:
		return "staged"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Instance 放在場景中的食材實例
type Instance struct {
	catalog.Ingredient
	InstanceID string  `json:"instanceId"`
	State      string  `json:"state"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	SizeRatio  float64 `json:"sizeRatio"`
	Size       float64 `json:"size"`
}

func (i *Instance) clone() Instance {
	out := *i
	out.Ingredient = i.Ingredient.Clone()
	return out
}

// Snapshot 工作區的唯讀快照
type Snapshot struct {
	Phase       string            `json:"phase"`
	Cookware    *catalog.Cookware `json:"cookware"`
	Utensil     *catalog.Utensil  `json:"utensil"`
	Ingredients []Instance        `json:"ingredients"`
}

// Outcome 每個操作的結果。Diagnostic 只是說明為何沒有變化，不代表失敗。
type Outcome struct {
	Changed    bool
	Events     []Event
	Diagnostic error
}

// DiagnosticMessage 回傳診斷訊息，沒有時為空字串
func (o Outcome) DiagnosticMessage() string {
	if o.Diagnostic == nil {
		return ""
	}
	return o.Diagnostic.Error()
}

// Option 工作區選項
type Option func(*Workspace)

// WithNotifier 設定事件接收者
func WithNotifier(n Notifier) Option {
	return func(w *Workspace) {
		w.notifier = n
	}
}

// WithScene 設定場景尺寸（置中座標為其一半）
func WithScene(width, height float64) Option {
	return func(w *Workspace) {
		w.width = width
		w.height = height
	}
}

// WithBaseSize 設定食材基準高度
func WithBaseSize(base float64) Option {
	return func(w *Workspace) {
		w.baseSize = base
	}
}

// WithHandRules 取代內建的徒手轉換
func WithHandRules(rules []HandRule) Option {
	return func(w *Workspace) {
		w.handRules = rules
	}
}

// WithIDGenerator 設定實例 ID 產生器
func WithIDGenerator(gen func() string) Option {
	return func(w *Workspace) {
		w.newID = gen
	}
}

// WithAssetPrefix 設定慣例圖片路徑前綴
func WithAssetPrefix(prefix string) Option {
	return func(w *Workspace) {
		w.assetPrefix = prefix
	}
}

// Workspace 會話範圍的場景。所有變更都必須透過這裡的方法，
// 且不可並行呼叫（由上層保證同一會話依序處理）。
type Workspace struct {
	catalog     *catalog.Store
	resolver    *Resolver
	augmenter   *Augmenter
	notifier    Notifier
	handRules   []HandRule
	newID       func() string
	assetPrefix string

	width    float64
	height   float64
	baseSize float64

	cookware *catalog.Cookware
	utensil  *catalog.Utensil
	placed   []*Instance
}

// New 以會話目錄建立空的工作區
func New(store *catalog.Store, opts ...Option) *Workspace {
	w := &Workspace{
		catalog:   store,
		handRules: DefaultHandRules(),
		newID:     func() string { return uuid.New().String() },
		width:     600,
		height:    400,
		baseSize:  BaseSize,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.resolver = NewResolver(store, w.assetPrefix)
	w.augmenter = NewAugmenter(store)
	return w
}

// Catalog 回傳工作區使用的會話目錄
func (w *Workspace) Catalog() *catalog.Store {
	return w.catalog
}

// Phase 目前階段
func (w *Workspace) Phase() Phase {
	if w.cookware == nil {
		return PhaseEmpty
	}
	return PhaseStaged
}

// Snapshot 回傳目前狀態的複本
func (w *Workspace) Snapshot() Snapshot {
	s := Snapshot{
		Phase:       w.Phase().String(),
		Ingredients: make([]Instance, 0, len(w.placed)),
	}
	if w.cookware != nil {
		cw := w.cookware.Clone()
		s.Cookware = &cw
	}
	if w.utensil != nil {
		u := w.utensil.Clone()
		s.Utensil = &u
	}
	for _, inst := range w.placed {
		s.Ingredients = append(s.Ingredients, inst.clone())
	}
	return s
}

// SelectCookware 選擇廚具並重置場景；原有食材直接捨棄
func (w *Workspace) SelectCookware(cw catalog.Cookware) Outcome {
	selected := cw.Clone()
	w.cookware = &selected
	w.utensil = nil
	w.placed = nil

	common.LogDebug("選擇廚具", zap.String("cookware", selected.Name))
	return Outcome{Changed: true}
}

// SelectCookwareByID 依目錄 ID 選擇廚具
func (w *Workspace) SelectCookwareByID(id int) Outcome {
	cw, ok := w.catalog.CookwareByID(id)
	if !ok {
		return w.reject(fmt.Errorf("%w: cookware %d", ErrUnknownDefinition, id))
	}
	return w.SelectCookware(cw)
}

// ClearCookware 移除廚具，回到空白狀態
func (w *Workspace) ClearCookware() Outcome {
	changed := w.cookware != nil || w.utensil != nil || len(w.placed) > 0
	w.cookware = nil
	w.utensil = nil
	w.placed = nil
	return Outcome{Changed: changed}
}

// SelectUtensil 切換器具；再次選擇同一器具或傳入 nil 時改為徒手
func (w *Workspace) SelectUtensil(u *catalog.Utensil) Outcome {
	if u == nil || (w.utensil != nil && w.utensil.ID == u.ID) {
		changed := w.utensil != nil
		w.utensil = nil
		return Outcome{Changed: changed}
	}

	selected := u.Clone()
	w.utensil = &selected
	return Outcome{Changed: true}
}

// SelectUtensilByID 依目錄 ID 切換器具
func (w *Workspace) SelectUtensilByID(id int) Outcome {
	u, ok := w.catalog.UtensilByID(id)
	if !ok {
		return w.reject(fmt.Errorf("%w: utensil %d", ErrUnknownDefinition, id))
	}
	return w.SelectUtensil(&u)
}

// PlaceIngredient 以預設狀態放置食材
func (w *Workspace) PlaceIngredient(def catalog.Ingredient, x, y float64) Outcome {
	return w.PlaceIngredientInState(def, "", x, y)
}

// PlaceIngredientByID 依目錄 ID 放置食材，state 為空時使用預設狀態
func (w *Workspace) PlaceIngredientByID(id int, state string, x, y float64) Outcome {
	def, ok := w.catalog.IngredientByID(id)
	if !ok {
		return w.reject(fmt.Errorf("%w: ingredient %d", ErrUnknownDefinition, id))
	}
	return w.PlaceIngredientInState(def, state, x, y)
}

// PlaceIngredientInState 放置食材
func (w *Workspace) PlaceIngredientInState(def catalog.Ingredient, state string, x, y float64) Outcome {
	if w.cookware == nil {
		return w.reject(ErrNoCookware)
	}

	if state == "" {
		state = def.DefaultState
	}
	if state == "" {
		state = catalog.DefaultState
	}
	if _, ok := def.StateByName(state); !ok {
		return w.reject(fmt.Errorf("%w: %s has no state %q", ErrUnknownDefinition, def.Name, state))
	}
	if !w.cookware.Accepts(state) {
		return w.reject(fmt.Errorf("%w: %s does not accept %s %s", ErrStateNotAccepted, w.cookware.Name, state, def.Name))
	}

	var events []Event
	if w.cookware.ClearBeforeAdd {
		for _, inst := range w.placed {
			events = append(events, w.process(inst))
		}
		w.placed = nil
	}

	if w.cookware.CentersIngredients {
		x, y = w.width/2, w.height/2
	}

	inst := &Instance{
		Ingredient: def.Clone(),
		InstanceID: w.newID(),
		State:      state,
		X:          x,
		Y:          y,
		SizeRatio:  SizeRatio(def, w.cookware),
		Size:       SizeOf(def, w.cookware, w.baseSize),
	}
	if state != def.DefaultState || inst.Image == "" {
		inst.Image = w.resolver.VisualFor(def, state)
	}
	w.placed = append(w.placed, inst)

	common.LogDebug("放置食材",
		zap.String("instance_id", inst.InstanceID),
		zap.String("ingredient", def.Name),
		zap.String("state", state),
	)
	return w.emit(Outcome{Changed: true, Events: events})
}

// ApplyUtensil 對食材實例使用目前的器具（或徒手）
func (w *Workspace) ApplyUtensil(instanceID string) Outcome {
	if w.cookware == nil {
		return w.reject(ErrNoCookware)
	}
	inst, _ := w.find(instanceID)
	if inst == nil {
		return w.reject(fmt.Errorf("%w: %s", ErrInstanceNotFound, instanceID))
	}

	cookwareKey := w.cookware.Key()

	if w.utensil == nil {
		rule, ok := matchHandRule(w.handRules, inst, cookwareKey)
		if !ok {
			return w.reject(fmt.Errorf("%w: nothing to do by hand with %s %s", ErrNoApplicableTransition, inst.State, inst.Name))
		}
		return w.transition(inst, Transition{
			Action: rule.Action,
			Next:   rule.To,
			Visual: w.resolver.VisualFor(inst.Ingredient, rule.To),
		})
	}

	if !w.utensil.Supports(cookwareKey) {
		return w.reject(fmt.Errorf("%w: %s on %s", ErrUtensilIncompatible, w.utensil.Name, w.cookware.Name))
	}
	if !w.cookware.Accepts(inst.State) {
		return w.reject(fmt.Errorf("%w: %s does not accept %s %s", ErrStateNotAccepted, w.cookware.Name, inst.State, inst.Name))
	}

	t, ok := w.resolver.Resolve(inst, *w.utensil)
	if !ok {
		return w.reject(fmt.Errorf("%w: %s cannot act on %s %s", ErrNoApplicableTransition, w.utensil.Name, inst.State, inst.Name))
	}
	return w.transition(inst, t)
}

// RemoveIngredient 將食材拖出場景，並作為處理後食材發出
func (w *Workspace) RemoveIngredient(instanceID string) Outcome {
	inst, idx := w.find(instanceID)
	if inst == nil {
		return w.reject(fmt.Errorf("%w: %s", ErrInstanceNotFound, instanceID))
	}

	ev := w.process(inst)
	w.placed = append(w.placed[:idx], w.placed[idx+1:]...)
	return w.emit(Outcome{Changed: true, Events: []Event{ev}})
}

// MoveIngredient 只更新座標；置中廚具上不移動
func (w *Workspace) MoveIngredient(instanceID string, x, y float64) Outcome {
	inst, _ := w.find(instanceID)
	if inst == nil {
		return w.reject(fmt.Errorf("%w: %s", ErrInstanceNotFound, instanceID))
	}
	if w.cookware != nil && w.cookware.CentersIngredients {
		return Outcome{}
	}
	if inst.X == x && inst.Y == y {
		return Outcome{}
	}
	inst.X, inst.Y = x, y
	return Outcome{Changed: true}
}

// Dispatch 將正規化後的拖放手勢轉為對應操作
func (w *Workspace) Dispatch(d Drag) Outcome {
	switch d := d.(type) {
	case CookwareDrag:
		return w.SelectCookwareByID(d.CookwareID)
	case UtensilDrag:
		return w.SelectUtensilByID(d.UtensilID)
	case IngredientDrag:
		return w.PlaceIngredientByID(d.IngredientID, d.State, d.X, d.Y)
	default:
		return w.reject(fmt.Errorf("%w: %T", ErrInvalidDrag, d))
	}
}

// transition 原地更新實例狀態並擴充目錄
func (w *Workspace) transition(inst *Instance, t Transition) Outcome {
	from := inst.State
	inst.State = t.Next
	inst.Image = t.Visual

	events := []Event{actionPerformed(t.Action, inst.InstanceID)}
	if def, added := w.augmenter.ConsiderNewState(inst.Ingredient, t.Next, t.Visual); added {
		events = append(events, processedIngredient(inst.InstanceID, def))
	}

	common.LogDebug("食材狀態轉換",
		zap.String("instance_id", inst.InstanceID),
		zap.String("ingredient", inst.Name),
		zap.String("action", t.Action),
		zap.String("from", from),
		zap.String("to", t.Next),
	)
	return w.emit(Outcome{Changed: true, Events: events})
}

// process 取得（必要時建立）代表實例目前狀態的目錄定義
func (w *Workspace) process(inst *Instance) Event {
	def, _ := w.augmenter.ConsiderNewState(inst.Ingredient, inst.State, inst.Image)
	return processedIngredient(inst.InstanceID, def)
}

func (w *Workspace) find(instanceID string) (*Instance, int) {
	for i, inst := range w.placed {
		if inst.InstanceID == instanceID {
			return inst, i
		}
	}
	return nil, -1
}

func (w *Workspace) emit(o Outcome) Outcome {
	if w.notifier != nil {
		for _, ev := range o.Events {
			w.notifier.Notify(ev)
		}
	}
	return o
}

// reject 記錄診斷並回傳未變更的結果
func (w *Workspace) reject(err error) Outcome {
	if errors.Is(err, ErrStateNotAccepted) || errors.Is(err, ErrUtensilIncompatible) {
		common.LogWarn("工作區拒絕操作", zap.Error(err))
	} else {
		common.LogDebug("工作區操作未生效", zap.Error(err))
	}
	return Outcome{Diagnostic: err}
}
