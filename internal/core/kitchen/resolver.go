package kitchen

import (
	"strings"

	"virtual-kitchen/internal/core/catalog"
)

// DefaultAssetPrefix 依命名慣例推導圖片時使用的路徑前綴
const DefaultAssetPrefix = "/images/"

// Transition 解析出的狀態轉換
type Transition struct {
	Action string `json:"action"`
	Next   string `json:"next"`
	Visual string `json:"visual"`
}

// Resolver 依器具的動作順序找出第一個適用的轉換
type Resolver struct {
	catalog     *catalog.Store
	assetPrefix string
}

// NewResolver 創建轉換解析器
func NewResolver(store *catalog.Store, assetPrefix string) *Resolver {
	if assetPrefix == "" {
		assetPrefix = DefaultAssetPrefix
	}
	return &Resolver{catalog: store, assetPrefix: assetPrefix}
}

// Resolve 回傳第一個 from 包含目前狀態的動作；相容性檢查由呼叫端負責
func (r *Resolver) Resolve(inst *Instance, utensil catalog.Utensil) (Transition, bool) {
	for _, action := range utensil.Actions {
		rule, ok := inst.AllowedActions[action]
		if !ok {
			continue
		}
		if !rule.From.Contains(inst.State) {
			continue
		}
		return Transition{
			Action: action,
			Next:   rule.To,
			Visual: r.VisualFor(inst.Ingredient, rule.To),
		}, true
	}
	return Transition{}, false
}

// VisualFor 找出食材在指定狀態的圖片。
// 順序：自身狀態、原始食材的狀態、目錄中預設為該狀態的定義、命名慣例。
func (r *Resolver) VisualFor(def catalog.Ingredient, state string) string {
	if s, ok := def.StateByName(state); ok && s.Image != "" {
		return s.Image
	}

	if r.catalog != nil {
		root := def.RootName()
		if base, ok := r.catalog.FindIngredient(func(ing catalog.Ingredient) bool {
			return strings.EqualFold(ing.Name, root)
		}); ok {
			if s, ok := base.StateByName(state); ok && s.Image != "" {
				return s.Image
			}
		}

		composite := state + " " + root
		if sibling, ok := r.catalog.FindIngredient(func(ing catalog.Ingredient) bool {
			if strings.EqualFold(ing.Name, composite) {
				return true
			}
			return strings.EqualFold(ing.RootName(), root) && ing.DefaultState == state
		}); ok {
			if s, ok := sibling.StateByName(state); ok && s.Image != "" {
				return s.Image
			}
			if sibling.Image != "" {
				return sibling.Image
			}
		}
	}

	return r.conventionalVisual(def.RootName(), state)
}

// conventionalVisual 例如 ("Lime", "sliced") -> /images/lime_sliced.png
func (r *Resolver) conventionalVisual(name, state string) string {
	return r.assetPrefix + catalog.KeyOf(name) + "_" + catalog.KeyOf(state) + ".png"
}
