package kitchen

import (
	"strings"

	"virtual-kitchen/internal/core/catalog"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// stateTags 描述狀態的標籤，衍生定義會移除這些標籤
var stateTags = map[string]bool{
	"whole":   true,
	"sliced":  true,
	"diced":   true,
	"chopped": true,
	"minced":  true,
	"juiced":  true,
	"mashed":  true,
	"peeled":  true,
	"grated":  true,
	"mixed":   true,
	"zested":  true,
	"halved":  true,
}

// Augmenter 將新出現的狀態補進目錄，使其可獨立拖曳
type Augmenter struct {
	catalog *catalog.Store
}

// NewAugmenter 創建目錄擴充器
func NewAugmenter(store *catalog.Store) *Augmenter {
	return &Augmenter{catalog: store}
}

// Exists 查找代表「該食材預設為 state」的目錄項目
func (a *Augmenter) Exists(orig catalog.Ingredient, state string) (catalog.Ingredient, bool) {
	root := orig.RootName()
	composite := state + " " + root
	return a.catalog.FindIngredient(func(ing catalog.Ingredient) bool {
		if strings.EqualFold(ing.Name, composite) {
			return true
		}
		if ing.DefaultState != state {
			return false
		}
		return strings.EqualFold(ing.Name, orig.Name) || strings.EqualFold(ing.Name, root)
	})
}

// Derive 依原始定義合成新狀態的定義（尚未加入目錄）
func (a *Augmenter) Derive(orig catalog.Ingredient, state, visual string) catalog.Ingredient {
	root := orig.RootName()

	tags := make([]string, 0, len(orig.Tags)+1)
	for _, t := range orig.Tags {
		if stateTags[strings.ToLower(t)] || strings.EqualFold(t, state) {
			continue
		}
		tags = append(tags, t)
	}
	tags = append(tags, state)

	var sizes map[string]float64
	if orig.Sizes != nil {
		sizes = make(map[string]float64, len(orig.Sizes))
		for k, v := range orig.Sizes {
			sizes[k] = v
		}
	}

	var actions map[string]catalog.Rule
	for name, rule := range orig.AllowedActions {
		if !rule.From.Contains(state) {
			continue
		}
		if actions == nil {
			actions = make(map[string]catalog.Rule)
		}
		actions[name] = catalog.Rule{From: append(catalog.StateSet(nil), rule.From...), To: rule.To}
	}

	return catalog.Ingredient{
		Name:           cases.Title(language.English).String(state) + " " + root,
		BaseName:       root,
		Image:          visual,
		Tags:           tags,
		Sizes:          sizes,
		States:         []catalog.State{{Name: state, Image: visual}},
		DefaultState:   state,
		AllowedActions: actions,
	}
}

// ConsiderNewState 若目錄中尚無代表該狀態的項目則新增。
// 回傳代表該狀態的定義，以及是否為本次新增。
func (a *Augmenter) ConsiderNewState(orig catalog.Ingredient, state, visual string) (catalog.Ingredient, bool) {
	if existing, ok := a.Exists(orig, state); ok {
		return existing, false
	}
	return a.catalog.Append(a.Derive(orig, state, visual))
}
