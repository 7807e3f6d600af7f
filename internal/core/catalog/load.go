package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"virtual-kitchen/internal/pkg/common"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// LoadError 目錄載入失敗（整個會話不可用）
type LoadError struct {
	Collection string
	Err        error
}

func (e *LoadError) Error() string {
	if e.Collection == "" {
		return fmt.Sprintf("catalog load failed: %v", e.Err)
	}
	return fmt.Sprintf("catalog load failed (%s): %v", e.Collection, e.Err)
}

// Unwrap 回傳原始錯誤
func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoadOptions 載入選項
type LoadOptions struct {
	// AssetPrefix 相對圖片路徑補上的前綴，空字串表示不處理
	AssetPrefix string
}

var validate = validator.New()

// Invalidator 可丟棄快取內容的來源；資料無法解析或驗證時 Load 會呼叫
type Invalidator interface {
	Invalidate(ctx context.Context, collections ...string) error
}

// Load 讀取三個集合並驗證；任何錯誤都不會回傳部分結果
func Load(ctx context.Context, src Source, opts LoadOptions) (*Store, error) {
	var (
		ingredients []Ingredient
		cookware    []Cookware
		utensils    []Utensil
	)

	targets := map[string]interface{}{
		CollectionIngredients: &ingredients,
		CollectionCookware:    &cookware,
		CollectionUtensils:    &utensils,
	}

	for _, name := range Collections {
		data, err := src.Fetch(ctx, name)
		if err != nil {
			return nil, &LoadError{Collection: name, Err: err}
		}
		if err := common.ParseJSONBytes(data, targets[name]); err != nil {
			discard(ctx, src)
			return nil, &LoadError{Collection: name, Err: fmt.Errorf("malformed JSON: %w", err)}
		}
	}

	normalize(ingredients, cookware, utensils, opts.AssetPrefix)

	if err := validateAll(ingredients, cookware, utensils); err != nil {
		discard(ctx, src)
		return nil, err
	}

	common.LogInfo("食材目錄已載入",
		zap.Int("ingredients", len(ingredients)),
		zap.Int("cookware", len(cookware)),
		zap.Int("utensils", len(utensils)),
	)

	return NewStore(ingredients, cookware, utensils), nil
}

// discard 清除來源快取，避免壞資料在 TTL 內反覆導致載入失敗
func discard(ctx context.Context, src Source) {
	inv, ok := src.(Invalidator)
	if !ok {
		return
	}
	if err := inv.Invalidate(ctx, Collections...); err != nil {
		common.LogWarn("清除目錄快取失敗", zap.Error(err))
	}
}

// normalize 補齊預設值並統一圖片路徑
func normalize(ingredients []Ingredient, cookware []Cookware, utensils []Utensil, prefix string) {
	for i := range ingredients {
		ing := &ingredients[i]
		if ing.DefaultState == "" {
			ing.DefaultState = DefaultState
		}
		if len(ing.States) == 0 {
			ing.States = []State{{Name: ing.DefaultState, Image: ing.Image}}
		}
		ing.Image = assetPath(prefix, ing.Image)
		for j := range ing.States {
			ing.States[j].Image = assetPath(prefix, ing.States[j].Image)
		}
	}
	for i := range cookware {
		cw := &cookware[i]
		cw.Image = assetPath(prefix, cw.Image)
		// compatibleWith 與 compatibleUtensils 為同義欄位
		for _, u := range cw.CompatibleWith {
			if !contains(cw.CompatibleUtensils, u) {
				cw.CompatibleUtensils = append(cw.CompatibleUtensils, u)
			}
		}
	}
	for i := range utensils {
		utensils[i].Image = assetPath(prefix, utensils[i].Image)
	}
}

// assetPath 相對路徑補上前綴；完整 URL 與 data URI 保持不變
func assetPath(prefix, image string) string {
	if prefix == "" || image == "" {
		return image
	}
	if strings.HasPrefix(image, prefix) ||
		strings.HasPrefix(image, "http://") ||
		strings.HasPrefix(image, "https://") ||
		strings.HasPrefix(image, "data:") {
		return image
	}
	return prefix + strings.TrimPrefix(image, "/")
}

// validateAll 驗證記錄格式與跨記錄約束
func validateAll(ingredients []Ingredient, cookware []Cookware, utensils []Utensil) error {
	ingIDs := make(map[int]bool, len(ingredients))
	for _, ing := range ingredients {
		if err := validate.Struct(ing); err != nil {
			return invalid(CollectionIngredients, ing.Name, err)
		}
		if ingIDs[ing.ID] {
			return invalid(CollectionIngredients, ing.Name, fmt.Errorf("duplicate id %d", ing.ID))
		}
		ingIDs[ing.ID] = true

		if _, ok := ing.StateByName(ing.DefaultState); !ok {
			return invalid(CollectionIngredients, ing.Name,
				fmt.Errorf("default state %q is not one of its states", ing.DefaultState))
		}
		for action, rule := range ing.AllowedActions {
			if _, ok := ing.StateByName(rule.To); ok {
				continue
			}
			if _, ok := findSibling(ingredients, ing, rule.To); ok {
				continue
			}
			return invalid(CollectionIngredients, ing.Name,
				fmt.Errorf("action %q targets unknown state %q", action, rule.To))
		}
	}

	cwIDs := make(map[int]bool, len(cookware))
	for _, cw := range cookware {
		if err := validate.Struct(cw); err != nil {
			return invalid(CollectionCookware, cw.Name, err)
		}
		if cwIDs[cw.ID] {
			return invalid(CollectionCookware, cw.Name, fmt.Errorf("duplicate id %d", cw.ID))
		}
		cwIDs[cw.ID] = true
	}

	utIDs := make(map[int]bool, len(utensils))
	for _, u := range utensils {
		if err := validate.Struct(u); err != nil {
			return invalid(CollectionUtensils, u.Name, err)
		}
		if utIDs[u.ID] {
			return invalid(CollectionUtensils, u.Name, fmt.Errorf("duplicate id %d", u.ID))
		}
		utIDs[u.ID] = true
	}

	return nil
}

func invalid(collection, name string, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		parts := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
		err = errors.New(strings.Join(parts, "; "))
	}
	return &LoadError{Collection: collection, Err: fmt.Errorf("%q: %w", name, err)}
}

// findSibling 找出代表同一食材在指定狀態的定義
func findSibling(ingredients []Ingredient, of Ingredient, state string) (Ingredient, bool) {
	composite := state + " " + of.RootName()
	for _, ing := range ingredients {
		if strings.EqualFold(ing.Name, composite) {
			return ing, true
		}
		if strings.EqualFold(ing.RootName(), of.RootName()) && ing.DefaultState == state {
			return ing, true
		}
	}
	return Ingredient{}, false
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
