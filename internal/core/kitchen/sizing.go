package kitchen

import "virtual-kitchen/internal/core/catalog"

const (
	// BaseSize 場景中食材的基準高度（像素）
	BaseSize = 300.0
	// DefaultSizeRatio 食材未定義該廚具比例時使用
	DefaultSizeRatio = 0.5
)

// SizeRatio 取得食材在廚具上的比例
func SizeRatio(def catalog.Ingredient, cw *catalog.Cookware) float64 {
	if cw == nil {
		return DefaultSizeRatio
	}
	if r, ok := def.Sizes[cw.Key()]; ok && r > 0 {
		return r
	}
	return DefaultSizeRatio
}

// SizeOf 計算食材在場景中的像素高度
func SizeOf(def catalog.Ingredient, cw *catalog.Cookware, base float64) float64 {
	if base <= 0 {
		base = BaseSize
	}
	return SizeRatio(def, cw) * base
}
