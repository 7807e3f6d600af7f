package kitchen

import (
	"fmt"

	"virtual-kitchen/internal/pkg/common"
)

// DragKind 拖放物件種類
type DragKind string

const (
	DragCookware   DragKind = "cookware"
	DragUtensil    DragKind = "utensil"
	DragIngredient DragKind = "ingredient"
)

// Drag 已正規化的拖放手勢；滑鼠與觸控都轉成同一種值
type Drag interface {
	Kind() DragKind
	isDrag()
}

// CookwareDrag 將廚具拖入工作區
type CookwareDrag struct {
	CookwareID int
}

// UtensilDrag 選取器具
type UtensilDrag struct {
	UtensilID int
}

// IngredientDrag 將食材放到工作區的 (X, Y)
type IngredientDrag struct {
	IngredientID int
	State        string // 空字串表示使用預設狀態
	X, Y         float64
}

func (CookwareDrag) Kind() DragKind   { return DragCookware }
func (UtensilDrag) Kind() DragKind    { return DragUtensil }
func (IngredientDrag) Kind() DragKind { return DragIngredient }

func (CookwareDrag) isDrag()   {}
func (UtensilDrag) isDrag()    {}
func (IngredientDrag) isDrag() {}

// dragWire 拖放資料的 JSON 格式
type dragWire struct {
	Kind         string   `json:"kind"`
	CookwareID   *int     `json:"cookwareId"`
	UtensilID    *int     `json:"utensilId"`
	IngredientID *int     `json:"ingredientId"`
	State        *string  `json:"state"`
	X            *float64 `json:"x"`
	Y            *float64 `json:"y"`
}

// DecodeDrag 解析拖放資料；未知種類、缺少或多餘欄位一律拒絕
func DecodeDrag(data []byte) (Drag, error) {
	var w dragWire
	if err := common.ParseJSONBytesStrict(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDrag, err)
	}

	switch DragKind(w.Kind) {
	case DragCookware:
		if w.CookwareID == nil {
			return nil, fmt.Errorf("%w: cookware drag requires cookwareId", ErrInvalidDrag)
		}
		if w.UtensilID != nil || w.IngredientID != nil || w.State != nil || w.X != nil || w.Y != nil {
			return nil, fmt.Errorf("%w: unexpected fields for cookware drag", ErrInvalidDrag)
		}
		return CookwareDrag{CookwareID: *w.CookwareID}, nil

	case DragUtensil:
		if w.UtensilID == nil {
			return nil, fmt.Errorf("%w: utensil drag requires utensilId", ErrInvalidDrag)
		}
		if w.CookwareID != nil || w.IngredientID != nil || w.State != nil || w.X != nil || w.Y != nil {
			return nil, fmt.Errorf("%w: unexpected fields for utensil drag", ErrInvalidDrag)
		}
		return UtensilDrag{UtensilID: *w.UtensilID}, nil

	case DragIngredient:
		if w.IngredientID == nil || w.X == nil || w.Y == nil {
			return nil, fmt.Errorf("%w: ingredient drag requires ingredientId, x and y", ErrInvalidDrag)
		}
		if w.CookwareID != nil || w.UtensilID != nil {
			return nil, fmt.Errorf("%w: unexpected fields for ingredient drag", ErrInvalidDrag)
		}
		d := IngredientDrag{IngredientID: *w.IngredientID, X: *w.X, Y: *w.Y}
		if w.State != nil {
			d.State = *w.State
		}
		return d, nil

	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidDrag, w.Kind)
	}
}
