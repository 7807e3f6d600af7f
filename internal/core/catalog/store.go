package catalog

import (
	"strings"
	"sync"

	"virtual-kitchen/internal/pkg/common"

	"go.uber.org/zap"
)

// Store 會話內的目錄。原始定義不會被修改，只會追加衍生定義。
type Store struct {
	mu          sync.RWMutex
	ingredients []Ingredient
	cookware    []Cookware
	utensils    []Utensil
	nextID      int
}

// NewStore 以給定定義建立目錄（會複製一份）
func NewStore(ingredients []Ingredient, cookware []Cookware, utensils []Utensil) *Store {
	s := &Store{
		ingredients: make([]Ingredient, 0, len(ingredients)),
		cookware:    make([]Cookware, 0, len(cookware)),
		utensils:    make([]Utensil, 0, len(utensils)),
	}
	for _, ing := range ingredients {
		s.ingredients = append(s.ingredients, ing.Clone())
		if ing.ID >= s.nextID {
			s.nextID = ing.ID + 1
		}
	}
	for _, cw := range cookware {
		s.cookware = append(s.cookware, cw.Clone())
	}
	for _, u := range utensils {
		s.utensils = append(s.utensils, u.Clone())
	}
	return s
}

// Clone 建立獨立的會話副本
func (s *Store) Clone() *Store {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := NewStore(s.ingredients, s.cookware, s.utensils)
	if s.nextID > c.nextID {
		c.nextID = s.nextID
	}
	return c
}

// Ingredients 回傳所有食材（含衍生定義）
func (s *Store) Ingredients() []Ingredient {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Ingredient, len(s.ingredients))
	for i, ing := range s.ingredients {
		out[i] = ing.Clone()
	}
	return out
}

// Cookware 回傳所有廚具
func (s *Store) Cookware() []Cookware {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Cookware, len(s.cookware))
	for i, cw := range s.cookware {
		out[i] = cw.Clone()
	}
	return out
}

// Utensils 回傳所有器具
func (s *Store) Utensils() []Utensil {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Utensil, len(s.utensils))
	for i, u := range s.utensils {
		out[i] = u.Clone()
	}
	return out
}

// IngredientByID 依 ID 查找食材
func (s *Store) IngredientByID(id int) (Ingredient, bool) {
	return s.FindIngredient(func(ing Ingredient) bool { return ing.ID == id })
}

// FindIngredient 回傳第一個符合條件的食材
func (s *Store) FindIngredient(match func(Ingredient) bool) (Ingredient, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, ing := range s.ingredients {
		if match(ing) {
			return ing.Clone(), true
		}
	}
	return Ingredient{}, false
}

// CookwareByID 依 ID 查找廚具
func (s *Store) CookwareByID(id int) (Cookware, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, cw := range s.cookware {
		if cw.ID == id {
			return cw.Clone(), true
		}
	}
	return Cookware{}, false
}

// UtensilByID 依 ID 查找器具
func (s *Store) UtensilByID(id int) (Utensil, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.utensils {
		if u.ID == id {
			return u.Clone(), true
		}
	}
	return Utensil{}, false
}

// Append 追加衍生食材；同名且預設狀態相同者已存在時不做任何事。
// 回傳目錄中代表該食材的定義，以及是否為新增。
func (s *Store) Append(ing Ingredient) (Ingredient, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.ingredients {
		if strings.EqualFold(existing.Name, ing.Name) && existing.DefaultState == ing.DefaultState {
			return existing.Clone(), false
		}
	}

	stored := ing.Clone()
	stored.ID = s.nextID
	s.nextID++
	s.ingredients = append(s.ingredients, stored)

	common.LogDebug("目錄新增衍生食材",
		zap.Int("id", stored.ID),
		zap.String("name", stored.Name),
		zap.String("default_state", stored.DefaultState),
	)
	return stored.Clone(), true
}

// Search 依名稱關鍵字與標籤篩選食材（標籤任一符合即可）
func (s *Store) Search(query string, tags []string) []Ingredient {
	query = strings.ToLower(strings.TrimSpace(query))

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Ingredient, 0)
	for _, ing := range s.ingredients {
		if query != "" && !strings.Contains(strings.ToLower(ing.Name), query) {
			continue
		}
		if len(tags) > 0 && !hasAnyTag(ing, tags) {
			continue
		}
		out = append(out, ing.Clone())
	}
	return out
}

// Counts 回傳各集合數量
func (s *Store) Counts() (ingredients, cookware, utensils int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ingredients), len(s.cookware), len(s.utensils)
}

func hasAnyTag(ing Ingredient, tags []string) bool {
	for _, t := range tags {
		if ing.HasTag(t) {
			return true
		}
	}
	return false
}
