// Package catalog 管理廚房的食材、廚具與器具定義
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// WildcardState 廚具接受任何狀態時使用的萬用字元
const WildcardState = "all"

// DefaultState 定義未指定預設狀態時使用
const DefaultState = "whole"

// StateSet 狀態集合，JSON 可為單一字串或字串陣列
type StateSet []string

// UnmarshalJSON 支援 "whole" 與 ["whole", "sliced"] 兩種寫法
func (s *StateSet) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var one string
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*s = StateSet{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("state set must be a string or an array of strings: %w", err)
	}
	*s = many
	return nil
}

// Contains 檢查是否包含指定狀態
func (s StateSet) Contains(state string) bool {
	for _, v := range s {
		if v == state {
			return true
		}
	}
	return false
}

// State 食材的一種外觀狀態
type State struct {
	Name  string `json:"name" validate:"required"`
	Image string `json:"image,omitempty"`
	Label string `json:"label,omitempty"`
}

// UnmarshalJSON 支援物件與單純字串兩種寫法
func (s *State) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*s = State{Name: name}
		return nil
	}
	type plain State
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = State(p)
	return nil
}

// Rule 動作轉換規則
type Rule struct {
	From StateSet `json:"from" validate:"min=1,dive,required"`
	To   string   `json:"to" validate:"required"`
}

// Ingredient 食材定義
type Ingredient struct {
	ID             int                `json:"id"`
	Name           string             `json:"name" validate:"required"`
	BaseName       string             `json:"baseName,omitempty"` // 衍生定義的原始食材名稱
	Image          string             `json:"image"`
	Tags           []string           `json:"tags"`
	Sizes          map[string]float64 `json:"sizes,omitempty" validate:"dive,gt=0,lte=1"`
	States         []State            `json:"states" validate:"min=1,dive"`
	DefaultState   string             `json:"defaultState" validate:"required"`
	AllowedActions map[string]Rule    `json:"allowedActions,omitempty" validate:"dive"`
}

// RootName 回傳未加狀態前綴的食材名稱
func (i Ingredient) RootName() string {
	if i.BaseName != "" {
		return i.BaseName
	}
	return i.Name
}

// StateByName 依名稱查找狀態
func (i Ingredient) StateByName(name string) (State, bool) {
	for _, s := range i.States {
		if s.Name == name {
			return s, true
		}
	}
	return State{}, false
}

// HasTag 檢查標籤
func (i Ingredient) HasTag(tag string) bool {
	for _, t := range i.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Clone 深拷貝，避免共用 map 與 slice
func (i Ingredient) Clone() Ingredient {
	out := i
	out.Tags = append([]string(nil), i.Tags...)
	out.States = append([]State(nil), i.States...)
	if i.Sizes != nil {
		out.Sizes = make(map[string]float64, len(i.Sizes))
		for k, v := range i.Sizes {
			out.Sizes[k] = v
		}
	}
	if i.AllowedActions != nil {
		out.AllowedActions = make(map[string]Rule, len(i.AllowedActions))
		for k, r := range i.AllowedActions {
			out.AllowedActions[k] = Rule{From: append(StateSet(nil), r.From...), To: r.To}
		}
	}
	return out
}

// Cookware 廚具定義
type Cookware struct {
	ID                 int      `json:"id"`
	Name               string   `json:"name" validate:"required"`
	Image              string   `json:"image"`
	Description        string   `json:"description,omitempty"`
	Type               string   `json:"type,omitempty"`
	AcceptsStates      []string `json:"acceptsStates" validate:"min=1,dive,required"`
	CompatibleUtensils []string `json:"compatibleUtensils,omitempty"`
	CompatibleWith     []string `json:"compatibleWith,omitempty"`
	AllowedActions     []string `json:"allowedActions,omitempty"`
	CentersIngredients bool     `json:"centersIngredients,omitempty"`
	ClearBeforeAdd     bool     `json:"clearBeforeAdd,omitempty"`
}

// Key 廚具識別鍵（小寫、空白轉底線）
func (c Cookware) Key() string {
	return KeyOf(c.Name)
}

// Accepts 檢查廚具是否接受該狀態
func (c Cookware) Accepts(state string) bool {
	for _, s := range c.AcceptsStates {
		if s == state || s == WildcardState {
			return true
		}
	}
	return false
}

// Clone 深拷貝
func (c Cookware) Clone() Cookware {
	out := c
	out.AcceptsStates = append([]string(nil), c.AcceptsStates...)
	out.CompatibleUtensils = append([]string(nil), c.CompatibleUtensils...)
	out.CompatibleWith = append([]string(nil), c.CompatibleWith...)
	out.AllowedActions = append([]string(nil), c.AllowedActions...)
	return out
}

// Utensil 器具定義
type Utensil struct {
	ID             int      `json:"id"`
	Name           string   `json:"name" validate:"required"`
	Image          string   `json:"image"`
	Description    string   `json:"description,omitempty"`
	Type           string   `json:"type,omitempty"`
	Actions        []string `json:"actions" validate:"min=1,dive,required"`
	CompatibleWith []string `json:"compatibleWith"`
}

// Key 器具識別鍵
func (u Utensil) Key() string {
	return KeyOf(u.Name)
}

// Supports 檢查器具能否在該廚具上使用
func (u Utensil) Supports(cookwareKey string) bool {
	for _, k := range u.CompatibleWith {
		if k == cookwareKey {
			return true
		}
	}
	return false
}

// Clone 深拷貝
func (u Utensil) Clone() Utensil {
	out := u
	out.Actions = append([]string(nil), u.Actions...)
	out.CompatibleWith = append([]string(nil), u.CompatibleWith...)
	return out
}

// KeyOf 名稱轉為識別鍵，例如 "Chopping Board" -> "chopping_board"
func KeyOf(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "_")
}
