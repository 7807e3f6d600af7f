package kitchen

import "strings"

// HandRule 不使用器具（徒手）時可觸發的轉換
type HandRule struct {
	Action      string
	Ingredients []string // 食材原始名稱（不分大小寫）
	From        string
	Cookware    string // 廚具識別鍵
	To          string
}

// DefaultHandRules 內建的徒手轉換
func DefaultHandRules() []HandRule {
	return []HandRule{
		{Action: "squeeze", Ingredients: []string{"lime", "lemon"}, From: "sliced", Cookware: "juicer", To: "juiced"},
		{Action: "peel", Ingredients: []string{"banana", "orange"}, From: "whole", Cookware: "chopping_board", To: "peeled"},
	}
}

// Matches 檢查規則是否適用於該食材實例
func (r HandRule) Matches(inst *Instance, cookwareKey string) bool {
	if r.Cookware != cookwareKey || r.From != inst.State {
		return false
	}
	root := inst.RootName()
	for _, name := range r.Ingredients {
		if strings.EqualFold(name, root) {
			return true
		}
	}
	return false
}

func matchHandRule(rules []HandRule, inst *Instance, cookwareKey string) (HandRule, bool) {
	for _, r := range rules {
		if r.Matches(inst, cookwareKey) {
			return r, true
		}
	}
	return HandRule{}, false
}
