package kitchen

import "virtual-kitchen/internal/core/catalog"

// EventKind 事件類型
type EventKind string

const (
	// EventActionPerformed 動作已執行，供前端選擇音效
	EventActionPerformed EventKind = "action_performed"
	// EventProcessedIngredient 處理後的食材可加入庫存
	EventProcessedIngredient EventKind = "processed_ingredient"
)

// Event 引擎對外發出的事實
type Event struct {
	Kind       EventKind           `json:"kind"`
	Action     string              `json:"action,omitempty"`
	InstanceID string              `json:"instanceId,omitempty"`
	Ingredient *catalog.Ingredient `json:"ingredient,omitempty"`
}

// Notifier 接收引擎事件（音效、庫存更新等由外部處理）
type Notifier interface {
	Notify(e Event)
}

// NotifierFunc 讓一般函數實作 Notifier
type NotifierFunc func(e Event)

// Notify 呼叫 f(e)
func (f NotifierFunc) Notify(e Event) {
	f(e)
}

func actionPerformed(action, instanceID string) Event {
	return Event{Kind: EventActionPerformed, Action: action, InstanceID: instanceID}
}

func processedIngredient(instanceID string, def catalog.Ingredient) Event {
	return Event{Kind: EventProcessedIngredient, InstanceID: instanceID, Ingredient: &def}
}
