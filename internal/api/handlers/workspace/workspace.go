// Package workspace 提供工作區會話的操作路由
package workspace

import (
	"errors"
	"io"
	"net/http"

	"virtual-kitchen/internal/core/catalog"
	"virtual-kitchen/internal/core/kitchen"
	"virtual-kitchen/internal/core/session"
	"virtual-kitchen/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// EventView 回傳給前端的事件，動作事件附帶音效
type EventView struct {
	kitchen.Event
	Sound string `json:"sound,omitempty"`
}

// MutationResponse 工作區操作的回應；引擎未變更時仍回傳 200
type MutationResponse struct {
	Workspace  kitchen.Snapshot `json:"workspace"`
	Changed    bool             `json:"changed"`
	Events     []EventView      `json:"events"`
	Diagnostic string           `json:"diagnostic,omitempty"`
}

// SessionResponse 建立會話的回應
type SessionResponse struct {
	SessionID string           `json:"sessionId"`
	Workspace kitchen.Snapshot `json:"workspace"`
}

// SelectCookwareRequest 選擇廚具
type SelectCookwareRequest struct {
	CookwareID int `json:"cookwareId" binding:"required"`
}

// SelectUtensilRequest 選擇器具；utensilId 為 null 表示徒手
type SelectUtensilRequest struct {
	UtensilID *int `json:"utensilId"`
}

// MoveRequest 移動食材
type MoveRequest struct {
	X *float64 `json:"x" binding:"required"`
	Y *float64 `json:"y" binding:"required"`
}

// Handler 工作區處理程序
type Handler struct {
	sessions *session.Manager
	debug    bool
}

// NewHandler 創建工作區處理程序
func NewHandler(sessions *session.Manager, debug bool) *Handler {
	return &Handler{sessions: sessions, debug: debug}
}

// CreateSession 建立新的工作區會話
func (h *Handler) CreateSession(c *gin.Context) {
	id, err := h.sessions.Create()
	if err != nil {
		common.LogError("建立會話失敗", zap.Error(err))
		common.WriteError(c, err, h.debug)
		return
	}

	var snap kitchen.Snapshot
	if err := h.sessions.With(id, func(ws *kitchen.Workspace) error {
		snap = ws.Snapshot()
		return nil
	}); err != nil {
		common.WriteError(c, err, h.debug)
		return
	}

	c.JSON(http.StatusCreated, SessionResponse{SessionID: id, Workspace: snap})
}

// GetSession 取得工作區快照
func (h *Handler) GetSession(c *gin.Context) {
	var snap kitchen.Snapshot
	err := h.sessions.With(c.Param("id"), func(ws *kitchen.Workspace) error {
		snap = ws.Snapshot()
		return nil
	})
	if err != nil {
		common.WriteError(c, err, h.debug)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// DeleteSession 結束會話
func (h *Handler) DeleteSession(c *gin.Context) {
	if !h.sessions.Delete(c.Param("id")) {
		common.WriteError(c, common.ErrSessionNotFound, h.debug)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListIngredients 會話內的食材目錄（含處理後的衍生食材）
func (h *Handler) ListIngredients(c *gin.Context) {
	var out []catalog.Ingredient
	err := h.sessions.With(c.Param("id"), func(ws *kitchen.Workspace) error {
		out = ws.Catalog().Ingredients()
		return nil
	})
	if err != nil {
		common.WriteError(c, err, h.debug)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Drop 處理拖放手勢
func (h *Handler) Drop(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		common.WriteError(c, common.ErrInvalidRequest.Wrap(err), h.debug)
		return
	}

	drag, err := kitchen.DecodeDrag(body)
	if err != nil {
		common.LogWarn("拖放資料無效",
			zap.String("session_id", c.Param("id")),
			zap.Error(err),
		)
		common.WriteError(c, common.ErrInvalidDrag.Wrap(err), h.debug)
		return
	}

	h.mutate(c, func(ws *kitchen.Workspace) kitchen.Outcome {
		return ws.Dispatch(drag)
	})
}

// SelectCookware 選擇廚具（會清空場景）
func (h *Handler) SelectCookware(c *gin.Context) {
	var req SelectCookwareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.WriteError(c, common.ErrInvalidRequest.Wrap(err), h.debug)
		return
	}
	h.mutate(c, func(ws *kitchen.Workspace) kitchen.Outcome {
		return ws.SelectCookwareByID(req.CookwareID)
	})
}

// ClearCookware 移除廚具
func (h *Handler) ClearCookware(c *gin.Context) {
	h.mutate(c, func(ws *kitchen.Workspace) kitchen.Outcome {
		return ws.ClearCookware()
	})
}

// SelectUtensil 切換器具
func (h *Handler) SelectUtensil(c *gin.Context) {
	var req SelectUtensilRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.WriteError(c, common.ErrInvalidRequest.Wrap(err), h.debug)
		return
	}
	h.mutate(c, func(ws *kitchen.Workspace) kitchen.Outcome {
		if req.UtensilID == nil {
			return ws.SelectUtensil(nil)
		}
		return ws.SelectUtensilByID(*req.UtensilID)
	})
}

// ApplyUtensil 對食材使用目前器具（或徒手）
func (h *Handler) ApplyUtensil(c *gin.Context) {
	instanceID := c.Param("instance")
	h.mutate(c, func(ws *kitchen.Workspace) kitchen.Outcome {
		return ws.ApplyUtensil(instanceID)
	})
}

// MoveIngredient 移動食材
func (h *Handler) MoveIngredient(c *gin.Context) {
	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.WriteError(c, common.ErrInvalidRequest.Wrap(err), h.debug)
		return
	}
	instanceID := c.Param("instance")
	h.mutate(c, func(ws *kitchen.Workspace) kitchen.Outcome {
		return ws.MoveIngredient(instanceID, *req.X, *req.Y)
	})
}

// RemoveIngredient 將食材拖出場景
func (h *Handler) RemoveIngredient(c *gin.Context) {
	instanceID := c.Param("instance")
	h.mutate(c, func(ws *kitchen.Workspace) kitchen.Outcome {
		return ws.RemoveIngredient(instanceID)
	})
}

// mutate 在會話鎖內執行操作並輸出結果
func (h *Handler) mutate(c *gin.Context, op func(ws *kitchen.Workspace) kitchen.Outcome) {
	var resp MutationResponse
	err := h.sessions.With(c.Param("id"), func(ws *kitchen.Workspace) error {
		out := op(ws)
		resp = MutationResponse{
			Workspace:  ws.Snapshot(),
			Changed:    out.Changed,
			Events:     viewEvents(out.Events),
			Diagnostic: out.DiagnosticMessage(),
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, common.ErrSessionNotFound) {
			common.LogError("工作區操作失敗", zap.Error(err))
		}
		common.WriteError(c, err, h.debug)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func viewEvents(events []kitchen.Event) []EventView {
	out := make([]EventView, 0, len(events))
	for _, e := range events {
		v := EventView{Event: e}
		if e.Kind == kitchen.EventActionPerformed {
			v.Sound = SoundFor(e.Action)
		}
		out = append(out, v)
	}
	return out
}
