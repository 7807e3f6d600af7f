package common

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// WriteError 寫入錯誤響應，詳細信息僅在 debug 時輸出
func WriteError(c *gin.Context, err error, debug bool) {
	ce := AsCustomError(err)
	resp := ErrorResponse{
		Code:    ce.Code,
		Message: ce.Message,
	}
	if debug && ce.Err != nil {
		resp.Details = ce.Err.Error()
	}
	c.AbortWithStatusJSON(ce.Status, resp)
}
