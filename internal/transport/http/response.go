package httptransport

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dropmail/backend/internal/domain"
	"dropmail/backend/internal/storage"
)

// Fail 统一错误响应，所有错误体只有一个 error 字段，
// 不向调用方暴露内部细节。
func Fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

// failFromError 把领域与存储错误映射为 HTTP 状态码。
func failFromError(c *gin.Context, err error, log *zap.Logger) {
	switch {
	case errors.Is(err, domain.ErrAddressEmpty),
		errors.Is(err, domain.ErrAddressMissingDomain),
		errors.Is(err, domain.ErrAddressMalformed):
		Fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrAddressTaken):
		Fail(c, http.StatusConflict, "address already taken")
	case errors.Is(err, storage.ErrMailboxNotFound):
		Fail(c, http.StatusNotFound, "mailbox not found")
	case errors.Is(err, storage.ErrMessageNotFound):
		Fail(c, http.StatusNotFound, "message not found")
	default:
		log.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		Fail(c, http.StatusInternalServerError, "internal server error")
	}
}
