package httptransport

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dropmail/backend/internal/monitoring"
	"dropmail/backend/internal/service"
)

// Handler 聚合查询 API 的处理逻辑。
type Handler struct {
	mailboxes  *service.MailboxService
	messages   *service.MessageService
	mailDomain string
	metrics    *monitoring.Metrics
	log        *zap.Logger
}

// NewHandler 创建查询 API 处理器。metrics 可为 nil。
func NewHandler(
	mailboxes *service.MailboxService,
	messages *service.MessageService,
	mailDomain string,
	metrics *monitoring.Metrics,
	log *zap.Logger,
) *Handler {
	return &Handler{
		mailboxes:  mailboxes,
		messages:   messages,
		mailDomain: mailDomain,
		metrics:    metrics,
		log:        log,
	}
}

// Session 会话检查，返回服务可用的邮件域名。
func (h *Handler) Session(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":         true,
		"mailDomain": h.mailDomain,
	})
}

// ListMailboxes 按创建时间倒序列出全部邮箱。
func (h *Handler) ListMailboxes(c *gin.Context) {
	mailboxes, err := h.mailboxes.List(c.Request.Context())
	if err != nil {
		failFromError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mailboxes": mailboxes})
}

// CreateMailbox 开通新邮箱。
func (h *Handler) CreateMailbox(c *gin.Context) {
	var body struct {
		Address string `json:"address"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		Fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	mailbox, err := h.mailboxes.Create(c.Request.Context(), body.Address)
	if err != nil {
		failFromError(c, err, h.log)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordMailboxCreated()
	}
	c.JSON(http.StatusCreated, gin.H{
		"mailbox": gin.H{
			"id":      mailbox.ID,
			"address": mailbox.Address,
		},
	})
}

// DeleteMailbox 删除邮箱及其全部邮件，幂等。
func (h *Handler) DeleteMailbox(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.mailboxes.Delete(c.Request.Context(), id); err != nil {
		failFromError(c, err, h.log)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordMailboxDeleted()
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ListMessages 列出邮箱的邮件摘要，最新在前，最多 200 条。
func (h *Handler) ListMessages(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	mailbox, messages, err := h.messages.ListByMailbox(c.Request.Context(), id)
	if err != nil {
		failFromError(c, err, h.log)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"mailbox":  mailbox,
		"messages": messages,
	})
}

// GetMessage 返回单封邮件的完整详情。
func (h *Handler) GetMessage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	detail, err := h.messages.Get(c.Request.Context(), id)
	if err != nil {
		failFromError(c, err, h.log)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": detail})
}

// DeleteMessage 删除邮件，幂等。
func (h *Handler) DeleteMessage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.messages.Delete(c.Request.Context(), id); err != nil {
		failFromError(c, err, h.log)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// pathID 解析路径中的 :id 参数，非法时写入 400 响应。
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		Fail(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}
