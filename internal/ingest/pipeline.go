package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"dropmail/backend/internal/domain"
	"dropmail/backend/internal/mailparser"
	"dropmail/backend/internal/monitoring"
	"dropmail/backend/internal/service"
	"dropmail/backend/internal/storage"
)

// Decoder 把原始邮件字节解码为结构化内容。
type Decoder interface {
	Decode(raw []byte) (*mailparser.Email, error)
}

// DecoderFunc 函数适配器。
type DecoderFunc func(raw []byte) (*mailparser.Email, error)

func (f DecoderFunc) Decode(raw []byte) (*mailparser.Email, error) {
	return f(raw)
}

// SchemaReadier 在投递前保证存储结构就绪。
type SchemaReadier interface {
	EnsureReady(ctx context.Context) error
}

// Pipeline 入站邮件投递管道。
//
// 每个入站事件独立处理，管道自身无跨事件状态。
// 解码失败对整个事件是致命的；单个收件人入库失败
// 只影响该收件人，不中断其余收件人的投递。
type Pipeline struct {
	mailboxes *service.MailboxService
	messages  *service.MessageService
	schema    SchemaReadier
	decoder   Decoder
	metrics   *monitoring.Metrics
	log       *zap.Logger
}

// NewPipeline 创建投递管道。metrics 可为 nil。
func NewPipeline(
	mailboxes *service.MailboxService,
	messages *service.MessageService,
	schema SchemaReadier,
	decoder Decoder,
	metrics *monitoring.Metrics,
	log *zap.Logger,
) *Pipeline {
	return &Pipeline{
		mailboxes: mailboxes,
		messages:  messages,
		schema:    schema,
		decoder:   decoder,
		metrics:   metrics,
		log:       log,
	}
}

// Deliver 处理一个入站邮件事件，向每个匹配的本地邮箱各存一份副本。
//
// 返回每个收件人的投递结果。收件人列表为空（或规范化后为空）
// 时直接返回 nil，不算错误。
func (p *Pipeline) Deliver(ctx context.Context, email domain.InboundEmail) ([]domain.RecipientResult, error) {
	if err := p.schema.EnsureReady(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	recipients := dedupeRecipients(email.To)
	if len(recipients) == 0 {
		return nil, nil
	}

	sender := email.Sender()

	decoded, err := p.decoder.Decode(email.Raw)
	if err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}

	subject := optional(strings.TrimSpace(decoded.Subject))
	textBody := optional(decoded.Text)
	htmlBody := optional(decoded.HTML)
	if htmlBody == nil && textBody != nil {
		wrapped := wrapTextAsHTML(*textBody)
		htmlBody = &wrapped
	}
	preview := domain.PreviewFromBodies(decoded.Text, decoded.HTML)
	messageIdentifier := optional(decoded.MessageID())

	received := time.Now().UTC()
	results := make([]domain.RecipientResult, 0, len(recipients))
	for _, addr := range recipients {
		mailbox, err := p.mailboxes.GetByAddress(ctx, addr)
		if err != nil {
			if errors.Is(err, storage.ErrMailboxNotFound) {
				p.log.Debug("recipient has no local mailbox, dropping",
					zap.String("recipient", addr))
				if p.metrics != nil {
					p.metrics.RecordMessageDropped()
				}
				results = append(results, domain.RecipientResult{
					Address: addr,
					Status:  domain.RecipientUnmatched,
				})
				continue
			}
			p.log.Error("recipient lookup failed",
				zap.String("recipient", addr), zap.Error(err))
			if p.metrics != nil {
				p.metrics.RecordMessageFailed()
			}
			results = append(results, domain.RecipientResult{
				Address: addr,
				Status:  domain.RecipientFailed,
				Err:     err,
			})
			continue
		}

		id, err := p.messages.Insert(ctx, storage.MessageInsert{
			MailboxID:         mailbox.ID,
			Sender:            sender,
			Subject:           subject,
			Preview:           preview,
			TextBody:          textBody,
			HTMLBody:          htmlBody,
			MessageIdentifier: messageIdentifier,
			ReceivedAt:        received,
		})
		if err != nil {
			p.log.Error("store message failed",
				zap.String("recipient", addr), zap.Error(err))
			if p.metrics != nil {
				p.metrics.RecordMessageFailed()
			}
			results = append(results, domain.RecipientResult{
				Address: addr,
				Status:  domain.RecipientFailed,
				Err:     err,
			})
			continue
		}

		if p.metrics != nil {
			p.metrics.RecordMessageStored()
		}
		results = append(results, domain.RecipientResult{
			Address:   addr,
			Status:    domain.RecipientStored,
			MessageID: id,
		})
	}

	return results, nil
}

// dedupeRecipients 宽容规范化收件人并按出现顺序去重，空值丢弃。
func dedupeRecipients(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, addr := range raw {
		normalized := domain.NormalizeRecipient(addr)
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}

// wrapTextAsHTML 为只有纯文本的邮件合成最小 HTML 包装。
func wrapTextAsHTML(text string) string {
	return fmt.Sprintf("<html><body><div>%s</div></body></html>", text)
}

// optional 把空串映射为 nil。
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
