package smtp

import (
	"context"
	"io"
	"strings"

	gosmtp "github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"dropmail/backend/internal/domain"
)

// Deliverer 投递管道接口，由 ingest.Pipeline 实现。
type Deliverer interface {
	Deliver(ctx context.Context, email domain.InboundEmail) ([]domain.RecipientResult, error)
}

// Backend 实现 go-smtp 的 Backend 接口。
//
// 这是一个只收信的 SMTP 服务器：
// - 只接收发往本系统管理域名的邮件
// - 不对外发信，不做邮件中继
//
// 中继防护在 Rcpt() 完成：收件人域名不在管理列表一律 550 拒绝。
// 域名匹配但本地邮箱不存在的收件人在 RCPT 阶段被接受，
// 由投递管道静默丢弃（避免泄露邮箱存在性）。
type Backend struct {
	deliverer       Deliverer
	allowedDomains  map[string]struct{}
	maxMessageBytes int64
	limiter         *ConnectionLimiter
	log             *zap.Logger
}

// NewBackend 创建 SMTP Backend。limiter 传 nil 表示不限流。
func NewBackend(deliverer Deliverer, allowedDomains []string, maxMessageBytes int64, limiter *ConnectionLimiter, log *zap.Logger) *Backend {
	allowed := make(map[string]struct{}, len(allowedDomains))
	for _, d := range allowedDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			allowed[d] = struct{}{}
		}
	}
	return &Backend{
		deliverer:       deliverer,
		allowedDomains:  allowed,
		maxMessageBytes: maxMessageBytes,
		limiter:         limiter,
		log:             log,
	}
}

// NewSession 创建新的 SMTP 会话，连接数或速率超限时返回 421。
func (b *Backend) NewSession(c *gosmtp.Conn) (gosmtp.Session, error) {
	if b.limiter != nil && !b.limiter.Acquire() {
		b.log.Warn("SMTP connection rejected by limiter",
			zap.Int("current", b.limiter.Current()))
		return nil, &gosmtp.SMTPError{
			Code:         421,
			EnhancedCode: gosmtp.EnhancedCode{4, 4, 5},
			Message:      "too many connections, try again later",
		}
	}
	return &session{backend: b, limited: b.limiter != nil}, nil
}

type session struct {
	backend     *Backend
	limited     bool
	fromAddress string
	recipients  []string
}

// Mail 处理 MAIL 命令。
func (s *session) Mail(from string, opts *gosmtp.MailOptions) error {
	s.fromAddress = normalizeEnvelopeAddress(from)
	return nil
}

// Rcpt 处理 RCPT 命令。
//
// 中继防护的核心：只接受发往管理域名的收件人，
// 外部域名一律返回 550。
func (s *session) Rcpt(to string, _ *gosmtp.RcptOptions) error {
	addr := normalizeEnvelopeAddress(to)

	_, recipientDomain, ok := strings.Cut(addr, "@")
	if !ok || recipientDomain == "" {
		return &gosmtp.SMTPError{
			Code:         501,
			EnhancedCode: gosmtp.EnhancedCode{5, 1, 3},
			Message:      "invalid recipient address",
		}
	}

	if _, allowed := s.backend.allowedDomains[recipientDomain]; !allowed {
		return &gosmtp.SMTPError{
			Code:         550,
			EnhancedCode: gosmtp.EnhancedCode{5, 7, 1},
			Message:      "relay access denied - domain not managed by this server",
		}
	}

	s.recipients = append(s.recipients, addr)
	return nil
}

// Data 处理邮件内容，构造入站事件并交给投递管道。
func (s *session) Data(r io.Reader) error {
	limit := s.backend.maxMessageBytes
	if limit <= 0 {
		limit = 10 << 20
	}
	raw, err := io.ReadAll(io.LimitReader(r, limit))
	if err != nil {
		return err
	}

	results, err := s.backend.deliverer.Deliver(context.Background(), domain.InboundEmail{
		From: []string{s.fromAddress},
		To:   s.recipients,
		Raw:  raw,
	})
	if err != nil {
		s.backend.log.Error("deliver inbound message failed", zap.Error(err))
		return &gosmtp.SMTPError{
			Code:         451,
			EnhancedCode: gosmtp.EnhancedCode{4, 3, 0},
			Message:      "message processing failed",
		}
	}

	for _, res := range results {
		switch res.Status {
		case domain.RecipientStored:
			s.backend.log.Info("message stored",
				zap.String("recipient", res.Address),
				zap.Int64("message_id", res.MessageID))
		case domain.RecipientUnmatched:
			s.backend.log.Debug("message dropped, no mailbox",
				zap.String("recipient", res.Address))
		case domain.RecipientFailed:
			s.backend.log.Warn("message store failed",
				zap.String("recipient", res.Address),
				zap.Error(res.Err))
		}
	}
	return nil
}

// AuthPlain 处理 PLAIN 认证（收信服务器允许匿名）。
func (s *session) AuthPlain(username, password string) error {
	return nil
}

// Reset 重置会话状态。
func (s *session) Reset() {
	s.fromAddress = ""
	s.recipients = nil
}

// Logout 会话结束，释放连接许可。
func (s *session) Logout() error {
	if s.limited {
		s.backend.limiter.Release()
		s.limited = false
	}
	return nil
}

// normalizeEnvelopeAddress 去掉尖括号与空白并小写，信封地址专用。
func normalizeEnvelopeAddress(addr string) string {
	addr = strings.TrimSpace(addr)
	addr = strings.Trim(addr, "<>")
	return strings.ToLower(addr)
}
