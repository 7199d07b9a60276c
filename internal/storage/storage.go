package storage

import (
	"context"
	"errors"
	"time"

	"dropmail/backend/internal/domain"
)

var (
	// ErrMailboxNotFound 邮箱不存在。
	ErrMailboxNotFound = errors.New("mailbox not found")
	// ErrMessageNotFound 邮件不存在。
	ErrMessageNotFound = errors.New("message not found")
	// ErrAddressTaken 地址已被占用（唯一约束冲突）。
	// 由存储实现从驱动错误中识别并转换，上层不做错误文本匹配。
	ErrAddressTaken = errors.New("address already taken")
)

// MessageInsert 定义入库一封邮件所需的全部字段。
// 仅投递管道调用插入，入库后的行不再更新。
type MessageInsert struct {
	MailboxID         int64
	Sender            string
	Subject           *string
	Preview           string
	TextBody          *string
	HTMLBody          *string
	MessageIdentifier *string
	ReceivedAt        time.Time
}

// MailboxRepository 定义邮箱数据存取操作。
type MailboxRepository interface {
	// CreateMailbox 以规范化地址创建邮箱；地址冲突返回 ErrAddressTaken。
	CreateMailbox(ctx context.Context, address string) (*domain.Mailbox, error)
	// ListMailboxes 按创建时间倒序返回全部邮箱。
	ListMailboxes(ctx context.Context) ([]domain.Mailbox, error)
	// GetMailbox 按 ID 查询，未找到返回 ErrMailboxNotFound。
	GetMailbox(ctx context.Context, id int64) (*domain.Mailbox, error)
	// GetMailboxByAddress 按规范地址精确匹配，未找到返回 ErrMailboxNotFound。
	GetMailboxByAddress(ctx context.Context, address string) (*domain.Mailbox, error)
	// DeleteMailbox 删除邮箱并级联删除其全部邮件；ID 不存在不算错误。
	DeleteMailbox(ctx context.Context, id int64) error
}

// MessageRepository 定义邮件数据存取操作。
type MessageRepository interface {
	// InsertMessage 入库一封邮件，返回持久化 ID。
	InsertMessage(ctx context.Context, in MessageInsert) (int64, error)
	// ListMessages 返回指定邮箱的摘要行，received_at 倒序、id 倒序，
	// 最多 200 条。不校验邮箱是否存在。
	ListMessages(ctx context.Context, mailboxID int64) ([]domain.MessageSummary, error)
	// GetMessage 返回完整邮件并附带所属邮箱地址，未找到返回 ErrMessageNotFound。
	GetMessage(ctx context.Context, id int64) (*domain.MessageDetail, error)
	// DeleteMessage 删除邮件；ID 不存在不算错误。
	DeleteMessage(ctx context.Context, id int64) error
}

// Store 定义完整的存储接口。
type Store interface {
	MailboxRepository
	MessageRepository

	// EnsureReady 保证两张实体表存在。可并发、可重复调用；
	// 进程内至多执行一次建表，失败后下一次调用重试。
	EnsureReady(ctx context.Context) error

	Close() error
	Health() error
}
