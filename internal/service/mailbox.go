package service

import (
	"context"

	"dropmail/backend/internal/domain"
	"dropmail/backend/internal/storage"
)

// MailboxService 封装邮箱相关业务操作。
// 所有写入都经过地址规范化，存储层只见到规范形式。
type MailboxService struct {
	repo storage.MailboxRepository
}

// NewMailboxService 创建邮箱业务服务。
func NewMailboxService(repo storage.MailboxRepository) *MailboxService {
	return &MailboxService{repo: repo}
}

// Create 开通一个新邮箱。
// 地址不合法返回 domain 的校验错误，地址冲突返回 storage.ErrAddressTaken。
func (s *MailboxService) Create(ctx context.Context, address string) (*domain.Mailbox, error) {
	normalized, err := domain.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}
	return s.repo.CreateMailbox(ctx, normalized)
}

// List 按创建时间倒序返回全部邮箱。
func (s *MailboxService) List(ctx context.Context) ([]domain.Mailbox, error) {
	return s.repo.ListMailboxes(ctx)
}

// Delete 删除邮箱及其全部邮件，ID 不存在不算错误。
func (s *MailboxService) Delete(ctx context.Context, id int64) error {
	return s.repo.DeleteMailbox(ctx, id)
}

// Get 按 ID 获取邮箱。
func (s *MailboxService) Get(ctx context.Context, id int64) (*domain.Mailbox, error) {
	return s.repo.GetMailbox(ctx, id)
}

// GetByAddress 按收件地址查找邮箱，供投递路由使用。
// 地址只做宽容规范化（小写、去空白），查不到返回 storage.ErrMailboxNotFound。
func (s *MailboxService) GetByAddress(ctx context.Context, address string) (*domain.Mailbox, error) {
	normalized := domain.NormalizeRecipient(address)
	if normalized == "" {
		return nil, storage.ErrMailboxNotFound
	}
	return s.repo.GetMailboxByAddress(ctx, normalized)
}
