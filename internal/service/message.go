package service

import (
	"context"

	"dropmail/backend/internal/domain"
	"dropmail/backend/internal/storage"
)

// MessageService 封装邮件查询与删除。
// 插入仅供投递管道调用，查询 API 只读与删除。
type MessageService struct {
	mailboxes storage.MailboxRepository
	messages  storage.MessageRepository
}

// NewMessageService 创建邮件业务服务。
func NewMessageService(mailboxes storage.MailboxRepository, messages storage.MessageRepository) *MessageService {
	return &MessageService{
		mailboxes: mailboxes,
		messages:  messages,
	}
}

// ListByMailbox 返回邮箱及其邮件摘要列表（最多 200 条，最新在前）。
// 先确认邮箱存在，不存在返回 storage.ErrMailboxNotFound。
func (s *MessageService) ListByMailbox(ctx context.Context, mailboxID int64) (*domain.Mailbox, []domain.MessageSummary, error) {
	mailbox, err := s.mailboxes.GetMailbox(ctx, mailboxID)
	if err != nil {
		return nil, nil, err
	}

	messages, err := s.messages.ListMessages(ctx, mailboxID)
	if err != nil {
		return nil, nil, err
	}
	return mailbox, messages, nil
}

// Get 获取单封邮件详情，附带所属邮箱地址。
func (s *MessageService) Get(ctx context.Context, messageID int64) (*domain.MessageDetail, error) {
	return s.messages.GetMessage(ctx, messageID)
}

// Delete 删除邮件，ID 不存在不算错误。
func (s *MessageService) Delete(ctx context.Context, messageID int64) error {
	return s.messages.DeleteMessage(ctx, messageID)
}

// Insert 入库一封邮件，仅投递管道调用。
func (s *MessageService) Insert(ctx context.Context, in storage.MessageInsert) (int64, error) {
	return s.messages.InsertMessage(ctx, in)
}
