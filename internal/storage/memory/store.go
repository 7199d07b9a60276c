package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"dropmail/backend/internal/domain"
	"dropmail/backend/internal/storage"
)

// Store 使用内存保存邮箱与邮件数据，主要用于开发验证与测试。
// 与 SQL 存储保持相同的唯一性、级联删除与排序语义。
type Store struct {
	mu        sync.RWMutex
	mailboxes map[int64]*domain.Mailbox
	byAddress map[string]int64
	messages  map[int64]*domain.Message // messageID -> message
	byMailbox map[int64][]int64         // mailboxID -> messageIDs

	nextMailboxID int64
	nextMessageID int64
}

// NewStore 创建一个内存存储实例。
func NewStore() *Store {
	return &Store{
		mailboxes: make(map[int64]*domain.Mailbox),
		byAddress: make(map[string]int64),
		messages:  make(map[int64]*domain.Message),
		byMailbox: make(map[int64][]int64),
	}
}

// EnsureReady 内存存储无需建表。
func (s *Store) EnsureReady(ctx context.Context) error {
	return nil
}

// CreateMailbox 创建邮箱，地址冲突返回 ErrAddressTaken。
func (s *Store) CreateMailbox(ctx context.Context, address string) (*domain.Mailbox, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byAddress[address]; exists {
		return nil, storage.ErrAddressTaken
	}

	s.nextMailboxID++
	mailbox := &domain.Mailbox{
		ID:        s.nextMailboxID,
		Address:   address,
		CreatedAt: time.Now().UTC(),
	}
	s.mailboxes[mailbox.ID] = mailbox
	s.byAddress[address] = mailbox.ID

	copied := *mailbox
	return &copied, nil
}

// ListMailboxes 按创建时间倒序返回全部邮箱。
func (s *Store) ListMailboxes(ctx context.Context) ([]domain.Mailbox, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Mailbox, 0, len(s.mailboxes))
	for _, mb := range s.mailboxes {
		out = append(out, *mb)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// GetMailbox 按 ID 查询邮箱。
func (s *Store) GetMailbox(ctx context.Context, id int64) (*domain.Mailbox, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mb, ok := s.mailboxes[id]
	if !ok {
		return nil, storage.ErrMailboxNotFound
	}
	copied := *mb
	return &copied, nil
}

// GetMailboxByAddress 按规范地址精确匹配邮箱。
func (s *Store) GetMailboxByAddress(ctx context.Context, address string) (*domain.Mailbox, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byAddress[address]
	if !ok {
		return nil, storage.ErrMailboxNotFound
	}
	copied := *s.mailboxes[id]
	return &copied, nil
}

// DeleteMailbox 删除邮箱并级联删除其全部邮件，幂等。
func (s *Store) DeleteMailbox(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mb, ok := s.mailboxes[id]
	if !ok {
		return nil
	}

	for _, msgID := range s.byMailbox[id] {
		delete(s.messages, msgID)
	}
	delete(s.byMailbox, id)
	delete(s.byAddress, mb.Address)
	delete(s.mailboxes, id)
	return nil
}

// InsertMessage 入库一封邮件。
func (s *Store) InsertMessage(ctx context.Context, in storage.MessageInsert) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.mailboxes[in.MailboxID]; !ok {
		return 0, storage.ErrMailboxNotFound
	}

	s.nextMessageID++
	msg := &domain.Message{
		ID:                s.nextMessageID,
		MailboxID:         in.MailboxID,
		Sender:            in.Sender,
		Subject:           in.Subject,
		Preview:           in.Preview,
		TextBody:          in.TextBody,
		HTMLBody:          in.HTMLBody,
		MessageIdentifier: in.MessageIdentifier,
		ReceivedAt:        in.ReceivedAt,
	}
	s.messages[msg.ID] = msg
	s.byMailbox[in.MailboxID] = append(s.byMailbox[in.MailboxID], msg.ID)
	return msg.ID, nil
}

// ListMessages 返回邮箱的摘要行，received_at 倒序、id 倒序，最多 200 条。
func (s *Store) ListMessages(ctx context.Context, mailboxID int64) ([]domain.MessageSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byMailbox[mailboxID]
	out := make([]domain.MessageSummary, 0, len(ids))
	for _, msgID := range ids {
		msg := s.messages[msgID]
		out = append(out, domain.MessageSummary{
			ID:         msg.ID,
			Sender:     msg.Sender,
			Subject:    msg.Subject,
			Preview:    msg.Preview,
			ReceivedAt: msg.ReceivedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ReceivedAt.Equal(out[j].ReceivedAt) {
			return out[i].ReceivedAt.After(out[j].ReceivedAt)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > 200 {
		out = out[:200]
	}
	return out, nil
}

// GetMessage 返回完整邮件并附带所属邮箱地址。
func (s *Store) GetMessage(ctx context.Context, id int64) (*domain.MessageDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msg, ok := s.messages[id]
	if !ok {
		return nil, storage.ErrMessageNotFound
	}
	mb, ok := s.mailboxes[msg.MailboxID]
	if !ok {
		return nil, storage.ErrMessageNotFound
	}

	detail := &domain.MessageDetail{
		Message:        *msg,
		MailboxAddress: mb.Address,
	}
	return detail, nil
}

// DeleteMessage 删除邮件，幂等。
func (s *Store) DeleteMessage(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.messages[id]
	if !ok {
		return nil
	}

	ids := s.byMailbox[msg.MailboxID]
	for i, msgID := range ids {
		if msgID == id {
			s.byMailbox[msg.MailboxID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	delete(s.messages, id)
	return nil
}

// Close 内存存储无需释放资源。
func (s *Store) Close() error {
	return nil
}

// Health 内存存储总是健康。
func (s *Store) Health() error {
	return nil
}
