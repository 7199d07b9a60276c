package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dropmail/backend/internal/storage"
)

func strptr(s string) *string { return &s }

func insertAt(t *testing.T, s *Store, mailboxID int64, at time.Time) int64 {
	t.Helper()
	id, err := s.InsertMessage(context.Background(), storage.MessageInsert{
		MailboxID:  mailboxID,
		Sender:     "sender@example.com",
		Subject:    strptr("hi"),
		Preview:    "hi",
		ReceivedAt: at,
	})
	require.NoError(t, err)
	return id
}

func TestStore_MailboxUniqueness(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	first, err := s.CreateMailbox(ctx, "dup@example.com")
	require.NoError(t, err)
	require.NotZero(t, first.ID)

	t.Run("重复地址返回冲突", func(t *testing.T) {
		_, err := s.CreateMailbox(ctx, "dup@example.com")
		assert.ErrorIs(t, err, storage.ErrAddressTaken)

		mailboxes, err := s.ListMailboxes(ctx)
		require.NoError(t, err)
		assert.Len(t, mailboxes, 1)
	})

	t.Run("删除后地址可复用", func(t *testing.T) {
		require.NoError(t, s.DeleteMailbox(ctx, first.ID))

		again, err := s.CreateMailbox(ctx, "dup@example.com")
		assert.NoError(t, err)
		assert.NotEqual(t, first.ID, again.ID)
	})
}

func TestStore_CascadeDelete(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	mb, err := s.CreateMailbox(ctx, "cascade@example.com")
	require.NoError(t, err)

	now := time.Now().UTC()
	msgID1 := insertAt(t, s, mb.ID, now)
	msgID2 := insertAt(t, s, mb.ID, now.Add(time.Second))

	other, err := s.CreateMailbox(ctx, "other@example.com")
	require.NoError(t, err)
	keptID := insertAt(t, s, other.ID, now)

	require.NoError(t, s.DeleteMailbox(ctx, mb.ID))

	t.Run("级联删除所有邮件", func(t *testing.T) {
		_, err := s.GetMessage(ctx, msgID1)
		assert.ErrorIs(t, err, storage.ErrMessageNotFound)
		_, err = s.GetMessage(ctx, msgID2)
		assert.ErrorIs(t, err, storage.ErrMessageNotFound)
	})

	t.Run("其他邮箱的邮件不受影响", func(t *testing.T) {
		detail, err := s.GetMessage(ctx, keptID)
		require.NoError(t, err)
		assert.Equal(t, other.ID, detail.MailboxID)
		assert.Equal(t, "other@example.com", detail.MailboxAddress)
	})

	t.Run("重复删除幂等", func(t *testing.T) {
		assert.NoError(t, s.DeleteMailbox(ctx, mb.ID))
	})
}

func TestStore_ListMessagesOrderAndCap(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	mb, err := s.CreateMailbox(ctx, "list@example.com")
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("received_at倒序且同时刻按id倒序", func(t *testing.T) {
		oldID := insertAt(t, s, mb.ID, base)
		tieA := insertAt(t, s, mb.ID, base.Add(time.Hour))
		tieB := insertAt(t, s, mb.ID, base.Add(time.Hour))

		got, err := s.ListMessages(ctx, mb.ID)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, tieB, got[0].ID)
		assert.Equal(t, tieA, got[1].ID)
		assert.Equal(t, oldID, got[2].ID)
	})

	t.Run("最多返回200条", func(t *testing.T) {
		for i := 0; i < 210; i++ {
			insertAt(t, s, mb.ID, base.Add(time.Duration(i)*time.Minute))
		}

		got, err := s.ListMessages(ctx, mb.ID)
		require.NoError(t, err)
		assert.Len(t, got, 200)
	})

	t.Run("不存在的邮箱返回空列表", func(t *testing.T) {
		got, err := s.ListMessages(ctx, 9999)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestStore_InsertRequiresMailbox(t *testing.T) {
	s := NewStore()
	_, err := s.InsertMessage(context.Background(), storage.MessageInsert{
		MailboxID:  42,
		Sender:     "x@example.com",
		ReceivedAt: time.Now().UTC(),
	})
	assert.ErrorIs(t, err, storage.ErrMailboxNotFound)
}

func TestStore_DeleteMessageIdempotent(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	mb, err := s.CreateMailbox(ctx, fmt.Sprintf("del-%d@example.com", time.Now().UnixNano()))
	require.NoError(t, err)
	id := insertAt(t, s, mb.ID, time.Now().UTC())

	assert.NoError(t, s.DeleteMessage(ctx, id))
	assert.NoError(t, s.DeleteMessage(ctx, id))

	_, err = s.GetMessage(ctx, id)
	assert.ErrorIs(t, err, storage.ErrMessageNotFound)
}
