package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dropmail/backend/internal/storage"
	"dropmail/backend/internal/storage/memory"
)

func newMessageFixture(t *testing.T) (*MailboxService, *MessageService) {
	t.Helper()
	store := memory.NewStore()
	return NewMailboxService(store), NewMessageService(store, store)
}

func TestMessageService_ListByMailbox(t *testing.T) {
	mailboxes, messages := newMessageFixture(t)
	ctx := context.Background()

	mailbox, err := mailboxes.Create(ctx, "inbox@example.com")
	require.NoError(t, err)

	subject := "hello"
	for i := 0; i < 3; i++ {
		_, err := messages.Insert(ctx, storage.MessageInsert{
			MailboxID:  mailbox.ID,
			Sender:     "sender@remote.com",
			Subject:    &subject,
			Preview:    "hi",
			ReceivedAt: time.Now().UTC().Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	t.Run("返回邮箱与摘要列表", func(t *testing.T) {
		got, summaries, err := messages.ListByMailbox(ctx, mailbox.ID)

		require.NoError(t, err)
		assert.Equal(t, mailbox.Address, got.Address)
		require.Len(t, summaries, 3)
		// 最新的邮件排在最前
		assert.True(t, !summaries[0].ReceivedAt.Before(summaries[1].ReceivedAt))
	})

	t.Run("邮箱不存在返回未找到", func(t *testing.T) {
		_, _, err := messages.ListByMailbox(ctx, 9999)
		assert.ErrorIs(t, err, storage.ErrMailboxNotFound)
	})
}

func TestMessageService_Get(t *testing.T) {
	mailboxes, messages := newMessageFixture(t)
	ctx := context.Background()

	mailbox, err := mailboxes.Create(ctx, "detail@example.com")
	require.NoError(t, err)

	text := "plain body"
	id, err := messages.Insert(ctx, storage.MessageInsert{
		MailboxID:  mailbox.ID,
		Sender:     "sender@remote.com",
		TextBody:   &text,
		Preview:    "plain body",
		ReceivedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	t.Run("详情携带所属邮箱地址", func(t *testing.T) {
		detail, err := messages.Get(ctx, id)

		require.NoError(t, err)
		assert.Equal(t, "detail@example.com", detail.MailboxAddress)
		require.NotNil(t, detail.TextBody)
		assert.Equal(t, "plain body", *detail.TextBody)
		assert.Nil(t, detail.Subject)
	})

	t.Run("邮件不存在返回未找到", func(t *testing.T) {
		_, err := messages.Get(ctx, 9999)
		assert.ErrorIs(t, err, storage.ErrMessageNotFound)
	})
}

func TestMessageService_Delete(t *testing.T) {
	mailboxes, messages := newMessageFixture(t)
	ctx := context.Background()

	mailbox, err := mailboxes.Create(ctx, "trash@example.com")
	require.NoError(t, err)

	id, err := messages.Insert(ctx, storage.MessageInsert{
		MailboxID:  mailbox.ID,
		Sender:     "sender@remote.com",
		Preview:    "",
		ReceivedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	t.Run("删除后查询不到", func(t *testing.T) {
		require.NoError(t, messages.Delete(ctx, id))

		_, err := messages.Get(ctx, id)
		assert.ErrorIs(t, err, storage.ErrMessageNotFound)
	})

	t.Run("重复删除幂等", func(t *testing.T) {
		assert.NoError(t, messages.Delete(ctx, id))
	})
}
