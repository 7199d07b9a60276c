package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dropmail/backend/internal/domain"
	"dropmail/backend/internal/storage"
	"dropmail/backend/internal/storage/memory"
)

func TestMailboxService_Create(t *testing.T) {
	store := memory.NewStore()
	svc := NewMailboxService(store)
	ctx := context.Background()

	t.Run("创建时规范化地址", func(t *testing.T) {
		mailbox, err := svc.Create(ctx, "  Foo@BAR.com ")

		require.NoError(t, err)
		assert.Equal(t, "foo@bar.com", mailbox.Address)
		assert.NotZero(t, mailbox.ID)
		assert.False(t, mailbox.CreatedAt.IsZero())
	})

	t.Run("规范化后相同的地址冲突", func(t *testing.T) {
		_, err := svc.Create(ctx, "FOO@bar.COM")
		assert.ErrorIs(t, err, storage.ErrAddressTaken)

		mailboxes, err := svc.List(ctx)
		require.NoError(t, err)
		assert.Len(t, mailboxes, 1)
	})

	t.Run("非法地址返回校验错误", func(t *testing.T) {
		_, err := svc.Create(ctx, "noatsign")
		assert.ErrorIs(t, err, domain.ErrAddressMissingDomain)

		_, err = svc.Create(ctx, "")
		assert.ErrorIs(t, err, domain.ErrAddressEmpty)
	})
}

func TestMailboxService_Delete(t *testing.T) {
	store := memory.NewStore()
	svc := NewMailboxService(store)
	ctx := context.Background()

	mailbox, err := svc.Create(ctx, "gone@example.com")
	require.NoError(t, err)

	t.Run("删除后查询不到", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, mailbox.ID))

		_, err := svc.Get(ctx, mailbox.ID)
		assert.ErrorIs(t, err, storage.ErrMailboxNotFound)
	})

	t.Run("删除不存在的ID幂等", func(t *testing.T) {
		assert.NoError(t, svc.Delete(ctx, 12345))
	})
}

func TestMailboxService_GetByAddress(t *testing.T) {
	store := memory.NewStore()
	svc := NewMailboxService(store)
	ctx := context.Background()

	created, err := svc.Create(ctx, "route@example.com")
	require.NoError(t, err)

	t.Run("宽容规范化后精确匹配", func(t *testing.T) {
		mailbox, err := svc.GetByAddress(ctx, " Route@Example.COM ")

		require.NoError(t, err)
		assert.Equal(t, created.ID, mailbox.ID)
	})

	t.Run("未匹配返回未找到", func(t *testing.T) {
		_, err := svc.GetByAddress(ctx, "other@example.com")
		assert.ErrorIs(t, err, storage.ErrMailboxNotFound)
	})

	t.Run("空地址返回未找到", func(t *testing.T) {
		_, err := svc.GetByAddress(ctx, "   ")
		assert.ErrorIs(t, err, storage.ErrMailboxNotFound)
	})
}
