package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAddress(t *testing.T) {
	t.Run("去空白并转小写", func(t *testing.T) {
		got, err := NormalizeAddress("  Foo@BAR.com ")

		assert.NoError(t, err)
		assert.Equal(t, "foo@bar.com", got)
	})

	t.Run("空输入返回错误", func(t *testing.T) {
		_, err := NormalizeAddress("")
		assert.ErrorIs(t, err, ErrAddressEmpty)

		_, err = NormalizeAddress("   ")
		assert.ErrorIs(t, err, ErrAddressEmpty)
	})

	t.Run("缺少@返回错误", func(t *testing.T) {
		_, err := NormalizeAddress("noatsign")
		assert.ErrorIs(t, err, ErrAddressMissingDomain)
	})

	t.Run("多个@返回错误", func(t *testing.T) {
		_, err := NormalizeAddress("a@b@c.com")
		assert.ErrorIs(t, err, ErrAddressMalformed)
	})

	t.Run("本地部分或域名为空返回错误", func(t *testing.T) {
		_, err := NormalizeAddress("@example.com")
		assert.ErrorIs(t, err, ErrAddressMalformed)

		_, err = NormalizeAddress("user@")
		assert.ErrorIs(t, err, ErrAddressMalformed)
	})

	t.Run("规范形式原样通过", func(t *testing.T) {
		got, err := NormalizeAddress("user@example.com")

		assert.NoError(t, err)
		assert.Equal(t, "user@example.com", got)
	})
}

func TestNormalizeRecipient(t *testing.T) {
	assert.Equal(t, "user@example.com", NormalizeRecipient(" User@Example.COM "))
	assert.Equal(t, "", NormalizeRecipient("   "))
	// 宽容处理：不校验形态，畸形地址原样返回小写形式
	assert.Equal(t, "not-an-address", NormalizeRecipient("Not-An-Address"))
}
