package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreviewFromBodies(t *testing.T) {
	t.Run("短文本原样返回", func(t *testing.T) {
		got := PreviewFromBodies("  hello world  ", "")
		assert.Equal(t, "hello world", got)
	})

	t.Run("超长文本截断并追加省略号", func(t *testing.T) {
		body := strings.Repeat("a", 250)
		got := PreviewFromBodies(body, "")

		assert.Equal(t, strings.Repeat("a", 200)+"…", got)
		assert.Len(t, []rune(got), 201)
	})

	t.Run("恰好200字符不截断", func(t *testing.T) {
		body := strings.Repeat("b", 200)
		got := PreviewFromBodies(body, "")
		assert.Equal(t, body, got)
	})

	t.Run("无文本时剥离HTML标签", func(t *testing.T) {
		got := PreviewFromBodies("", "<html><body><p>Hello</p>\n<p>World</p></body></html>")
		assert.Equal(t, "Hello World", got)
	})

	t.Run("文本优先于HTML", func(t *testing.T) {
		got := PreviewFromBodies("plain text", "<p>html body</p>")
		assert.Equal(t, "plain text", got)
	})

	t.Run("两者皆空返回空串", func(t *testing.T) {
		assert.Equal(t, "", PreviewFromBodies("", ""))
		assert.Equal(t, "", PreviewFromBodies("   ", ""))
	})

	t.Run("多字节字符按rune截断", func(t *testing.T) {
		body := strings.Repeat("中", 250)
		got := PreviewFromBodies(body, "")
		assert.Equal(t, strings.Repeat("中", 200)+"…", got)
	})
}
