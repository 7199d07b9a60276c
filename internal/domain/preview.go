package domain

import (
	"regexp"
	"strings"
)

// PreviewLimit 列表摘要的最大字符数（按 rune 计）。
const PreviewLimit = 200

const previewEllipsis = "…"

var (
	htmlTagPattern    = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// PreviewFromBodies 从正文派生列表摘要。
//
// 优先使用去除空白后的纯文本；否则剥掉 HTML 标签并压缩空白；
// 两者都没有时返回空串。超过 PreviewLimit 时截断并追加省略号。
func PreviewFromBodies(text, html string) string {
	source := strings.TrimSpace(text)
	if source == "" && html != "" {
		source = htmlTagPattern.ReplaceAllString(html, " ")
		source = whitespacePattern.ReplaceAllString(source, " ")
		source = strings.TrimSpace(source)
	}
	if source == "" {
		return ""
	}

	runes := []rune(source)
	if len(runes) <= PreviewLimit {
		return source
	}
	return string(runes[:PreviewLimit]) + previewEllipsis
}
