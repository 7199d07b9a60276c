package domain

import (
	"errors"
	"strings"
)

// 地址校验错误定义
var (
	ErrAddressEmpty         = errors.New("address must not be empty")
	ErrAddressMissingDomain = errors.New("address missing domain")
	ErrAddressMalformed     = errors.New("address malformed")
)

// NormalizeAddress 将邮箱地址规范化为存储键格式 "local@domain"。
//
// 规则：去除首尾空白并转为小写；必须非空；必须恰好包含一个 "@"，
// 且本地部分与域名部分均非空。函数是纯函数，无副作用。
func NormalizeAddress(raw string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return "", ErrAddressEmpty
	}
	if !strings.Contains(value, "@") {
		return "", ErrAddressMissingDomain
	}
	if strings.Count(value, "@") != 1 {
		return "", ErrAddressMalformed
	}

	local, domainPart, _ := strings.Cut(value, "@")
	if local == "" || domainPart == "" {
		return "", ErrAddressMalformed
	}

	return local + "@" + domainPart, nil
}

// NormalizeRecipient 对传输层收件人做宽容的规范化：仅去空白并转小写。
// 投递路由不重新校验地址形态，查不到邮箱时静默丢弃即可。
func NormalizeRecipient(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
