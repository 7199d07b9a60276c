package domain

import "strings"

// InboundEmail 是入站邮件事件在系统边界上的严格契约。
// 传输层（SMTP 或其他入口）负责在入口处完成一次性的字段收敛，
// 之后管道内不再做动态字段访问。
type InboundEmail struct {
	From []string // 信封发件人显示值，可能为多个
	To   []string // 传输层收件人列表，未经校验
	Raw  []byte   // 原始 MIME 字节流
}

// Sender 将多个发件人合并为单个显示字符串。
func (e InboundEmail) Sender() string {
	return strings.Join(e.From, ", ")
}

// RecipientStatus 表示单个收件人的投递结果状态。
type RecipientStatus string

const (
	// RecipientStored 收件人匹配到邮箱且邮件已入库。
	RecipientStored RecipientStatus = "stored"
	// RecipientUnmatched 收件人没有对应邮箱，已静默丢弃。
	RecipientUnmatched RecipientStatus = "unmatched"
	// RecipientFailed 收件人匹配到邮箱但入库失败。
	RecipientFailed RecipientStatus = "failed"
)

// RecipientResult 记录一次投递中单个收件人的处理结果。
// 扇出按收件人彼此独立，单个失败不影响其余收件人。
type RecipientResult struct {
	Address   string
	Status    RecipientStatus
	MessageID int64
	Err       error
}
