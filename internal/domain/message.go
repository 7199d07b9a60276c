package domain

import "time"

// Message 表示一封已入库的邮件，入库后不再修改。
// 可选字段为 nil 时表示原始邮件中不存在该内容。
type Message struct {
	ID                int64     `json:"id" db:"id"`
	MailboxID         int64     `json:"mailbox_id" db:"mailbox_id"`
	Sender            string    `json:"sender" db:"sender"`
	Subject           *string   `json:"subject" db:"subject"`
	Preview           string    `json:"preview" db:"preview"`
	TextBody          *string   `json:"text_body" db:"text_body"`
	HTMLBody          *string   `json:"html_body" db:"html_body"`
	MessageIdentifier *string   `json:"message_identifier" db:"message_identifier"`
	ReceivedAt        time.Time `json:"received_at" db:"received_at"`
}

// MessageSummary 是邮件列表视图使用的精简行。
type MessageSummary struct {
	ID         int64     `json:"id" db:"id"`
	Sender     string    `json:"sender" db:"sender"`
	Subject    *string   `json:"subject" db:"subject"`
	Preview    string    `json:"preview" db:"preview"`
	ReceivedAt time.Time `json:"received_at" db:"received_at"`
}

// MessageDetail 是单封邮件视图，附带所属邮箱地址。
type MessageDetail struct {
	Message
	MailboxAddress string `json:"mailbox_address" db:"mailbox_address"`
}
