package domain

import "time"

// Mailbox 表示一个已开通的一次性邮箱。
// 地址在创建后不可变更，且全局唯一。
type Mailbox struct {
	ID        int64     `json:"id" db:"id"`
	Address   string    `json:"address" db:"address"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
