package sql

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// Execer 是执行 DDL 所需的最小接口，*sqlx.DB 满足该接口。
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Initializer 保证一组幂等 DDL 语句在进程内至多成功执行一次。
//
// 首个调用方持锁执行建表，并发调用方在锁上等待同一结果；
// 失败时不置位，下一次调用从头重试。DDL 不保证跨语句原子，
// 因此每条语句都必须是 "create if not exists" 形式，部分生效可容忍。
// 这只是进程内保证：多进程并发初始化依赖语句本身的幂等性。
type Initializer struct {
	mu         sync.Mutex
	ready      bool
	statements []string
	exec       Execer
}

// NewInitializer 创建初始化器。
func NewInitializer(exec Execer, statements []string) *Initializer {
	return &Initializer{
		exec:       exec,
		statements: statements,
	}
}

// EnsureReady 保证全部 DDL 语句执行成功，可并发、可重复调用。
func (i *Initializer) EnsureReady(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.ready {
		return nil
	}

	for _, stmt := range i.statements {
		if _, err := i.exec.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}

	i.ready = true
	return nil
}

// schemaStatements 返回指定驱动的建表语句。
// 列名与类型在三种驱动间保持一致的逻辑模型：
// mailboxes(id PK, address UNIQUE NOT NULL, created_at)
// messages(id PK, mailbox_id FK ON DELETE CASCADE, sender, subject,
// preview, text_body, html_body, message_identifier, received_at)
func schemaStatements(driverName string) []string {
	switch driverName {
	case driverPostgres:
		return []string{
			`CREATE TABLE IF NOT EXISTS mailboxes (
				id BIGSERIAL PRIMARY KEY,
				address TEXT UNIQUE NOT NULL,
				created_at TIMESTAMPTZ NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS messages (
				id BIGSERIAL PRIMARY KEY,
				mailbox_id BIGINT NOT NULL REFERENCES mailboxes(id) ON DELETE CASCADE,
				sender TEXT NOT NULL,
				subject TEXT,
				preview TEXT,
				text_body TEXT,
				html_body TEXT,
				message_identifier TEXT,
				received_at TIMESTAMPTZ NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_messages_mailbox_received
				ON messages (mailbox_id, received_at DESC, id DESC)`,
		}
	case driverMySQL:
		// MySQL 不支持 CREATE INDEX IF NOT EXISTS，索引随表一起声明。
		return []string{
			`CREATE TABLE IF NOT EXISTS mailboxes (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				address VARCHAR(255) NOT NULL,
				created_at DATETIME(6) NOT NULL,
				UNIQUE KEY uniq_mailboxes_address (address)
			)`,
			`CREATE TABLE IF NOT EXISTS messages (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				mailbox_id BIGINT NOT NULL,
				sender TEXT NOT NULL,
				subject TEXT,
				preview TEXT,
				text_body MEDIUMTEXT,
				html_body MEDIUMTEXT,
				message_identifier VARCHAR(998),
				received_at DATETIME(6) NOT NULL,
				KEY idx_messages_mailbox_received (mailbox_id, received_at, id),
				CONSTRAINT fk_messages_mailbox FOREIGN KEY (mailbox_id)
					REFERENCES mailboxes(id) ON DELETE CASCADE
			)`,
		}
	case driverSQLite:
		return []string{
			`CREATE TABLE IF NOT EXISTS mailboxes (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				address TEXT UNIQUE NOT NULL,
				created_at TIMESTAMP NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS messages (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				mailbox_id INTEGER NOT NULL REFERENCES mailboxes(id) ON DELETE CASCADE,
				sender TEXT NOT NULL,
				subject TEXT,
				preview TEXT,
				text_body TEXT,
				html_body TEXT,
				message_identifier TEXT,
				received_at TIMESTAMP NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_messages_mailbox_received
				ON messages (mailbox_id, received_at DESC, id DESC)`,
		}
	default:
		return nil
	}
}
