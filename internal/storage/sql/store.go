package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"dropmail/backend/internal/domain"
	"dropmail/backend/internal/storage"
)

// 支持的数据库驱动
const (
	driverPostgres = "postgres"
	driverMySQL    = "mysql"
	driverSQLite   = "sqlite3"
)

// Store SQL 数据库存储实现（支持 PostgreSQL、MySQL 5.7+ 和 SQLite）。
//
// 所有查询都是独立的单语句工作单元，不使用跨查询事务：
// 收件人匹配与写入之间允许和并发的邮箱删除竞争，结果由
// 外键级联兜底，属可接受的尽力而为语义。
type Store struct {
	db         *sqlx.DB
	driverName string
	schema     *Initializer
	log        *zap.Logger
}

// NewStore 创建 SQL 数据库存储。
//
// MySQL DSN 需要携带 parseTime=true 才能正确扫描时间列。
func NewStore(
	driverName string,
	dsn string,
	maxOpenConns int,
	maxIdleConns int,
	connMaxLifetime time.Duration,
	log *zap.Logger,
) (*Store, error) {
	switch driverName {
	case driverPostgres, driverMySQL, driverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver: %s (supported: postgres, mysql, sqlite3)", driverName)
	}

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if driverName == driverSQLite {
		// SQLite 的外键开关是连接级状态，单连接池避免部分连接未启用。
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(maxOpenConns)
		db.SetMaxIdleConns(maxIdleConns)
		db.SetConnMaxLifetime(connMaxLifetime)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	statements := schemaStatements(driverName)
	if driverName == driverSQLite {
		statements = append([]string{`PRAGMA foreign_keys = ON`}, statements...)
	}

	return &Store{
		db:         db,
		driverName: driverName,
		schema:     NewInitializer(db, statements),
		log:        log,
	}, nil
}

// EnsureReady 保证两张实体表存在，进程内至多建表一次，失败后可重试。
func (s *Store) EnsureReady(ctx context.Context) error {
	return s.schema.EnsureReady(ctx)
}

// Close 关闭数据库连接。
func (s *Store) Close() error {
	return s.db.Close()
}

// Health 检查数据库连通性。
func (s *Store) Health() error {
	return s.db.Ping()
}

// CreateMailbox 创建邮箱，唯一约束冲突转换为 ErrAddressTaken。
func (s *Store) CreateMailbox(ctx context.Context, address string) (*domain.Mailbox, error) {
	now := time.Now().UTC()

	var id int64
	var err error
	if s.driverName == driverPostgres {
		err = s.db.QueryRowContext(ctx,
			`INSERT INTO mailboxes (address, created_at) VALUES ($1, $2) RETURNING id`,
			address, now,
		).Scan(&id)
	} else {
		var res sql.Result
		res, err = s.db.ExecContext(ctx,
			`INSERT INTO mailboxes (address, created_at) VALUES (?, ?)`,
			address, now,
		)
		if err == nil {
			id, err = res.LastInsertId()
		}
	}
	if err != nil {
		if isUniqueViolation(err) {
			return nil, storage.ErrAddressTaken
		}
		return nil, fmt.Errorf("insert mailbox: %w", err)
	}

	return &domain.Mailbox{ID: id, Address: address, CreatedAt: now}, nil
}

// ListMailboxes 按创建时间倒序返回全部邮箱。
func (s *Store) ListMailboxes(ctx context.Context) ([]domain.Mailbox, error) {
	mailboxes := []domain.Mailbox{}
	err := s.db.SelectContext(ctx, &mailboxes,
		`SELECT id, address, created_at FROM mailboxes ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list mailboxes: %w", err)
	}
	return mailboxes, nil
}

// GetMailbox 按 ID 查询邮箱。
func (s *Store) GetMailbox(ctx context.Context, id int64) (*domain.Mailbox, error) {
	var mailbox domain.Mailbox
	err := s.db.GetContext(ctx, &mailbox,
		s.db.Rebind(`SELECT id, address, created_at FROM mailboxes WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrMailboxNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get mailbox: %w", err)
	}
	return &mailbox, nil
}

// GetMailboxByAddress 按规范地址精确匹配邮箱。
func (s *Store) GetMailboxByAddress(ctx context.Context, address string) (*domain.Mailbox, error) {
	var mailbox domain.Mailbox
	err := s.db.GetContext(ctx, &mailbox,
		s.db.Rebind(`SELECT id, address, created_at FROM mailboxes WHERE address = ?`), address)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrMailboxNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get mailbox by address: %w", err)
	}
	return &mailbox, nil
}

// DeleteMailbox 删除邮箱，邮件由外键级联删除，幂等。
func (s *Store) DeleteMailbox(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		s.db.Rebind(`DELETE FROM mailboxes WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete mailbox: %w", err)
	}
	return nil
}

// InsertMessage 入库一封邮件，返回持久化 ID。
func (s *Store) InsertMessage(ctx context.Context, in storage.MessageInsert) (int64, error) {
	var id int64
	var err error
	if s.driverName == driverPostgres {
		err = s.db.QueryRowContext(ctx,
			`INSERT INTO messages
				(mailbox_id, sender, subject, preview, text_body, html_body, message_identifier, received_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
			in.MailboxID, in.Sender, in.Subject, in.Preview,
			in.TextBody, in.HTMLBody, in.MessageIdentifier, in.ReceivedAt,
		).Scan(&id)
	} else {
		var res sql.Result
		res, err = s.db.ExecContext(ctx,
			`INSERT INTO messages
				(mailbox_id, sender, subject, preview, text_body, html_body, message_identifier, received_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			in.MailboxID, in.Sender, in.Subject, in.Preview,
			in.TextBody, in.HTMLBody, in.MessageIdentifier, in.ReceivedAt,
		)
		if err == nil {
			id, err = res.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("insert message: %w", err)
	}
	return id, nil
}

// ListMessages 返回邮箱的摘要行，received_at 倒序、id 倒序，最多 200 条。
func (s *Store) ListMessages(ctx context.Context, mailboxID int64) ([]domain.MessageSummary, error) {
	messages := []domain.MessageSummary{}
	err := s.db.SelectContext(ctx, &messages, s.db.Rebind(
		`SELECT id, sender, subject, preview, received_at
		 FROM messages
		 WHERE mailbox_id = ?
		 ORDER BY received_at DESC, id DESC
		 LIMIT 200`), mailboxID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

// GetMessage 返回完整邮件并附带所属邮箱地址。
func (s *Store) GetMessage(ctx context.Context, id int64) (*domain.MessageDetail, error) {
	var detail domain.MessageDetail
	err := s.db.GetContext(ctx, &detail, s.db.Rebind(
		`SELECT m.id, m.mailbox_id, m.sender, m.subject, m.preview,
		        m.text_body, m.html_body, m.message_identifier, m.received_at,
		        mb.address AS mailbox_address
		 FROM messages m
		 JOIN mailboxes mb ON mb.id = m.mailbox_id
		 WHERE m.id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrMessageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	return &detail, nil
}

// DeleteMessage 删除邮件，幂等。
func (s *Store) DeleteMessage(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		s.db.Rebind(`DELETE FROM messages WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

// isUniqueViolation 识别三种驱动的唯一约束冲突错误。
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint &&
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}

	return false
}
