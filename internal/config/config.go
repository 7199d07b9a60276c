package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ServerConfig 定义 HTTP 服务器的监听配置参数
type ServerConfig struct {
	Host string // 监听地址，默认 "0.0.0.0"
	Port int    // 监听端口，默认 8080
}

// MailConfig 定义邮件服务的核心业务配置
type MailConfig struct {
	Domain         string   // 对外展示的主邮件域名
	AllowedDomains []string // 接受收件的域名列表（含主域名）
}

// SMTPConfig 定义 SMTP 邮件接收服务器的配置
type SMTPConfig struct {
	BindAddr        string // SMTP 服务监听地址，格式 "host:port"，默认 ":25"
	Domain          string // SMTP 服务器域名，用于 HELO/EHLO 响应
	MaxMessageBytes int64  // 单封邮件最大字节数
	MaxConnections  int    // 最大并发连接数
	MaxConnRate     int    // 每秒最大新建连接数
}

// AuthConfig 定义查询 API 的共享密钥配置
type AuthConfig struct {
	Token string // API 共享密钥；留空时所有 API 请求返回 500
}

// CORSConfig 定义跨域资源共享 (CORS) 配置
type CORSConfig struct {
	AllowedOrigins []string // 允许的来源列表，"*" 表示允许所有来源
}

// LogConfig 定义日志系统配置
type LogConfig struct {
	Level       string // 日志级别: debug, info, warn, error
	Development bool   // 开发模式: 启用彩色输出和详细堆栈信息
	File        string // 日志文件路径，留空只输出到标准输出
}

// DatabaseConfig 定义数据库连接配置
type DatabaseConfig struct {
	Driver          string        // 数据库驱动: "postgres"、"mysql" 或 "sqlite3"；留空使用内存存储
	DSN             string        // 数据库连接字符串
	MaxOpenConns    int           // 最大打开连接数，默认 25
	MaxIdleConns    int           // 最大空闲连接数，默认 5
	ConnMaxLifetime time.Duration // 连接最大生命周期，默认 5 分钟
}

// StaticConfig 定义静态资源服务配置
type StaticConfig struct {
	Dir string // 静态资源目录，留空禁用静态资源服务
}

// Config 是系统核心配置的根结构体，包含所有子系统的配置
type Config struct {
	Server   ServerConfig   // HTTP 服务器配置
	Mail     MailConfig     // 邮件业务配置
	SMTP     SMTPConfig     // SMTP 服务配置
	Auth     AuthConfig     // API 认证配置
	CORS     CORSConfig     // 跨域配置
	Log      LogConfig      // 日志配置
	Database DatabaseConfig // 数据库配置
	Static   StaticConfig   // 静态资源配置
}

// Load 从环境变量和 .env 文件加载系统配置。
//
// 配置加载优先级（从高到低）：
//  1. 系统环境变量
//  2. .env 文件（如果存在）
//  3. 默认值
//
// 环境变量前缀: DROPMAIL_
// 例如: DROPMAIL_SERVER_PORT, DROPMAIL_AUTH_TOKEN
func Load() (*Config, error) {
	loadEnvFile()

	viper.SetEnvPrefix("dropmail")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("mail.domain", "drop.mail")
	viper.SetDefault("mail.allowed_domains", "")
	viper.SetDefault("smtp.bind_addr", ":25")
	viper.SetDefault("smtp.domain", "")
	viper.SetDefault("smtp.max_message_bytes", 10*1024*1024)
	viper.SetDefault("smtp.max_connections", 100)
	viper.SetDefault("smtp.max_conn_rate", 20)
	viper.SetDefault("auth.token", "")
	viper.SetDefault("cors.allowed_origins", "*")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.development", false)
	viper.SetDefault("log.file", "")
	viper.SetDefault("database.driver", "") // 默认为空，使用内存存储
	viper.SetDefault("database.dsn", "")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", "5m")
	viper.SetDefault("static.dir", "")

	mailDomain := strings.ToLower(strings.TrimSpace(viper.GetString("mail.domain")))
	if mailDomain == "" {
		return nil, fmt.Errorf("mail.domain must not be empty")
	}

	// 主域名始终在允许列表中
	allowedDomains := parseDomains(viper.GetString("mail.allowed_domains"))
	if !containsString(allowedDomains, mailDomain) {
		allowedDomains = append([]string{mailDomain}, allowedDomains...)
	}

	smtpDomain := viper.GetString("smtp.domain")
	if smtpDomain == "" {
		smtpDomain = mailDomain
	}

	corsOrigins := parseList(viper.GetString("cors.allowed_origins"))
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	connMaxLifetime, err := time.ParseDuration(viper.GetString("database.conn_max_lifetime"))
	if err != nil {
		connMaxLifetime = 5 * time.Minute
	}

	driver := viper.GetString("database.driver")
	switch driver {
	case "", "postgres", "mysql", "sqlite3":
	default:
		return nil, fmt.Errorf("invalid database.driver %q (supported: postgres, mysql, sqlite3)", driver)
	}
	if driver != "" && viper.GetString("database.dsn") == "" {
		return nil, fmt.Errorf("database.dsn must be set when database.driver is %q", driver)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: viper.GetString("server.host"),
			Port: viper.GetInt("server.port"),
		},
		Mail: MailConfig{
			Domain:         mailDomain,
			AllowedDomains: allowedDomains,
		},
		SMTP: SMTPConfig{
			BindAddr:        viper.GetString("smtp.bind_addr"),
			Domain:          smtpDomain,
			MaxMessageBytes: viper.GetInt64("smtp.max_message_bytes"),
			MaxConnections:  viper.GetInt("smtp.max_connections"),
			MaxConnRate:     viper.GetInt("smtp.max_conn_rate"),
		},
		Auth: AuthConfig{
			Token: viper.GetString("auth.token"),
		},
		CORS: CORSConfig{
			AllowedOrigins: corsOrigins,
		},
		Log: LogConfig{
			Level:       viper.GetString("log.level"),
			Development: viper.GetBool("log.development"),
			File:        viper.GetString("log.file"),
		},
		Database: DatabaseConfig{
			Driver:          driver,
			DSN:             viper.GetString("database.dsn"),
			MaxOpenConns:    viper.GetInt("database.max_open_conns"),
			MaxIdleConns:    viper.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: connMaxLifetime,
		},
		Static: StaticConfig{
			Dir: viper.GetString("static.dir"),
		},
	}

	return cfg, nil
}

// parseDomains 将逗号分隔的域名字符串解析为小写域名数组
func parseDomains(value string) []string {
	out := parseList(value)
	for i := range out {
		out[i] = strings.ToLower(out[i])
	}
	return out
}

// parseList 将逗号分隔的字符串解析为字符串切片，已去除空白字符
func parseList(value string) []string {
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

func containsString(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}

// loadEnvFile 尝试加载 .env 文件
//
// 加载顺序：
//  1. 当前目录的 .env
//  2. 父目录的 .env（从 backend/ 子目录运行时）
//
// 文件不存在时静默失败；已存在的环境变量不会被覆盖。
func loadEnvFile() {
	if err := godotenv.Load(".env"); err == nil {
		return
	}

	parentEnv := filepath.Join("..", ".env")
	if _, err := os.Stat(parentEnv); err == nil {
		_ = godotenv.Load(parentEnv)
	}
}
