package httptransport

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dropmail/backend/internal/config"
	"dropmail/backend/internal/health"
	"dropmail/backend/internal/middleware"
	"dropmail/backend/internal/monitoring"
	"dropmail/backend/internal/service"
)

// RouterDependencies 路由器依赖项
type RouterDependencies struct {
	Config         *config.Config
	MailboxService *service.MailboxService
	MessageService *service.MessageService
	Schema         middleware.SchemaReadier
	Metrics        *monitoring.Metrics
	Health         *health.Checker
	Logger         *zap.Logger
}

// NewRouter 创建并返回 Gin 路由实例。
func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RecoveryHandler(deps.Logger))
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.BodySizeLimit(1 * 1024 * 1024))

	// 预检请求无条件放行：无论路径与认证状态，
	// OPTIONS 一律 204 加宽松跨域头
	router.Use(preflight())

	if deps.Metrics != nil {
		router.Use(requestMetrics(deps.Metrics))
	}

	// 非预检请求的 CORS 头
	corsConfig := gincors.Config{
		AllowOrigins:     deps.Config.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Auth-Token"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, origin := range corsConfig.AllowOrigins {
		if origin == "*" {
			corsConfig.AllowCredentials = false
			break
		}
	}
	router.Use(gincors.New(corsConfig))

	handler := NewHandler(
		deps.MailboxService,
		deps.MessageService,
		deps.Config.Mail.Domain,
		deps.Metrics,
		deps.Logger,
	)

	// 健康检查与指标
	if deps.Health != nil {
		router.GET("/health/live", gin.WrapF(deps.Health.LiveEndpoint))
		router.GET("/health/ready", gin.WrapF(deps.Health.ReadyEndpoint))
	}
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	// 查询 API：先保证表结构就绪，再做共享密钥认证
	api := router.Group("/api")
	api.Use(middleware.EnsureReady(deps.Schema, deps.Logger))
	api.Use(middleware.TokenAuth(deps.Config.Auth.Token))
	{
		api.GET("/session", handler.Session)
		api.GET("/mailboxes", handler.ListMailboxes)
		api.POST("/mailboxes", handler.CreateMailbox)
		api.DELETE("/mailboxes/:id", handler.DeleteMailbox)
		api.GET("/mailboxes/:id/messages", handler.ListMessages)
		api.GET("/messages/:id", handler.GetMessage)
		api.DELETE("/messages/:id", handler.DeleteMessage)
	}

	// API 前缀下未匹配的路径返回 404 JSON，
	// 其余路径回落到静态资源
	router.NoRoute(noRouteHandler(deps.Config.Static.Dir))

	return router
}

// preflight 无条件应答 CORS 预检请求。
func preflight() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodOptions {
			c.Next()
			return
		}

		origin := c.GetHeader("Origin")
		if origin == "" {
			origin = "*"
		}
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Auth-Token")
		c.Header("Access-Control-Max-Age", "86400")
		c.AbortWithStatus(http.StatusNoContent)
	}
}

// requestMetrics 记录每个请求的计数与时延。
func requestMetrics(metrics *monitoring.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.RecordHTTPRequest(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start),
		)
	}
}

// noRouteHandler 处理未匹配的路径。
func noRouteHandler(staticDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") || c.Request.URL.Path == "/api" {
			Fail(c, http.StatusNotFound, "not found")
			return
		}

		if staticDir == "" || (c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) {
			Fail(c, http.StatusNotFound, "not found")
			return
		}

		// Clean 锚定在根路径，容器内的相对路径不会逃出静态目录
		rel := filepath.Clean("/" + c.Request.URL.Path)
		target := filepath.Join(staticDir, rel)
		if info, err := os.Stat(target); err == nil && !info.IsDir() {
			c.File(target)
			return
		}

		index := filepath.Join(staticDir, "index.html")
		if _, err := os.Stat(index); err == nil {
			c.File(index)
			return
		}

		Fail(c, http.StatusNotFound, "not found")
	}
}
