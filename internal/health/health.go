package health

import (
	"net/http"

	"github.com/heptiolabs/healthcheck"

	"dropmail/backend/internal/storage"
)

// Checker 健康检查器。
// 存活探针检查数据库连通性，就绪探针额外要求表结构就绪。
type Checker struct {
	handler healthcheck.Handler
}

// NewChecker 创建健康检查器。
func NewChecker(store storage.Store) *Checker {
	handler := healthcheck.NewHandler()

	handler.AddLivenessCheck("database", func() error {
		return store.Health()
	})

	return &Checker{handler: handler}
}

// AddReadinessCheck 追加就绪检查项。
func (c *Checker) AddReadinessCheck(name string, check func() error) {
	c.handler.AddReadinessCheck(name, check)
}

// LiveEndpoint 存活探针处理函数。
func (c *Checker) LiveEndpoint(w http.ResponseWriter, r *http.Request) {
	c.handler.LiveEndpoint(w, r)
}

// ReadyEndpoint 就绪探针处理函数。
func (c *Checker) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	c.handler.ReadyEndpoint(w, r)
}
