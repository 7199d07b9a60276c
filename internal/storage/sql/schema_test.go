package sql

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExecer 记录 DDL 执行次数，并可在前 failFirst 次调用时失败。
type fakeExecer struct {
	calls     atomic.Int64
	failFirst int64
}

func (f *fakeExecer) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	n := f.calls.Add(1)
	if n <= f.failFirst {
		return nil, errors.New("boom")
	}
	return nil, nil
}

func TestInitializer_EnsureReady(t *testing.T) {
	statements := []string{"CREATE TABLE IF NOT EXISTS a (id INTEGER)", "CREATE TABLE IF NOT EXISTS b (id INTEGER)"}

	t.Run("成功后不再重复执行", func(t *testing.T) {
		exec := &fakeExecer{}
		init := NewInitializer(exec, statements)

		require.NoError(t, init.EnsureReady(context.Background()))
		require.NoError(t, init.EnsureReady(context.Background()))
		require.NoError(t, init.EnsureReady(context.Background()))

		assert.Equal(t, int64(len(statements)), exec.calls.Load())
	})

	t.Run("失败后下一次调用重试", func(t *testing.T) {
		exec := &fakeExecer{failFirst: 1}
		init := NewInitializer(exec, statements)

		err := init.EnsureReady(context.Background())
		assert.Error(t, err)

		// 重试从头执行全部语句
		require.NoError(t, init.EnsureReady(context.Background()))
		assert.Equal(t, int64(1+len(statements)), exec.calls.Load())
	})

	t.Run("并发调用收敛到一次建表", func(t *testing.T) {
		exec := &fakeExecer{}
		init := NewInitializer(exec, statements)

		var wg sync.WaitGroup
		errs := make([]error, 32)
		for i := 0; i < 32; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = init.EnsureReady(context.Background())
			}(i)
		}
		wg.Wait()

		for _, err := range errs {
			assert.NoError(t, err)
		}
		assert.Equal(t, int64(len(statements)), exec.calls.Load())
	})
}

func TestSchemaStatements(t *testing.T) {
	t.Run("三种驱动均有建表语句", func(t *testing.T) {
		for _, driver := range []string{driverPostgres, driverMySQL, driverSQLite} {
			stmts := schemaStatements(driver)
			assert.NotEmpty(t, stmts, driver)
			for _, stmt := range stmts {
				assert.Contains(t, stmt, "IF NOT EXISTS", driver)
			}
		}
	})

	t.Run("未知驱动返回空", func(t *testing.T) {
		assert.Nil(t, schemaStatements("oracle"))
	})
}
