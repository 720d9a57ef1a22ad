package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mengeric/gameserver-console-go/console"
	"github.com/mengeric/gameserver-console-go/logging"
)

// NewRouter 构造只读为主的本地视图接口，供外部看板或脚本读取任务存储。
func NewRouter(c *console.Console) *gin.Engine {
	h := &Handlers{c: c}
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	api := router.Group("/api")
	{
		tasks := api.Group("/tasks")
		{
			tasks.GET("", h.ListTasks)
			tasks.GET("/:kind", h.GetTasks)
			tasks.DELETE("/:kind", h.PruneTasks)
		}

		instances := api.Group("/instances")
		{
			instances.GET("", h.ListInstances)
			instances.POST("/:id/:kind", h.Dispatch)
			instances.DELETE("/:id", h.DeleteInstance)
			instances.GET("/:id/logs", h.Logs)
			instances.GET("/:id/logs/download", h.DownloadLogs)
			instances.DELETE("/:id/logs", h.DeleteLogs)
		}

		api.GET("/telemetry", h.Telemetry)
		api.GET("/notifications", h.Notifications)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "probesInFlight": len(h.c.Poller().InFlight())})
	})
	return router
}

// requestLogger 用统一日志门面记录请求。
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logging.L().Debug(c.Request.Context(), "http request",
			"method", c.Request.Method, "path", c.FullPath(), "status", c.Writer.Status(), "cost", time.Since(start))
	}
}

// Serve 监听 addr 并提供视图接口；ctx 结束时优雅关闭。
// 返回：监听失败或服务异常退出时的错误；正常关闭返回 nil。
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()
	logging.L().Info(ctx, "view api listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
