package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mengeric/gameserver-console-go/client"
	"github.com/mengeric/gameserver-console-go/console"
	"github.com/mengeric/gameserver-console-go/dispatch"
	"github.com/mengeric/gameserver-console-go/task"
)

// Handlers 视图接口处理器。
type Handlers struct {
	c *console.Console
}

// TelemetryResp GET /api/telemetry。
type TelemetryResp struct {
	client.SystemInfo
	MemoryUsedPercent  int          `json:"memoryUsedPercent"`
	StorageUsedPercent int          `json:"storageUsedPercent"`
	CPULevel           client.Level `json:"cpuLevel"`
	MemoryLevel        client.Level `json:"memoryLevel"`
	StorageLevel       client.Level `json:"storageLevel"`
	SampledAt          int64        `json:"sampledAt"`
}

// ListTasks GET /api/tasks
func (h *Handlers) ListTasks(c *gin.Context) {
	c.JSON(http.StatusOK, h.c.Snapshot())
}

// GetTasks GET /api/tasks/:kind
func (h *Handlers) GetTasks(c *gin.Context) {
	e, ok := h.c.Registry().Lookup(task.Kind(c.Param("kind")))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown kind"})
		return
	}
	c.JSON(http.StatusOK, e.Tasks.Load())
}

// PruneTasks DELETE /api/tasks/:kind 删除已结束的任务。
func (h *Handlers) PruneTasks(c *gin.Context) {
	n, err := h.c.Prune(c.Request.Context(), task.Kind(c.Param("kind")))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pruned": n})
}

// ListInstances GET /api/instances[?refresh=1]
func (h *Handlers) ListInstances(c *gin.Context) {
	if c.Query("refresh") != "" {
		if err := h.c.Reload(c.Request.Context()); err != nil {
			c.JSON(statusOf(err), gin.H{"error": client.UserMessage(err)})
			return
		}
	}
	c.JSON(http.StatusOK, h.c.Views())
}

// Dispatch POST /api/instances/:id/:kind
func (h *Handlers) Dispatch(c *gin.Context) {
	id, ok := instanceID(c)
	if !ok {
		return
	}
	t, err := h.c.Dispatcher().Dispatch(c.Request.Context(), task.Kind(c.Param("kind")), id)
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": client.UserMessage(err)})
		return
	}
	c.JSON(http.StatusAccepted, t)
}

// DeleteInstance DELETE /api/instances/:id
func (h *Handlers) DeleteInstance(c *gin.Context) {
	id, ok := instanceID(c)
	if !ok {
		return
	}
	msg, err := h.c.Dispatcher().Delete(c.Request.Context(), id)
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": client.UserMessage(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// Logs GET /api/instances/:id/logs?tail=N
func (h *Handlers) Logs(c *gin.Context) {
	id, ok := instanceID(c)
	if !ok {
		return
	}
	tail := 0
	if raw := c.Query("tail"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tail"})
			return
		}
		tail = n
	}
	logs, err := h.c.Logs(c.Request.Context(), id, tail)
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": client.UserMessage(err)})
		return
	}
	c.String(http.StatusOK, logs)
}

// DownloadLogs GET /api/instances/:id/logs/download
func (h *Handlers) DownloadLogs(c *gin.Context) {
	id, ok := instanceID(c)
	if !ok {
		return
	}
	b, err := h.c.DownloadLogs(c.Request.Context(), id)
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": client.UserMessage(err)})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="server_logs_%d.txt"`, id))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", b)
}

// DeleteLogs DELETE /api/instances/:id/logs
func (h *Handlers) DeleteLogs(c *gin.Context) {
	id, ok := instanceID(c)
	if !ok {
		return
	}
	msg, err := h.c.DeleteLogs(c.Request.Context(), id)
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": client.UserMessage(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// Telemetry GET /api/telemetry
func (h *Handlers) Telemetry(c *gin.Context) {
	info, at, ok := h.c.Telemetry().Latest()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no sample yet"})
		return
	}
	c.JSON(http.StatusOK, TelemetryResp{
		SystemInfo:         info,
		MemoryUsedPercent:  info.MemoryUsedPercent(),
		StorageUsedPercent: info.StorageUsedPercent(),
		CPULevel:           client.LevelOf(int(info.CPUUsage + 0.5)),
		MemoryLevel:        client.LevelOf(info.MemoryUsedPercent()),
		StorageLevel:       client.LevelOf(info.StorageUsedPercent()),
		SampledAt:          at.UnixMilli(),
	})
}

// Notifications GET /api/notifications
func (h *Handlers) Notifications(c *gin.Context) {
	c.JSON(http.StatusOK, h.c.Notifications().Recent())
}

func instanceID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid instance id"})
		return 0, false
	}
	return id, true
}

// statusOf 将内部错误映射为视图接口状态码：后端拒绝按原状态码透传，其余视为网关错误。
func statusOf(err error) int {
	var ae *client.APIError
	switch {
	case errors.Is(err, dispatch.ErrUnknownKind):
		return http.StatusNotFound
	case errors.As(err, &ae) && ae.StatusCode >= 400 && ae.StatusCode < 500:
		return ae.StatusCode
	default:
		return http.StatusBadGateway
	}
}
