package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// 以下类型对应游戏服务器托管平台 REST 接口，仅保留控制台需要的字段。

// JobID 后端异步任务句柄；后端可能返回字符串（Celery UUID）或数字，统一为字符串。
type JobID string

func (j *JobID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*j = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*j = JobID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("task_id: %w", err)
	}
	*j = JobID(n.String())
	return nil
}

// TaskHandle start/stop/download_mods 的 202 响应。
type TaskHandle struct {
	TaskID JobID `json:"task_id"`
}

// MessageResp 通用 {message} 响应（删除、错误）。
type MessageResp struct {
	Message string `json:"message"`
}

// TaskResult 任务结果；后端在异常时会把异常转为 {status}，偶尔也直接返回字符串。
type TaskResult struct {
	Status string `json:"status"`
}

func (r *TaskResult) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || string(b) == "null":
		*r = TaskResult{}
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = TaskResult{Status: s}
		return nil
	case b[0] == '{':
		var raw struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		*r = TaskResult{Status: raw.Status}
		return nil
	default:
		// 数字、布尔等非常规结果原样作为状态文本
		*r = TaskResult{Status: string(b)}
		return nil
	}
}

// TaskStatusResp GET instances/task_status/{task_id}/ 响应。
type TaskStatusResp struct {
	ID     JobID      `json:"id"`
	State  string     `json:"state"`
	Result TaskResult `json:"result"`
}

// Instance 实例（服务器进程）视图。
type Instance struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	User            string  `json:"user"`
	Preset          string  `json:"preset"`
	LogFile         *string `json:"log_file"`
	StartFilePath   string  `json:"start_file_path"`
	Port            int     `json:"port"`
	PID             int     `json:"pid"`
	IsReady         bool    `json:"is_ready"`
	IsRunning       bool    `json:"is_running"`
	IsAdminInstance bool    `json:"is_admin_instance"`
	CreatedAt       string  `json:"created_at"`
}

// InstanceList GET instances/ 响应；admin_instances 仅管理员非空。
type InstanceList struct {
	UserInstances  []Instance `json:"user_instances"`
	AdminInstances []Instance `json:"admin_instances"`
}

// All 合并两组实例（用户实例在前）。
func (l InstanceList) All() []Instance {
	out := make([]Instance, 0, len(l.UserInstances)+len(l.AdminInstances))
	out = append(out, l.UserInstances...)
	return append(out, l.AdminInstances...)
}

// SystemInfo GET services/get_system_info/ 响应（字节为单位）。
type SystemInfo struct {
	CPUUsage    float64 `json:"cpuUsage"`
	MemoryLeft  uint64  `json:"memoryLeft"`
	MemoryTotal uint64  `json:"memoryTotal"`
	SpaceLeft   uint64  `json:"spaceLeft"`
	SpaceTotal  uint64  `json:"spaceTotal"`
	CPUCount    int     `json:"cpuCount"`
	OSName      string  `json:"osName"`
}

// MemoryUsedPercent 已用内存百分比（四舍五入）；总量为 0 时返回 0。
func (s SystemInfo) MemoryUsedPercent() int { return usedPercent(s.MemoryTotal, s.MemoryLeft) }

// StorageUsedPercent 已用磁盘百分比。
func (s SystemInfo) StorageUsedPercent() int { return usedPercent(s.SpaceTotal, s.SpaceLeft) }

func usedPercent(total, left uint64) int {
	if total == 0 || left > total {
		return 0
	}
	return int(float64(total-left)/float64(total)*100 + 0.5)
}

// Level 资源占用等级。
type Level int

const (
	LevelOK Level = iota
	LevelWarning
	LevelCritical
)

// LevelOf 低于 70% 正常，低于 90% 告警，否则严重。
func LevelOf(percent int) Level {
	switch {
	case percent < 70:
		return LevelOK
	case percent < 90:
		return LevelWarning
	default:
		return LevelCritical
	}
}

// LoginReq / LoginResp POST login/。
type LoginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResp struct {
	Token   string `json:"token"`
	IsAdmin bool   `json:"isAdmin"`
	Message string `json:"message"`
	User    struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
}

// FormatID 实例 ID 转字符串（URL 路径段）。
func FormatID(id int64) string { return strconv.FormatInt(id, 10) }
