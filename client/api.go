package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ConsoleAPI 定义与游戏服务器托管平台后端的交互接口，便于 gomock 打桩。
// 功能：封装登录、实例列表、异步任务提交与状态查询、删除、遥测与日志。
type ConsoleAPI interface {
	Login(ctx context.Context, username, password string) (LoginResp, error)
	ListInstances(ctx context.Context) (InstanceList, error)
	// SubmitTask 提交异步操作 POST instances/{id}/{action}/，返回任务句柄。
	SubmitTask(ctx context.Context, instanceID int64, action string) (JobID, error)
	TaskStatus(ctx context.Context, jobID JobID) (TaskStatusResp, error)
	DeleteInstance(ctx context.Context, instanceID int64) (string, error)
	SystemInfo(ctx context.Context) (SystemInfo, error)
	// Logs 读取实例日志末尾 tail 行；tail<=0 时使用 DefaultLogTail。
	Logs(ctx context.Context, instanceID int64, tail int) (string, error)
	// DownloadLogs 下载完整日志文件（text/plain）。
	DownloadLogs(ctx context.Context, instanceID int64) ([]byte, error)
	DeleteLogs(ctx context.Context, instanceID int64) (string, error)
	SetToken(token string)
}

// DefaultLogTail 日志查看默认行数。
const DefaultLogTail = 2000

// ErrUnauthorized 后端返回 401（Token 失效或未登录）。
var ErrUnauthorized = errors.New("unauthorized")

// APIError 非 2xx 响应；Message 优先取后端 {message}。
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s => %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// UserMessage 提取适合展示给操作员的错误文本。
func UserMessage(err error) string {
	var ae *APIError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return err.Error()
}

// RequestIDHeader 每个请求携带的关联 ID 头。
const RequestIDHeader = "X-Request-ID"

// httpConsoleAPI 实现 ConsoleAPI。
type httpConsoleAPI struct {
	hc   *http.Client
	base string

	mu    sync.RWMutex
	token string
}

// NewHTTPConsoleAPI 构造 HTTP 实现。
// 参数：baseURL 形如 http://127.0.0.1:8000/api/；timeout<=0 时使用 10s。
func NewHTTPConsoleAPI(baseURL string, timeout time.Duration) ConsoleAPI {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &httpConsoleAPI{hc: &http.Client{Timeout: timeout}, base: strings.TrimRight(baseURL, "/") + "/"}
}

func (h *httpConsoleAPI) SetToken(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = token
}

// Login 发起 POST login/，成功后自动设置 Token。
func (h *httpConsoleAPI) Login(ctx context.Context, username, password string) (LoginResp, error) {
	var resp LoginResp
	if err := h.do(ctx, http.MethodPost, "login/", LoginReq{Username: username, Password: password}, &resp); err != nil {
		return resp, err
	}
	if resp.Token == "" {
		return resp, errors.New("login: empty token in response")
	}
	h.SetToken(resp.Token)
	return resp, nil
}

func (h *httpConsoleAPI) ListInstances(ctx context.Context) (InstanceList, error) {
	var out InstanceList
	err := h.do(ctx, http.MethodGet, "instances/", nil, &out)
	return out, err
}

func (h *httpConsoleAPI) SubmitTask(ctx context.Context, instanceID int64, action string) (JobID, error) {
	var out TaskHandle
	if err := h.do(ctx, http.MethodPost, "instances/"+FormatID(instanceID)+"/"+action+"/", nil, &out); err != nil {
		return "", err
	}
	if out.TaskID == "" {
		return "", fmt.Errorf("%s instance %d: empty task_id", action, instanceID)
	}
	return out.TaskID, nil
}

func (h *httpConsoleAPI) TaskStatus(ctx context.Context, jobID JobID) (TaskStatusResp, error) {
	var out TaskStatusResp
	err := h.do(ctx, http.MethodGet, "instances/task_status/"+url.PathEscape(string(jobID))+"/", nil, &out)
	return out, err
}

func (h *httpConsoleAPI) DeleteInstance(ctx context.Context, instanceID int64) (string, error) {
	var out MessageResp
	err := h.do(ctx, http.MethodDelete, "instances/"+FormatID(instanceID)+"/", nil, &out)
	return out.Message, err
}

func (h *httpConsoleAPI) SystemInfo(ctx context.Context) (SystemInfo, error) {
	var out SystemInfo
	err := h.do(ctx, http.MethodGet, "services/get_system_info/", nil, &out)
	return out, err
}

// Logs 返回实例日志文本（后端以 JSON 字符串返回）。
func (h *httpConsoleAPI) Logs(ctx context.Context, instanceID int64, tail int) (string, error) {
	if tail <= 0 {
		tail = DefaultLogTail
	}
	var out string
	path := "instances/" + FormatID(instanceID) + "/logs/?tail=" + strconv.Itoa(tail)
	err := h.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (h *httpConsoleAPI) DownloadLogs(ctx context.Context, instanceID int64) ([]byte, error) {
	path := "instances/" + FormatID(instanceID) + "/logs/download/"
	res, err := h.send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return b, nil
}

func (h *httpConsoleAPI) DeleteLogs(ctx context.Context, instanceID int64) (string, error) {
	var out MessageResp
	err := h.do(ctx, http.MethodDelete, "instances/"+FormatID(instanceID)+"/logs/delete/", nil, &out)
	return out.Message, err
}

// do 执行请求并可选解码 JSON 响应。
func (h *httpConsoleAPI) do(ctx context.Context, method, path string, body any, out any) error {
	res, err := h.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// send 发送请求；非 2xx 转为 *APIError，成功时由调用方关闭 Body。
func (h *httpConsoleAPI) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, h.base+path, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	h.mu.RLock()
	if h.token != "" {
		req.Header.Set("Authorization", "Token "+h.token)
	}
	h.mu.RUnlock()

	res, err := h.hc.Do(req)
	if err != nil {
		return nil, err
	}
	if res.StatusCode/100 != 2 {
		defer res.Body.Close()
		rb, _ := io.ReadAll(res.Body)
		return nil, &APIError{Method: method, Path: path, StatusCode: res.StatusCode, Message: messageOf(rb)}
	}
	return res, nil
}

// messageOf 从错误响应体中取 {message}，否则返回原文。
func messageOf(b []byte) string {
	var m MessageResp
	if err := json.Unmarshal(b, &m); err == nil && m.Message != "" {
		return m.Message
	}
	return strings.TrimSpace(string(b))
}
