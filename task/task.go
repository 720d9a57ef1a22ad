package task

import "strings"

// State 任务状态，沿用后端任务状态词汇。
type State string

const (
	StateProgress State = "PROGRESS"
	StateSuccess  State = "SUCCESS"
	StateFailure  State = "FAILURE"
)

// NormalizeState 将后端原始状态归一为三态。
// SUCCESS/FAILURE 原样；REVOKED 视为失败；PENDING/STARTED/RETRY 等一律视为进行中。
func NormalizeState(raw string) State {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(StateSuccess):
		return StateSuccess
	case string(StateFailure), "REVOKED":
		return StateFailure
	default:
		return StateProgress
	}
}

// Terminal 是否为终态（不再轮询）。
func (s State) Terminal() bool { return s == StateSuccess || s == StateFailure }

// Task 一个实例上某类操作对应的后端异步任务。
type Task struct {
	JobID  string `json:"taskId"`
	State  State  `json:"state"`
	Status string `json:"status"`
}

// Open 仅 PROGRESS 状态的任务需要轮询。
func (t Task) Open() bool { return t.State == StateProgress }

// Collection 实例 ID -> 任务，每类操作一份；JSON 形式以十进制实例 ID 为键。
type Collection map[int64]Task

// Clone 浅拷贝（Task 为值类型，足够隔离）。
func (c Collection) Clone() Collection {
	out := make(Collection, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Equal 键集合与每个任务字段完全一致。
func (c Collection) Equal(o Collection) bool {
	if len(c) != len(o) {
		return false
	}
	for k, v := range c {
		if ov, ok := o[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Updater 函数式更新：入参为最新集合的副本，可直接修改后返回。
type Updater func(prev Collection) Collection
