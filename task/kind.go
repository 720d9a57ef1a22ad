package task

// Kind 异步操作类别。
type Kind string

const (
	KindStart    Kind = "start"
	KindStop     Kind = "stop"
	KindDownload Kind = "download"
)

// StorageKey 该类集合在持久存储中的键，如 startTasks。
func (k Kind) StorageKey() string { return string(k) + "Tasks" }

// 辅助持久化键。
const (
	LastStartKey = "lastStartTimestamp"
	TokenKey     = "Token"
)
