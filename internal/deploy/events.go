package deploy

import (
	"slices"
	"sync"
)

// Progress 上传进度快照
type Progress struct {
	TotalFilesCount      int
	TransferredFileCount int
	Filename             string
}

// Event 部署过程中发出的事件
type Event interface {
	Name() string
}

// UploadingEvent 单个文件开始上传
type UploadingEvent struct {
	Progress
}

// UploadedEvent 单个文件上传成功
type UploadedEvent struct {
	Progress
}

// UploadErrorEvent 单个文件上传失败，随后整个部署中止
type UploadErrorEvent struct {
	Progress
	Err error
}

// LogEvent 面向用户的状态文本
type LogEvent struct {
	Message string
}

func (UploadingEvent) Name() string   { return "uploading" }
func (UploadedEvent) Name() string    { return "uploaded" }
func (UploadErrorEvent) Name() string { return "upload-error" }
func (LogEvent) Name() string         { return "log" }

// Listener 事件回调，在部署 goroutine 上同步调用
type Listener func(Event)

type subscription struct {
	id       int
	listener Listener
}

type emitter struct {
	mu     sync.Mutex
	subs   []subscription
	nextID int
}

// Subscribe 注册监听器（按注册顺序回调），返回取消函数
func (e *emitter) Subscribe(l Listener) (unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextID
	e.nextID++
	e.subs = append(e.subs, subscription{id: id, listener: l})

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.subs = slices.DeleteFunc(e.subs, func(s subscription) bool { return s.id == id })
	}
}

func (e *emitter) emit(ev Event) {
	e.mu.Lock()
	subs := slices.Clone(e.subs)
	e.mu.Unlock()

	for _, s := range subs {
		s.listener(ev)
	}
}
