package deploy

import (
	"context"
	"sync"

	"github.com/hwuu/rckt/internal/remote"
)

// --- Mock implementations ---

// mockClient TransferClient mock；hasStatus=false 时模拟不支持状态查询的 SFTP
type mockClient struct {
	ConnectFunc func(ctx context.Context, opts remote.Options) (string, error)
	MkdirFunc   func(path string, recursive bool) error
	PutFunc     func(data []byte, remotePath string) error
	ListFunc    func(path string) ([]remote.Entry, error)
	DeleteFunc  func(path string) error
	EndFunc     func() error

	hasStatus bool
	hook      remote.StatusHook

	mu        sync.Mutex
	calls     []string
	connected bool
	puts      map[string][]byte
}

func (m *mockClient) record(call string) {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	m.mu.Unlock()
}

func (m *mockClient) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.calls...)
}

func (m *mockClient) Connect(ctx context.Context, opts remote.Options) (string, error) {
	m.record("connect " + opts.Addr())
	if m.ConnectFunc != nil {
		if _, err := m.ConnectFunc(ctx, opts); err != nil {
			return "", err
		}
	}
	m.mu.Lock()
	m.connected = true
	m.mu.Unlock()
	if m.hook != nil {
		m.hook(remote.StatusConnected)
	}
	return "220 ready", nil
}

func (m *mockClient) Mkdir(path string, recursive bool) error {
	m.record("mkdir " + path)
	if m.MkdirFunc != nil {
		return m.MkdirFunc(path, recursive)
	}
	return nil
}

func (m *mockClient) Put(data []byte, remotePath string) error {
	m.record("put " + remotePath)
	if m.PutFunc != nil {
		if err := m.PutFunc(data, remotePath); err != nil {
			return err
		}
	}
	m.mu.Lock()
	if m.puts == nil {
		m.puts = map[string][]byte{}
	}
	m.puts[remotePath] = data
	m.mu.Unlock()
	return nil
}

func (m *mockClient) List(path string) ([]remote.Entry, error) {
	m.record("list " + path)
	if m.ListFunc != nil {
		return m.ListFunc(path)
	}
	return nil, nil
}

func (m *mockClient) Delete(path string) error {
	m.record("delete " + path)
	if m.DeleteFunc != nil {
		return m.DeleteFunc(path)
	}
	return nil
}

func (m *mockClient) Rmdir(path string) error {
	m.record("rmdir " + path)
	return nil
}

func (m *mockClient) End() error {
	m.record("end")
	m.mu.Lock()
	m.connected = false
	m.mu.Unlock()
	if m.hook != nil {
		m.hook(remote.StatusDisconnected)
	}
	if m.EndFunc != nil {
		return m.EndFunc()
	}
	return nil
}

func (m *mockClient) ConnectionStatus() (remote.ConnectionStatus, bool) {
	if !m.hasStatus {
		return "", false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.connected {
		return remote.StatusConnected, true
	}
	return remote.StatusDisconnected, true
}

// factoryFor 返回总是产出 client 的 ClientFactory，并记录协议与 hook
func factoryFor(client *mockClient, protocols *[]remote.Protocol) remote.ClientFactory {
	return func(protocol remote.Protocol, hook remote.StatusHook) (remote.TransferClient, error) {
		if protocols != nil {
			*protocols = append(*protocols, protocol)
		}
		client.hook = hook
		return client, nil
	}
}

// mockPrompter PasswordPrompter mock
type mockPrompter struct {
	PromptPasswordFunc func(message string) (string, error)
	messages           []string
}

func (m *mockPrompter) PromptPassword(message string) (string, error) {
	m.messages = append(m.messages, message)
	return m.PromptPasswordFunc(message)
}

// eventRecorder 记录所有事件
type eventRecorder struct {
	events []Event
}

func (r *eventRecorder) listen(ev Event) {
	r.events = append(r.events, ev)
}

func (r *eventRecorder) names() []string {
	var out []string
	for _, ev := range r.events {
		if ev.Name() == "log" {
			continue
		}
		out = append(out, ev.Name())
	}
	return out
}

func (r *eventRecorder) uploaded() []Progress {
	var out []Progress
	for _, ev := range r.events {
		if e, ok := ev.(UploadedEvent); ok {
			out = append(out, e.Progress)
		}
	}
	return out
}

func (r *eventRecorder) logs() []string {
	var out []string
	for _, ev := range r.events {
		if e, ok := ev.(LogEvent); ok {
			out = append(out, e.Message)
		}
	}
	return out
}
