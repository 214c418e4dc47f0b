package remote

import (
	"context"
	"io"
	"sort"
	"strings"

	"github.com/jlaffaye/ftp"
)

// --- Mock implementations ---

// mockClient TransferClient 的函数字段 mock，未设置的方法返回零值
type mockClient struct {
	ListFunc   func(path string) ([]Entry, error)
	DeleteFunc func(path string) error
	RmdirFunc  func(path string) error
	MkdirFunc  func(path string, recursive bool) error

	calls []string
}

func (m *mockClient) Connect(ctx context.Context, opts Options) (string, error) {
	m.calls = append(m.calls, "connect")
	return "ok", nil
}

func (m *mockClient) Mkdir(path string, recursive bool) error {
	m.calls = append(m.calls, "mkdir "+path)
	if m.MkdirFunc != nil {
		return m.MkdirFunc(path, recursive)
	}
	return nil
}

func (m *mockClient) Put(data []byte, remotePath string) error {
	m.calls = append(m.calls, "put "+remotePath)
	return nil
}

func (m *mockClient) List(path string) ([]Entry, error) {
	m.calls = append(m.calls, "list "+path)
	if m.ListFunc != nil {
		return m.ListFunc(path)
	}
	return nil, nil
}

func (m *mockClient) Delete(path string) error {
	m.calls = append(m.calls, "delete "+path)
	if m.DeleteFunc != nil {
		return m.DeleteFunc(path)
	}
	return nil
}

func (m *mockClient) Rmdir(path string) error {
	m.calls = append(m.calls, "rmdir "+path)
	if m.RmdirFunc != nil {
		return m.RmdirFunc(path)
	}
	return nil
}

func (m *mockClient) End() error {
	m.calls = append(m.calls, "end")
	return nil
}

func (m *mockClient) ConnectionStatus() (ConnectionStatus, bool) {
	return "", false
}

// fakeFTPConn 以内存目录树模拟 FTP 服务器
type fakeFTPConn struct {
	dirs  map[string]bool
	files map[string][]byte
	cwd   string

	loginErr error
	storErr  error
	quits    int
}

func newFakeFTPConn() *fakeFTPConn {
	return &fakeFTPConn{
		dirs:  map[string]bool{"/": true},
		files: map[string][]byte{},
		cwd:   "/",
	}
}

func (f *fakeFTPConn) Login(user, password string) error { return f.loginErr }

func (f *fakeFTPConn) MakeDir(p string) error {
	parent := p[:strings.LastIndex(p, "/")]
	if parent == "" {
		parent = "/"
	}
	if f.dirs[p] || !f.dirs[parent] {
		return &ftpError{code: 550}
	}
	f.dirs[p] = true
	return nil
}

func (f *fakeFTPConn) Stor(p string, r io.Reader) error {
	if f.storErr != nil {
		return f.storErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.files[p] = data
	return nil
}

func (f *fakeFTPConn) List(p string) ([]*ftp.Entry, error) {
	var out []*ftp.Entry
	prefix := strings.TrimSuffix(p, "/") + "/"
	for d := range f.dirs {
		if d != "/" && strings.HasPrefix(d, prefix) && !strings.Contains(d[len(prefix):], "/") {
			out = append(out, &ftp.Entry{Name: d[len(prefix):], Type: ftp.EntryTypeFolder})
		}
	}
	for name := range f.files {
		if strings.HasPrefix(name, prefix) && !strings.Contains(name[len(prefix):], "/") {
			out = append(out, &ftp.Entry{Name: name[len(prefix):], Type: ftp.EntryTypeFile})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeFTPConn) Delete(p string) error {
	if _, ok := f.files[p]; !ok {
		return &ftpError{code: 550}
	}
	delete(f.files, p)
	return nil
}

func (f *fakeFTPConn) RemoveDir(p string) error {
	if !f.dirs[p] {
		return &ftpError{code: 550}
	}
	delete(f.dirs, p)
	return nil
}

func (f *fakeFTPConn) ChangeDir(p string) error {
	if !f.dirs[p] {
		return &ftpError{code: 550}
	}
	f.cwd = p
	return nil
}

func (f *fakeFTPConn) CurrentDir() (string, error) { return f.cwd, nil }

func (f *fakeFTPConn) Quit() error {
	f.quits++
	return nil
}

type ftpError struct{ code int }

func (e *ftpError) Error() string { return "ftp error" }
