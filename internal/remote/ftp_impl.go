package remote

// ftp_impl.go 基于 jlaffaye/ftp 的 FTP/FTPS 客户端实现。

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/jlaffaye/ftp"
)

// ftpConn 抽象 *ftp.ServerConn，便于 mock
type ftpConn interface {
	Login(user, password string) error
	MakeDir(path string) error
	Stor(path string, r io.Reader) error
	List(path string) ([]*ftp.Entry, error)
	Delete(path string) error
	RemoveDir(path string) error
	ChangeDir(path string) error
	CurrentDir() (string, error)
	Quit() error
}

type ftpDialFunc func(addr string, options ...ftp.DialOption) (ftpConn, error)

func dialFTP(addr string, options ...ftp.DialOption) (ftpConn, error) {
	conn, err := ftp.Dial(addr, options...)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// ftpClient FTP 客户端，自身维护连接状态
type ftpClient struct {
	dial ftpDialFunc

	mu     sync.Mutex
	conn   ftpConn
	status ConnectionStatus
}

// NewFTPClient 创建 FTP 客户端（未连接）
func NewFTPClient() TransferClient {
	return &ftpClient{dial: dialFTP, status: StatusDisconnected}
}

func (c *ftpClient) Connect(ctx context.Context, opts Options) (string, error) {
	dialOpts := []ftp.DialOption{
		ftp.DialWithContext(ctx),
		ftp.DialWithDisabledEPSV(opts.ForcePasv),
	}
	if opts.Timeout > 0 {
		dialOpts = append(dialOpts, ftp.DialWithTimeout(opts.Timeout))
	}
	if opts.Secure {
		dialOpts = append(dialOpts, ftp.DialWithExplicitTLS(&tls.Config{ServerName: opts.Host}))
	}

	conn, err := c.dial(opts.Addr(), dialOpts...)
	if err != nil {
		return "", err
	}
	if err := conn.Login(opts.User, opts.Password); err != nil {
		_ = conn.Quit()
		return "", err
	}

	c.mu.Lock()
	c.conn = conn
	c.status = StatusConnected
	c.mu.Unlock()

	return fmt.Sprintf("logged in to %s as %s", opts.Addr(), opts.User), nil
}

func (c *ftpClient) active() (ftpConn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || c.status != StatusConnected {
		return nil, ErrNotConnected
	}
	return c.conn, nil
}

func (c *ftpClient) Mkdir(dir string, recursive bool) error {
	conn, err := c.active()
	if err != nil {
		return err
	}
	if !recursive {
		return mkdirFTP(conn, dir)
	}

	current := ""
	if strings.HasPrefix(dir, "/") {
		current = "/"
	}
	for _, part := range strings.Split(strings.Trim(dir, "/"), "/") {
		if part == "" {
			continue
		}
		current = path.Join(current, part)
		if err := mkdirFTP(conn, current); err != nil && !isAlreadyExists(err) {
			return err
		}
	}
	return nil
}

// mkdirFTP MKD 失败时确认目录是否已存在（FTP 的 550 不区分原因）
func mkdirFTP(conn ftpConn, dir string) error {
	err := conn.MakeDir(dir)
	if err == nil {
		return nil
	}
	if ftpIsDir(conn, dir) {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, dir)
	}
	return err
}

func ftpIsDir(conn ftpConn, dir string) bool {
	cwd, err := conn.CurrentDir()
	if err != nil {
		return false
	}
	if err := conn.ChangeDir(dir); err != nil {
		return false
	}
	_ = conn.ChangeDir(cwd)
	return true
}

func (c *ftpClient) Put(data []byte, remotePath string) error {
	conn, err := c.active()
	if err != nil {
		return err
	}
	return conn.Stor(remotePath, bytes.NewReader(data))
}

func (c *ftpClient) List(dir string) ([]Entry, error) {
	conn, err := c.active()
	if err != nil {
		return nil, err
	}
	raw, err := conn.List(dir)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(raw))
	for _, e := range raw {
		entries = append(entries, Entry{Name: e.Name, Type: ftpEntryType(e.Type)})
	}
	return entries, nil
}

func ftpEntryType(t ftp.EntryType) EntryType {
	switch t {
	case ftp.EntryTypeFolder:
		return EntryDir
	case ftp.EntryTypeLink:
		return EntryLink
	default:
		return EntryFile
	}
}

func (c *ftpClient) Delete(remotePath string) error {
	conn, err := c.active()
	if err != nil {
		return err
	}
	return conn.Delete(remotePath)
}

func (c *ftpClient) Rmdir(dir string) error {
	conn, err := c.active()
	if err != nil {
		return err
	}
	return conn.RemoveDir(dir)
}

func (c *ftpClient) End() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.status = StatusDisconnected
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	return conn.Quit()
}

func (c *ftpClient) ConnectionStatus() (ConnectionStatus, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status, true
}
