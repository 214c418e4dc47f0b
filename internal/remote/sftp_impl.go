package remote

// sftp_impl.go 提供 SFTP 的真实实现（pkg/sftp + x/crypto/ssh）。
// SFTP 不提供连接状态查询，连接与断开通过创建时注册的 StatusHook 通知。

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/sftp"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

type sshDialFunc func(ctx context.Context, opts Options) (*ssh.Client, error)

// sftpClient SFTP 客户端实现
type sftpClient struct {
	hook StatusHook
	dial sshDialFunc

	mu        sync.Mutex
	client    *sftp.Client
	transport io.Closer
	connected bool
}

// NewSFTPClient 创建 SFTP 客户端（未连接），hook 接收连接/断开通知
func NewSFTPClient(hook StatusHook) TransferClient {
	if hook == nil {
		hook = func(ConnectionStatus) {}
	}
	return &sftpClient{hook: hook, dial: dialSSH}
}

func (c *sftpClient) Connect(ctx context.Context, opts Options) (string, error) {
	sshConn, err := c.dial(ctx, opts)
	if err != nil {
		return "", err
	}

	sc, err := sftp.NewClient(sshConn)
	if err != nil {
		sshConn.Close()
		return "", fmt.Errorf("SFTP 连接失败: %w", err)
	}

	c.attach(sc, sshConn)

	// 传输层断开（服务端关闭、网络中断）时同步状态
	go func() {
		_ = sshConn.Wait()
		c.markDisconnected()
	}()

	return string(sshConn.ServerVersion()), nil
}

// attach 绑定已建立的 SFTP 会话并通知 connected
func (c *sftpClient) attach(sc *sftp.Client, transport io.Closer) {
	c.mu.Lock()
	c.client = sc
	c.transport = transport
	c.connected = true
	c.mu.Unlock()

	c.hook(StatusConnected)
}

func (c *sftpClient) markDisconnected() {
	c.mu.Lock()
	was := c.connected
	c.connected = false
	c.mu.Unlock()

	if was {
		c.hook(StatusDisconnected)
	}
}

func (c *sftpClient) active() (*sftp.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil || !c.connected {
		return nil, ErrNotConnected
	}
	return c.client, nil
}

func (c *sftpClient) Mkdir(dir string, recursive bool) error {
	sc, err := c.active()
	if err != nil {
		return err
	}
	if recursive {
		return sc.MkdirAll(dir)
	}
	if err := sc.Mkdir(dir); err != nil {
		if fi, serr := sc.Stat(dir); serr == nil && fi.IsDir() {
			return fmt.Errorf("%w: %s", ErrAlreadyExists, dir)
		}
		return err
	}
	return nil
}

// Put 将内容写入远程路径（父目录需已存在）
func (c *sftpClient) Put(data []byte, remotePath string) error {
	sc, err := c.active()
	if err != nil {
		return err
	}

	f, err := sc.Create(remotePath)
	if err != nil {
		return fmt.Errorf("创建远程文件 %s 失败: %w", remotePath, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("写入远程文件 %s 失败: %w", remotePath, err)
	}
	return nil
}

func (c *sftpClient) List(dir string) ([]Entry, error) {
	sc, err := c.active()
	if err != nil {
		return nil, err
	}
	infos, err := sc.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(infos))
	for _, fi := range infos {
		t := EntryFile
		switch {
		case fi.IsDir():
			t = EntryDir
		case fi.Mode()&os.ModeSymlink != 0:
			t = EntryLink
		}
		entries = append(entries, Entry{Name: fi.Name(), Type: t})
	}
	return entries, nil
}

func (c *sftpClient) Delete(remotePath string) error {
	sc, err := c.active()
	if err != nil {
		return err
	}
	return sc.Remove(remotePath)
}

func (c *sftpClient) Rmdir(dir string) error {
	sc, err := c.active()
	if err != nil {
		return err
	}
	return sc.RemoveDirectory(dir)
}

func (c *sftpClient) End() error {
	c.mu.Lock()
	sc, transport := c.client, c.transport
	c.client, c.transport = nil, nil
	c.mu.Unlock()

	var errs []error
	if sc != nil {
		errs = append(errs, sc.Close())
	}
	if transport != nil {
		errs = append(errs, transport.Close())
	}
	c.markDisconnected()

	err := errors.Join(errs...)
	if err != nil && isClosedConnErr(err) {
		return nil
	}
	return err
}

// ConnectionStatus SFTP 不支持状态查询
func (c *sftpClient) ConnectionStatus() (ConnectionStatus, bool) {
	return "", false
}

func isClosedConnErr(err error) bool {
	return errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF) ||
		strings.Contains(err.Error(), "use of closed network connection")
}

// dialSSH 建立 SSH 连接（支持 context 取消）
func dialSSH(ctx context.Context, opts Options) (*ssh.Client, error) {
	authMethods, err := buildAuthMethods(opts)
	if err != nil {
		return nil, err
	}
	// 握手完成后不再需要 agent 连接
	if method, agentConn := agentAuth(); method != nil {
		authMethods = append([]ssh.AuthMethod{method}, authMethods...)
		defer agentConn.Close()
	}

	hostKeyCallback, err := buildHostKeyCallback(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to configure host key verification: %w", err)
	}

	config := &ssh.ClientConfig{
		User:            opts.User,
		Auth:            authMethods,
		HostKeyCallback: hostKeyCallback,
		Timeout:         opts.Timeout,
	}

	addr := net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port))
	dialer := net.Dialer{Timeout: opts.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("SSH 连接失败 (%s): %w", addr, err)
	}

	ncc, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("SSH 握手失败 (%s): %w", addr, err)
	}
	return ssh.NewClient(ncc, chans, reqs), nil
}

// agentAuth 设置了 SSH_AUTH_SOCK 时使用 ssh-agent 中的密钥
func agentAuth() (ssh.AuthMethod, net.Conn) {
	sock := os.Getenv("SSH_AUTH_SOCK")
	if sock == "" {
		return nil, nil
	}
	conn, err := net.Dial("unix", sock)
	if err != nil {
		log.Debug().Err(err).Str("socket", sock).Msg("ssh-agent unavailable")
		return nil, nil
	}
	return ssh.PublicKeysCallback(agent.NewClient(conn).Signers), conn
}

// buildAuthMethods 私钥优先，其次密码（含 keyboard-interactive）
func buildAuthMethods(opts Options) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod

	if opts.PrivateKeyPath != "" {
		keyData, err := os.ReadFile(ExpandPath(opts.PrivateKeyPath))
		if err != nil {
			return nil, fmt.Errorf("failed to read SSH key file: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(keyData)
		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) && opts.Password != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(keyData, []byte(opts.Password))
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse SSH private key: %w", err)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}

	password := opts.Password
	methods = append(methods,
		ssh.Password(password),
		ssh.KeyboardInteractive(func(user, instruction string, questions []string, echos []bool) ([]string, error) {
			answers := make([]string, len(questions))
			for i := range answers {
				answers[i] = password
			}
			return answers, nil
		}),
	)
	return methods, nil
}

func buildHostKeyCallback(opts Options) (ssh.HostKeyCallback, error) {
	if opts.InsecureIgnoreHostKey {
		log.Warn().Str("host", opts.Addr()).Msg("SSH host key verification disabled")
		return ssh.InsecureIgnoreHostKey(), nil
	}

	if opts.KnownHostsFile != "" {
		expanded := ExpandPath(opts.KnownHostsFile)
		callback, err := knownhosts.New(expanded)
		if err != nil {
			return nil, fmt.Errorf("failed to load known_hosts file %s: %w", expanded, err)
		}
		return callback, nil
	}

	if home, err := os.UserHomeDir(); err == nil {
		defaultKnownHosts := filepath.Join(home, ".ssh", "known_hosts")
		if _, err := os.Stat(defaultKnownHosts); err == nil {
			callback, err := knownhosts.New(defaultKnownHosts)
			if err == nil {
				return callback, nil
			}
			log.Warn().Err(err).Str("file", defaultKnownHosts).Msg("could not parse known_hosts")
		}
	}

	log.Warn().Str("host", opts.Addr()).Msg("no known_hosts file found, host key verification disabled")
	return ssh.InsecureIgnoreHostKey(), nil
}

// ExpandPath 将 ~/ 展开为 home 目录
func ExpandPath(p string) string {
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	return p
}
