// Package remote 抽象 FTP/SFTP 文件传输，并提供基于该抽象的远程目录清理。
package remote

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrAlreadyExists = errors.New("already exists")
	ErrNotConnected  = errors.New("not connected")
)

// Protocol 传输协议
type Protocol string

const (
	ProtocolFTP  Protocol = "ftp"
	ProtocolSFTP Protocol = "sftp"
)

// ConnectionStatus 会话连接状态
type ConnectionStatus string

const (
	StatusConnected    ConnectionStatus = "connected"
	StatusDisconnected ConnectionStatus = "disconnected"
)

// StatusHook 连接/断开通知，在创建客户端时注册
type StatusHook func(status ConnectionStatus)

// EntryType 远程目录项类型
type EntryType string

const (
	EntryFile EntryType = "-"
	EntryDir  EntryType = "d"
	EntryLink EntryType = "l"
)

// Entry 远程目录项
type Entry struct {
	Name string
	Type EntryType
}

// Options 建立连接所需参数
type Options struct {
	Host     string
	Port     int
	User     string
	Password string
	Timeout  time.Duration

	// FTP
	ForcePasv bool // 不发送 EPSV，强制 PASV
	Secure    bool // 显式 FTPS（AUTH TLS）

	// SFTP
	PrivateKeyPath        string
	KnownHostsFile        string
	InsecureIgnoreHostKey bool
}

// Addr 返回 host:port
func (o Options) Addr() string {
	return fmt.Sprintf("%s:%d", o.Host, o.Port)
}

// TransferClient 抽象 FTP/SFTP 的基本操作，支持 mock 测试。
// Mkdir(path, true) 对已存在的目录必须幂等。
type TransferClient interface {
	Connect(ctx context.Context, opts Options) (string, error)
	Mkdir(path string, recursive bool) error
	Put(data []byte, remotePath string) error
	List(path string) ([]Entry, error)
	Delete(remotePath string) error
	Rmdir(path string) error
	End() error
	// ConnectionStatus 返回客户端自身维护的连接状态；
	// ok=false 表示不支持查询，调用方应依赖 StatusHook 自行跟踪。
	ConnectionStatus() (status ConnectionStatus, ok bool)
}

// ClientFactory 根据协议创建客户端，hook 在会话创建时注册
type ClientFactory func(protocol Protocol, hook StatusHook) (TransferClient, error)

// NewClient 默认 ClientFactory
func NewClient(protocol Protocol, hook StatusHook) (TransferClient, error) {
	switch protocol {
	case ProtocolFTP, "":
		return NewFTPClient(), nil
	case ProtocolSFTP:
		return NewSFTPClient(hook), nil
	default:
		return nil, fmt.Errorf("unsupported protocol: %s", protocol)
	}
}
