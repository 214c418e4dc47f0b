// Package config 加载部署配置并提供 CLI 交互输入。
// 配置文件（.rckt-deploy.json、.toml 或 .yaml）合并到默认值之上，
// 生成一次后以值传递给部署流程。
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/hwuu/rckt/internal/remote"
)

const (
	DefaultConfigFile     = ".rckt-deploy.json"
	DefaultFTPPort        = 21
	DefaultSFTPPort       = 22
	DefaultTimeoutSeconds = 30
)

var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrConfigCorrupted = errors.New("config file corrupted")
	ErrMissingHost     = errors.New("host is not set")
)

// DefaultExcludes 始终追加到用户 exclude 之后
var DefaultExcludes = []string{
	"dist/**/*.map",
	"node_modules/**",
	"node_modules/**/.*",
	".git/**",
}

// DeployConfig 一次部署的完整配置
type DeployConfig struct {
	User         string   `json:"user" toml:"user" yaml:"user"`
	Password     string   `json:"password" toml:"password" yaml:"password"` // 为空时运行前提示输入
	Host         string   `json:"host" toml:"host" yaml:"host"`
	Port         int      `json:"port" toml:"port" yaml:"port"`
	LocalRoot    string   `json:"localRoot" toml:"localRoot" yaml:"localRoot"`
	RemoteRoot   string   `json:"remoteRoot" toml:"remoteRoot" yaml:"remoteRoot"`
	Include      []string `json:"include" toml:"include" yaml:"include"`
	Exclude      []string `json:"exclude" toml:"exclude" yaml:"exclude"`
	DeleteRemote bool     `json:"deleteRemote" toml:"deleteRemote" yaml:"deleteRemote"` // 上传前清空远程目录

	SFTP      bool `json:"sftp" toml:"sftp" yaml:"sftp"`
	ForcePasv bool `json:"forcePasv" toml:"forcePasv" yaml:"forcePasv"` // FTP: 不发送 EPSV
	Secure    bool `json:"secure" toml:"secure" yaml:"secure"`          // FTP: 显式 FTPS

	PrivateKeyPath        string `json:"privateKeyPath,omitempty" toml:"privateKeyPath" yaml:"privateKeyPath"`
	KnownHostsFile        string `json:"knownHostsFile,omitempty" toml:"knownHostsFile" yaml:"knownHostsFile"`
	InsecureIgnoreHostKey bool   `json:"insecureIgnoreHostKey,omitempty" toml:"insecureIgnoreHostKey" yaml:"insecureIgnoreHostKey"`

	Timeout int `json:"timeout,omitempty" toml:"timeout" yaml:"timeout"` // 秒
}

// Default 返回默认配置
func Default() DeployConfig {
	return DeployConfig{
		RemoteRoot: "/",
		Include:    []string{"*"},
		Exclude:    []string{},
		ForcePasv:  true,
		Timeout:    DefaultTimeoutSeconds,
	}
}

// Protocol 返回传输协议
func (c DeployConfig) Protocol() remote.Protocol {
	if c.SFTP {
		return remote.ProtocolSFTP
	}
	return remote.ProtocolFTP
}

// WithDefaults 返回补全端口、超时后的副本
func (c DeployConfig) WithDefaults() DeployConfig {
	if c.Port == 0 {
		if c.SFTP {
			c.Port = DefaultSFTPPort
		} else {
			c.Port = DefaultFTPPort
		}
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeoutSeconds
	}
	if c.RemoteRoot == "" {
		c.RemoteRoot = "/"
	}
	return c
}

// TimeoutDuration 连接/IO 超时
func (c DeployConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// TransferOptions 转换为传输层连接参数
func (c DeployConfig) TransferOptions() remote.Options {
	return remote.Options{
		Host:                  c.Host,
		Port:                  c.Port,
		User:                  c.User,
		Password:              c.Password,
		Timeout:               c.TimeoutDuration(),
		ForcePasv:             c.ForcePasv,
		Secure:                c.Secure,
		PrivateKeyPath:        c.PrivateKeyPath,
		KnownHostsFile:        c.KnownHostsFile,
		InsecureIgnoreHostKey: c.InsecureIgnoreHostKey,
	}
}

// Validate 检查 CLI 层必需字段（include 由部署流程校验）
func (c DeployConfig) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return ErrMissingHost
	}
	if c.LocalRoot == "" || !filepath.IsAbs(c.LocalRoot) {
		return fmt.Errorf("localRoot must be an absolute path: %q", c.LocalRoot)
	}
	return nil
}

// Load 读取配置文件并合并到默认值之上。
// 相对 localRoot 以配置文件所在目录为基准；配置文件本身总是被排除。
func Load(path string) (DeployConfig, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return DeployConfig{}, fmt.Errorf("failed to resolve config path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DeployConfig{}, fmt.Errorf("%w: %s", ErrConfigNotFound, absPath)
		}
		return DeployConfig{}, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data, filepath.Ext(absPath))
	if err != nil {
		return DeployConfig{}, err
	}

	baseDir := filepath.Dir(absPath)
	if cfg.LocalRoot == "" {
		cfg.LocalRoot = baseDir
	} else if !filepath.IsAbs(cfg.LocalRoot) {
		cfg.LocalRoot = filepath.Join(baseDir, cfg.LocalRoot)
	}
	cfg.LocalRoot = filepath.Clean(cfg.LocalRoot)

	cfg.Exclude = append(cfg.Exclude, DefaultExcludes...)
	if rel, err := filepath.Rel(cfg.LocalRoot, absPath); err == nil && !strings.HasPrefix(rel, "..") {
		cfg.Exclude = append(cfg.Exclude, filepath.ToSlash(rel))
	}

	return cfg.WithDefaults(), nil
}

// Parse 按扩展名（.toml、.yaml/.yml 或 JSON）解析配置内容，未出现的字段保留默认值
func Parse(data []byte, ext string) (DeployConfig, error) {
	cfg := Default()

	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return DeployConfig{}, fmt.Errorf("%w: %v", ErrConfigCorrupted, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return DeployConfig{}, fmt.Errorf("%w: %v", ErrConfigCorrupted, err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return DeployConfig{}, fmt.Errorf("%w: %v", ErrConfigCorrupted, err)
		}
	}

	if cfg.Exclude == nil {
		cfg.Exclude = []string{}
	}
	return cfg, nil
}

// FindConfig 在目录中查找默认配置文件（JSON、TOML、YAML 依次优先）
func FindConfig(dir string) (string, error) {
	base := strings.TrimSuffix(DefaultConfigFile, ".json")
	candidates := []string{DefaultConfigFile, base + ".toml", base + ".yaml", base + ".yml"}
	for _, name := range candidates {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w in %s", ErrConfigNotFound, dir)
}
