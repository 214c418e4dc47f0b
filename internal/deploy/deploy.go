// Package deploy 编排一次完整部署：校验 → 凭证 → 连接 → 清理(可选) → 扫描 → 上传 → 断开。
package deploy

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/rs/zerolog"

	"github.com/hwuu/rckt/internal/config"
	"github.com/hwuu/rckt/internal/remote"
	"github.com/hwuu/rckt/internal/scan"
)

// State 部署状态机的阶段
type State int

const (
	StateIdle State = iota
	StateValidating
	StateResolvingCredentials
	StateConnecting
	StateCleaning
	StateScanning
	StateUploading
	StateDisconnecting
	StateDone
	StateFailed
)

var stateNames = [...]string{
	"Idle", "Validating", "ResolvingCredentials", "Connecting", "Cleaning",
	"Scanning", "Uploading", "Disconnecting", "Done", "Failed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// PasswordPrompter 密码为空时用于交互输入，*config.Prompter 满足该接口
type PasswordPrompter interface {
	PromptPassword(message string) (string, error)
}

// FSFactory 以本地根目录创建文件系统
type FSFactory func(root string) billy.Filesystem

// Deployer 部署编排器，通过依赖注入支持测试。
// 同一实例同一时间只允许一个 Deploy 调用。
type Deployer struct {
	Prompter      PasswordPrompter
	ClientFactory remote.ClientFactory
	NewFS         FSFactory
	Logger        zerolog.Logger

	emitter

	running  atomic.Bool
	mu       sync.Mutex
	state    State
	progress Progress
}

// New 创建使用真实传输客户端和本地文件系统的 Deployer
func New(prompter PasswordPrompter, logger zerolog.Logger) *Deployer {
	return &Deployer{
		Prompter:      prompter,
		ClientFactory: remote.NewClient,
		NewFS:         func(root string) billy.Filesystem { return osfs.New(root) },
		Logger:        logger,
	}
}

// State 返回当前阶段
func (d *Deployer) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Progress 返回最近一次事件时的进度快照
func (d *Deployer) Progress() Progress {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.progress
}

func (d *Deployer) setState(s State) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
	d.Logger.Debug().Stringer("state", s).Msg("deploy state")
}

func (d *Deployer) log(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	d.Logger.Debug().Msg(msg)
	d.emit(LogEvent{Message: msg})
}

// Deploy 执行完整部署流程。成功返回每个文件的确认信息；
// 失败返回 *Error，返回前保证会话已关闭。
func (d *Deployer) Deploy(ctx context.Context, cfg config.DeployConfig) ([]string, error) {
	if !d.running.CompareAndSwap(false, true) {
		return nil, ErrDeployInProgress
	}
	defer d.running.Store(false)

	d.mu.Lock()
	d.progress = Progress{}
	d.mu.Unlock()

	var sess *session
	results, err := d.run(ctx, cfg, &sess)

	d.setState(StateDisconnecting)
	d.disconnect(sess)

	if err != nil {
		d.setState(StateFailed)
		d.Logger.Error().Err(err).Msg("deploy failed")
		return nil, err
	}
	d.setState(StateDone)
	return results, nil
}

func (d *Deployer) run(ctx context.Context, cfg config.DeployConfig, sess **session) ([]string, error) {
	d.setState(StateValidating)
	cfg, err := validate(cfg)
	if err != nil {
		return nil, err
	}

	d.setState(StateResolvingCredentials)
	cfg, err = d.resolvePassword(cfg)
	if err != nil {
		return nil, err
	}

	d.setState(StateConnecting)
	*sess, err = d.connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.DeleteRemote {
		d.setState(StateCleaning)
		d.clean(*sess, cfg.RemoteRoot)
	}

	d.setState(StateScanning)
	fs := d.NewFS(cfg.LocalRoot)
	fileMap, err := d.scan(fs, cfg)
	if err != nil {
		return nil, err
	}

	d.setState(StateUploading)
	uploader := &Uploader{
		Client:     (*sess).client,
		FS:         fs,
		LocalRoot:  cfg.LocalRoot,
		RemoteRoot: cfg.RemoteRoot,
		Progress:   &Progress{TotalFilesCount: scan.CountFiles(fileMap)},
		Emit:       d.record,
	}
	return uploader.UploadAll(ctx, fileMap)
}

// record 保存事件携带的进度快照后转发给监听器
func (d *Deployer) record(ev Event) {
	var p Progress
	switch e := ev.(type) {
	case UploadingEvent:
		p = e.Progress
	case UploadedEvent:
		p = e.Progress
	case UploadErrorEvent:
		p = e.Progress
	default:
		d.emit(ev)
		return
	}
	d.mu.Lock()
	d.progress = p
	d.mu.Unlock()
	d.emit(ev)
}

// validate include 不能为空；exclude 为 nil 时视为空列表，端口等补全默认值
func validate(cfg config.DeployConfig) (config.DeployConfig, error) {
	if len(cfg.Include) == 0 {
		return cfg, newError(KindConfig, CodeNoIncludes,
			"You need to specify files to upload - e.g. ['*', '**/*']", nil)
	}
	if cfg.Exclude == nil {
		cfg.Exclude = []string{}
	}
	cfg = cfg.WithDefaults()

	patterns := append(append([]string{}, cfg.Include...), cfg.Exclude...)
	if errs := scan.ValidatePatterns(patterns); len(errs) > 0 {
		return cfg, newError(KindConfig, CodeInvalidPattern, errs[0].Error(), errs[0])
	}
	return cfg, nil
}

func (d *Deployer) resolvePassword(cfg config.DeployConfig) (config.DeployConfig, error) {
	if cfg.Password != "" {
		return cfg, nil
	}
	if d.Prompter == nil {
		return cfg, newError(KindConfig, CodePrompt, "password is empty and no prompter is configured", nil)
	}

	password, err := d.Prompter.PromptPassword(
		fmt.Sprintf("Password for %s@%s (ENTER for none): ", cfg.User, cfg.Host))
	if err != nil {
		return cfg, newError(KindConfig, CodePrompt, "password prompt: "+err.Error(), err)
	}
	cfg.Password = password
	return cfg, nil
}

func (d *Deployer) connect(ctx context.Context, cfg config.DeployConfig) (*session, error) {
	sess := &session{tracked: remote.StatusDisconnected}

	client, err := d.ClientFactory(cfg.Protocol(), sess.track)
	if err != nil {
		return nil, newError(KindConnection, "EPROTOCOL", "connect: "+err.Error(), err)
	}
	sess.client = client

	greeting, err := client.Connect(ctx, cfg.TransferOptions())
	if err != nil {
		code := remote.ErrorCode(err)
		if code == "" {
			code = "ECONNECT"
		}
		return sess, newError(KindConnection, code, "connect: "+err.Error(), err)
	}

	d.Logger.Info().Str("host", cfg.Host).Int("port", cfg.Port).
		Str("protocol", string(cfg.Protocol())).Str("greeting", greeting).Msg("connected")
	d.log("Connected to: %s", cfg.Host)
	return sess, nil
}

// clean 清理失败不影响后续上传
func (d *Deployer) clean(sess *session, remoteRoot string) {
	if err := remote.DeleteRecursive(sess.client, remoteRoot); err != nil {
		cerr := newError(KindCleanup, remote.ErrorCode(err), "cleanup: "+err.Error(), err)
		d.Logger.Warn().Err(cerr).Str("dir", remoteRoot).Msg("remote cleanup failed, continuing")
		d.log("Remote cleanup failed, continuing: %v", err)
		return
	}
	d.log("Deleted remote files in %s", remoteRoot)
}

func (d *Deployer) scan(fs billy.Filesystem, cfg config.DeployConfig) (*scan.FileMap, error) {
	scanner := scan.NewScanner(fs, scan.NewPatternMatcher(cfg.Include, cfg.Exclude))
	scanner.Logger = d.Logger

	fileMap, err := scanner.Scan("/")
	if err != nil {
		return nil, newError(KindPath, CodeNotFound, err.Error(), err)
	}

	total := scan.CountFiles(fileMap)
	d.mu.Lock()
	d.progress.TotalFilesCount = total
	d.mu.Unlock()
	d.log("Files found to upload: %d", total)
	return fileMap, nil
}

// disconnect 会话存在且未断开时关闭，成功/失败路径都会调用
func (d *Deployer) disconnect(sess *session) {
	if sess == nil || sess.client == nil {
		return
	}
	if sess.status() == remote.StatusDisconnected {
		return
	}
	if err := sess.client.End(); err != nil {
		d.Logger.Warn().Err(err).Msg("failed to close connection")
	}
}

// session 一次部署的唯一连接；客户端不支持状态查询时依赖 StatusHook 跟踪
type session struct {
	client remote.TransferClient

	mu      sync.Mutex
	tracked remote.ConnectionStatus
}

func (s *session) track(status remote.ConnectionStatus) {
	s.mu.Lock()
	s.tracked = status
	s.mu.Unlock()
}

func (s *session) status() remote.ConnectionStatus {
	if status, ok := s.client.ConnectionStatus(); ok {
		return status
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracked
}
