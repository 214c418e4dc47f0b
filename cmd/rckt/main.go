package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/hwuu/rckt/internal/config"
	"github.com/hwuu/rckt/internal/deploy"
	"github.com/hwuu/rckt/internal/logging"
	"github.com/hwuu/rckt/internal/remote"
	"github.com/hwuu/rckt/internal/scan"
)

// 构建时通过 ldflags 注入
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// 测试替换为 mock 客户端
var clientFactory remote.ClientFactory = remote.NewClient

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "rckt",
		Short:        "上传本地目录到 FTP/SFTP 服务器",
		Long:         "rckt — 按 include/exclude 规则扫描本地目录，通过 FTP 或 SFTP 上传到远程服务器，可选先清空远程目录。",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newDeployCmd())
	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newDeployCmd() *cobra.Command {
	var (
		configPath string
		every      int
		verbose    bool
	)
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "部署本地文件到远程服务器",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeploy(cmd, configPath, every, verbose)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "配置文件路径（默认当前目录下的 "+config.DefaultConfigFile+"）")
	cmd.Flags().IntVar(&every, "every", 1, "每上传 n 个文件输出一次进度")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "输出调试日志")
	return cmd
}

func runDeploy(cmd *cobra.Command, configPath string, every int, verbose bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	opts := logging.DefaultOptions(verbose)
	opts.Out = cmd.ErrOrStderr()
	logger := logging.New("rckt", opts.ApplyEnv())

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Rocket deploy 📦")

	d := deploy.New(config.NewPrompter(cmd.InOrStdin(), cmd.ErrOrStderr()), logger)
	d.ClientFactory = clientFactory
	unsubscribe := d.Subscribe(progressListener(out, cmd.ErrOrStderr(), every))
	defer unsubscribe()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if _, err := d.Deploy(ctx, cfg); err != nil {
		fmt.Fprintln(out)
		return err
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Finished 🚀")
	return nil
}

// progressListener 每 every 个文件（以及最后一个）输出 n/total，上传失败输出错误
func progressListener(out, errOut io.Writer, every int) deploy.Listener {
	if every < 1 {
		every = 1
	}
	return func(ev deploy.Event) {
		switch e := ev.(type) {
		case deploy.UploadedEvent:
			n, total := e.TransferredFileCount, e.TotalFilesCount
			if n%every != 0 && n != total {
				return
			}
			fmt.Fprintf(out, "%d/%d\r", n, total)
		case deploy.UploadErrorEvent:
			fmt.Fprintf(errOut, "\n%s: %v\n", e.Filename, e.Err)
		}
	}
}

func newScanCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "列出将要上传的文件（不连接服务器）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			fileMap, err := scan.Scan(cfg.Include, cfg.Exclude, cfg.LocalRoot)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, dir := range fileMap.Dirs() {
				fmt.Fprintln(out, dir)
				for _, name := range fileMap.Files(dir) {
					fmt.Fprintf(out, "  %s\n", name)
				}
			}
			fmt.Fprintf(out, "%d files in %s\n", scan.CountFiles(fileMap), cfg.LocalRoot)
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "配置文件路径")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "显示版本信息",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "rckt %s\n", version)
			fmt.Fprintf(out, "  commit: %s\n", commit)
			fmt.Fprintf(out, "  built:  %s\n", date)
			fmt.Fprintf(out, "  go:     %s\n", runtime.Version())
		},
	}
}

// loadConfig 未指定路径时在当前目录查找默认配置文件
func loadConfig(configPath string) (config.DeployConfig, error) {
	if configPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return config.DeployConfig{}, err
		}
		configPath, err = config.FindConfig(wd)
		if err != nil {
			return config.DeployConfig{}, err
		}
	}

	cfg, err := config.Load(filepath.Clean(configPath))
	if err != nil {
		return config.DeployConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.DeployConfig{}, fmt.Errorf("%s: %w", configPath, err)
	}
	return cfg, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
