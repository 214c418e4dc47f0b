package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hwuu/rckt/internal/config"
	"github.com/hwuu/rckt/internal/template"
)

var errConfigExists = errors.New("config file already exists")

func newInitCmd() *cobra.Command {
	var (
		output string
		sftp   bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "交互式生成部署配置文件",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(output); err == nil {
				return fmt.Errorf("%w: %s", errConfigExists, output)
			}

			prompter := config.NewPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
			data, err := promptTemplateData(prompter, cmd.Flags().Changed("sftp"), sftp)
			if err != nil {
				return err
			}

			content, err := template.RenderConfig(template.FormatForFile(output), data)
			if err != nil {
				return err
			}
			// 配置中可能写入密码，仅本人可读
			if err := os.WriteFile(output, content, 0600); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", config.DefaultConfigFile, "输出文件（.json 或 .toml）")
	cmd.Flags().BoolVar(&sftp, "sftp", false, "使用 SFTP（不指定时交互选择）")
	return cmd
}

// promptTemplateData 依次询问协议、主机、端口、用户、远程目录和是否清空远程目录
func promptTemplateData(p *config.Prompter, sftpSet, sftp bool) (*template.TemplateData, error) {
	if !sftpSet {
		choice, err := p.PromptSelect("Protocol:", []string{"FTP", "SFTP"})
		if err != nil {
			return nil, err
		}
		sftp = choice == 1
	}

	host, err := p.Prompt("Host: ")
	if err != nil {
		return nil, err
	}
	if host == "" {
		return nil, config.ErrMissingHost
	}

	defaultPort := config.DefaultFTPPort
	if sftp {
		defaultPort = config.DefaultSFTPPort
	}
	portStr, err := p.PromptWithDefault("Port", strconv.Itoa(defaultPort))
	if err != nil {
		return nil, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return nil, fmt.Errorf("invalid port: %s", portStr)
	}

	user, err := p.PromptWithDefault("User", "anonymous")
	if err != nil {
		return nil, err
	}
	remoteRoot, err := p.PromptWithDefault("Remote root", "/")
	if err != nil {
		return nil, err
	}
	deleteRemote, err := p.PromptConfirm("Delete remote files before upload?", false)
	if err != nil {
		return nil, err
	}

	defaults := config.Default()
	return &template.TemplateData{
		User:         user,
		Host:         host,
		Port:         port,
		RemoteRoot:   remoteRoot,
		SFTP:         sftp,
		DeleteRemote: deleteRemote,
		Include:      defaults.Include,
		Exclude:      defaults.Exclude,
	}, nil
}
