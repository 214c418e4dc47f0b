// Package logging 配置 zerolog：控制台格式输出到 stderr，级别可由环境变量覆盖。
package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	EnvLogLevel   = "RCKT_LOG_LEVEL"
	EnvLogNoColor = "RCKT_LOG_NOCOLOR"
)

// Options 日志配置
type Options struct {
	Level   zerolog.Level
	NoColor bool
	Out     io.Writer
}

// DefaultOptions 默认 warn 级别；verbose 时 debug
func DefaultOptions(verbose bool) Options {
	opts := Options{Level: zerolog.WarnLevel, Out: os.Stderr}
	if verbose {
		opts.Level = zerolog.DebugLevel
	}
	return opts
}

// ApplyEnv 环境变量覆盖
func (o Options) ApplyEnv() Options {
	if lvl, ok := ParseLevel(os.Getenv(EnvLogLevel)); ok {
		o.Level = lvl
	}
	if v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(EnvLogNoColor))); err == nil {
		o.NoColor = v
	}
	return o
}

// New 创建 logger 并设置为全局 log.Logger
func New(app string, opts Options) zerolog.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	writer := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    opts.NoColor,
	}
	logger := zerolog.New(writer).Level(opts.Level).With().Timestamp().Str("app", app).Logger()
	log.Logger = logger
	return logger
}

// ParseLevel 解析级别字符串，空串或未知值返回 false
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}
