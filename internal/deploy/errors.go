package deploy

import (
	"errors"
	"fmt"
)

// Kind 错误分类
type Kind string

const (
	KindConfig     Kind = "ConfigError"
	KindPath       Kind = "PathError"
	KindConnection Kind = "ConnectionError"
	KindDirectory  Kind = "DirectoryError"
	KindCleanup    Kind = "CleanupError" // 非致命，仅记录
	KindUpload     Kind = "UploadError"
)

const (
	CodeNoIncludes     = "NoIncludes"
	CodeInvalidPattern = "InvalidPattern"
	CodePrompt         = "EPROMPT"
	CodeNotFound       = "ENOENT"
	CodeCanceled       = "ECANCELED"
)

var (
	ErrConfig     = &Error{Kind: KindConfig}
	ErrPath       = &Error{Kind: KindPath}
	ErrConnection = &Error{Kind: KindConnection}
	ErrDirectory  = &Error{Kind: KindDirectory}
	ErrCleanup    = &Error{Kind: KindCleanup}
	ErrUpload     = &Error{Kind: KindUpload}

	ErrDeployInProgress = errors.New("deploy already in progress")
)

// Error 部署失败的结构化错误 {code, message}
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func newError(kind Kind, code, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is 与只设置了 Kind 的哨兵错误按分类比较，例如 errors.Is(err, ErrUpload)
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == "" && t.Message == "" && t.Kind == e.Kind
}
