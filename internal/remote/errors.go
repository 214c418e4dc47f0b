package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"syscall"

	"github.com/pkg/sftp"
)

// ErrorCode 从协议/网络错误中提取简短错误码，无法识别时返回空串
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		return strconv.Itoa(protoErr.Code)
	}

	var statusErr *sftp.StatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf("SFTP_%d", statusErr.Code)
	}

	switch {
	case errors.Is(err, context.Canceled):
		return "ECANCELED"
	case errors.Is(err, context.DeadlineExceeded):
		return "ETIMEDOUT"
	case errors.Is(err, syscall.ECONNREFUSED):
		return "ECONNREFUSED"
	case errors.Is(err, syscall.ECONNRESET):
		return "ECONNRESET"
	case errors.Is(err, syscall.EHOSTUNREACH):
		return "EHOSTUNREACH"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "ENOTFOUND"
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "ETIMEDOUT"
	}

	if strings.Contains(err.Error(), "unable to authenticate") {
		return "EAUTH"
	}
	return ""
}
