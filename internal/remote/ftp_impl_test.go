package remote

import (
	"context"
	"errors"
	"testing"

	"github.com/jlaffaye/ftp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connectedFTP(t *testing.T, conn *fakeFTPConn) *ftpClient {
	t.Helper()
	c := &ftpClient{
		dial: func(addr string, options ...ftp.DialOption) (ftpConn, error) {
			assert.Equal(t, "ftp.example.com:21", addr)
			return conn, nil
		},
		status: StatusDisconnected,
	}
	greeting, err := c.Connect(context.Background(), Options{Host: "ftp.example.com", Port: 21, User: "deploy"})
	require.NoError(t, err)
	assert.Contains(t, greeting, "deploy")
	return c
}

func TestFTPClient_ConnectAndStatus(t *testing.T) {
	conn := newFakeFTPConn()
	c := connectedFTP(t, conn)

	status, ok := c.ConnectionStatus()
	assert.True(t, ok)
	assert.Equal(t, StatusConnected, status)

	require.NoError(t, c.End())
	status, _ = c.ConnectionStatus()
	assert.Equal(t, StatusDisconnected, status)
	assert.Equal(t, 1, conn.quits)

	// 重复 End 不再发送 QUIT
	require.NoError(t, c.End())
	assert.Equal(t, 1, conn.quits)
}

func TestFTPClient_LoginFailure(t *testing.T) {
	conn := newFakeFTPConn()
	conn.loginErr = errors.New("530 Login incorrect")
	c := &ftpClient{
		dial: func(addr string, options ...ftp.DialOption) (ftpConn, error) { return conn, nil },
	}

	_, err := c.Connect(context.Background(), Options{Host: "h", Port: 21})
	require.Error(t, err)
	assert.Equal(t, 1, conn.quits)

	_, err = c.List("/")
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestFTPClient_DialFailure(t *testing.T) {
	c := &ftpClient{
		dial: func(addr string, options ...ftp.DialOption) (ftpConn, error) {
			return nil, errors.New("dial tcp: connection refused")
		},
	}
	_, err := c.Connect(context.Background(), Options{Host: "h", Port: 21})
	require.Error(t, err)
}

func TestFTPClient_MkdirRecursiveIdempotent(t *testing.T) {
	conn := newFakeFTPConn()
	c := connectedFTP(t, conn)

	require.NoError(t, c.Mkdir("/site/assets/img", true))
	assert.True(t, conn.dirs["/site"])
	assert.True(t, conn.dirs["/site/assets"])
	assert.True(t, conn.dirs["/site/assets/img"])

	require.NoError(t, c.Mkdir("/site/assets/img", true))
	assert.Equal(t, "/", conn.cwd)
}

func TestFTPClient_MkdirNonRecursiveExists(t *testing.T) {
	conn := newFakeFTPConn()
	c := connectedFTP(t, conn)

	require.NoError(t, c.Mkdir("/site", false))
	err := c.Mkdir("/site", false)
	assert.ErrorIs(t, err, ErrAlreadyExists)

	// 父目录不存在：不是已存在错误
	err = c.Mkdir("/a/b", false)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAlreadyExists)
}

func TestFTPClient_PutListDelete(t *testing.T) {
	conn := newFakeFTPConn()
	c := connectedFTP(t, conn)

	require.NoError(t, c.Mkdir("/site/sub", true))
	require.NoError(t, c.Put([]byte("hello"), "/site/a.txt"))
	assert.Equal(t, []byte("hello"), conn.files["/site/a.txt"])

	entries, err := c.List("/site")
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Name: "a.txt", Type: EntryFile},
		{Name: "sub", Type: EntryDir},
	}, entries)

	require.NoError(t, DeleteRecursive(c, "/site"))
	assert.Empty(t, conn.files)
	assert.True(t, conn.dirs["/site"])
	assert.False(t, conn.dirs["/site/sub"])
}

func TestFTPEntryType(t *testing.T) {
	assert.Equal(t, EntryDir, ftpEntryType(ftp.EntryTypeFolder))
	assert.Equal(t, EntryLink, ftpEntryType(ftp.EntryTypeLink))
	assert.Equal(t, EntryFile, ftpEntryType(ftp.EntryTypeFile))
}

func TestNewClient(t *testing.T) {
	c, err := NewClient(ProtocolFTP, nil)
	require.NoError(t, err)
	_, ok := c.ConnectionStatus()
	assert.True(t, ok)

	c, err = NewClient(ProtocolSFTP, nil)
	require.NoError(t, err)
	_, ok = c.ConnectionStatus()
	assert.False(t, ok)

	_, err = NewClient("scp", nil)
	assert.Error(t, err)
}
