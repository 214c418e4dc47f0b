package remote

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteRecursive_Order(t *testing.T) {
	tree := map[string][]Entry{
		"/site": {
			{Name: ".", Type: EntryDir},
			{Name: "..", Type: EntryDir},
			{Name: "index.html", Type: EntryFile},
			{Name: "assets", Type: EntryDir},
			{Name: "link", Type: EntryLink},
		},
		"/site/assets": {
			{Name: "app.js", Type: EntryFile},
			{Name: "img", Type: EntryDir},
		},
		"/site/assets/img": {
			{Name: "logo.png", Type: EntryFile},
		},
	}
	mock := &mockClient{
		ListFunc: func(path string) ([]Entry, error) { return tree[path], nil },
	}

	require.NoError(t, DeleteRecursive(mock, "/site"))

	// 子目录先于本层文件；子目录内容清空后才 rmdir
	assert.Equal(t, []string{
		"list /site",
		"list /site/assets",
		"list /site/assets/img",
		"delete /site/assets/img/logo.png",
		"rmdir /site/assets/img",
		"delete /site/assets/app.js",
		"rmdir /site/assets",
		"delete /site/index.html",
		"delete /site/link",
	}, mock.calls)
}

func TestDeleteRecursive_ListError(t *testing.T) {
	mock := &mockClient{
		ListFunc: func(path string) ([]Entry, error) { return nil, errors.New("550 no such dir") },
	}

	err := DeleteRecursive(mock, "/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list /missing")
}

func TestDeleteRecursive_StopsOnFirstFailure(t *testing.T) {
	mock := &mockClient{
		ListFunc: func(path string) ([]Entry, error) {
			return []Entry{{Name: "a", Type: EntryFile}, {Name: "b", Type: EntryFile}}, nil
		},
		DeleteFunc: func(path string) error {
			if path == "/a" {
				return errors.New("permission denied")
			}
			return nil
		},
	}

	err := DeleteRecursive(mock, "/")
	require.Error(t, err)
	assert.Equal(t, []string{"list /", "delete /a"}, mock.calls)
}

func TestMkdirExists(t *testing.T) {
	mock := &mockClient{
		MkdirFunc: func(path string, recursive bool) error {
			assert.True(t, recursive)
			return ErrAlreadyExists
		},
	}
	assert.NoError(t, MkdirExists(mock, "/site"))

	mock.MkdirFunc = func(path string, recursive bool) error { return errors.New("permission denied") }
	assert.Error(t, MkdirExists(mock, "/site"))
}
