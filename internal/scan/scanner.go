// Package scan 遍历本地目录树，按 include/exclude 规则生成待上传的 FileMap。
package scan

import (
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/rs/zerolog"
)

// PathError 扫描起点不存在或不可读
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s is not an existing location: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("%s is not an existing location", e.Path)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// Scanner 在 billy.Filesystem 上做深度优先扫描，FS 的根即 localRoot
type Scanner struct {
	FS      billy.Filesystem
	Matcher *PatternMatcher
	Logger  zerolog.Logger
}

// NewScanner 创建 Scanner
func NewScanner(fs billy.Filesystem, matcher *PatternMatcher) *Scanner {
	return &Scanner{
		FS:      fs,
		Matcher: matcher,
		Logger:  zerolog.Nop(),
	}
}

// Scan 以本地文件系统上的 localRoot 为根扫描整棵树
func Scan(include, exclude []string, localRoot string) (*FileMap, error) {
	return NewScanner(osfs.New(localRoot), NewPatternMatcher(include, exclude)).Scan("/")
}

// Scan 扫描 relDir（相对 FS 根，"/" 表示根目录）。
// relDir 不存在时返回 *PathError。
func (s *Scanner) Scan(relDir string) (*FileMap, error) {
	relDir = normalizeDir(relDir)

	info, err := s.FS.Stat(relDir)
	if err != nil {
		return nil, &PathError{Path: s.displayPath(relDir), Err: err}
	}
	if !info.IsDir() {
		return nil, &PathError{Path: s.displayPath(relDir), Err: fmt.Errorf("not a directory")}
	}

	return s.scanDir(relDir)
}

func (s *Scanner) scanDir(relDir string) (*FileMap, error) {
	entries, err := s.FS.ReadDir(relDir)
	if err != nil {
		return nil, &PathError{Path: s.displayPath(relDir), Err: err}
	}
	// 文件系统列举顺序与平台相关，排序保证上传顺序确定
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	acc := NewFileMap()
	acc.ensure(relDir)

	for _, entry := range entries {
		child := path.Join(relDir, entry.Name())

		if entry.Mode()&os.ModeSymlink != 0 {
			// 指向目录的链接不跟随，避免环；悬空链接同样跳过
			target, err := s.FS.Stat(child)
			if err != nil {
				s.Logger.Warn().Err(err).Str("file", child).Msg("skipping broken symlink")
				continue
			}
			if target.IsDir() {
				s.Logger.Warn().Str("dir", child).Msg("skipping symlinked directory")
				continue
			}
		}

		if entry.IsDir() {
			sub, err := s.scanDir(child)
			if err != nil {
				return nil, err
			}
			acc.merge(sub)
			continue
		}

		if s.Matcher.CanInclude(strings.TrimPrefix(child, "/")) {
			s.Logger.Debug().Str("file", child).Msg("including")
			acc.add(relDir, entry.Name())
		}
	}

	return acc, nil
}

func (s *Scanner) displayPath(relDir string) string {
	return path.Join(s.FS.Root(), relDir)
}

func normalizeDir(dir string) string {
	dir = strings.ReplaceAll(dir, "\\", "/")
	if dir == "" || dir == "." {
		return "/"
	}
	return path.Join("/", dir)
}
