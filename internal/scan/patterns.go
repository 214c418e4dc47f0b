package scan

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// PatternMatcher 按 include/exclude glob 规则过滤相对路径
type PatternMatcher struct {
	Include []string
	Exclude []string
}

// NewPatternMatcher 创建 PatternMatcher，nil exclude 视为空列表
func NewPatternMatcher(include, exclude []string) *PatternMatcher {
	if exclude == nil {
		exclude = []string{}
	}
	return &PatternMatcher{Include: include, Exclude: exclude}
}

// CanInclude 判断相对路径是否参与上传：
// 至少命中一个 include，且不命中任何 exclude。
func (pm *PatternMatcher) CanInclude(relPath string) bool {
	relPath = strings.TrimPrefix(relPath, "/")

	included := false
	for _, pattern := range pm.Include {
		if matchPattern(pattern, relPath, true) {
			included = true
			break
		}
	}
	if !included {
		return false
	}

	for _, pattern := range pm.Exclude {
		if matchPattern(pattern, relPath, false) {
			return false
		}
	}
	return true
}

// matchPattern 匹配完整相对路径；不含 / 的 pattern 额外匹配 basename。
// 以 . 开头的路径段只能被同样以 . 开头的 pattern 段匹配，** 不跨越这类段；
// 需要包含隐藏文件时写 {,.}*。guardBase 为 true（include）时 basename 匹配
// 不穿过隐藏目录，除非 pattern 本身带有 . 开头的分支。
func matchPattern(pattern, relPath string, guardBase bool) bool {
	segs := strings.Split(relPath, "/")
	alts := expandBraces(pattern)

	baseOK := !guardBase || !hasHidden(segs[:len(segs)-1])
	for _, alt := range alts {
		if isHidden(alt) {
			baseOK = true
		}
	}

	for _, alt := range alts {
		if matchSegments(strings.Split(alt, "/"), segs) {
			return true
		}
		if baseOK && !strings.Contains(alt, "/") && matchSegment(alt, segs[len(segs)-1]) {
			return true
		}
	}
	return false
}

func matchSegments(pats, segs []string) bool {
	if len(pats) == 0 {
		return len(segs) == 0
	}
	if pats[0] == "**" {
		if matchSegments(pats[1:], segs) {
			return true
		}
		return len(segs) > 0 && !isHidden(segs[0]) && matchSegments(pats, segs[1:])
	}
	return len(segs) > 0 && matchSegment(pats[0], segs[0]) && matchSegments(pats[1:], segs[1:])
}

func matchSegment(pat, seg string) bool {
	if isHidden(seg) && !strings.HasPrefix(pat, ".") {
		return false
	}
	ok, _ := doublestar.Match(pat, seg)
	return ok
}

func isHidden(seg string) bool {
	return strings.HasPrefix(seg, ".")
}

func hasHidden(segs []string) bool {
	for _, seg := range segs {
		if isHidden(seg) {
			return true
		}
	}
	return false
}

// expandBraces 展开含逗号的 {a,b} 分组；无逗号的分组原样交给 doublestar
func expandBraces(pattern string) []string {
	start, end := -1, -1
	depth := 0
	var commas []int
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '\\':
			i++
		case '{':
			if depth == 0 {
				start = i
				commas = commas[:0]
			}
			depth++
		case ',':
			if depth == 1 {
				commas = append(commas, i)
			}
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && len(commas) > 0 {
				end = i
			}
		}
		if end >= 0 {
			break
		}
	}
	if end < 0 {
		return []string{pattern}
	}

	prefix, suffix := pattern[:start], pattern[end+1:]
	bounds := append(append([]int{start}, commas...), end)
	var out []string
	for i := 0; i+1 < len(bounds); i++ {
		alt := pattern[bounds[i]+1 : bounds[i+1]]
		out = append(out, expandBraces(prefix+alt+suffix)...)
	}
	return out
}

// PatternError 非法的 glob pattern
type PatternError struct {
	Pattern string
	Index   int
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid pattern at index %d: %q", e.Index, e.Pattern)
}

// ValidatePatterns 校验 pattern 语法，返回所有非法项
func ValidatePatterns(patterns []string) []error {
	var errs []error
	for i, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			errs = append(errs, &PatternError{Pattern: pattern, Index: i})
		}
	}
	return errs
}
