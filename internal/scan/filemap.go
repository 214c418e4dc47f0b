package scan

// FileMap 目录 → 待上传文件名列表，按扫描时的深度优先顺序保存目录。
// 目录 key 使用 POSIX 风格相对路径，根目录为 "/"，子目录如 "/sub"。
type FileMap struct {
	dirs  []string
	files map[string][]string
}

// NewFileMap 创建空 FileMap
func NewFileMap() *FileMap {
	return &FileMap{files: make(map[string][]string)}
}

// Dirs 返回目录 key（按遍历顺序）
func (m *FileMap) Dirs() []string {
	out := make([]string, len(m.dirs))
	copy(out, m.dirs)
	return out
}

// Files 返回目录下的文件名（按扫描顺序）
func (m *FileMap) Files(dir string) []string {
	return m.files[dir]
}

// Has 判断目录 key 是否存在
func (m *FileMap) Has(dir string) bool {
	_, ok := m.files[dir]
	return ok
}

// Len 返回目录 key 数量
func (m *FileMap) Len() int {
	return len(m.dirs)
}

// ToMap 返回普通 map 形式，便于打印和比较
func (m *FileMap) ToMap() map[string][]string {
	out := make(map[string][]string, len(m.dirs))
	for _, dir := range m.dirs {
		out[dir] = append([]string{}, m.files[dir]...)
	}
	return out
}

func (m *FileMap) ensure(dir string) {
	if _, ok := m.files[dir]; ok {
		return
	}
	m.dirs = append(m.dirs, dir)
	m.files[dir] = []string{}
}

func (m *FileMap) add(dir, name string) {
	m.ensure(dir)
	m.files[dir] = append(m.files[dir], name)
}

// merge 合并子目录扫描结果，空目录 key 被丢弃
func (m *FileMap) merge(other *FileMap) {
	for _, dir := range other.dirs {
		names := other.files[dir]
		if len(names) == 0 {
			continue
		}
		m.ensure(dir)
		m.files[dir] = append(m.files[dir], names...)
	}
}

// CountFiles 统计所有目录下的文件总数
func CountFiles(m *FileMap) int {
	if m == nil {
		return 0
	}
	total := 0
	for _, names := range m.files {
		total += len(names)
	}
	return total
}
