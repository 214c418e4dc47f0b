// Package template 渲染内置的配置文件模板（rckt init 使用）。
package template

import (
	"bytes"
	"embed"
	"fmt"
	"path"
	"strconv"
	"strings"
	"text/template"
)

//go:embed all:templates
var templateFS embed.FS

// Format 配置文件格式
type Format string

const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// TemplateData 包含配置模板渲染所需的字段
type TemplateData struct {
	User         string
	Host         string
	Port         int
	RemoteRoot   string
	SFTP         bool
	DeleteRemote bool
	Include      []string
	Exclude      []string
}

var templateFiles = map[Format]string{
	FormatJSON: "templates/rckt-deploy.json.tmpl",
	FormatTOML: "templates/rckt-deploy.toml.tmpl",
	FormatYAML: "templates/rckt-deploy.yaml.tmpl",
}

var funcs = template.FuncMap{
	"quote":     quote,
	"quoteList": quoteList,
}

// quote 输出带转义的双引号字符串，JSON、TOML 与 YAML 通用
func quote(s string) string {
	return strconv.Quote(s)
}

// quoteList 渲染为 ["a", "b"]
func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = quote(item)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// FormatForFile 根据文件扩展名选择格式
func FormatForFile(name string) Format {
	switch strings.ToLower(path.Ext(name)) {
	case ".toml":
		return FormatTOML
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// RenderConfig 渲染指定格式的配置文件
func RenderConfig(format Format, data *TemplateData) ([]byte, error) {
	name, ok := templateFiles[format]
	if !ok {
		return nil, fmt.Errorf("unknown config format: %s", format)
	}

	content, err := templateFS.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", name, err)
	}

	tmpl, err := template.New(name).Funcs(funcs).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
