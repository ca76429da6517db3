// Package web 内嵌页面模板和静态文件
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"enquetes-backend/models"
)

// 页面模板名
const (
	PollIndex      = "enquetes_index"
	PollDetail     = "enquetes_detalhe"
	Message        = "mensagem"
	AdminDashboard = "admin_dashboard"
	AdminForm      = "admin_form"
	AdminResults   = "admin_resultados"
	AdminLogin     = "admin_login"
	NotFound       = "erro_404"
)

//go:embed templates/*.html
var templateFiles embed.FS

//go:embed static
var staticFiles embed.FS

var funcs = template.FuncMap{
	// dataBR 巴西日期格式
	"dataBR": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("02/01/2006 15:04")
	},
	"statusLabel": func(s models.PollStatus) string {
		str := string(s)
		if str == "" {
			return ""
		}
		return strings.ToUpper(str[:1]) + str[1:]
	},
	"percent": func(v float64) string {
		return strconv.FormatFloat(v, 'f', -1, 64)
	},
	"inc": func(i int) int { return i + 1 },
}

// Templates 解析全部内嵌模板
func Templates() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(funcs).ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("解析模板失败: %w", err)
	}
	return tmpl, nil
}

// MustTemplates 解析失败时 panic，只在启动时调用
func MustTemplates() *template.Template {
	tmpl, err := Templates()
	if err != nil {
		panic(err)
	}
	return tmpl
}

// Render 把模板渲染为字节，不依赖 HTTP 上下文。
// 请求处理走 gin 的 c.HTML，这里供模板测试直接调用。
func Render(tmpl *template.Template, name string, data map[string]interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("渲染模板 %s 失败: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Static 静态文件，根目录下是 estilo.css
func Static() fs.FS {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
