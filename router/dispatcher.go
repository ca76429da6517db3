package router

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Dispatcher 作为 gin 的 NoRoute 处理器，把所有页面请求交给路由表
type Dispatcher struct {
	table *Table

	// Authenticated 判断当前请求是否已登录
	Authenticated func(c *gin.Context) bool
	// LoginPath 未登录访问受保护动作时跳转的地址
	LoginPath string
	// NotFound 渲染404页面，为空时输出纯文本
	NotFound func(c *gin.Context, err error)
}

// NewDispatcher 创建分发器
func NewDispatcher(table *Table) *Dispatcher {
	return &Dispatcher{table: table, LoginPath: "/admin/login"}
}

// Handle 解析并调用动作。动作中的 panic 不在这里处理，由 gin.Recovery 返回 500。
func (d *Dispatcher) Handle(c *gin.Context) {
	res, err := d.table.Resolve(c.Request.URL.Path)
	if err != nil {
		log.Printf("路由解析失败: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		d.notFound(c, err)
		return
	}

	if res.Route.RequiresAuth && (d.Authenticated == nil || !d.Authenticated(c)) {
		c.Redirect(http.StatusFound, d.LoginPath)
		c.Abort()
		return
	}

	res.Route.Handler(c, res.Params)
}

func (d *Dispatcher) notFound(c *gin.Context, err error) {
	if d.NotFound != nil {
		d.NotFound(c, err)
		return
	}
	c.String(http.StatusNotFound, err.Error())
}
