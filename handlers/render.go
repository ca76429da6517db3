package handlers

import (
	"net/http"

	"enquetes-backend/session"
	"enquetes-backend/web"

	"github.com/gin-gonic/gin"
)

// render 渲染页面，并补充布局需要的登录状态
func render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if _, ok := data["logado"]; !ok {
		data["logado"] = session.FromContext(c).Authenticated()
	}
	c.HTML(status, name, data)
}

// message 渲染提示页
func message(c *gin.Context, status int, ok bool, pageTitle, title, text string) {
	render(c, status, web.Message, gin.H{
		"pageTitle":      pageTitle,
		"tituloMensagem": title,
		"mensagem":       text,
		"sucesso":        ok,
	})
}

// NotFound 渲染404页面
func NotFound(c *gin.Context, text string) {
	render(c, http.StatusNotFound, web.NotFound, gin.H{
		"pageTitle": "Página não encontrada",
		"mensagem":  text,
	})
}

// RouteNotFound 路由解析失败时的404页面，不向用户暴露解析细节
func RouteNotFound(c *gin.Context, _ error) {
	NotFound(c, "Página não encontrada")
}

// serverError 持久化失败时的通用错误页
func serverError(c *gin.Context) {
	message(c, http.StatusInternalServerError, false, "Erro no Sistema", "Erro Inesperado",
		"Não foi possível concluir a operação no momento. Tente novamente mais tarde.")
}
