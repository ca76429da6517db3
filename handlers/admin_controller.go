package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"

	"enquetes-backend/models"
	"enquetes-backend/repository"
	"enquetes-backend/router"
	"enquetes-backend/session"
	"enquetes-backend/slug"
	"enquetes-backend/web"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// 路由前缀
const (
	PollPrefix  = "enquetes"
	AdminPrefix = "admin"
)

const (
	dashboardPath = "/admin/dashboard"
	loginPath     = "/admin/login"

	loginError = "Usuário ou senha inválidos."
)

// AdminController 管理后台
type AdminController struct {
	polls    repository.PollRepository
	users    repository.UserRepository
	sessions *session.Manager
}

// NewAdminController 创建管理后台控制器
func NewAdminController(polls repository.PollRepository, users repository.UserRepository, sessions *session.Manager) *AdminController {
	return &AdminController{polls: polls, users: users, sessions: sessions}
}

// Register 注册到路由表，除登录相关动作外都需要登录
func (ac *AdminController) Register(t *router.Table) {
	t.Controller(AdminPrefix, "dashboard", "dashboard")

	protected := []router.Route{
		{Name: "dashboard", Handler: ac.Dashboard},
		{Name: "criar", Handler: ac.Create},
		{Name: "editar", Handler: ac.Edit, MinParams: 1, MaxParams: 1},
		{Name: "salvar", Handler: ac.Save, MaxParams: 1},
		{Name: "excluir", Handler: ac.Delete, MinParams: 1, MaxParams: 1},
		{Name: "resultados", Handler: ac.Results, MinParams: 1, MaxParams: 1},
		{Name: "logout", Handler: ac.Logout},
	}
	for _, r := range protected {
		r.Controller = AdminPrefix
		r.RequiresAuth = true
		t.Handle(r)
	}

	t.Handle(router.Route{Controller: AdminPrefix, Name: "login", Handler: ac.Login})
	t.Handle(router.Route{Controller: AdminPrefix, Name: "autenticar", Handler: ac.Authenticate})
}

// Authenticated 供路由分发器判断登录状态
func Authenticated(c *gin.Context) bool {
	return session.FromContext(c).Authenticated()
}

// Dashboard 全部投票列表
func (ac *AdminController) Dashboard(c *gin.Context, _ []string) {
	polls, err := ac.polls.ListAll(c.Request.Context())
	if err != nil {
		serverError(c)
		return
	}
	render(c, http.StatusOK, web.AdminDashboard, gin.H{
		"pageTitle": "Painel Administrativo - Enquetes",
		"enquetes":  polls,
	})
}

// pollForm 表单回显的数据
type pollForm struct {
	Title       string
	Description string
	Status      models.PollStatus
	Options     []string
}

func (ac *AdminController) renderForm(c *gin.Context, status int, id uint, form pollForm, errs []string) {
	// 至少显示两个选项输入框
	for len(form.Options) < models.MinOptions {
		form.Options = append(form.Options, "")
	}

	action := "/admin/salvar"
	pageTitle := "Criar Nova Enquete"
	if id != 0 {
		action = fmt.Sprintf("/admin/salvar/%d", id)
		pageTitle = "Editar Enquete: " + form.Title
	}
	render(c, status, web.AdminForm, gin.H{
		"pageTitle":  pageTitle,
		"modoEdicao": id != 0,
		"actionURL":  action,
		"form":       form,
		"erros":      errs,
	})
}

// Create 空白的新建表单
func (ac *AdminController) Create(c *gin.Context, _ []string) {
	ac.renderForm(c, http.StatusOK, 0, pollForm{Status: models.PollStatusInactive}, nil)
}

// Edit 编辑表单
func (ac *AdminController) Edit(c *gin.Context, params []string) {
	id, ok := parseID(params[0])
	if !ok {
		NotFound(c, "Enquete não encontrada")
		return
	}

	poll, err := ac.polls.FindByIDWithOptions(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "Enquete não encontrada")
			return
		}
		serverError(c)
		return
	}

	form := pollForm{Title: poll.Title, Description: poll.Description, Status: poll.Status}
	for _, opt := range poll.Options {
		form.Options = append(form.Options, opt.Text)
	}
	ac.renderForm(c, http.StatusOK, poll.ID, form, nil)
}

// Save 创建或更新投票，校验失败时在表单内显示错误
func (ac *AdminController) Save(c *gin.Context, params []string) {
	if c.Request.Method != http.MethodPost {
		c.Redirect(http.StatusFound, dashboardPath)
		return
	}

	var id uint
	if len(params) == 1 {
		var ok bool
		if id, ok = parseID(params[0]); !ok {
			NotFound(c, "Enquete não encontrada")
			return
		}
	}

	form := pollForm{
		Title:       strings.TrimSpace(c.PostForm("titulo")),
		Description: strings.TrimSpace(c.PostForm("descricao")),
		Status:      models.PollStatus(c.DefaultPostForm("status", string(models.PollStatusInactive))),
	}
	for _, text := range c.PostFormArray("opcoes[]") {
		if text = strings.TrimSpace(text); text != "" {
			form.Options = append(form.Options, text)
		}
	}

	if errs := validateForm(form); len(errs) > 0 {
		ac.renderForm(c, http.StatusUnprocessableEntity, id, form, errs)
		return
	}

	input := models.PollInput{
		Title:       form.Title,
		Description: form.Description,
		Slug:        slug.Make(form.Title),
		Status:      form.Status,
		Options:     form.Options,
	}

	var err error
	if id == 0 {
		_, err = ac.polls.CreatePoll(c.Request.Context(), input)
	} else {
		_, err = ac.polls.UpdatePoll(c.Request.Context(), id, input)
	}

	switch {
	case err == nil:
		c.Redirect(http.StatusFound, dashboardPath)
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, "Enquete não encontrada")
	case errors.Is(err, repository.ErrInvalidInput):
		ac.renderForm(c, http.StatusUnprocessableEntity, id, form, []string{"Dados inválidos. Verifique os campos e tente novamente."})
	default:
		ac.renderForm(c, http.StatusInternalServerError, id, form, []string{"Ocorreu um erro ao salvar a enquete."})
	}
}

func validateForm(form pollForm) []string {
	var errs []string
	if form.Title == "" {
		errs = append(errs, "O título é obrigatório.")
	}
	if len(form.Options) < models.MinOptions {
		errs = append(errs, fmt.Sprintf("A enquete deve ter pelo menos %d opções.", models.MinOptions))
	}
	if !form.Status.Valid() {
		errs = append(errs, "Status inválido.")
	}
	return errs
}

// Delete 删除投票后回到后台首页，不存在的ID只记录日志
func (ac *AdminController) Delete(c *gin.Context, params []string) {
	if c.Request.Method != http.MethodPost {
		c.Redirect(http.StatusFound, dashboardPath)
		return
	}

	id, ok := parseID(params[0])
	if !ok {
		NotFound(c, "Enquete não encontrada")
		return
	}

	if err := ac.polls.DeletePoll(c.Request.Context(), id); err != nil {
		log.Printf("删除投票失败: ID=%d: %v", id, err)
	}
	c.Redirect(http.StatusFound, dashboardPath)
}

// Results 计票结果
func (ac *AdminController) Results(c *gin.Context, params []string) {
	id, ok := parseID(params[0])
	if !ok {
		NotFound(c, "Enquete não encontrada")
		return
	}

	results, err := ac.polls.TallyResults(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "Enquete não encontrada")
			return
		}
		serverError(c)
		return
	}
	render(c, http.StatusOK, web.AdminResults, gin.H{
		"pageTitle":  "Resultados: " + results.Poll.Title,
		"resultados": results,
	})
}

// Login 登录页，已登录时直接进入后台
func (ac *AdminController) Login(c *gin.Context, _ []string) {
	if Authenticated(c) {
		c.Redirect(http.StatusFound, dashboardPath)
		return
	}
	render(c, http.StatusOK, web.AdminLogin, gin.H{"pageTitle": "Login"})
}

// Authenticate 校验用户名或邮箱和密码。失败时不区分原因。
func (ac *AdminController) Authenticate(c *gin.Context, _ []string) {
	if c.Request.Method != http.MethodPost {
		c.Redirect(http.StatusFound, loginPath)
		return
	}

	identifier := strings.TrimSpace(c.PostForm("nome_usuario"))
	password := c.PostForm("senha")

	fail := func() {
		render(c, http.StatusUnauthorized, web.AdminLogin, gin.H{
			"pageTitle":     "Login",
			"erro":          loginError,
			"identificador": identifier,
		})
	}

	if identifier == "" || password == "" {
		fail()
		return
	}

	user, err := ac.users.FindByUsernameOrEmail(c.Request.Context(), identifier)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Printf("登录查询失败: %v", err)
		}
		user = nil
	}

	if !checkPassword(user, password) {
		if user != nil {
			log.Printf("登录失败: 用户=%s", user.Username)
		}
		fail()
		return
	}

	data := session.FromContext(c)
	data.Login(user.ID, user.Username)
	if err := ac.sessions.Save(c, data); err != nil {
		log.Printf("保存登录会话失败: %v", err)
		serverError(c)
		return
	}

	log.Printf("管理员登录成功: 用户=%s", user.Username)
	c.Redirect(http.StatusFound, dashboardPath)
}

// Logout 销毁会话并回到登录页
func (ac *AdminController) Logout(c *gin.Context, _ []string) {
	if err := ac.sessions.Destroy(c); err != nil {
		log.Printf("销毁会话失败: %v", err)
	}
	c.Redirect(http.StatusFound, loginPath)
}

// dummyHash 用户不存在时也做一次同等代价的比较，响应时间不暴露用户名是否存在
var dummyHash = sync.OnceValue(func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("enquetes-senha-inexistente"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return hash
})

// checkPassword 只接受 bcrypt 哈希；user 为 nil 时比较假哈希并返回 false
func checkPassword(user *models.User, password string) bool {
	if user == nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}
