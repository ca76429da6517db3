package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"enquetes-backend/models"
	"enquetes-backend/repository"
	"enquetes-backend/router"
	"enquetes-backend/session"
	"enquetes-backend/web"

	"github.com/gin-gonic/gin"
)

// ResultsPublisher 投票写入后推送最新计票
type ResultsPublisher interface {
	Subscribers(pollID uint) int
	Publish(pollID uint, results *models.PollResults)
}

// PollController 公开的投票页面
type PollController struct {
	polls     repository.PollRepository
	sessions  *session.Manager
	publisher ResultsPublisher
}

// NewPollController 创建投票控制器，publisher 可以为 nil
func NewPollController(polls repository.PollRepository, sessions *session.Manager, publisher ResultsPublisher) *PollController {
	return &PollController{polls: polls, sessions: sessions, publisher: publisher}
}

// Register 注册到路由表
func (pc *PollController) Register(t *router.Table) {
	t.Controller(PollPrefix, "index", "exibir")
	t.Handle(router.Route{Controller: PollPrefix, Name: "index", Handler: pc.Index})
	t.Handle(router.Route{Controller: PollPrefix, Name: "exibir", Handler: pc.Show, MinParams: 1, MaxParams: 1})
	t.Handle(router.Route{Controller: PollPrefix, Name: "votar", Handler: pc.Vote})
}

// Index 进行中的投票列表
func (pc *PollController) Index(c *gin.Context, _ []string) {
	polls, err := pc.polls.ListActive(c.Request.Context())
	if err != nil {
		serverError(c)
		return
	}
	render(c, http.StatusOK, web.PollIndex, gin.H{
		"pageTitle": "Nossas Enquetes",
		"enquetes":  polls,
	})
}

// Show 投票详情和投票表单
func (pc *PollController) Show(c *gin.Context, params []string) {
	poll, err := pc.polls.FindBySlugWithOptions(c.Request.Context(), params[0])
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "Enquete não encontrada")
			return
		}
		serverError(c)
		return
	}

	voted, err := pc.sessions.HasVoted(c, poll.ID)
	if err != nil {
		log.Printf("查询投票记录失败: %v", err)
	}
	render(c, http.StatusOK, web.PollDetail, gin.H{
		"pageTitle": poll.Title,
		"enquete":   poll,
		"jaVotou":   voted,
	})
}

// Vote 记录一票。同一会话对同一投票只能投一次。
func (pc *PollController) Vote(c *gin.Context, _ []string) {
	if c.Request.Method != http.MethodPost {
		c.Redirect(http.StatusFound, "/enquetes")
		return
	}

	pollID, ok1 := formID(c, "enquete_id")
	optionID, ok2 := formID(c, "opcao_id")
	if !ok1 || !ok2 {
		c.Redirect(http.StatusFound, "/enquetes")
		return
	}

	ctx := c.Request.Context()
	valid, err := pc.polls.OptionInActivePoll(ctx, pollID, optionID)
	if err != nil {
		serverError(c)
		return
	}
	if !valid {
		message(c, http.StatusBadRequest, false, "Erro na Votação", "Opção Inválida",
			"A opção escolhida não pertence a uma enquete ativa.")
		return
	}

	added, err := pc.sessions.MarkVoted(c, pollID)
	if err != nil {
		log.Printf("记录会话投票失败: %v", err)
		serverError(c)
		return
	}
	if !added {
		message(c, http.StatusOK, false, "Erro na Votação", "Voto Duplicado",
			"Você já participou desta enquete.")
		return
	}

	vote := &models.Vote{
		OptionID:  optionID,
		VoterID:   c.ClientIP(),
		UserAgent: truncate(c.Request.UserAgent(), 255),
	}
	if err := pc.polls.RecordVote(ctx, vote); err != nil {
		if unmarkErr := pc.sessions.UnmarkVoted(c, pollID); unmarkErr != nil {
			log.Printf("撤销会话投票标记失败: %v", unmarkErr)
		}
		message(c, http.StatusInternalServerError, false, "Erro no Sistema", "Erro Inesperado",
			"Não foi possível registrar seu voto no momento. Tente novamente mais tarde.")
		return
	}

	pc.publish(ctx, pollID)
	message(c, http.StatusOK, true, "Voto Registrado", "Obrigado por Votar!",
		"Seu voto foi computado com sucesso.")
}

// publish 有订阅者时才重新计票
func (pc *PollController) publish(ctx context.Context, pollID uint) {
	if pc.publisher == nil || pc.publisher.Subscribers(pollID) == 0 {
		return
	}
	results, err := pc.polls.TallyResults(ctx, pollID)
	if err != nil {
		return
	}
	pc.publisher.Publish(pollID, results)
}

func formID(c *gin.Context, field string) (uint, bool) {
	raw, ok := c.GetPostForm(field)
	if !ok {
		return 0, false
	}
	return parseID(raw)
}

func parseID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// 截断可能切开多字节字符
	return strings.ToValidUTF8(s[:n], "")
}
