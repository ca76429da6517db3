package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"enquetes-backend/models"
	"enquetes-backend/slug"
	"enquetes-backend/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAdmin_RequiresLogin(t *testing.T) {
	env := SetupTestEnvironment(t)
	browser := env.newClient()

	for _, path := range []string{"/admin", "/admin/dashboard", "/admin/criar", "/admin/editar/1", "/admin/resultados/1", "/admin/logout"} {
		w := browser.get(path)
		assert.Equal(t, http.StatusFound, w.Code, path)
		assert.Equal(t, "/admin/login", w.Header().Get("Location"), path)
	}

	w := browser.post("/admin/excluir/1", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/admin/login", w.Header().Get("Location"))

	w = browser.get("/admin/login")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Login do Painel Administrativo")
}

func TestAuthenticate(t *testing.T) {
	env := SetupTestEnvironment(t)
	testutil.SeedUser(t, env.provider, "admin", "admin@example.com", "segredo123")

	tests := []struct {
		name       string
		identifier string
		password   string
		wantCode   int
	}{
		{"username", "admin", "segredo123", http.StatusFound},
		{"email", "admin@example.com", "segredo123", http.StatusFound},
		{"wrong password", "admin", "errada", http.StatusUnauthorized},
		{"unknown user", "ninguem", "segredo123", http.StatusUnauthorized},
		{"empty fields", "", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			browser := env.newClient()
			w := browser.post("/admin/autenticar", url.Values{"nome_usuario": {tt.identifier}, "senha": {tt.password}})
			assert.Equal(t, tt.wantCode, w.Code)

			if tt.wantCode == http.StatusFound {
				assert.Equal(t, "/admin/dashboard", w.Header().Get("Location"))
				w = browser.get("/admin/dashboard")
				assert.Equal(t, http.StatusOK, w.Code)
				assert.Contains(t, w.Body.String(), "Gerenciamento de Enquetes")
				return
			}

			// mesma mensagem para usuário inexistente e senha errada
			assert.Contains(t, w.Body.String(), "Usuário ou senha inválidos.")
			w = browser.get("/admin/dashboard")
			assert.Equal(t, http.StatusFound, w.Code)
		})
	}
}

func TestAuthenticate_PlaintextPasswordIsRejected(t *testing.T) {
	env := SetupTestEnvironment(t)
	_, err := env.provider.Exec(context.Background(),
		"INSERT INTO usuarios (nome_usuario, email, senha, criado_em, atualizado_em) VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)",
		"legado", "legado@example.com", "senha-em-texto")
	require.NoError(t, err)

	w := env.newClient().post("/admin/autenticar", url.Values{"nome_usuario": {"legado"}, "senha": {"senha-em-texto"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout(t *testing.T) {
	env := SetupTestEnvironment(t)
	browser := env.newClient()
	browser.login(t)

	w := browser.get("/admin/login")
	assert.Equal(t, http.StatusFound, w.Code)

	w = browser.get("/admin/logout")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/admin/login", w.Header().Get("Location"))

	w = browser.get("/admin/dashboard")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/admin/login", w.Header().Get("Location"))
}

func TestSave_CreatesPoll(t *testing.T) {
	env := SetupTestEnvironment(t)
	browser := env.newClient()
	browser.login(t)

	w := browser.get("/admin/criar")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `action="/admin/salvar"`)

	w = browser.post("/admin/salvar", url.Values{
		"titulo":    {"  Melhor linguagem?  "},
		"descricao": {"Escolha uma"},
		"status":    {"ativa"},
		"opcoes[]":  {"Go", "", "  Rust "},
	})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/admin/dashboard", w.Header().Get("Location"))

	polls, err := env.polls.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, polls, 1)
	assert.Equal(t, "Melhor linguagem?", polls[0].Title)
	assert.True(t, slug.HasBase(polls[0].Slug, "melhor-linguagem"), polls[0].Slug)

	poll, err := env.polls.FindBySlugWithOptions(context.Background(), polls[0].Slug)
	require.NoError(t, err)
	require.Len(t, poll.Options, 2)
	assert.Equal(t, "Rust", poll.Options[1].Text)
}

func TestSave_ValidationErrorsRenderInline(t *testing.T) {
	env := SetupTestEnvironment(t)
	browser := env.newClient()
	browser.login(t)

	w := browser.post("/admin/salvar", url.Values{
		"titulo":   {"   "},
		"status":   {"ativa"},
		"opcoes[]": {"Só uma", " "},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "O título é obrigatório.")
	assert.Contains(t, body, "A enquete deve ter pelo menos 2 opções.")
	assert.Contains(t, body, `value="Só uma"`)
	assert.Equal(t, int64(0), testutil.CountRows(t, env.provider, &models.Poll{}, ""))

	w = browser.post("/admin/salvar", url.Values{
		"titulo":   {"Título"},
		"status":   {"arquivada"},
		"opcoes[]": {"A", "B"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Status inválido.")

	w = browser.get("/admin/salvar")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/admin/dashboard", w.Header().Get("Location"))
}

func TestEditAndUpdate(t *testing.T) {
	env := SetupTestEnvironment(t)
	browser := env.newClient()
	browser.login(t)
	poll := testutil.SeedPoll(t, env.provider, "Primeira versão", "primeira-versao", models.PollStatusActive, "A", "B")

	w := browser.get(fmt.Sprintf("/admin/editar/%d", poll.ID))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), fmt.Sprintf(`action="/admin/salvar/%d"`, poll.ID))
	assert.Contains(t, w.Body.String(), `value="Primeira versão"`)

	w = browser.post(fmt.Sprintf("/admin/salvar/%d", poll.ID), url.Values{
		"titulo":   {"Primeira versão"},
		"status":   {"inativa"},
		"opcoes[]": {"X", "Y", "Z"},
	})
	assert.Equal(t, http.StatusFound, w.Code)

	updated, err := env.polls.FindByIDWithOptions(context.Background(), poll.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PollStatusInactive, updated.Status)
	assert.Equal(t, "primeira-versao", updated.Slug)
	require.Len(t, updated.Options, 3)
	assert.Equal(t, "X", updated.Options[0].Text)

	w = browser.get("/admin/editar/999")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = browser.post("/admin/salvar/999", url.Values{"titulo": {"T"}, "status": {"ativa"}, "opcoes[]": {"A", "B"}})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = browser.get("/admin/editar/abc")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDelete(t *testing.T) {
	env := SetupTestEnvironment(t)
	browser := env.newClient()
	browser.login(t)
	poll := testutil.SeedPoll(t, env.provider, "Apagar", "apagar", models.PollStatusActive, "A", "B")
	testutil.SeedVotes(t, env.provider, poll.Options[0].ID, 2)

	w := browser.get(fmt.Sprintf("/admin/excluir/%d", poll.ID))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, int64(1), testutil.CountRows(t, env.provider, &models.Poll{}, ""))

	w = browser.post(fmt.Sprintf("/admin/excluir/%d", poll.ID), nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/admin/dashboard", w.Header().Get("Location"))
	assert.Equal(t, int64(0), testutil.CountRows(t, env.provider, &models.Poll{}, ""))
	assert.Equal(t, int64(0), testutil.CountRows(t, env.provider, &models.Vote{}, ""))

	// id inexistente não quebra a página
	w = browser.post("/admin/excluir/999", nil)
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestResults(t *testing.T) {
	env := SetupTestEnvironment(t)
	browser := env.newClient()
	browser.login(t)
	poll := testutil.SeedPoll(t, env.provider, "Placar", "placar", models.PollStatusInactive, "A", "B")
	testutil.SeedVotes(t, env.provider, poll.Options[1].ID, 3)
	testutil.SeedVotes(t, env.provider, poll.Options[0].ID, 1)

	w := browser.get(fmt.Sprintf("/admin/resultados/%d", poll.ID))
	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `<span id="total-votos">4</span>`)
	assert.Contains(t, body, "3 voto(s) (75%)")
	assert.Contains(t, body, "1 voto(s) (25%)")

	w = browser.get("/admin/resultados/999")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = browser.get("/admin/resultados")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUnknownRoutes(t *testing.T) {
	env := SetupTestEnvironment(t)
	browser := env.newClient()

	for _, path := range []string{"/produtos", "/enquetes/a/b", "/admin/editar/1/2"} {
		w := browser.get(path)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Contains(t, w.Body.String(), "Página não encontrada")
	}
}

func TestHealthEndpoints(t *testing.T) {
	env := SetupTestEnvironment(t)
	browser := env.newClient()

	w := browser.get("/api/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	w = browser.get("/api/status")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"db_status":"ok"`)
	assert.Contains(t, w.Body.String(), `"session_store":"memoria"`)
}

func TestCheckPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("segredo123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{Username: "admin", PasswordHash: string(hash)}

	assert.True(t, checkPassword(user, "segredo123"))
	assert.False(t, checkPassword(user, "errada"))
	assert.False(t, checkPassword(&models.User{PasswordHash: "segredo123"}, "segredo123"))

	// usuário inexistente paga o mesmo custo de bcrypt
	assert.False(t, checkPassword(nil, "segredo123"))
	cost, err := bcrypt.Cost(dummyHash())
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}
