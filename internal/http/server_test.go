package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"edutech-backend-go/internal/config"
	"edutech-backend-go/internal/db"
	"edutech-backend-go/internal/logger"
	"edutech-backend-go/internal/migrations"
	"edutech-backend-go/internal/services"
)

type memoryRevoker struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func (m *memoryRevoker) Revoke(_ context.Context, id string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[id] = true
	return nil
}

func (m *memoryRevoker) IsRevoked(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.revoked[id], nil
}

type testEnv struct {
	server  *Server
	handler http.Handler
	db      *sqlx.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	conn, err := db.Open("sqlite", filepath.Join(t.TempDir(), "http_test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	if err := migrations.Apply(context.Background(), conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	cfg := config.Config{
		DatabaseDriver:    "sqlite",
		JWTSecret:         "test-secret",
		JWTIssuer:         "edutech",
		SessionTTLSeconds: 3600,
		BcryptCost:        10,
	}
	srv := NewServer(conn, cfg, logger.NewNop(), &memoryRevoker{revoked: map[string]bool{}})
	return &testEnv{server: srv, handler: srv.Router(), db: conn}
}

func (e *testEnv) user(t *testing.T, nome, email string, role services.Role) (int64, string) {
	t.Helper()
	id, err := e.server.Users.Register(context.Background(), services.RegisterInput{Nome: nome, Email: email, Senha: "segredo123", Tipo: role})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	token, _, err := e.server.Tokens.IssueSession(id, email, role)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return id, token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	if err := e.db.Get(&n, "SELECT COUNT(*) FROM "+table); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func exercisePayload() map[string]interface{} {
	return map[string]interface{}{
		"titulo":      "Soma",
		"enunciado":   "Quanto é 2 + 2?",
		"dificuldade": 2,
		"alternativas": []map[string]interface{}{
			{"descricao": "3", "correta": false},
			{"descricao": "4", "correta": true},
		},
	}
}

func TestRegisterLoginProfile(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/usuarios/cadastro", "", map[string]string{
		"nome": "Ana", "email": "ana@escola.br", "senha": "segredo123",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status: want=201 got=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/usuarios/login", "", map[string]string{"email": "ana@escola.br", "senha": "segredo123"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status: want=200 got=%d body=%s", rec.Code, rec.Body.String())
	}
	var login LoginResponse
	decodeBody(t, rec, &login)
	if login.Token == "" || login.Usuario.Tipo != "aluno" {
		t.Fatalf("login body: got=%+v", login)
	}
	if strings.Contains(rec.Body.String(), "senha") {
		t.Fatalf("login body leaks password field: %s", rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/usuarios/perfil", login.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("profile status: want=200 got=%d", rec.Code)
	}
	var profile UserDTO
	decodeBody(t, rec, &profile)
	if profile.Email != "ana@escola.br" {
		t.Fatalf("profile email: want=%q got=%q", "ana@escola.br", profile.Email)
	}
}

func TestRegisterRejectsAdminAndDuplicates(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/usuarios/cadastro", "", map[string]string{
		"nome": "Root", "email": "root@escola.br", "senha": "segredo123", "tipo": "admin",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("admin signup: want=400 got=%d", rec.Code)
	}
	env.user(t, "Ana", "ana@escola.br", services.RoleStudent)
	rec = env.do(t, http.MethodPost, "/usuarios/cadastro", "", map[string]string{
		"nome": "Ana 2", "email": "ana@escola.br", "senha": "segredo123",
	})
	var body ErrorResponse
	decodeBody(t, rec, &body)
	if rec.Code != http.StatusBadRequest || body.Erro != services.CodeDuplicateEmail || body.Mensagem != "Email já cadastrado." {
		t.Fatalf("duplicate: got status=%d body=%+v", rec.Code, body)
	}
}

func TestMissingAndInvalidToken(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/exercicios", "", nil)
	var body ErrorResponse
	decodeBody(t, rec, &body)
	if rec.Code != http.StatusUnauthorized || body.Mensagem != "Token não fornecido." {
		t.Fatalf("missing token: got status=%d body=%+v", rec.Code, body)
	}
	rec = env.do(t, http.MethodGet, "/exercicios", "nao.e.token", nil)
	decodeBody(t, rec, &body)
	if rec.Code != http.StatusUnauthorized || body.Mensagem != "Token inválido." {
		t.Fatalf("bad token: got status=%d body=%+v", rec.Code, body)
	}
}

func TestStudentCannotWriteContent(t *testing.T) {
	env := newTestEnv(t)
	_, student := env.user(t, "Ana", "ana@escola.br", services.RoleStudent)
	before := map[string]int{}
	tables := []string{"exercicio", "alternativa", "lista", "lista_exercicio", "turma", "mapa"}
	for _, table := range tables {
		before[table] = env.count(t, table)
	}

	attempts := []struct {
		method, path string
		body         interface{}
	}{
		{http.MethodPost, "/exercicios", exercisePayload()},
		{http.MethodPost, "/listas", map[string]interface{}{"titulo": "Lista"}},
		{http.MethodPost, "/turmas", map[string]interface{}{"nome": "Turma"}},
		{http.MethodPost, "/mapas", map[string]interface{}{"titulo": "Mapa"}},
		{http.MethodGet, "/relatorios/dashboard", nil},
		{http.MethodGet, "/usuarios", nil},
	}
	for _, a := range attempts {
		rec := env.do(t, a.method, a.path, student, a.body)
		var body ErrorResponse
		decodeBody(t, rec, &body)
		if rec.Code != http.StatusForbidden || body.Erro != services.CodeForbidden {
			t.Fatalf("%s %s: want 403 FORBIDDEN got=%d %+v", a.method, a.path, rec.Code, body)
		}
	}
	for _, table := range tables {
		if got := env.count(t, table); got != before[table] {
			t.Fatalf("%s rows changed: before=%d after=%d", table, before[table], got)
		}
	}
}

func TestStudentDoesNotSeeCorrectAlternative(t *testing.T) {
	env := newTestEnv(t)
	_, teacher := env.user(t, "Prof", "prof@escola.br", services.RoleTeacher)
	_, student := env.user(t, "Ana", "ana@escola.br", services.RoleStudent)

	rec := env.do(t, http.MethodPost, "/exercicios", teacher, exercisePayload())
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: want=201 got=%d body=%s", rec.Code, rec.Body.String())
	}
	var created ExerciseResponse
	decodeBody(t, rec, &created)
	path := "/exercicios/" + itoa(created.Exercicio.ID)

	rec = env.do(t, http.MethodGet, path, student, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("student get: want=200 got=%d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "correta") {
		t.Fatalf("student sees correta: %s", rec.Body.String())
	}
	rec = env.do(t, http.MethodGet, path, teacher, nil)
	var detail ExerciseDetailDTO
	decodeBody(t, rec, &detail)
	if len(detail.Alternativas) != 2 || detail.Alternativas[1].Correta == nil || !*detail.Alternativas[1].Correta {
		t.Fatalf("teacher detail: got=%+v", detail)
	}
}

func TestTurmaJoinAndRosterGuards(t *testing.T) {
	env := newTestEnv(t)
	_, teacher := env.user(t, "Prof", "prof@escola.br", services.RoleTeacher)
	_, other := env.user(t, "Outro", "outro@escola.br", services.RoleTeacher)
	studentID, student := env.user(t, "Ana", "ana@escola.br", services.RoleStudent)

	rec := env.do(t, http.MethodPost, "/turmas", teacher, map[string]string{"nome": "Física 1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create turma: want=201 got=%d body=%s", rec.Code, rec.Body.String())
	}
	var created CreateTurmaResponse
	decodeBody(t, rec, &created)
	turmaPath := "/turmas/" + itoa(created.ID)

	rec = env.do(t, http.MethodGet, turmaPath, student, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-member get: want=403 got=%d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/turmas/entrar", student, map[string]string{"codigo_convite": created.CodigoConvite})
	var joined JoinResponse
	decodeBody(t, rec, &joined)
	if rec.Code != http.StatusOK || !joined.Sucesso || joined.IDTurma != created.ID {
		t.Fatalf("join: got status=%d body=%+v", rec.Code, joined)
	}
	rec = env.do(t, http.MethodPost, "/turmas/entrar", student, map[string]string{"codigo_convite": created.CodigoConvite})
	decodeBody(t, rec, &joined)
	if rec.Code != http.StatusBadRequest || joined.Sucesso || joined.Mensagem != "Você já está nesta turma." {
		t.Fatalf("join again: got status=%d body=%+v", rec.Code, joined)
	}

	rec = env.do(t, http.MethodGet, turmaPath, student, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("member get: want=200 got=%d", rec.Code)
	}

	before := env.count(t, "aluno_turma")
	rec = env.do(t, http.MethodDelete, turmaPath+"/alunos/"+itoa(studentID), other, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign teacher remove: want=403 got=%d", rec.Code)
	}
	if got := env.count(t, "aluno_turma"); got != before {
		t.Fatalf("aluno_turma changed: before=%d after=%d", before, got)
	}

	rec = env.do(t, http.MethodPost, turmaPath+"/alunos", teacher, map[string]int64{"id_usuario": studentID})
	var body ErrorResponse
	decodeBody(t, rec, &body)
	if rec.Code != http.StatusBadRequest || body.Erro != services.CodeAlreadyMember {
		t.Fatalf("add existing: got status=%d body=%+v", rec.Code, body)
	}

	rec = env.do(t, http.MethodDelete, turmaPath+"/alunos/"+itoa(studentID), teacher, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("teacher remove: want=200 got=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.user(t, "Ana", "ana@escola.br", services.RoleStudent)

	if rec := env.do(t, http.MethodPost, "/usuarios/logout", token, nil); rec.Code != http.StatusOK {
		t.Fatalf("logout: want=200 got=%d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/usuarios/perfil", token, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("profile after logout: want=401 got=%d", rec.Code)
	}
}

func TestAnswerSubmissionComputesCorrectness(t *testing.T) {
	env := newTestEnv(t)
	_, teacher := env.user(t, "Prof", "prof@escola.br", services.RoleTeacher)
	_, student := env.user(t, "Ana", "ana@escola.br", services.RoleStudent)
	rec := env.do(t, http.MethodPost, "/exercicios", teacher, exercisePayload())
	var created ExerciseResponse
	decodeBody(t, rec, &created)
	full, err := env.server.Exercises.Get(context.Background(), created.Exercicio.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	rec = env.do(t, http.MethodPost, "/respostas", student, map[string]interface{}{
		"id_exercicio":   created.Exercicio.ID,
		"id_alternativa": full.Alternativas[1].ID,
		"foi_correta":    false,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: want=201 got=%d body=%s", rec.Code, rec.Body.String())
	}
	var answer AnswerResponse
	decodeBody(t, rec, &answer)
	if !answer.Resposta.FoiCorreta {
		t.Fatalf("correctness must come from the stored alternative")
	}
}

func TestReportsAndExport(t *testing.T) {
	env := newTestEnv(t)
	_, admin := env.user(t, "Admin", "admin@escola.br", services.RoleAdmin)
	env.user(t, "Ana", "ana@escola.br", services.RoleStudent)

	rec := env.do(t, http.MethodGet, "/relatorios/usuarios?tipo=aluno", admin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("usuarios: want=200 got=%d body=%s", rec.Code, rec.Body.String())
	}
	var rows []map[string]interface{}
	decodeBody(t, rec, &rows)
	if len(rows) != 1 || rows[0]["nome"] != "Ana" {
		t.Fatalf("usuarios rows: got=%v", rows)
	}

	rec = env.do(t, http.MethodGet, "/relatorios/nao-existe", admin, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown report: want=404 got=%d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/relatorios/usuarios/export", admin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export: want=200 got=%d body=%s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Fatalf("content type: got=%q", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Fatalf("export is not a zip container")
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", "", nil)
	var body HealthResponse
	decodeBody(t, rec, &body)
	if rec.Code != http.StatusOK || body.Status != "ok" {
		t.Fatalf("health: got status=%d body=%+v", rec.Code, body)
	}

	_ = env.db.Close()
	rec = env.do(t, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("health with closed db: want=503 got=%d", rec.Code)
	}
}

func TestStatusSocketRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	_, student := env.user(t, "Ana", "ana@escola.br", services.RoleStudent)
	rec := env.do(t, http.MethodGet, "/ws/status?token="+student, "", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("student socket: want=403 got=%d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/ws/status", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous socket: want=401 got=%d", rec.Code)
	}
}

func TestListRequiresExercises(t *testing.T) {
	env := newTestEnv(t)
	_, teacher := env.user(t, "Prof", "prof@escola.br", services.RoleTeacher)

	rec := env.do(t, http.MethodPost, "/exercicios", teacher, exercisePayload())
	if rec.Code != http.StatusCreated {
		t.Fatalf("create exercise: want=201 got=%d body=%s", rec.Code, rec.Body.String())
	}
	var created ExerciseResponse
	decodeBody(t, rec, &created)

	bodies := []map[string]interface{}{
		{"titulo": "Vazia", "exercicios": []int64{}},
		{"titulo": "Sem campo"},
	}
	for _, b := range bodies {
		rec := env.do(t, http.MethodPost, "/listas", teacher, b)
		var body ErrorResponse
		decodeBody(t, rec, &body)
		if rec.Code != http.StatusBadRequest || body.Erro != services.CodeValidation {
			t.Fatalf("create %v: want 400 VALIDATION_ERROR got=%d %+v", b["titulo"], rec.Code, body)
		}
	}
	if n := env.count(t, "lista"); n != 0 {
		t.Fatalf("lista rows: want=0 got=%d", n)
	}

	rec = env.do(t, http.MethodPost, "/listas", teacher, map[string]interface{}{"titulo": "Cheia", "exercicios": []int64{created.Exercicio.ID}})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create list: want=201 got=%d body=%s", rec.Code, rec.Body.String())
	}
	var list MessageResponse
	decodeBody(t, rec, &list)

	rec = env.do(t, http.MethodPut, "/listas/"+itoa(list.ID), teacher, map[string]interface{}{"titulo": "Cheia", "exercicios": []int64{}})
	var body ErrorResponse
	decodeBody(t, rec, &body)
	if rec.Code != http.StatusBadRequest || body.Erro != services.CodeValidation {
		t.Fatalf("update empty: want 400 VALIDATION_ERROR got=%d %+v", rec.Code, body)
	}
}

func TestExerciseDifficultyBounds(t *testing.T) {
	env := newTestEnv(t)
	_, teacher := env.user(t, "Prof", "prof@escola.br", services.RoleTeacher)

	payload := exercisePayload()
	payload["dificuldade"] = 10
	rec := env.do(t, http.MethodPost, "/exercicios", teacher, payload)
	if rec.Code != http.StatusCreated {
		t.Fatalf("dificuldade 10: want=201 got=%d body=%s", rec.Code, rec.Body.String())
	}

	payload["dificuldade"] = 11
	rec = env.do(t, http.MethodPost, "/exercicios", teacher, payload)
	var body ErrorResponse
	decodeBody(t, rec, &body)
	if rec.Code != http.StatusBadRequest || body.Erro != services.CodeValidation {
		t.Fatalf("dificuldade 11: want 400 VALIDATION_ERROR got=%d %+v", rec.Code, body)
	}
	if n := env.count(t, "exercicio"); n != 1 {
		t.Fatalf("exercicio rows: want=1 got=%d", n)
	}
}

func TestAdminJoinIsNotEligible(t *testing.T) {
	env := newTestEnv(t)
	_, admin := env.user(t, "Admin", "admin@escola.br", services.RoleAdmin)

	rec := env.do(t, http.MethodPost, "/turmas", admin, map[string]string{"nome": "Física 1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create turma: want=201 got=%d body=%s", rec.Code, rec.Body.String())
	}
	var created CreateTurmaResponse
	decodeBody(t, rec, &created)

	rec = env.do(t, http.MethodPost, "/turmas/entrar", admin, map[string]string{"codigo_convite": created.CodigoConvite})
	var joined JoinResponse
	decodeBody(t, rec, &joined)
	if rec.Code != http.StatusBadRequest || joined.Sucesso || joined.Erro != services.CodeRoleNotEligible {
		t.Fatalf("admin join: got status=%d body=%+v", rec.Code, joined)
	}
	if n := env.count(t, "aluno_turma") + env.count(t, "professor_turma"); n != 0 {
		t.Fatalf("roster rows: want=0 got=%d", n)
	}
}
