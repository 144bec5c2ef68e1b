package services

import (
	"context"
	"testing"
)

func TestCreateTurmaCodeFormatAndUniqueness(t *testing.T) {
	conn := openTestDB(t)
	turmas := &TurmaService{DB: conn}
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		turma, err := turmas.Create(ctx, "Turma", 0, RoleAdmin)
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if !ValidInviteCode(turma.CodigoConvite) {
			t.Fatalf("invalid code: %q", turma.CodigoConvite)
		}
		if seen[turma.CodigoConvite] {
			t.Fatalf("duplicate code: %q", turma.CodigoConvite)
		}
		seen[turma.CodigoConvite] = true
	}
}

func TestCreateTurmaRetriesTakenCode(t *testing.T) {
	conn := openTestDB(t)
	draws := []string{"AAAAAAAA", "AAAAAAAA", "BBBBBBBB"}
	next := 0
	turmas := &TurmaService{DB: conn, Invites: InviteCodeGenerator{Random: func() (string, error) {
		code := draws[next]
		next++
		return code, nil
	}}}
	ctx := context.Background()

	first, err := turmas.Create(ctx, "A", 0, RoleAdmin)
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := turmas.Create(ctx, "B", 0, RoleAdmin)
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if first.CodigoConvite != "AAAAAAAA" || second.CodigoConvite != "BBBBBBBB" {
		t.Fatalf("codes: got first=%q second=%q", first.CodigoConvite, second.CodigoConvite)
	}
}

func TestCreateTurmaEnrollsTeacherCreator(t *testing.T) {
	conn := openTestDB(t)
	users := &UserService{DB: conn, Tokens: testTokens()}
	turmas := &TurmaService{DB: conn}
	ctx := context.Background()
	teacher := mustRegister(t, users, "Prof", "prof@escola.br", RoleTeacher)

	turma, err := turmas.Create(ctx, "Física 1", teacher, RoleTeacher)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	teaches, err := turmas.Teaches(ctx, turma.ID, teacher)
	if err != nil {
		t.Fatalf("teaches: %v", err)
	}
	if !teaches {
		t.Fatalf("creator should be on the teacher roster")
	}
	mine, err := turmas.ForUser(ctx, teacher, RoleTeacher)
	if err != nil {
		t.Fatalf("for user: %v", err)
	}
	if len(mine) != 1 || mine[0].TotalProfessores != 1 {
		t.Fatalf("my turmas: got=%+v", mine)
	}
}

func TestAddMemberIsIdempotent(t *testing.T) {
	conn := openTestDB(t)
	users := &UserService{DB: conn, Tokens: testTokens()}
	turmas := &TurmaService{DB: conn}
	ctx := context.Background()
	student := mustRegister(t, users, "Ana", "ana@escola.br", RoleStudent)
	turma, err := turmas.Create(ctx, "Física 1", 0, RoleAdmin)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	outcome, err := turmas.AddMember(ctx, turma.ID, student, RoleStudent)
	if err != nil || outcome != RosterAdded {
		t.Fatalf("first add: want=RosterAdded got=%v err=%v", outcome, err)
	}
	outcome, err = turmas.AddMember(ctx, turma.ID, student, RoleStudent)
	if err != nil || outcome != RosterAlreadyMember {
		t.Fatalf("second add: want=RosterAlreadyMember got=%v err=%v", outcome, err)
	}
	if got := countRows(t, conn, "aluno_turma"); got != 1 {
		t.Fatalf("aluno_turma rows: want=1 got=%d", got)
	}
}

func TestAddMemberChecksRole(t *testing.T) {
	conn := openTestDB(t)
	users := &UserService{DB: conn, Tokens: testTokens()}
	turmas := &TurmaService{DB: conn}
	ctx := context.Background()
	student := mustRegister(t, users, "Ana", "ana@escola.br", RoleStudent)
	turma, err := turmas.Create(ctx, "Física 1", 0, RoleAdmin)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	outcome, err := turmas.AddMember(ctx, turma.ID, student, RoleTeacher)
	if err != nil || outcome != RosterRoleMismatch {
		t.Fatalf("want=RosterRoleMismatch got=%v err=%v", outcome, err)
	}
	outcome, err = turmas.AddMember(ctx, turma.ID, 9999, RoleStudent)
	if err != nil || outcome != RosterUserNotFound {
		t.Fatalf("want=RosterUserNotFound got=%v err=%v", outcome, err)
	}
	if _, err := turmas.AddMember(ctx, 9999, student, RoleStudent); !HasCode(err, CodeNotFound) {
		t.Fatalf("missing turma: want NOT_FOUND got=%v", err)
	}
	if got := countRows(t, conn, "professor_turma"); got != 0 {
		t.Fatalf("professor_turma rows: want=0 got=%d", got)
	}
}

func TestRemoveMember(t *testing.T) {
	conn := openTestDB(t)
	users := &UserService{DB: conn, Tokens: testTokens()}
	turmas := &TurmaService{DB: conn}
	ctx := context.Background()
	student := mustRegister(t, users, "Ana", "ana@escola.br", RoleStudent)
	turma, err := turmas.Create(ctx, "Física 1", 0, RoleAdmin)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := turmas.AddMember(ctx, turma.ID, student, RoleStudent); err != nil {
		t.Fatalf("add: %v", err)
	}
	members, err := turmas.Members(ctx, turma.ID, RoleStudent)
	if err != nil || len(members) != 1 {
		t.Fatalf("members: want=1 got=%d err=%v", len(members), err)
	}
	if err := turmas.RemoveMember(ctx, turma.ID, student, RoleStudent); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := turmas.RemoveMember(ctx, turma.ID, student, RoleStudent); !HasCode(err, CodeNotFound) {
		t.Fatalf("second remove: want NOT_FOUND got=%v", err)
	}
}

func TestJoinOutcomes(t *testing.T) {
	conn := openTestDB(t)
	users := &UserService{DB: conn, Tokens: testTokens()}
	turmas := &TurmaService{DB: conn}
	ctx := context.Background()
	student := mustRegister(t, users, "Ana", "ana@escola.br", RoleStudent)
	admin := mustRegister(t, users, "Admin", "admin@escola.br", RoleAdmin)
	turma, err := turmas.Create(ctx, "Física 1", 0, RoleAdmin)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err := turmas.Join(ctx, "ZZZZZZZZ", student, RoleStudent)
	if err != nil {
		t.Fatalf("join invalid: %v", err)
	}
	if res.Outcome != JoinInvalidCode || res.Mensagem != "Código de convite inválido." {
		t.Fatalf("invalid code: got=%+v", res)
	}

	res, err = turmas.Join(ctx, turma.CodigoConvite, admin, RoleAdmin)
	if err != nil {
		t.Fatalf("join admin: %v", err)
	}
	if res.Outcome != JoinRoleNotEligible || res.Sucesso() {
		t.Fatalf("admin join: got=%+v", res)
	}

	res, err = turmas.Join(ctx, " "+turma.CodigoConvite+" ", student, RoleStudent)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if !res.Sucesso() || res.IDTurma != turma.ID {
		t.Fatalf("join: got=%+v", res)
	}

	res, err = turmas.Join(ctx, turma.CodigoConvite, student, RoleStudent)
	if err != nil {
		t.Fatalf("join again: %v", err)
	}
	if res.Outcome != JoinAlreadyMember || res.Mensagem != "Você já está nesta turma." {
		t.Fatalf("join again: got=%+v", res)
	}
	if res.Code() != CodeAlreadyMember {
		t.Fatalf("code: want=%s got=%s", CodeAlreadyMember, res.Code())
	}
	if got := countRows(t, conn, "aluno_turma"); got != 1 {
		t.Fatalf("aluno_turma rows: want=1 got=%d", got)
	}
}

func TestDeleteTurmaCascades(t *testing.T) {
	conn := openTestDB(t)
	users := &UserService{DB: conn, Tokens: testTokens()}
	turmas := &TurmaService{DB: conn}
	lists := &ListService{DB: conn}
	ctx := context.Background()
	teacher := mustRegister(t, users, "Prof", "prof@escola.br", RoleTeacher)
	turma, err := turmas.Create(ctx, "Física 1", teacher, RoleTeacher)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, email := range []string{"ana@escola.br", "bia@escola.br"} {
		id := mustRegister(t, users, "Aluno", email, RoleStudent)
		if _, err := turmas.AddMember(ctx, turma.ID, id, RoleStudent); err != nil {
			t.Fatalf("add %s: %v", email, err)
		}
	}
	listID, err := lists.Create(ctx, ListInput{Titulo: "Lista 1", IDTurma: &turma.ID})
	if err != nil {
		t.Fatalf("create list: %v", err)
	}
	summary, err := turmas.Get(ctx, turma.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if summary.TotalAlunos != 2 || summary.TotalProfessores != 1 || summary.TotalListas != 1 {
		t.Fatalf("summary: got=%+v", summary)
	}

	if err := turmas.Delete(ctx, turma.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	for _, table := range []string{"turma", "aluno_turma", "professor_turma"} {
		if got := countRows(t, conn, table); got != 0 {
			t.Fatalf("%s rows: want=0 got=%d", table, got)
		}
	}
	list, err := lists.Get(ctx, listID)
	if err != nil {
		t.Fatalf("list survives: %v", err)
	}
	if list.IDTurma != nil {
		t.Fatalf("list id_turma: want=nil got=%v", *list.IDTurma)
	}
	if err := turmas.Delete(ctx, turma.ID); !HasCode(err, CodeNotFound) {
		t.Fatalf("second delete: want NOT_FOUND got=%v", err)
	}
}
