package models

import "time"

type User struct {
	ID       int64     `db:"id" json:"id"`
	Nome     string    `db:"nome" json:"nome"`
	Email    string    `db:"email" json:"email"`
	Senha    string    `db:"senha" json:"-"`
	Tipo     string    `db:"tipo" json:"tipo"`
	CriadoEm time.Time `db:"criado_em" json:"criado_em"`
}

type Turma struct {
	ID            int64     `db:"id" json:"id"`
	Nome          string    `db:"nome" json:"nome"`
	CodigoConvite string    `db:"codigo_convite" json:"codigo_convite"`
	CriadoEm      time.Time `db:"criado_em" json:"criado_em"`
}

// TurmaSummary is a turma with live roster and list counts.
type TurmaSummary struct {
	ID               int64  `db:"id" json:"id"`
	Nome             string `db:"nome" json:"nome"`
	CodigoConvite    string `db:"codigo_convite" json:"codigo_convite"`
	TotalAlunos      int64  `db:"total_alunos" json:"total_alunos"`
	TotalProfessores int64  `db:"total_professores" json:"total_professores"`
	TotalListas      int64  `db:"total_listas" json:"total_listas"`
}

type RosterMember struct {
	ID    int64  `db:"id" json:"id"`
	Nome  string `db:"nome" json:"nome"`
	Email string `db:"email" json:"email"`
	Tipo  string `db:"tipo" json:"tipo"`
}

type Mapa struct {
	ID        int64   `db:"id" json:"id"`
	Titulo    string  `db:"titulo" json:"titulo"`
	Dica      *string `db:"dica" json:"dica"`
	Descricao *string `db:"descricao" json:"descricao"`
	Caminho   *string `db:"caminho" json:"caminho"`
}

type Exercicio struct {
	ID          int64     `db:"id" json:"id"`
	Titulo      string    `db:"titulo" json:"titulo"`
	Enunciado   string    `db:"enunciado" json:"enunciado"`
	Dificuldade int       `db:"dificuldade" json:"dificuldade"`
	IDMapa      *int64    `db:"id_mapa" json:"id_mapa"`
	CriadoEm    time.Time `db:"criado_em" json:"criado_em"`
}

type ExercicioResumo struct {
	ID          int64  `db:"id" json:"id"`
	Titulo      string `db:"titulo" json:"titulo"`
	Dificuldade int    `db:"dificuldade" json:"dificuldade"`
}

type Alternativa struct {
	ID          int64  `db:"id" json:"id"`
	IDExercicio int64  `db:"id_exercicio" json:"id_exercicio"`
	Descricao   string `db:"descricao" json:"descricao"`
	Correta     bool   `db:"correta" json:"correta"`
}

// ExercicioCompleto is the composite read of an exercise and its alternatives.
type ExercicioCompleto struct {
	Exercicio
	Alternativas []Alternativa `json:"alternativas"`
}

type Lista struct {
	ID        int64     `db:"id" json:"id"`
	Titulo    string    `db:"titulo" json:"titulo"`
	Descricao *string   `db:"descricao" json:"descricao"`
	IDTurma   *int64    `db:"id_turma" json:"id_turma"`
	CriadoEm  time.Time `db:"criado_em" json:"criado_em"`
}

type ListaResumo struct {
	ID              int64   `db:"id" json:"id"`
	Titulo          string  `db:"titulo" json:"titulo"`
	Descricao       *string `db:"descricao" json:"descricao"`
	IDTurma         *int64  `db:"id_turma" json:"id_turma"`
	TotalExercicios int64   `db:"total_exercicios" json:"total_exercicios"`
}

type ListaCompleta struct {
	Lista
	Exercicios []ExercicioResumo `json:"exercicios"`
}

type Resposta struct {
	ID            int64     `db:"id" json:"id"`
	IDUsuario     int64     `db:"id_usuario" json:"id_usuario"`
	IDExercicio   int64     `db:"id_exercicio" json:"id_exercicio"`
	IDAlternativa *int64    `db:"id_alternativa" json:"id_alternativa"`
	FoiCorreta    bool      `db:"foi_correta" json:"foi_correta"`
	DataResolucao time.Time `db:"data_resolucao" json:"data_resolucao"`
}
