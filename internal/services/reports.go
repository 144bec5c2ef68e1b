package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/xuri/excelize/v2"
)

// ReportRow is one row of a reporting view keyed by column name.
type ReportRow map[string]interface{}

type filterKind int

const (
	filterNone filterKind = iota
	filterInt
	filterRole
)

type reportView struct {
	View   string
	Order  string
	Filter string
	Kind   filterKind
}

// reportViews is the whitelist of views reachable by name, both as JSON and
// as spreadsheet export.
var reportViews = map[string]reportView{
	"dashboard":          {View: "vw_dashboard_geral"},
	"turmas":             {View: "vw_relatorio_turmas", Order: "nome"},
	"usuarios":           {View: "vw_relatorio_usuarios", Order: "tipo, nome", Filter: "tipo", Kind: filterRole},
	"listas":             {View: "vw_relatorio_listas", Order: "titulo", Filter: "id_turma", Kind: filterInt},
	"exercicios":         {View: "vw_relatorio_exercicios", Order: "dificuldade, titulo", Filter: "dificuldade", Kind: filterInt},
	"mapas":              {View: "vw_relatorio_mapas", Order: "titulo"},
	"alunos-turmas":      {View: "vw_relatorio_alunos_turmas", Order: "nome_turma, nome_aluno", Filter: "id_turma", Kind: filterInt},
	"professores-turmas": {View: "vw_relatorio_professores_turmas", Order: "nome_turma, nome_professor", Filter: "id_turma", Kind: filterInt},
	"exercicios-orfaos":  {View: "vw_exercicios_orfaos", Order: "id"},
	"listas-sem-turma":   {View: "vw_listas_sem_turma", Order: "id"},
}

// ReportNames lists the names accepted by View and Export.
func ReportNames() []string {
	names := make([]string, 0, len(reportViews))
	for name := range reportViews {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FilterParam is the query parameter a report accepts, or "".
func FilterParam(name string) string {
	return reportViews[name].Filter
}

type TurmaStatistics struct {
	ID               int64    `db:"id" json:"id"`
	NomeTurma        string   `db:"nome_turma" json:"nome_turma"`
	TotalAlunos      int64    `db:"total_alunos" json:"total_alunos"`
	TotalProfessores int64    `db:"total_professores" json:"total_professores"`
	TotalListas      int64    `db:"total_listas" json:"total_listas"`
	TotalExercicios  int64    `db:"total_exercicios" json:"total_exercicios"`
	DificuldadeMedia *float64 `db:"dificuldade_media" json:"dificuldade_media"`
	MapasUtilizados  int64    `db:"mapas_utilizados" json:"mapas_utilizados"`
}

type DifficultyBucket struct {
	Dificuldade int     `db:"dificuldade" json:"dificuldade"`
	Quantidade  int64   `db:"quantidade" json:"quantidade"`
	Percentual  float64 `db:"percentual" json:"percentual"`
}

type MapUsage struct {
	ID              int64  `db:"id" json:"id"`
	Titulo          string `db:"titulo" json:"titulo"`
	TotalExercicios int64  `db:"total_exercicios" json:"total_exercicios"`
	TotalListas     int64  `db:"total_listas" json:"total_listas"`
}

const DefaultTopMaps = 10

type ReportService struct {
	DB *sqlx.DB
}

func (s *ReportService) query(ctx context.Context, name, filter string) ([]string, [][]interface{}, error) {
	rv, ok := reportViews[name]
	if !ok {
		return nil, nil, ErrNotFound("Relatório não encontrado.")
	}
	query := "SELECT * FROM " + rv.View
	args := []interface{}{}
	filter = strings.TrimSpace(filter)
	if rv.Kind != filterNone && filter != "" {
		arg, err := filterArg(rv, filter)
		if err != nil {
			return nil, nil, err
		}
		query += " WHERE " + rv.Filter + " = ?"
		args = append(args, arg)
	}
	if rv.Order != "" {
		query += " ORDER BY " + rv.Order
	}
	rows, err := s.DB.QueryxContext(ctx, s.DB.Rebind(query), args...)
	if err != nil {
		return nil, nil, storageError("query "+rv.View, err)
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, storageError("columns "+rv.View, err)
	}
	out := [][]interface{}{}
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, nil, storageError("scan "+rv.View, err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		out = append(out, values)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, storageError("iterate "+rv.View, err)
	}
	return cols, out, nil
}

func filterArg(rv reportView, raw string) (interface{}, error) {
	switch rv.Kind {
	case filterInt:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, ErrValidation(fmt.Sprintf("Parâmetro %s inválido.", rv.Filter))
		}
		return v, nil
	case filterRole:
		role, ok := ParseRole(raw)
		if !ok {
			return nil, ErrValidation("Tipo de usuário inválido.")
		}
		return string(role), nil
	}
	return raw, nil
}

// View reads a whitelisted reporting view. filter applies to the view's
// filter column when it has one and is otherwise ignored.
func (s *ReportService) View(ctx context.Context, name, filter string) ([]ReportRow, error) {
	cols, rows, err := s.query(ctx, name, filter)
	if err != nil {
		return nil, err
	}
	items := make([]ReportRow, 0, len(rows))
	for _, values := range rows {
		row := make(ReportRow, len(cols))
		for i, col := range cols {
			row[col] = values[i]
		}
		items = append(items, row)
	}
	return items, nil
}

func (s *ReportService) Dashboard(ctx context.Context) (ReportRow, error) {
	rows, err := s.View(ctx, "dashboard", "")
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return ReportRow{}, nil
	}
	return rows[0], nil
}

func (s *ReportService) TurmaStatistics(ctx context.Context, turmaID int64) (TurmaStatistics, error) {
	var out TurmaStatistics
	err := s.DB.GetContext(ctx, &out, s.DB.Rebind(`
SELECT
  t.id,
  t.nome AS nome_turma,
  COUNT(DISTINCT at.id_usuario) AS total_alunos,
  COUNT(DISTINCT pt.id_usuario) AS total_professores,
  COUNT(DISTINCT l.id) AS total_listas,
  COUNT(DISTINCT le.id_exercicio) AS total_exercicios,
  ROUND(AVG(e.dificuldade), 2) AS dificuldade_media,
  COUNT(DISTINCT m.id) AS mapas_utilizados
FROM turma t
LEFT JOIN aluno_turma at ON at.id_turma = t.id
LEFT JOIN professor_turma pt ON pt.id_turma = t.id
LEFT JOIN lista l ON l.id_turma = t.id
LEFT JOIN lista_exercicio le ON le.id_lista = l.id
LEFT JOIN exercicio e ON e.id = le.id_exercicio
LEFT JOIN mapa m ON m.id = e.id_mapa
WHERE t.id = ?
GROUP BY t.id, t.nome
`), turmaID)
	if errors.Is(err, sql.ErrNoRows) {
		return out, ErrNotFound(msgTurmaNotFound)
	}
	if err != nil {
		return out, storageError("turma statistics", err)
	}
	return out, nil
}

func (s *ReportService) DifficultyDistribution(ctx context.Context) ([]DifficultyBucket, error) {
	items := []DifficultyBucket{}
	err := s.DB.SelectContext(ctx, &items, `
SELECT
  dificuldade,
  COUNT(*) AS quantidade,
  ROUND(COUNT(*) * 100.0 / (SELECT COUNT(*) FROM exercicio), 2) AS percentual
FROM exercicio
GROUP BY dificuldade
ORDER BY dificuldade
`)
	if err != nil {
		return nil, storageError("difficulty distribution", err)
	}
	return items, nil
}

// TopMaps ranks maps that are used by at least one exercise.
func (s *ReportService) TopMaps(ctx context.Context, limit int) ([]MapUsage, error) {
	if limit <= 0 {
		limit = DefaultTopMaps
	}
	items := []MapUsage{}
	err := s.DB.SelectContext(ctx, &items, s.DB.Rebind(`
SELECT
  m.id,
  m.titulo,
  COUNT(DISTINCT e.id) AS total_exercicios,
  COUNT(DISTINCT le.id_lista) AS total_listas
FROM mapa m
LEFT JOIN exercicio e ON e.id_mapa = m.id
LEFT JOIN lista_exercicio le ON le.id_exercicio = e.id
GROUP BY m.id, m.titulo
HAVING COUNT(DISTINCT e.id) > 0
ORDER BY total_exercicios DESC, total_listas DESC, m.id
LIMIT ?
`), limit)
	if err != nil {
		return nil, storageError("top mapas", err)
	}
	return items, nil
}

// Export renders a reporting view as a one-sheet workbook with a header row
// of column names.
func (s *ReportService) Export(ctx context.Context, name, filter string) (*excelize.File, error) {
	cols, rows, err := s.query(ctx, name, filter)
	if err != nil {
		return nil, err
	}
	f := excelize.NewFile()
	sheet := name
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	header := make([]interface{}, len(cols))
	for i, col := range cols {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i, values := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		row := values
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	return f, nil
}
