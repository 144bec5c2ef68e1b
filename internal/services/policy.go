package services

import "strings"

// Role is the stored value of usuario.tipo.
type Role string

const (
	RoleStudent Role = "aluno"
	RoleTeacher Role = "professor"
	RoleAdmin   Role = "admin"
)

func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleStudent:
		return RoleStudent, true
	case RoleTeacher:
		return RoleTeacher, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

type Operation int

const (
	OpReadOwnProfile Operation = iota
	OpReadContent
	OpManageContent
	OpCreateTurma
	OpManageRoster
	OpViewReports
	OpManageUsers
	OpJoinTurma
	OpSubmitAnswer
)

var operationNames = map[Operation]string{
	OpReadOwnProfile: "read_own_profile",
	OpReadContent:    "read_content",
	OpManageContent:  "manage_content",
	OpCreateTurma:    "create_turma",
	OpManageRoster:   "manage_roster",
	OpViewReports:    "view_reports",
	OpManageUsers:    "manage_users",
	OpJoinTurma:      "join_turma",
	OpSubmitAnswer:   "submit_answer",
}

func (op Operation) String() string {
	if name, ok := operationNames[op]; ok {
		return name
	}
	return "unknown"
}

var policy = map[Operation]map[Role]bool{
	OpReadOwnProfile: {RoleStudent: true, RoleTeacher: true, RoleAdmin: true},
	OpReadContent:    {RoleStudent: true, RoleTeacher: true, RoleAdmin: true},
	OpManageContent:  {RoleTeacher: true, RoleAdmin: true},
	OpCreateTurma:    {RoleTeacher: true, RoleAdmin: true},
	OpManageRoster:   {RoleTeacher: true, RoleAdmin: true},
	OpViewReports:    {RoleTeacher: true, RoleAdmin: true},
	OpManageUsers:    {RoleAdmin: true},
	OpJoinTurma:      {RoleStudent: true, RoleTeacher: true},
	OpSubmitAnswer:   {RoleStudent: true, RoleTeacher: true, RoleAdmin: true},
}

// Authorize is the role gate. Unknown roles and operations are denied.
func Authorize(role Role, op Operation) bool {
	return policy[op][role]
}

// CanManageTurma narrows OpManageRoster: teachers only manage classes they
// teach, admins manage any class.
func CanManageTurma(role Role, teachesTurma bool) bool {
	if !Authorize(role, OpManageRoster) {
		return false
	}
	return role == RoleAdmin || teachesTurma
}
