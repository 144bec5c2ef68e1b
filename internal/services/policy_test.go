package services

import "testing"

func TestAuthorizePolicyTable(t *testing.T) {
	cases := []struct {
		op      Operation
		student bool
		teacher bool
		admin   bool
	}{
		{OpReadOwnProfile, true, true, true},
		{OpReadContent, true, true, true},
		{OpManageContent, false, true, true},
		{OpCreateTurma, false, true, true},
		{OpManageRoster, false, true, true},
		{OpViewReports, false, true, true},
		{OpManageUsers, false, false, true},
		{OpJoinTurma, true, true, false},
		{OpSubmitAnswer, true, true, true},
	}
	for _, tc := range cases {
		t.Run(tc.op.String(), func(t *testing.T) {
			if got := Authorize(RoleStudent, tc.op); got != tc.student {
				t.Fatalf("aluno: want=%v got=%v", tc.student, got)
			}
			if got := Authorize(RoleTeacher, tc.op); got != tc.teacher {
				t.Fatalf("professor: want=%v got=%v", tc.teacher, got)
			}
			if got := Authorize(RoleAdmin, tc.op); got != tc.admin {
				t.Fatalf("admin: want=%v got=%v", tc.admin, got)
			}
		})
	}
}

func TestAuthorizeDeniesUnknown(t *testing.T) {
	if Authorize(Role("root"), OpReadContent) {
		t.Fatalf("unknown role must be denied")
	}
	if Authorize(RoleAdmin, Operation(99)) {
		t.Fatalf("unknown operation must be denied")
	}
}

func TestCanManageTurma(t *testing.T) {
	if CanManageTurma(RoleTeacher, false) {
		t.Fatalf("teacher must not manage a class they do not teach")
	}
	if !CanManageTurma(RoleTeacher, true) {
		t.Fatalf("teacher must manage their own class")
	}
	if !CanManageTurma(RoleAdmin, false) {
		t.Fatalf("admin manages any class")
	}
	if CanManageTurma(RoleStudent, true) {
		t.Fatalf("student never manages rosters")
	}
}

func TestParseRole(t *testing.T) {
	if role, ok := ParseRole(" Professor "); !ok || role != RoleTeacher {
		t.Fatalf("parse professor: got=%q ok=%v", role, ok)
	}
	if _, ok := ParseRole("teacher"); ok {
		t.Fatalf("english role names are not stored values")
	}
}
