package services

import (
	"context"
	"errors"
	"testing"
)

func TestRandomInviteCodeFormat(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := randomInviteCode()
		if err != nil {
			t.Fatalf("draw: %v", err)
		}
		if !ValidInviteCode(code) {
			t.Fatalf("invalid code drawn: %q", code)
		}
	}
}

func TestGenerateSkipsTakenCodes(t *testing.T) {
	draws := []string{"AAAAAAAA", "BBBBBBBB", "CCCCCCCC"}
	next := 0
	gen := InviteCodeGenerator{Random: func() (string, error) {
		code := draws[next]
		next++
		return code, nil
	}}
	taken := map[string]bool{"AAAAAAAA": true, "BBBBBBBB": true}

	code, err := gen.Generate(context.Background(), func(_ context.Context, c string) (bool, error) {
		return taken[c], nil
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if code != "CCCCCCCC" {
		t.Fatalf("code: want=%q got=%q", "CCCCCCCC", code)
	}
}

func TestGenerateGivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	gen := InviteCodeGenerator{MaxAttempts: 5}
	_, err := gen.Generate(context.Background(), func(context.Context, string) (bool, error) {
		calls++
		return true, nil
	})
	if !HasCode(err, CodeCodeSpaceExhausted) {
		t.Fatalf("want CODE_SPACE_EXHAUSTED got=%v", err)
	}
	if calls != 5 {
		t.Fatalf("attempts: want=5 got=%d", calls)
	}
}

func TestGeneratePropagatesLookupErrors(t *testing.T) {
	boom := errors.New("lookup failed")
	_, err := InviteCodeGenerator{}.Generate(context.Background(), func(context.Context, string) (bool, error) {
		return false, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("want lookup error got=%v", err)
	}
}

func TestValidInviteCode(t *testing.T) {
	cases := map[string]bool{
		"AB12CD34":  true,
		"ab12cd34":  false,
		"AB12CD3":   false,
		"AB12CD345": false,
		"AB12-D34":  false,
	}
	for code, want := range cases {
		if got := ValidInviteCode(code); got != want {
			t.Fatalf("%q: want=%v got=%v", code, want, got)
		}
	}
}
