package services

import (
	"context"
	"crypto/rand"
	"math/big"
)

const (
	InviteCodeLength   = 8
	InviteCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxInviteAttempts  = 50
)

// CodeExists reports whether a candidate invite code is already taken. It
// must run against the same transaction that will insert the code.
type CodeExists func(ctx context.Context, code string) (bool, error)

type InviteCodeGenerator struct {
	// Random draws one candidate. Defaults to crypto/rand over the alphabet.
	Random      func() (string, error)
	MaxAttempts int
}

func (g InviteCodeGenerator) Generate(ctx context.Context, exists CodeExists) (string, error) {
	draw := g.Random
	if draw == nil {
		draw = randomInviteCode
	}
	attempts := g.MaxAttempts
	if attempts <= 0 {
		attempts = maxInviteAttempts
	}
	for i := 0; i < attempts; i++ {
		candidate, err := draw()
		if err != nil {
			return "", err
		}
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", errCodeSpaceExhausted(attempts)
}

func randomInviteCode() (string, error) {
	max := big.NewInt(int64(len(InviteCodeAlphabet)))
	buf := make([]byte, InviteCodeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = InviteCodeAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// ValidInviteCode checks length and alphabet.
func ValidInviteCode(code string) bool {
	if len(code) != InviteCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
