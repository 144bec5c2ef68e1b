package services

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const msgInvalidToken = "Token inválido."

// Session is the decoded identity carried by a bearer token.
type Session struct {
	UserID    int64
	Email     string
	Role      Role
	TokenID   string
	ExpiresAt time.Time
}

type TokenService struct {
	Secret     []byte
	Issuer     string
	TTL        time.Duration
	BcryptCost int
}

func (t TokenService) cost() int {
	if t.BcryptCost < bcrypt.DefaultCost {
		return bcrypt.DefaultCost
	}
	return t.BcryptCost
}

func (t TokenService) HashPassword(raw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), t.cost())
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (t TokenService) VerifyPassword(raw, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(raw)) == nil
}

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// burnPasswordCheck spends roughly the time of a real comparison so unknown
// emails and wrong passwords cannot be told apart by latency.
func (t TokenService) burnPasswordCheck(raw string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("edutech-dummy-password"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(raw))
}

// IssueSession signs a token for the user carrying {id, email, tipo}.
func (t TokenService) IssueSession(userID int64, email string, role Role) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(t.TTL)
	claims := jwt.MapClaims{
		"iss":   t.Issuer,
		"sub":   strconv.FormatInt(userID, 10),
		"typ":   "access",
		"jti":   uuid.NewString(),
		"id":    userID,
		"email": email,
		"tipo":  string(role),
		"iat":   now.Unix(),
		"exp":   exp.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.Secret)
	return signed, exp, err
}

func (t TokenService) ParseToken(tokenStr string) (*jwt.Token, jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return t.Secret, nil
	}, jwt.WithIssuer(t.Issuer), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	return token, claims, err
}

// ValidateSession verifies signature, issuer and expiry and decodes the
// session. Every failure is reported as the same Unauthorized error.
func (t TokenService) ValidateSession(tokenStr string) (Session, error) {
	if tokenStr == "" {
		return Session{}, ErrUnauthorized("Token não fornecido.")
	}
	token, claims, err := t.ParseToken(tokenStr)
	if err != nil || !token.Valid {
		return Session{}, invalidToken(err)
	}
	if claims["typ"] != "access" {
		return Session{}, invalidToken(errors.New("unexpected token type"))
	}
	rawID, ok := claims["id"].(float64)
	if !ok || rawID <= 0 {
		return Session{}, invalidToken(errors.New("missing id claim"))
	}
	tipo, _ := claims["tipo"].(string)
	role, ok := ParseRole(tipo)
	if !ok {
		return Session{}, invalidToken(errors.New("unknown tipo claim"))
	}
	email, _ := claims["email"].(string)
	jti, _ := claims["jti"].(string)
	session := Session{
		UserID:  int64(rawID),
		Email:   email,
		Role:    role,
		TokenID: jti,
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		session.ExpiresAt = exp.Time
	}
	return session, nil
}

func invalidToken(cause error) error {
	return ServiceError{Status: 401, Code: CodeUnauthorized, Message: msgInvalidToken, Err: cause}
}
