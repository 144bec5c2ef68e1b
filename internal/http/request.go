package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"edutech-backend-go/internal/services"
)

const maxBodyBytes = 1 << 20

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode reads a JSON body into dst and runs struct validation. The raw body
// is kept on the request so failures can be logged with it.
func (s *Server) decode(r *http.Request, dst interface{}) error {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return services.ErrValidation("Não foi possível ler o corpo da requisição.")
	}
	if info := infoFrom(r); info != nil {
		info.body = raw
	}
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return services.ErrValidation("JSON inválido.")
	}
	if err := s.Validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return services.ErrValidation("Dados inválidos.")
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return services.ErrValidation(fmt.Sprintf("O campo %s é obrigatório.", fe.Field()))
	case "email":
		return services.ErrValidation("Email inválido.")
	case "min", "max", "gte", "lte", "gt":
		return services.ErrValidation(fmt.Sprintf("O campo %s está fora do intervalo permitido.", fe.Field()))
	case "oneof":
		return services.ErrValidation(fmt.Sprintf("O campo %s deve ser um de: %s.", fe.Field(), fe.Param()))
	}
	return services.ErrValidation(fmt.Sprintf("O campo %s é inválido.", fe.Field()))
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, services.ErrValidation("ID inválido.")
	}
	return id, nil
}

func queryID(r *http.Request, name string) (*int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, services.ErrValidation(fmt.Sprintf("Parâmetro %s inválido.", name))
	}
	return &id, nil
}

func parseInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
