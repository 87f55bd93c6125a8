package content

import (
	"errors"
	"fmt"
)

// Códigos de erro da aplicação.
const (
	EINVALID  = "invalid"
	ENOTFOUND = "not_found"
	EINTERNAL = "internal"
)

// Error é um erro de domínio com código.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("content error: code=%s message=%s", e.Code, e.Message)
}

// Errorf cria um Error com código e mensagem formatada.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// ErrorCode desembrulha o erro e retorna o código. Erros de fora do domínio
// viram EINTERNAL.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage retorna a mensagem do erro de domínio, ou uma mensagem genérica
// para qualquer outro erro (nunca vaza detalhe interno).
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}
