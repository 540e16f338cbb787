package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("objeto não encontrado")
	ErrMalformedInput = errors.New("csv malformado")
	ErrMissingField   = errors.New("campo obrigatório ausente")
	ErrInvalidNumber  = errors.New("número inválido")
	ErrStore          = errors.New("falha no armazenamento")
	ErrInvalidKey     = errors.New("chave de objeto inválida")
	ErrInvalidFile    = errors.New("arquivo inválido")
)

// RowError reports a data error on a single CSV line.
type RowError struct {
	Line  int
	Field string
	Value string
	Err   error
}

func (e *RowError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("linha %d: %v: %s=%q", e.Line, e.Err, e.Field, e.Value)
	}
	return fmt.Sprintf("linha %d: %v: %s", e.Line, e.Err, e.Field)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// IsBadInput reports whether err was caused by the uploaded content or the
// requested name rather than by the backing services.
func IsBadInput(err error) bool {
	return errors.Is(err, ErrMalformedInput) ||
		errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrInvalidNumber) ||
		errors.Is(err, ErrInvalidKey) ||
		errors.Is(err, ErrInvalidFile)
}
