package model

import (
	"errors"
	"fmt"
)

// Kind é a categoria estável de erro exposta aos chamadores (HTTP, workers)
type Kind string

const (
	KindInvalidInput      Kind = "invalid_input"
	KindInvalidState      Kind = "invalid_state"
	KindPaymentMismatch   Kind = "payment_mismatch"
	KindGatewayError      Kind = "gateway_error"
	KindDataProviderError Kind = "data_provider_error"
	KindNotFound          Kind = "not_found"
)

// Sentinelas para uso com errors.Is
var (
	ErrInvalidInput      = &Error{Kind: KindInvalidInput}
	ErrInvalidState      = &Error{Kind: KindInvalidState}
	ErrPaymentMismatch   = &Error{Kind: KindPaymentMismatch}
	ErrGatewayError      = &Error{Kind: KindGatewayError}
	ErrDataProviderError = &Error{Kind: KindDataProviderError}
	ErrNotFound          = &Error{Kind: KindNotFound}
)

type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is compara só o Kind, então errors.Is(err, ErrInvalidState) funciona para qualquer op
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func E(op string, kind Kind, msg string) error {
	return &Error{Op: op, Kind: kind, Msg: msg}
}

func Wrap(op string, kind Kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

func Errorf(op string, kind Kind, format string, args ...any) error {
	return &Error{Op: op, Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf extrai o Kind de qualquer erro da cadeia; erros desconhecidos viram ""
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// ErrVersionConflict é devolvido pelos repositórios quando a versão gravada mudou
// entre a leitura e a escrita (outro processo venceu a corrida)
var ErrVersionConflict = errors.New("bet version conflict")
