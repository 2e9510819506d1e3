package model

import (
	"fmt"

	"github.com/and161185/pontofacil/internal/errs"
)

// Kind is a punch type. The set is closed; ParseKind rejects anything else.
type Kind string

const (
	KindEntrada         Kind = "entrada"
	KindIntervaloInicio Kind = "intervalo_inicio"
	KindIntervaloFim    Kind = "intervalo_fim"
	KindSaida           Kind = "saida"
)

// Kinds lists every punch kind in workday order.
var Kinds = []Kind{KindEntrada, KindIntervaloInicio, KindIntervaloFim, KindSaida}

// ParseKind validates a wire value.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", errs.ErrInvalidKind, s)
	}
	return k, nil
}

// Valid reports whether k is one of the four punch kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindEntrada, KindIntervaloInicio, KindIntervaloFim, KindSaida:
		return true
	}
	return false
}

// IsBreak reports whether k opens or closes a break.
func (k Kind) IsBreak() bool {
	return k == KindIntervaloInicio || k == KindIntervaloFim
}

func (k Kind) String() string { return string(k) }
