// Package sequence holds the strict punch order of a workday:
// entrada -> intervalo_inicio -> intervalo_fim -> saida.
package sequence

import (
	"fmt"

	"github.com/and161185/pontofacil/internal/errs"
	"github.com/and161185/pontofacil/internal/model"
)

var next = map[model.Kind]model.Kind{
	model.KindEntrada:         model.KindIntervaloInicio,
	model.KindIntervaloInicio: model.KindIntervaloFim,
	model.KindIntervaloFim:    model.KindSaida,
}

// Next returns the only kind accepted after last (nil when the day has no punch yet).
// It fails with errs.ErrDayAlreadyClosed after saida.
func Next(last *model.Kind) (model.Kind, error) {
	if last == nil {
		return model.KindEntrada, nil
	}
	if *last == model.KindSaida {
		return "", errs.ErrDayAlreadyClosed
	}
	k, ok := next[*last]
	if !ok {
		return "", fmt.Errorf("%w: last punch has kind %q", errs.ErrUnexpectedEventKind, *last)
	}
	return k, nil
}

// Admit checks an explicitly requested kind against the table.
func Admit(last *model.Kind, requested model.Kind) error {
	want, err := Next(last)
	if err != nil {
		return err
	}
	if requested != want {
		return &errs.SequenceError{Expected: want.String()}
	}
	return nil
}
