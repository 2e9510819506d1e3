package sequence

import (
	"errors"
	"testing"

	"github.com/and161185/pontofacil/internal/errs"
	"github.com/and161185/pontofacil/internal/model"
)

func kp(k model.Kind) *model.Kind { return &k }

func TestNext_Table(t *testing.T) {
	t.Parallel()

	cases := []struct {
		last *model.Kind
		want model.Kind
	}{
		{nil, model.KindEntrada},
		{kp(model.KindEntrada), model.KindIntervaloInicio},
		{kp(model.KindIntervaloInicio), model.KindIntervaloFim},
		{kp(model.KindIntervaloFim), model.KindSaida},
	}
	for _, c := range cases {
		got, err := Next(c.last)
		if err != nil || got != c.want {
			t.Fatalf("Next(%v): got=%q err=%v, want %q", c.last, got, err, c.want)
		}
	}

	if _, err := Next(kp(model.KindSaida)); !errors.Is(err, errs.ErrDayAlreadyClosed) {
		t.Fatalf("after saida: want ErrDayAlreadyClosed, got %v", err)
	}
	if _, err := Next(kp(model.Kind("bogus"))); !errors.Is(err, errs.ErrUnexpectedEventKind) {
		t.Fatalf("unknown last: want ErrUnexpectedEventKind, got %v", err)
	}
}

func TestAdmit_RejectsEverythingButNext(t *testing.T) {
	t.Parallel()

	lasts := []*model.Kind{nil, kp(model.KindEntrada), kp(model.KindIntervaloInicio), kp(model.KindIntervaloFim)}
	for _, last := range lasts {
		want, _ := Next(last)
		for _, k := range model.Kinds {
			err := Admit(last, k)
			if k == want {
				if err != nil {
					t.Fatalf("Admit(%v,%q): unexpected %v", last, k, err)
				}
				continue
			}
			var se *errs.SequenceError
			if !errors.As(err, &se) || se.Expected != want.String() {
				t.Fatalf("Admit(%v,%q): want SequenceError naming %q, got %v", last, k, want, err)
			}
		}
	}

	err := Admit(nil, model.KindSaida)
	if err == nil || err.Error() != "next punch must be entrada" {
		t.Fatalf("first punch saida: %v", err)
	}

	for _, k := range model.Kinds {
		if err := Admit(kp(model.KindSaida), k); !errors.Is(err, errs.ErrDayAlreadyClosed) {
			t.Fatalf("closed day must reject %q, got %v", k, err)
		}
	}
}
