package audit

import (
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"

	"github.com/and161185/pontofacil/internal/model"
)

func TestSnapshot_EncodeDecode(t *testing.T) {
	t.Parallel()

	acc := 12.5
	ev := model.ClockEvent{
		ID:         uuid.Must(uuid.NewV7()),
		UserID:     uuid.Must(uuid.NewV7()),
		Kind:       model.KindSaida,
		RecordedAt: time.Date(2025, 3, 10, 21, 0, 0, 0, time.UTC),
		Lat:        -23.5,
		Lng:        -46.6,
		AccuracyM:  &acc,
	}
	snap := ev.Snapshot()

	col, err := EncodeSnapshot(&snap)
	require.NoError(t, err)
	require.NotNil(t, col)

	m := DecodeSnapshot(col)
	require.Equal(t, "saida", m["tipo"])
	require.Equal(t, "2025-03-10T21:00:00Z", m["registrado_em"])
	require.Equal(t, 12.5, m["accuracy_m"])
	require.Nil(t, m["distancia_m"])
	require.Contains(t, m, "distancia_m")
}

func TestSnapshot_NilAndCorrupted(t *testing.T) {
	t.Parallel()

	col, err := EncodeSnapshot(nil)
	require.NoError(t, err)
	require.Nil(t, col)

	require.Nil(t, DecodeSnapshot(nil))
	empty := ""
	require.Nil(t, DecodeSnapshot(&empty))
	broken := `{"tipo": "entr`
	require.Nil(t, DecodeSnapshot(&broken))
	notObject := `[1,2]`
	require.Nil(t, DecodeSnapshot(&notObject))
}
