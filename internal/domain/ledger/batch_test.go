package ledger

import (
	"testing"
	"time"

	"github.com/genlab/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBatchDetails() BatchDetails {
	return BatchDetails{
		ClientID:  uuid.New(),
		OpuDate:   time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Place:     "Laboratorio",
		Farm:      "La Esperanza",
		StartTime: "08:30",
		EndTime:   "11:00",
		Container: "Termo 3",
	}
}

func TestNewProductionBatch(t *testing.T) {
	t.Run("derives transfer date", func(t *testing.T) {
		b, err := NewProductionBatch(validBatchDetails())
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), b.TransferDate)
	})

	t.Run("rejects malformed clock", func(t *testing.T) {
		d := validBatchDetails()
		d.StartTime = "8h"
		_, err := NewProductionBatch(d)
		requireCode(t, err, shared.CodeValidation)
	})

	t.Run("requires farm", func(t *testing.T) {
		d := validBatchDetails()
		d.Farm = " "
		_, err := NewProductionBatch(d)
		requireCode(t, err, shared.CodeValidation)
	})
}

func TestProductionBatch_Attach(t *testing.T) {
	b, err := NewProductionBatch(validBatchDetails())
	require.NoError(t, err)

	a, c := uuid.New(), uuid.New()
	assert.Equal(t, []uuid.UUID{a, c}, b.Attach(a, c))
	assert.Equal(t, []uuid.UUID{}, b.Attach(a))
	assert.Len(t, b.OutputIDs, 2)
}

func TestNewOpus(t *testing.T) {
	b, err := NewProductionBatch(validBatchDetails())
	require.NoError(t, err)

	t.Run("computes rates", func(t *testing.T) {
		o, err := NewOpus(b, uuid.New(), "D-17", "Gyr", time.Time{}, OpusCounts{
			TotalOocytes: 8, Cleaved: 6, TotalEmbryos: 3,
		})
		require.NoError(t, err)
		assert.Equal(t, b.OpuDate, o.Date)
		assert.Equal(t, b.ClientID, o.ClientID)
		assert.Equal(t, "75", o.CleavageRate().String())
		assert.Equal(t, "37.5", o.EmbryoRate().String())
	})

	t.Run("rejects negative counts", func(t *testing.T) {
		_, err := NewOpus(b, uuid.New(), "D-1", "", time.Time{}, OpusCounts{Viable: -1})
		requireCode(t, err, shared.CodeValidation)
	})

	t.Run("zero oocytes gives zero rate", func(t *testing.T) {
		o, err := NewOpus(b, uuid.New(), "D-2", "", time.Time{}, OpusCounts{})
		require.NoError(t, err)
		assert.True(t, o.EmbryoRate().IsZero())
	})
}
