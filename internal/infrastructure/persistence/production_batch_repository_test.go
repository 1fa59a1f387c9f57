package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/genlab/backend/internal/domain/ledger"
	"github.com/genlab/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBatch(t *testing.T, clientID uuid.UUID, opuDate time.Time) *ledger.ProductionBatch {
	t.Helper()
	b, err := ledger.NewProductionBatch(ledger.BatchDetails{
		ClientID:  clientID,
		OpuDate:   opuDate,
		Place:     "Laboratorio",
		Farm:      "La Esperanza",
		Container: "Termo 1",
	})
	require.NoError(t, err)
	return b
}

func TestGormProductionBatchRepository_SQLite(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	repo := NewGormProductionBatchRepository(db)
	s := seedBull(t, db, "Cacique")
	input := seedInput(t, db, s, "100")

	o1 := seedOutput(t, db, input.ID, "5")
	o2 := seedOutput(t, db, input.ID, "3")

	batch := newBatch(t, s.ClientID, time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC))
	batch.Attach(o1.ID)
	require.NoError(t, repo.Create(ctx, batch))

	t.Run("loads output ids with the batch", func(t *testing.T) {
		got, err := repo.FindByIDForUpdate(ctx, batch.ID)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{o1.ID}, got.OutputIDs)
		assert.Equal(t, "La Esperanza", got.Farm)
	})

	t.Run("attach ignores existing links", func(t *testing.T) {
		require.NoError(t, repo.AttachOutputs(ctx, batch.ID, []uuid.UUID{o1.ID, o2.ID}))

		outputs, err := repo.FindOutputs(ctx, batch.ID)
		require.NoError(t, err)
		assert.Len(t, outputs, 2)
	})

	t.Run("opus rows belong to the batch", func(t *testing.T) {
		opus, err := ledger.NewOpus(batch, s.BullID, "D-1", "Gyr", time.Time{}, ledger.OpusCounts{TotalOocytes: 10, TotalEmbryos: 4})
		require.NoError(t, err)
		require.NoError(t, repo.CreateOpus(ctx, opus))

		rows, err := repo.FindOpus(ctx, batch.ID)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, 4, rows[0].TotalEmbryos)
	})

	t.Run("lists by client newest first", func(t *testing.T) {
		older := newBatch(t, s.ClientID, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC))
		require.NoError(t, repo.Create(ctx, older))
		require.NoError(t, repo.Create(ctx, newBatch(t, uuid.New(), time.Now())))

		batches, total, err := repo.FindByClient(ctx, s.ClientID, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, batches, 2)
		assert.Equal(t, batch.ID, batches[0].ID)
		assert.Len(t, batches[0].OutputIDs, 2)
		assert.Empty(t, batches[1].OutputIDs)
	})

	t.Run("teardown removes links, opus and the batch", func(t *testing.T) {
		n, err := repo.DetachOutputs(ctx, []uuid.UUID{o1.ID, o2.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		n, err = repo.DeleteOpusByBatch(ctx, batch.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		require.NoError(t, repo.Delete(ctx, batch.ID))

		_, err = repo.FindByID(ctx, batch.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, batch.ID), shared.ErrNotFound)
	})
}
