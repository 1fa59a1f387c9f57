package handler

import (
	"net/http"
	"testing"

	appledger "github.com/genlab/backend/internal/application/ledger"
	"github.com/genlab/backend/internal/domain/ledger"
	"github.com/genlab/backend/internal/domain/shared/valueobject"
	"github.com/genlab/backend/internal/interfaces/http/dto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputHandler_Create(t *testing.T) {
	s := newTestServer(t)
	clientID, bullID := s.seedBull("toro")

	input := s.createInput(bullID, "10.5")

	assert.Equal(t, bullID, input.BullID)
	assert.Equal(t, clientID, input.UserID, "input belongs to the bull owner")
	assert.True(t, input.QuantityReceived.Equals(valueobject.MustQuantity("10.50")))
	assert.True(t, input.Total.Equals(valueobject.MustQuantity("10.50")))
	assert.Equal(t, "pending", input.Status)
	assert.Equal(t, "L-1", input.Lot)
	assert.Equal(t, ledger.DefaultLocation, input.Escalarilla)
}

func TestInputHandler_CreateWithOpeningBalance(t *testing.T) {
	s := newTestServer(t)
	_, bullID := s.seedBull("toro")

	rec := s.do(http.MethodPost, "/inputs", map[string]any{
		"bull_id":           bullID,
		"quantity_received": 10,
		"quantity_taken":    "4",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	input := decode[appledger.InputResponse](t, rec).Data

	assert.Equal(t, "processing", input.Status)
	assert.True(t, input.Total.Equals(valueobject.MustQuantity("6")))

	outputs := decode[[]appledger.OutputResponse](t, s.do(http.MethodGet, "/inputs/"+input.ID.String()+"/outputs", nil)).Data
	require.Len(t, outputs, 1)
	assert.True(t, outputs[0].QuantityOutput.Equals(valueobject.MustQuantity("4")))
}

func TestInputHandler_CreateValidation(t *testing.T) {
	s := newTestServer(t)
	_, bullID := s.seedBull("toro")

	tests := []struct {
		name  string
		body  any
		field string
	}{
		{"missing quantity", map[string]any{"bull_id": bullID}, "quantity_received"},
		{"three decimals", map[string]any{"bull_id": bullID, "quantity_received": "1.005"}, "quantity_received"},
		{"negative", map[string]any{"bull_id": bullID, "quantity_received": "-1"}, "quantity_received"},
		{"beyond storage precision", map[string]any{"bull_id": bullID, "quantity_received": "100000000"}, "quantity_received"},
		{"missing bull", map[string]any{"quantity_received": "1"}, "bull_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, "/inputs", tt.body)
			env := decode[any](t, rec)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)
			assert.Contains(t, env.Error.Details, tt.field)
			assert.NotEmpty(t, env.Error.RequestID)
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/inputs", `{"bull_id":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, dto.ErrCodeBadRequest, decode[any](t, rec).Error.Code)
	})

	t.Run("unknown bull", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/inputs", map[string]any{"bull_id": uuid.New(), "quantity_received": "1"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestInputHandler_CreateRequiresElevatedActor(t *testing.T) {
	s := newTestServer(t)
	clientID, bullID := s.seedBull("toro")
	s.actor = ledger.Actor{UserID: clientID}

	rec := s.do(http.MethodPost, "/inputs", map[string]any{"bull_id": bullID, "quantity_received": "1"})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, dto.ErrCodeForbidden, decode[any](t, rec).Error.Code)
}

func TestInputHandler_Unauthenticated(t *testing.T) {
	s := newTestServer(t)
	s.actor = ledger.Actor{}

	rec := s.do(http.MethodGet, "/inputs", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestInputHandler_GetByID(t *testing.T) {
	s := newTestServer(t)
	clientID, bullID := s.seedBull("toro")
	input := s.createInput(bullID, "5")

	t.Run("owner can read", func(t *testing.T) {
		s.actor = ledger.Actor{UserID: clientID}
		rec := s.do(http.MethodGet, "/inputs/"+input.ID.String(), nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, input.ID, decode[appledger.InputResponse](t, rec).Data.ID)
	})

	t.Run("other client is forbidden", func(t *testing.T) {
		s.actor = ledger.Actor{UserID: uuid.New()}
		rec := s.do(http.MethodGet, "/inputs/"+input.ID.String(), nil)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unknown id", func(t *testing.T) {
		s.actor = ledger.Actor{UserID: uuid.New(), Elevated: true}
		rec := s.do(http.MethodGet, "/inputs/"+uuid.NewString(), nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, dto.ErrCodeNotFound, decode[any](t, rec).Error.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/inputs/not-a-uuid", nil)

		env := decode[any](t, rec)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "id", env.Error.Details["field"])
	})
}

func TestInputHandler_Delete(t *testing.T) {
	s := newTestServer(t)
	clientID, bullID := s.seedBull("toro")
	untouched := s.createInput(bullID, "5")
	used := s.createInput(bullID, "5")
	require.Equal(t, http.StatusCreated, s.createOutput(used.ID, "1").Code)

	t.Run("other client is forbidden", func(t *testing.T) {
		s.actor = ledger.Actor{UserID: uuid.New()}
		rec := s.do(http.MethodDelete, "/inputs/"+untouched.ID.String(), nil)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("input with withdrawals is kept", func(t *testing.T) {
		s.actor = ledger.Actor{UserID: uuid.New(), Elevated: true}
		rec := s.do(http.MethodDelete, "/inputs/"+used.ID.String(), nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, dto.ErrCodeValidation, decode[any](t, rec).Error.Code)
		assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/inputs/"+used.ID.String(), nil).Code)
	})

	t.Run("owner deletes an untouched input", func(t *testing.T) {
		s.actor = ledger.Actor{UserID: clientID}
		rec := s.do(http.MethodDelete, "/inputs/"+untouched.ID.String(), nil)
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, "/inputs/"+untouched.ID.String(), nil).Code)
	})
}

func TestInputHandler_UpdateRejectsReductionBelowTaken(t *testing.T) {
	s := newTestServer(t)
	_, bullID := s.seedBull("toro")
	input := s.createInput(bullID, "10")
	require.Equal(t, http.StatusCreated, s.createOutput(input.ID, "6").Code)

	rec := s.do(http.MethodPut, "/inputs/"+input.ID.String(), map[string]any{"quantity_received": "5"})
	env := decode[any](t, rec)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, dto.ErrCodeInvalidReduction, env.Error.Code)
	assert.Equal(t, "6.00", env.Error.Details["minimum_received"])

	rec = s.do(http.MethodPut, "/inputs/"+input.ID.String(), map[string]any{"quantity_received": "6", "lot": "L-2"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[appledger.InputResponse](t, rec).Data
	assert.Equal(t, "completed", updated.Status)
	assert.Equal(t, "L-2", updated.Lot)
	assert.True(t, updated.Total.IsZero())
}

func TestInputHandler_ChangeStatus(t *testing.T) {
	s := newTestServer(t)
	_, bullID := s.seedBull("toro")
	input := s.createInput(bullID, "10")
	path := "/inputs/" + input.ID.String() + "/status"

	t.Run("unknown status", func(t *testing.T) {
		rec := s.do(http.MethodPatch, path, map[string]any{"status": "archived"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("derived status cannot be set", func(t *testing.T) {
		rec := s.do(http.MethodPatch, path, map[string]any{"status": "completed"})
		env := decode[any](t, rec)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, dto.ErrCodeInvalidStatusTransition, env.Error.Code)
		assert.Equal(t, "completed", env.Error.Details["to"])
	})

	t.Run("cancel unused input", func(t *testing.T) {
		rec := s.do(http.MethodPatch, path, map[string]any{"status": "cancelled"})

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "cancelled", decode[appledger.InputResponse](t, rec).Data.Status)
	})

	t.Run("cancelled input takes no withdrawals", func(t *testing.T) {
		rec := s.createOutput(input.ID, "1")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestInputHandler_SearchAndListByBull(t *testing.T) {
	s := newTestServer(t)
	clientA, bullA := s.seedBull("alfa")
	_, bullB := s.seedBull("bravo")
	s.createInput(bullA, "1")
	s.createInput(bullA, "2")
	s.createInput(bullB, "3")

	t.Run("elevated sees every input", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/inputs?page_size=2", nil)
		env := decode[[]appledger.InputResponse](t, rec)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, env.Data, 2)
		require.NotNil(t, env.Meta)
		assert.EqualValues(t, 3, env.Meta.Total)
		assert.Equal(t, 2, env.Meta.TotalPages)
	})

	t.Run("client sees own inputs", func(t *testing.T) {
		s.actor = ledger.Actor{UserID: clientA}
		defer func() { s.actor = ledger.Actor{UserID: uuid.New(), Elevated: true} }()

		env := decode[[]appledger.InputResponse](t, s.do(http.MethodGet, "/inputs", nil))
		assert.EqualValues(t, 2, env.Meta.Total)
		for _, in := range env.Data {
			assert.Equal(t, clientA, in.UserID)
		}
	})

	t.Run("status filter", func(t *testing.T) {
		env := decode[[]appledger.InputResponse](t, s.do(http.MethodGet, "/inputs?status=processing", nil))
		assert.Empty(t, env.Data)
	})

	t.Run("bad status filter", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/inputs?status=archived", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad date filter", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/inputs?date_from=01-02-2026", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("by bull", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/bulls/"+bullB.String()+"/inputs", nil)
		env := decode[[]appledger.InputResponse](t, rec)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, env.Data, 1)
		assert.Equal(t, bullB, env.Data[0].BullID)
	})
}

func TestInputHandler_Reconcile(t *testing.T) {
	s := newTestServer(t)
	clientID, bullID := s.seedBull("toro")
	input := s.createInput(bullID, "10")
	require.Equal(t, http.StatusCreated, s.createOutput(input.ID, "2").Code)

	// corrupt the stored counter behind the ledger's back
	require.NoError(t, s.db.Exec("UPDATE inputs SET quantity_taken = 0, total = 10, status = 'pending' WHERE id = ?", input.ID).Error)

	t.Run("client may not reconcile", func(t *testing.T) {
		s.actor = ledger.Actor{UserID: clientID}
		defer func() { s.actor = ledger.Actor{UserID: uuid.New(), Elevated: true} }()

		rec := s.do(http.MethodPost, "/inputs/"+input.ID.String()+"/reconcile", nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	rec := s.do(http.MethodPost, "/inputs/"+input.ID.String()+"/reconcile", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[appledger.ReconcileResult](t, rec).Data

	assert.True(t, result.Drifted)
	assert.True(t, result.Repaired)
	assert.True(t, result.TakenAfter.Equals(valueobject.MustQuantity("2")))
	assert.Equal(t, "processing", result.StatusAfter)
}
