package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appledger "github.com/genlab/backend/internal/application/ledger"
	"github.com/genlab/backend/internal/domain/ledger"
	"github.com/genlab/backend/internal/infrastructure/persistence"
	"github.com/genlab/backend/internal/infrastructure/persistence/models"
	"github.com/genlab/backend/internal/interfaces/http/dto"
	"github.com/genlab/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := middleware.SetupValidator(); err != nil {
		panic(err)
	}
}

// envelope mirrors dto.Response with a typed data field
type envelope[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data"`
	Error   *dto.ErrorInfo `json:"error"`
	Meta    *dto.Meta      `json:"meta"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

// testServer wires the ledger handlers onto a private sqlite database
type testServer struct {
	t      *testing.T
	db     *gorm.DB
	engine *gin.Engine
	actor  ledger.Actor
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, persistence.AutoMigrateLedger(db))

	txScope := persistence.NewGormTransactionScope(db)
	ledgerService := appledger.NewLedgerService(txScope, persistence.NewGormBullRepository(db), nil)
	ledgerService.SetRetryPolicy(appledger.RetryPolicy{MaxAttempts: 1})
	queryService := appledger.NewQueryService(
		persistence.NewGormLedgerQueryRepository(db),
		persistence.NewGormInputRepository(db),
		persistence.NewGormOutputRepository(db),
		nil,
	)
	batchService := appledger.NewBatchService(txScope, nil)
	compensator := appledger.NewCompensator(txScope, nil)

	s := &testServer{t: t, db: db, actor: ledger.Actor{UserID: uuid.New(), Elevated: true}}

	inputs := NewInputHandler(ledgerService, queryService)
	outputs := NewOutputHandler(ledgerService, queryService)
	batches := NewProductionBatchHandler(batchService, compensator)

	s.engine = gin.New()
	s.engine.Use(middleware.RequestID(), func(c *gin.Context) {
		if s.actor.UserID != uuid.Nil {
			c.Set(middleware.ActorKey, s.actor)
			c.Set(middleware.JWTUserIDKey, s.actor.UserID.String())
		}
		c.Next()
	})
	api := s.engine.Group("/api/v1")
	api.POST("/inputs", inputs.Create)
	api.GET("/inputs", inputs.Search)
	api.GET("/inputs/:id", inputs.GetByID)
	api.PUT("/inputs/:id", inputs.Update)
	api.DELETE("/inputs/:id", inputs.Delete)
	api.PATCH("/inputs/:id/status", inputs.ChangeStatus)
	api.GET("/inputs/:id/outputs", inputs.ListOutputs)
	api.POST("/inputs/:id/outputs", outputs.Create)
	api.POST("/inputs/:id/reconcile", inputs.Reconcile)
	api.GET("/bulls/:id/inputs", inputs.ListByBull)
	api.GET("/outputs", outputs.Search)
	api.GET("/outputs/:id", outputs.GetByID)
	api.PUT("/outputs/:id", outputs.Update)
	api.DELETE("/outputs/:id", outputs.Delete)
	api.POST("/production-batches", batches.Create)
	api.GET("/production-batches", batches.List)
	api.GET("/production-batches/:id", batches.GetByID)
	api.POST("/production-batches/:id/outputs", batches.AttachOutputs)
	api.POST("/production-batches/:id/opus", batches.AddOpus)
	api.DELETE("/production-batches/:id", batches.Delete)
	return s
}

func (s *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

// seedBull stores a client with one bull and returns both ids
func (s *testServer) seedBull(name string) (clientID, bullID uuid.UUID) {
	s.t.Helper()
	now := time.Now()
	client := models.ClientModel{
		BaseModel:      models.BaseModel{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		FullName:       "Hacienda " + name,
		DocumentNumber: "DOC-" + name,
		Email:          name + "@example.com",
	}
	require.NoError(s.t, s.db.Create(&client).Error)
	bull := models.BullModel{
		BaseModel:          models.BaseModel{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		UserID:             client.ID,
		Name:               name,
		RegistrationNumber: "REG-" + name,
	}
	require.NoError(s.t, s.db.Create(&bull).Error)
	return client.ID, bull.ID
}

// createInput registers an input through the API
func (s *testServer) createInput(bullID uuid.UUID, received string) appledger.InputResponse {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/inputs", map[string]any{
		"bull_id":           bullID,
		"quantity_received": received,
		"lot":               "L-1",
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[appledger.InputResponse](s.t, rec).Data
}

func (s *testServer) createOutput(inputID uuid.UUID, qty string) *httptest.ResponseRecorder {
	s.t.Helper()
	return s.do(http.MethodPost, "/inputs/"+inputID.String()+"/outputs", map[string]any{
		"quantity_output": qty,
		"remark":          "test",
	})
}
