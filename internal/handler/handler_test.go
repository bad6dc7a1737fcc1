package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/blues/pledge/internal/database"
	"github.com/blues/pledge/internal/fees"
	"github.com/blues/pledge/internal/logic"
	"github.com/blues/pledge/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type stubOracle struct{}

func (stubOracle) RequestRandomness(ctx context.Context, correlationId string) error { return nil }
func (stubOracle) EstimateRequestFee(ctx context.Context) (int64, error)             { return 10, nil }

type stubVault struct{}

func (stubVault) TransferIn(ctx context.Context, kind model.PrizeKind, asset, from string, amount, tokenId int64) error {
	return nil
}

func (stubVault) TransferOut(ctx context.Context, kind model.PrizeKind, asset, to string, amount, tokenId int64) error {
	return nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	events := logic.NewEventLogic(db)
	tokens := logic.NewTokenLogic(db)
	requests := logic.NewRequestLogic(db, stubOracle{}, stubVault{}, events)
	raffles := logic.NewRaffleLogic(db, requests, events, clockwork.NewRealClock(), 1000, 24*time.Hour)
	campaigns := logic.NewCampaignLogic(db, events, requests, 1000)
	pledges := logic.NewPledgeLogic(db, fees.DefaultSchedule(), tokens, events, raffles, requests)

	campaignHandler := NewCampaignHandler(campaigns)
	pledgeHandler := NewPledgeHandler(pledges)
	tokenHandler := NewTokenHandler(tokens)

	r := gin.New()
	r.POST("/api/v1/campaigns", campaignHandler.CreateCampaign)
	r.GET("/api/v1/campaigns/:id", campaignHandler.GetCampaign)
	r.POST("/api/v1/campaigns/:id/end", campaignHandler.EndCampaign)
	r.POST("/api/v1/campaigns/:id/pledges", pledgeHandler.CreatePledge)
	r.GET("/api/v1/users/:address/pledged", pledgeHandler.GetUserPledged)
	r.POST("/api/v1/tokens/:id/transfer", tokenHandler.TransferToken)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCampaignEndpoints(t *testing.T) {
	r := newTestRouter(t)

	// 目标金额非法
	w := doJSON(t, r, http.MethodPost, "/api/v1/campaigns", gin.H{
		"creator": "0xcreator", "title": "t", "goal": 0,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/v1/campaigns", gin.H{
		"creator": "0xcreator", "title": "t", "goal": 100000,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.True(t, created.Success)

	w = doJSON(t, r, http.MethodGet, "/api/v1/campaigns/1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/campaigns/999", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	// 非创建者结束活动
	w = doJSON(t, r, http.MethodPost, "/api/v1/campaigns/1/end", gin.H{"caller": "0xother"})
	require.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/v1/campaigns/1/end", gin.H{"caller": "0xcreator"})
	require.Equal(t, http.StatusOK, w.Code)

	// 结束是终态
	w = doJSON(t, r, http.MethodPost, "/api/v1/campaigns/1/end", gin.H{"caller": "0xcreator"})
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestPledgeEndpoints(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/campaigns", gin.H{
		"creator": "0xcreator", "title": "t", "goal": 1000000,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/v1/campaigns/1/pledges", gin.H{
		"pledger": "0xalice", "amount": 0,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/v1/campaigns/1/pledges", gin.H{
		"pledger": "0xalice", "amount": 10000,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/users/0xalice/pledged", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var result struct {
		Pledged int64 `json:"pledged"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Equal(t, int64(10000), result.Pledged)

	// 凭证转移无条件拒绝
	w = doJSON(t, r, http.MethodPost, "/api/v1/tokens/1/transfer", gin.H{
		"from": "0xalice", "to": "0xbob", "caller": "0xalice",
	})
	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, w.Body.String(), model.ErrNonTransferable.Error())
}
