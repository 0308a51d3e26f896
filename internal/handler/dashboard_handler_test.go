package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/ahmad-watoo/ams-api/internal/service"
)

type stubDashboardRepo struct{}

func (stubDashboardRepo) CountStudents(context.Context) (int, int, error) { return 120, 110, nil }

func (stubDashboardRepo) CountPendingAdmissions(context.Context) (int, error) { return 8, nil }

func (stubDashboardRepo) CountEmployees(context.Context) (int, error) { return 40, nil }

func (stubDashboardRepo) CountBorrowings(context.Context, time.Time) (int, int, error) {
	return 15, 2, nil
}
func (stubDashboardRepo) CountPendingCertificates(context.Context) (int, error) { return 3, nil }

func (stubDashboardRepo) CountPendingTransfers(context.Context) (int, error) { return 1, nil }

func (stubDashboardRepo) CountPendingSalaryRuns(context.Context) (int, error) { return 4, nil }

type stubFeeReader struct{}

func (stubFeeReader) SumCollectedSince(context.Context, time.Time) (float64, error) {
	return 250000, nil
}

func TestDashboardHandlerSummary(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := service.NewDashboardService(service.DashboardServiceParams{
		Repo:    stubDashboardRepo{},
		Finance: stubFeeReader{},
	})
	handler := NewDashboardHandler(svc)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/summary", nil)

	handler.Summary(c)

	assert.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data map[string]interface{} `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, float64(120), envelope.Data["total_students"])
	assert.Equal(t, float64(8), envelope.Data["pending_admissions"])
	assert.Equal(t, false, envelope.Meta["cached"])
}

func TestDashboardHandlerSystem(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := service.NewDashboardService(service.DashboardServiceParams{
		Repo:    stubDashboardRepo{},
		Finance: stubFeeReader{},
		Metrics: service.NewMetricsService(),
	})
	handler := NewDashboardHandler(svc)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/system", nil)

	handler.System(c)

	assert.Equal(t, http.StatusOK, rec.Code)
}
