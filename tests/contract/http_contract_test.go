package contract

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	httpadapter "github.com/tradeforge/insight-mining-service/internal/adapters/http"
	"github.com/tradeforge/insight-mining-service/internal/adapters/memory"
	"github.com/tradeforge/insight-mining-service/internal/application"
	"github.com/tradeforge/insight-mining-service/internal/contracts"
)

func newRouter() http.Handler {
	repos := memory.NewRepositories()
	svc := application.NewService(application.Dependencies{
		Features:     repos.Features,
		Exposures:    repos.Exposures,
		Drivers:      repos.Drivers,
		Combinations: repos.Combinations,
		SyncRuns:     repos.SyncRuns,
		Idempotency:  repos.Idempotency,
		EventDedup:   repos.EventDedup,
		Cache:        memory.NewCache(),
	})
	return httpadapter.NewRouter(httpadapter.NewHandler(svc, nil))
}

func TestHealthEndpoints(t *testing.T) {
	router := newRouter()
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: unexpected status %d", path, rr.Code)
		}
	}
}

func TestRunDriversRequiresAuth(t *testing.T) {
	router := newRouter()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/insights/drivers/run", strings.NewReader(`{"outcome":"did_deposit"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got=%d want=%d", rr.Code, http.StatusUnauthorized)
	}
}

func TestRunDriversRequiresIdempotencyKey(t *testing.T) {
	router := newRouter()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/insights/drivers/run", strings.NewReader(`{"outcome":"did_deposit"}`))
	req.Header.Set("X-Actor-Id", "analyst-1")
	req.Header.Set("X-Actor-Role", "analyst")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got=%d want=%d body=%s", rr.Code, http.StatusBadRequest, rr.Body.String())
	}
	var out contracts.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if out.Error.Code != "IDEMPOTENCY_KEY_REQUIRED" {
		t.Fatalf("unexpected error envelope: %+v", out)
	}
}

func TestRunDriversForbiddenForViewer(t *testing.T) {
	router := newRouter()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/insights/drivers/run", strings.NewReader(`{"outcome":"did_deposit"}`))
	req.Header.Set("X-Actor-Id", "viewer-1")
	req.Header.Set("X-Actor-Role", "viewer")
	req.Header.Set("Idempotency-Key", "drivers:viewer")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("unexpected status: got=%d want=%d", rr.Code, http.StatusForbidden)
	}
}

func TestDriversRunAndRead(t *testing.T) {
	router := newRouter()
	runReq := httptest.NewRequest(http.MethodPost, "/api/v1/insights/drivers/run", strings.NewReader(`{"outcome":"did_deposit"}`))
	runReq.Header.Set("X-Actor-Id", "analyst-1")
	runReq.Header.Set("X-Actor-Role", "analyst")
	runReq.Header.Set("Idempotency-Key", "drivers:did_deposit:contract")
	runRR := httptest.NewRecorder()
	router.ServeHTTP(runRR, runReq)
	if runRR.Code != http.StatusOK {
		t.Fatalf("run failed: status=%d body=%s", runRR.Code, runRR.Body.String())
	}

	var runOut contracts.SuccessResponse
	if err := json.Unmarshal(runRR.Body.Bytes(), &runOut); err != nil {
		t.Fatalf("decode run response: %v", err)
	}
	dataBytes, _ := json.Marshal(runOut.Data)
	var result application.DriverAnalysisResult
	if err := json.Unmarshal(dataBytes, &result); err != nil {
		t.Fatalf("decode driver result: %v", err)
	}
	if result.RunID == "" {
		t.Fatalf("missing run id: %+v", result)
	}

	getReq := httptest.NewRequest(http.MethodGet, "/api/v1/insights/drivers?outcome=did_deposit", nil)
	getReq.Header.Set("X-Actor-Id", "analyst-1")
	getReq.Header.Set("X-Actor-Role", "analyst")
	getRR := httptest.NewRecorder()
	router.ServeHTTP(getRR, getReq)
	if getRR.Code != http.StatusOK {
		t.Fatalf("get failed: status=%d body=%s", getRR.Code, getRR.Body.String())
	}

	runStatusReq := httptest.NewRequest(http.MethodGet, "/api/v1/insights/runs/"+result.RunID, nil)
	runStatusReq.Header.Set("X-Actor-Id", "analyst-1")
	runStatusReq.Header.Set("X-Actor-Role", "analyst")
	statusRR := httptest.NewRecorder()
	router.ServeHTTP(statusRR, runStatusReq)
	if statusRR.Code != http.StatusOK {
		t.Fatalf("run status failed: status=%d body=%s", statusRR.Code, statusRR.Body.String())
	}
}

func TestPersonaSummaryEndpoint(t *testing.T) {
	router := newRouter()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/insights/personas/summary", nil)
	req.Header.Set("X-Actor-Id", "viewer-1")
	req.Header.Set("X-Actor-Role", "viewer")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("summary failed: status=%d body=%s", rr.Code, rr.Body.String())
	}
}
