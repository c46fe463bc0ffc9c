package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func scrape(t *testing.T, metrics *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	return rr.Body.String()
}

func TestMetricsHandlerExposesJobCollectors(t *testing.T) {
	metrics := NewMetrics()
	_ = metrics.Jobs().Track("dashboard_warmup").End(errors.New("boom"))

	body := scrape(t, metrics)
	if !strings.Contains(body, `coachdesk_jobs_total{job="dashboard_warmup",status="failure"} 1`) {
		t.Fatalf("expected job run to be recorded, got: %s", body)
	}
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/students")

	req := httptest.NewRequest(http.MethodGet, "/students", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	body := scrape(t, metrics)
	if !strings.Contains(body, `coachdesk_http_requests_total{code="418",route="/students"} 1`) {
		t.Fatalf("expected metrics to record request, got: %s", body)
	}
	if !strings.Contains(body, `coachdesk_http_request_duration_seconds_bucket{route="/students"`) {
		t.Fatalf("expected duration histogram to be present, got: %s", body)
	}
}

func TestObserveUpstream(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveUpstream(http.MethodGet, "/students", 200, 20*time.Millisecond)
	metrics.ObserveUpstream(http.MethodGet, "/students", 200, 30*time.Millisecond)

	body := scrape(t, metrics)
	if !strings.Contains(body, `coachdesk_api_requests_total{code="200",endpoint="/students",method="GET"} 2`) {
		t.Fatalf("expected upstream counter, got: %s", body)
	}

	var nilMetrics *Metrics
	nilMetrics.ObserveUpstream(http.MethodGet, "/x", 500, time.Second)
}
