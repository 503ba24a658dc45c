package httpserver_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	matching "meridian/internal/matching"
	"meridian/internal/matching/domain/entities"
	matchinghttp "meridian/internal/matching/transport/http"
	"meridian/internal/platform/httpserver"
)

func newTestServer() (*httpserver.Server, matching.Module) {
	module := matching.NewInMemoryModule(
		[]entities.Application{{
			ID:           "app-1",
			CoverageType: "comprehensive",
			Category:     "sedan",
			ApplicantAge: 30,
			TenureYears:  3,
		}},
		[]entities.CompanyProfile{{
			ID:            "company-a",
			Name:          "company-a",
			Active:        true,
			Approved:      true,
			CoverageTypes: []string{"comprehensive"},
			Categories:    []string{"sedan"},
			RiskAppetite:  []entities.RiskLevel{entities.RiskLevelMedium},
		}},
		nil,
	)
	module.Store.SetNow(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	return httpserver.New(module, nil, ":0"), module
}

func TestDistributeEndpoint(t *testing.T) {
	server, _ := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/v1/matching/applications/app-1/distribute", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp matchinghttp.DistributeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.CompaniesCount != 1 || len(resp.Distributions) != 1 {
		t.Fatalf("expected one distribution, got %+v", resp)
	}
	if resp.Distributions[0].Status != "pending" {
		t.Fatalf("expected pending status, got %s", resp.Distributions[0].Status)
	}
}

func TestDistributeUnknownApplicationReturns404(t *testing.T) {
	server, _ := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/v1/matching/applications/missing/distribute", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var errResp matchinghttp.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != "application_not_found" {
		t.Fatalf("expected application_not_found, got %s", errResp.Code)
	}
}

func TestInvalidTransitionReturns409(t *testing.T) {
	server, _ := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/v1/matching/applications/app-1/distribute", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("distribute failed: %d", rec.Code)
	}
	var resp matchinghttp.DistributeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	distributionID := resp.Distributions[0].ID

	quote := httptest.NewRequest(http.MethodPost, "/v1/matching/distributions/"+distributionID+"/quote", nil)
	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, quote)
	if rec.Code != http.StatusOK {
		t.Fatalf("quote failed: %d", rec.Code)
	}

	view := httptest.NewRequest(http.MethodPost, "/v1/matching/distributions/"+distributionID+"/view", nil)
	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, view)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on viewing a quoted distribution, got %d", rec.Code)
	}
}

func TestPerformanceReportEndpoint(t *testing.T) {
	server, _ := newTestServer()

	distribute := httptest.NewRequest(http.MethodPost, "/v1/matching/applications/app-1/distribute", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, distribute)
	if rec.Code != http.StatusCreated {
		t.Fatalf("distribute failed: %d", rec.Code)
	}

	report := httptest.NewRequest(http.MethodGet, "/v1/matching/reports/performance?company_id=company-a", nil)
	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, report)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp matchinghttp.PerformanceReportResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if resp.Distributed != 1 {
		t.Fatalf("expected one distributed event, got %d", resp.Distributed)
	}
}

func TestPerformanceReportBadDateReturns400(t *testing.T) {
	server, _ := newTestServer()

	report := httptest.NewRequest(http.MethodGet, "/v1/matching/reports/performance?from=not-a-date", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, report)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on bad date, got %d", rec.Code)
	}
}
