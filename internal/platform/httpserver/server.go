package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	httpSwagger "github.com/swaggo/http-swagger"

	matching "meridian/internal/matching"
	domainerrors "meridian/internal/matching/domain/errors"
	matchinghttp "meridian/internal/matching/transport/http"
)

type Server struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	addr     string
	matching matching.Module
}

func New(matchingModule matching.Module, logger *slog.Logger, addr string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		addr:     addr,
		matching: matchingModule,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the routed mux for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /v1/matching/applications/{application_id}/distribute", s.handleDistribute)
	s.mux.HandleFunc("GET /v1/matching/applications/{application_id}/distributions", s.handleListByApplication)
	s.mux.HandleFunc("GET /v1/matching/distributions/{distribution_id}", s.handleGetDistribution)
	s.mux.HandleFunc("POST /v1/matching/distributions/{distribution_id}/view", s.handleMarkViewed)
	s.mux.HandleFunc("POST /v1/matching/distributions/{distribution_id}/quote", s.handleSubmitQuote)
	s.mux.HandleFunc("POST /v1/matching/distributions/{distribution_id}/ignore", s.handleIgnore)
	s.mux.HandleFunc("GET /v1/matching/companies/{company_id}/distributions", s.handleListByCompany)
	s.mux.HandleFunc("GET /v1/matching/reports/performance", s.handlePerformanceReport)
}

func (s *Server) handleDistribute(w http.ResponseWriter, r *http.Request) {
	var req matchinghttp.DistributeRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeMatchingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
			return
		}
	}

	applicationID := r.PathValue("application_id")
	resp, err := s.matching.Handler.DistributeHandler(r.Context(), applicationID, req)
	if err != nil {
		writeMatchingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListByApplication(w http.ResponseWriter, r *http.Request) {
	applicationID := r.PathValue("application_id")
	resp, err := s.matching.Handler.ListByApplicationHandler(r.Context(), applicationID)
	if err != nil {
		writeMatchingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListByCompany(w http.ResponseWriter, r *http.Request) {
	companyID := r.PathValue("company_id")
	limit := 0
	if limitRaw := r.URL.Query().Get("limit"); limitRaw != "" {
		parsed, err := strconv.Atoi(limitRaw)
		if err != nil {
			writeMatchingError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		limit = parsed
	}
	resp, err := s.matching.Handler.ListByCompanyHandler(r.Context(), companyID, limit)
	if err != nil {
		writeMatchingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetDistribution(w http.ResponseWriter, r *http.Request) {
	distributionID := r.PathValue("distribution_id")
	resp, err := s.matching.Handler.GetDistributionHandler(r.Context(), distributionID)
	if err != nil {
		writeMatchingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMarkViewed(w http.ResponseWriter, r *http.Request) {
	distributionID := r.PathValue("distribution_id")
	resp, err := s.matching.Handler.MarkViewedHandler(r.Context(), distributionID)
	if err != nil {
		writeMatchingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmitQuote(w http.ResponseWriter, r *http.Request) {
	distributionID := r.PathValue("distribution_id")
	resp, err := s.matching.Handler.SubmitQuoteHandler(r.Context(), distributionID)
	if err != nil {
		writeMatchingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleIgnore(w http.ResponseWriter, r *http.Request) {
	var req matchinghttp.IgnoreRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeMatchingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
			return
		}
	}

	distributionID := r.PathValue("distribution_id")
	resp, err := s.matching.Handler.IgnoreHandler(r.Context(), distributionID, req)
	if err != nil {
		writeMatchingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePerformanceReport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	resp, err := s.matching.Handler.PerformanceReportHandler(
		r.Context(),
		query.Get("company_id"),
		query.Get("from"),
		query.Get("to"),
	)
	if err != nil {
		writeMatchingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeMatchingDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domainerrors.ErrApplicationNotFound):
		writeMatchingError(w, http.StatusNotFound, "application_not_found", err.Error())
	case errors.Is(err, domainerrors.ErrCompanyNotFound):
		writeMatchingError(w, http.StatusNotFound, "company_not_found", err.Error())
	case errors.Is(err, domainerrors.ErrDistributionNotFound):
		writeMatchingError(w, http.StatusNotFound, "distribution_not_found", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidTransition):
		writeMatchingError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, domainerrors.ErrStaleDistribution):
		writeMatchingError(w, http.StatusConflict, "stale_distribution", err.Error())
	case errors.Is(err, domainerrors.ErrDistributionExists):
		writeMatchingError(w, http.StatusConflict, "distribution_exists", err.Error())
	case errors.Is(err, domainerrors.ErrCompanyAtCapacity):
		writeMatchingError(w, http.StatusConflict, "company_at_capacity", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidDistributionInput):
		writeMatchingError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeMatchingError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeMatchingError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, matchinghttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
