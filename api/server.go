package api

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/accordlabs/checkin/config"
	"github.com/accordlabs/checkin/internal/badge"
	"github.com/accordlabs/checkin/internal/event"
	"github.com/accordlabs/checkin/internal/match"
	"github.com/accordlabs/checkin/internal/registry"
	"github.com/accordlabs/checkin/internal/report"
	"github.com/accordlabs/checkin/internal/resolve"
	"github.com/accordlabs/checkin/internal/roster"
	"github.com/accordlabs/checkin/internal/store"
	"github.com/accordlabs/checkin/internal/variants"
)

// Time format constant
const timeFormat = time.RFC3339

// timeNow returns the current time
var timeNow = time.Now

// Fuzzy threshold for looking up registrants by partial name, e.g. when
// reprinting a certificate. Deliberately looser than roster matching.
const registrantSearchThreshold = 0.3

// Upload size cap for roster files and template images.
const maxUploadBytes = 32 << 20

// Server represents the API server
type Server struct {
	router     *mux.Router
	config     *config.Config
	store      *store.Store
	registry   *registry.Registry
	resolver   *resolve.Resolver
	matcher    *match.Matcher
	renderer   *badge.Renderer
	logger     *zap.Logger
	httpServer *http.Server
}

// NewServer creates a new API server
func NewServer(cfg *config.Config, st *store.Store, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	table := variants.Default()
	if cfg.SynonymsFile != "" {
		var err error
		table, err = variants.LoadFile(cfg.SynonymsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load synonyms file: %w", err)
		}
	}

	matcher := match.NewMatcher(table, match.Options{
		Limit:            cfg.MaxCandidates,
		Threshold:        cfg.SimilarityThreshold,
		MinQueryLen:      cfg.MinQueryLength,
		MinPhoneQueryLen: cfg.MinPhoneQueryLength,
	})
	reg := registry.New(st, logger)
	renderer := badge.NewRenderer()

	s := &Server{
		router:   mux.NewRouter(),
		config:   cfg,
		store:    st,
		registry: reg,
		resolver: resolve.New(st, reg, st, renderer, logger),
		matcher:  matcher,
		renderer: renderer,
		logger:   logger,
	}
	s.registerRoutes()
	return s, nil
}

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	// Health check
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	// Roster endpoints
	s.router.HandleFunc("/api/upload", s.handleUploadRoster).Methods(http.MethodPost)
	s.router.HandleFunc("/api/attendees", s.handleGetAttendees).Methods(http.MethodGet)
	s.router.HandleFunc("/api/attendees/search", s.handleSearchAttendees).Methods(http.MethodGet)

	// Registration endpoints
	s.router.HandleFunc("/api/register", s.handleRegister).Methods(http.MethodPost)
	s.router.HandleFunc("/api/register/select", s.handleRegisterSelect).Methods(http.MethodPost)
	s.router.HandleFunc("/api/walkin", s.handleWalkIn).Methods(http.MethodPost)
	s.router.HandleFunc("/api/registrations", s.handleGetRegistrations).Methods(http.MethodGet)

	// Reporting endpoints
	s.router.HandleFunc("/api/stats", s.handleStats).Methods(http.MethodGet)
	s.router.HandleFunc("/api/report", s.handleReport).Methods(http.MethodGet)

	// Printing endpoints
	s.router.HandleFunc("/api/print/badges", s.handlePrintBadges).Methods(http.MethodPost)
	s.router.HandleFunc("/api/print/certificates", s.handlePrintCertificates).Methods(http.MethodPost)
	s.router.HandleFunc("/api/badges/{id}/print", s.handlePrintBadge).Methods(http.MethodPost)
	s.router.HandleFunc("/api/certificates/{id}/print", s.handlePrintCertificate).Methods(http.MethodPost)

	// Settings and lifecycle endpoints
	s.router.HandleFunc("/api/settings", s.handleGetSettings).Methods(http.MethodGet)
	s.router.HandleFunc("/api/settings", s.handlePutSettings).Methods(http.MethodPut)
	s.router.HandleFunc("/api/reset", s.handleReset).Methods(http.MethodPost)
}

// Start starts the API server
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.ServerHost, s.config.ServerPort),
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(s.config.IdleTimeoutSecs) * time.Second,
	}

	s.logger.Info("starting API server",
		zap.String("host", s.config.ServerHost),
		zap.Int("port", s.config.ServerPort))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the API server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Health check handler
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	regs, err := s.registry.All()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Storage health check failed: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "ok",
		"registrations": len(regs),
		"timestamp":     timeNow().Format(timeFormat),
	})
}

// Roster handlers

// handleUploadRoster handles POST /api/upload
func (s *Server) handleUploadRoster(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid multipart request: "+err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Roster file is required")
		return
	}
	defer file.Close()

	entries, err := roster.Load(file, header.Filename)
	if err != nil {
		s.respondWithDomainError(w, err)
		return
	}

	if err := s.store.ReplaceRoster(entries); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to store roster: "+err.Error())
		return
	}

	s.logger.Info("roster uploaded",
		zap.String("file", header.Filename),
		zap.Int("attendees", len(entries)))

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status": "uploaded",
		"count":  len(entries),
	})
}

// handleGetAttendees handles GET /api/attendees
func (s *Server) handleGetAttendees(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.Roster()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load roster: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"attendees": entries,
		"count":     len(entries),
	})
}

// searchCandidate is a roster match candidate decorated with its current
// registration state.
type searchCandidate struct {
	Name       string  `json:"name"`
	Phone      string  `json:"phone"`
	Score      float64 `json:"score"`
	MatchType  string  `json:"match_type"`
	Registered bool    `json:"registered"`
}

// handleSearchAttendees handles GET /api/attendees/search
func (s *Server) handleSearchAttendees(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	entries, err := s.store.Roster()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load roster: "+err.Error())
		return
	}

	candidates := s.matcher.Match(query, entries)
	results := make([]searchCandidate, len(candidates))
	for i, c := range candidates {
		registered, err := s.registry.IsRegistered(c.Entry.Name, c.Entry.Phone)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to check registration: "+err.Error())
			return
		}
		results[i] = searchCandidate{
			Name:       c.Entry.Name,
			Phone:      c.Entry.Phone,
			Score:      c.Score,
			MatchType:  string(c.Type),
			Registered: registered,
		}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"matches": results,
		"count":   len(results),
	})
}

// Registration handlers

// handleRegister handles POST /api/register
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	result, err := s.resolver.RegisterOfficial(request.Name)
	if err != nil {
		s.respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// handleRegisterSelect handles POST /api/register/select
func (s *Server) handleRegisterSelect(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	result, err := s.resolver.SelectCandidate(request.Name, request.Phone)
	if err != nil {
		s.respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// handleWalkIn handles POST /api/walkin
func (s *Server) handleWalkIn(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	result, err := s.resolver.RegisterWalkIn(request.Name, request.Phone)
	if err != nil {
		s.respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// handleGetRegistrations handles GET /api/registrations. An optional q
// parameter narrows the list with a loose fuzzy name search.
func (s *Server) handleGetRegistrations(w http.ResponseWriter, r *http.Request) {
	regs, err := s.registry.All()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load registrations: "+err.Error())
		return
	}

	if query := r.URL.Query().Get("q"); query != "" {
		regs = s.matcher.SearchRegistered(query, regs, registrantSearchThreshold)
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"registrations": regs,
		"count":         len(regs),
	})
}

// Reporting handlers

// handleStats handles GET /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	regs, err := s.registry.All()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load registrations: "+err.Error())
		return
	}

	roster, err := s.store.Roster()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load roster: "+err.Error())
		return
	}

	stats := report.Summarize(regs)
	timeline := report.Timeline(regs, time.Local)

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"stats":        stats,
		"timeline":     timeline,
		"roster_total": len(roster),
	})
}

// handleReport handles GET /api/report
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	regs, err := s.registry.All()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load registrations: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="registrations.csv"`)
	if err := report.WriteCSV(csv.NewWriter(w), regs); err != nil {
		s.logger.Error("failed to write report", zap.Error(err))
	}
}

// Printing handlers

// filterUnissued selects registrations still waiting for the given
// artifact, narrowed by origin filter ("official", "walkin", or "all").
func filterUnissued(regs []event.Registration, filter string, issued func(event.Registration) bool) ([]event.Registration, error) {
	var out []event.Registration
	for _, reg := range regs {
		if issued(reg) {
			continue
		}
		switch filter {
		case "", "all":
		case "official":
			if reg.Origin != event.OriginOfficial {
				continue
			}
		case "walkin":
			if reg.Origin != event.OriginWalkIn {
				continue
			}
		default:
			return nil, fmt.Errorf("unknown filter %q: %w", filter, event.ErrMissingField)
		}
		out = append(out, reg)
	}
	return out, nil
}

// handlePrintBadges handles POST /api/print/badges
func (s *Server) handlePrintBadges(w http.ResponseWriter, r *http.Request) {
	s.handleBatchPrint(w, r,
		func(reg event.Registration) bool { return reg.BadgeIssued },
		s.renderer.Badges,
		s.registry.MarkBadgeIssued)
}

// handlePrintCertificates handles POST /api/print/certificates
func (s *Server) handlePrintCertificates(w http.ResponseWriter, r *http.Request) {
	s.handleBatchPrint(w, r,
		func(reg event.Registration) bool { return reg.CertificateIssued },
		s.renderer.Certificates,
		s.registry.MarkCertificateIssued)
}

func (s *Server) handleBatchPrint(
	w http.ResponseWriter,
	r *http.Request,
	issued func(event.Registration) bool,
	render func([]event.Registration, event.Settings) (string, error),
	mark func(string) error,
) {
	var request struct {
		Filter string `json:"filter"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
			return
		}
	}

	regs, err := s.registry.All()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load registrations: "+err.Error())
		return
	}

	pending, err := filterUnissued(regs, request.Filter, issued)
	if err != nil {
		s.respondWithDomainError(w, err)
		return
	}
	if len(pending) == 0 {
		respondWithJSON(w, http.StatusOK, map[string]interface{}{"count": 0})
		return
	}

	set, err := s.store.LoadSettings()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load settings: "+err.Error())
		return
	}

	doc, err := render(pending, set)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to render documents: "+err.Error())
		return
	}
	for _, reg := range pending {
		if err := mark(reg.ID); err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to mark issued: "+err.Error())
			return
		}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"document": doc,
		"count":    len(pending),
	})
}

// handlePrintBadge handles POST /api/badges/{id}/print
func (s *Server) handlePrintBadge(w http.ResponseWriter, r *http.Request) {
	s.handleSinglePrint(w, r, s.renderer.Badge, s.registry.MarkBadgeIssued)
}

// handlePrintCertificate handles POST /api/certificates/{id}/print
func (s *Server) handlePrintCertificate(w http.ResponseWriter, r *http.Request) {
	s.handleSinglePrint(w, r, s.renderer.Certificate, s.registry.MarkCertificateIssued)
}

func (s *Server) handleSinglePrint(
	w http.ResponseWriter,
	r *http.Request,
	render func(event.Registration, event.Settings) (string, error),
	mark func(string) error,
) {
	vars := mux.Vars(r)
	id := vars["id"]

	reg, err := s.store.Registration(id)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "Registration not found: "+err.Error())
		return
	}

	set, err := s.store.LoadSettings()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load settings: "+err.Error())
		return
	}

	doc, err := render(reg, set)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to render document: "+err.Error())
		return
	}
	if err := mark(id); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to mark issued: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"document": doc})
}

// Settings handlers

// handleGetSettings handles GET /api/settings
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	set, err := s.store.LoadSettings()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load settings: "+err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, set)
}

// handlePutSettings handles PUT /api/settings
func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var set event.Settings
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadBytes)).Decode(&set); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	if err := s.store.SaveSettings(set); err != nil {
		s.respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

// handleReset handles POST /api/reset
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Reset(); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to reset event: "+err.Error())
		return
	}

	s.logger.Info("event data reset")
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// Response helpers

// respondWithDomainError maps domain errors to HTTP status codes
func (s *Server) respondWithDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, event.ErrMissingField), errors.Is(err, event.ErrInvalidUploadFormat):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, event.ErrNotInRoster):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, event.ErrAlreadyRegistered):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, event.ErrStorageQuota):
		respondWithError(w, http.StatusRequestEntityTooLarge, err.Error())
	default:
		respondWithError(w, http.StatusInternalServerError, err.Error())
	}
}

// respondWithError responds with an error
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithJSON responds with JSON
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Failed to marshal JSON response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
