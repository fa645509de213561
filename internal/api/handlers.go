package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pagelore/pagelore/internal/analyzer"
	"github.com/pagelore/pagelore/internal/config"
	"github.com/pagelore/pagelore/internal/crawler"
	"github.com/pagelore/pagelore/internal/profile"
	"github.com/pagelore/pagelore/internal/storage"
)

// AnalyzeRequest is the body of POST /analyze.
type AnalyzeRequest struct {
	URL     string                 `json:"url"`
	Options *config.AnalyzeOptions `json:"options,omitempty"`
}

// AnalyzeResponse bundles the structure analysis with the ID of the
// auto-saved profile, when one was saved.
type AnalyzeResponse struct {
	Analysis       *analyzer.StructureAnalysis `json:"analysis"`
	SavedProfileID string                      `json:"savedProfileId,omitempty"`
}

// CrawlRequest is the body of POST /crawl. Zero-valued fields fall back
// to server defaults.
type CrawlRequest struct {
	StartURLs        []string `json:"startUrls"`
	MaxDepth         *int     `json:"maxDepth,omitempty"`
	MaxPages         *int     `json:"maxPages,omitempty"`
	EnablePagination *bool    `json:"enablePagination,omitempty"`
}

type feedbackRequest struct {
	Success bool `json:"success"`
}

type retryFetcher interface {
	FetchWithRetry(ctx context.Context, url string) (*crawler.FetchResponse, error)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	resp, err := s.fetch(r.Context(), req.URL)
	if err != nil {
		s.logger.Warn("Analyze fetch failed", "url", req.URL, "error", err)
		writeError(w, http.StatusBadGateway, "failed to fetch page: "+err.Error())
		return
	}

	opts := config.DefaultAnalyzeOptions()
	if req.Options != nil {
		opts = *req.Options
	}

	a := analyzer.NewWithOptions(opts, analyzer.DefaultWeights())
	analysis := a.Analyze(resp.Body, req.URL)

	out := AnalyzeResponse{Analysis: analysis}
	if id, ok := s.autoSaveProfile(analysis); ok {
		out.SavedProfileID = id
	}

	writeJSON(w, http.StatusOK, out)
}

// autoSaveProfile persists a profile when the analysis found a main-content
// selector with a top score of at least 0.5. Failures are logged, never
// surfaced: a failed save must not fail the analysis.
func (s *Server) autoSaveProfile(analysis *analyzer.StructureAnalysis) (string, bool) {
	if analysis.Recommendations.BestMainContent == "" {
		return "", false
	}
	if len(analysis.Sections) == 0 || analysis.Sections[0].Score < 0.5 {
		return "", false
	}

	p, err := profile.FromAnalysis(analysis)
	if err != nil {
		s.logger.Warn("Profile auto-save skipped", "url", analysis.URL, "error", err)
		return "", false
	}
	if err := s.profiles.Insert(p); err != nil {
		s.logger.Warn("Profile auto-save failed", "domain", p.Domain, "error", err)
		return "", false
	}

	s.logger.Info("Profile auto-saved", "domain", p.Domain, "id", p.ID, "confidence", p.Confidence)
	return p.ID, true
}

func (s *Server) fetch(ctx context.Context, url string) (*crawler.FetchResponse, error) {
	if rf, ok := s.fetcher.(retryFetcher); ok {
		return rf.FetchWithRetry(ctx, url)
	}
	return s.fetcher.Fetch(ctx, url)
}

func (s *Server) handleCrawl(w http.ResponseWriter, r *http.Request) {
	var req CrawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.StartURLs) == 0 {
		writeError(w, http.StatusBadRequest, "startUrls is required")
		return
	}

	cfg := *s.cfg
	cfg.StartURLs = req.StartURLs
	if req.MaxDepth != nil {
		cfg.MaxDepth = *req.MaxDepth
	}
	if req.MaxPages != nil {
		cfg.MaxPages = *req.MaxPages
	}
	if req.EnablePagination != nil {
		cfg.EnablePagination = *req.EnablePagination
	}

	c, err := crawler.New(&cfg, s.fetcher)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := c.Crawl(r.Context())

	if err := s.sessions.SaveSession(result); err != nil {
		s.logger.Warn("Session save failed", "session", result.SessionID, "error", err)
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.sessions.ListSessions()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if sessions == nil {
		sessions = []*storage.SessionSummary{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessions.GetSession(chi.URLParam(r, "id"))
	if errors.Is(err, storage.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	err := s.sessions.DeleteSession(chi.URLParam(r, "id"))
	if errors.Is(err, storage.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteSessions(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.DeleteSessions(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	var (
		profiles []*profile.SiteProfile
		err      error
	)
	if mode := r.URL.Query().Get("mode"); mode != "" {
		profiles, err = s.profiles.GetByMode(mode)
	} else {
		profiles, err = s.profiles.GetAll()
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if profiles == nil {
		profiles = []*profile.SiteProfile{}
	}
	writeJSON(w, http.StatusOK, profiles)
}

func (s *Server) handleProfileStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.profiles.Stats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.profiles.GetByID(chi.URLParam(r, "id"))
	if errors.Is(err, profile.ErrNotFound) {
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleProfileByDomain(w http.ResponseWriter, r *http.Request) {
	p, err := s.profiles.GetByDomain(chi.URLParam(r, "domain"))
	if errors.Is(err, profile.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no profile for domain")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleProfileFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := chi.URLParam(r, "id")
	err := s.profiles.UpdateUsage(id, req.Success)
	if errors.Is(err, profile.ErrNotFound) {
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	p, err := s.profiles.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	err := s.profiles.Delete(chi.URLParam(r, "id"))
	if errors.Is(err, profile.ErrNotFound) {
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearProfiles(w http.ResponseWriter, r *http.Request) {
	if err := s.profiles.ClearAll(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
