// AngelaMos | 2026
// server.go

// Package apitest runs an in-process restaurant backend for tests. It issues
// real ES256 tokens, enforces bearer auth on the account routes and lets a
// test queue failures per route.
package apitest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/venuedesk/internal/api"
)

const (
	RouteLogin       = "POST /auth/login"
	RouteMe          = "GET /auth/me"
	RouteProfile     = "PUT /auth/profile"
	RouteUserData    = "GET /auth/user-data"
	RouteVenueData   = "GET /auth/venue-data/{venueID}"
	RouteVenueStatus = "PATCH /venues/{venueID}/status"
	RouteTourGet     = "GET /tour/status"
	RouteTourSet     = "POST /tour/status"
	RouteHealth      = "GET /healthz"
)

type contextKey string

const accountKey contextKey = "account"

type account struct {
	user     api.User
	password string
	data     *api.UserData
	tour     api.TourStatus
	version  int
}

type Server struct {
	URL string

	srv      *httptest.Server
	signer   *signer
	tokenTTL time.Duration

	mu       sync.Mutex
	byEmail  map[string]*account
	byID     map[string]*account
	venues   map[string]*api.UserData
	failures map[string][]int
	calls    map[string]int
}

func New(t testing.TB) *Server {
	t.Helper()

	sg, err := newSigner()
	if err != nil {
		t.Fatalf("apitest: %v", err)
	}

	s := &Server{
		signer:   sg,
		tokenTTL: 15 * time.Minute,
		byEmail:  make(map[string]*account),
		byID:     make(map[string]*account),
		venues:   make(map[string]*api.UserData),
		failures: make(map[string][]int),
		calls:    make(map[string]int),
	}

	s.srv = httptest.NewServer(s.routes())
	s.URL = s.srv.URL
	t.Cleanup(s.srv.Close)

	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.health)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.login)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticator)
			r.Get("/me", s.me)
			r.Put("/profile", s.updateProfile)
			r.Get("/user-data", s.userData)
			r.Get("/venue-data/{venueID}", s.venueData)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.authenticator)
		r.Patch("/venues/{venueID}/status", s.venueStatus)
		r.Get("/tour/status", s.tourStatus)
		r.Post("/tour/status", s.setTourStatus)
	})

	return r
}

// AddAccount registers a user that can log in with password. data is what
// GET /auth/user-data returns; nil makes that route answer 404.
func (s *Server) AddAccount(user api.User, password string, data *api.UserData) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc := &account{user: user, password: password, data: clone(data)}
	s.byEmail[strings.ToLower(user.Email)] = acc
	s.byID[user.ID] = acc
}

func (s *Server) SetUserData(userID string, data *api.UserData) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if acc, ok := s.byID[userID]; ok {
		acc.data = clone(data)
	}
}

// AddVenue registers the venue-scoped payload served by the venue-data route.
func (s *Server) AddVenue(data api.UserData) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if data.Venue != nil {
		s.venues[data.Venue.ID] = clone(&data)
	}
}

// FailNext makes the next len(statuses) calls to route answer with those
// statuses, in order.
func (s *Server) FailNext(route string, statuses ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = append(s.failures[route], statuses...)
}

func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// Token mints a token for userID directly, bypassing the login route.
func (s *Server) Token(t testing.TB, userID string, ttl time.Duration) string {
	t.Helper()

	s.mu.Lock()
	acc, ok := s.byID[userID]
	s.mu.Unlock()
	if !ok {
		t.Fatalf("apitest: unknown user %q", userID)
	}

	token, err := s.signer.issue(claims{
		UserID:       acc.user.ID,
		Role:         acc.user.Role,
		TokenVersion: acc.version,
	}, time.Now(), ttl)
	if err != nil {
		t.Fatalf("apitest: %v", err)
	}
	return token
}

// Revoke invalidates every token issued to userID so far.
func (s *Server) Revoke(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acc, ok := s.byID[userID]; ok {
		acc.version++
	}
}

func (s *Server) TourStatus(userID string) api.TourStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acc, ok := s.byID[userID]; ok {
		return acc.tour
	}
	return api.TourStatus{}
}

func (s *Server) SetTourStatus(userID string, status api.TourStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acc, ok := s.byID[userID]; ok {
		acc.tour = status
	}
}

// enter counts the call and serves a queued failure if one is pending.
func (s *Server) enter(route string, w http.ResponseWriter) bool {
	s.mu.Lock()
	s.calls[route]++
	var status int
	if queue := s.failures[route]; len(queue) > 0 {
		status = queue[0]
		s.failures[route] = queue[1:]
	}
	s.mu.Unlock()

	if status != 0 {
		writeError(w, status, "INJECTED", http.StatusText(status))
		return false
	}
	return true
}

func (s *Server) authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing authorization token")
			return
		}

		c, err := s.signer.verify(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "TOKEN_INVALID", err.Error())
			return
		}

		s.mu.Lock()
		acc, ok := s.byID[c.UserID]
		s.mu.Unlock()
		if !ok || acc.version != c.TokenVersion {
			writeError(w, http.StatusUnauthorized, "TOKEN_REVOKED", "token has been revoked")
			return
		}

		ctx := context.WithValue(r.Context(), accountKey, acc)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func currentAccount(r *http.Request) *account {
	acc, _ := r.Context().Value(accountKey).(*account) //nolint:errcheck // set by authenticator
	return acc
}

func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if !s.enter(RouteHealth, w) {
		return
	}
	writeJSON(w, http.StatusOK, api.HealthResponse{Status: "ok"})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if !s.enter(RouteLogin, w) {
		return
	}

	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	s.mu.Lock()
	acc, ok := s.byEmail[strings.ToLower(req.Email)]
	var c claims
	var user api.User
	if ok {
		c = claims{UserID: acc.user.ID, Role: acc.user.Role, TokenVersion: acc.version}
		user = acc.user
	}
	s.mu.Unlock()

	if !ok || acc.password != req.Password {
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")
		return
	}

	token, err := s.signer.issue(c, time.Now(), s.tokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, api.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		User:        user,
	})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	if !s.enter(RouteMe, w) {
		return
	}

	s.mu.Lock()
	user := currentAccount(r).user
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, user)
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	if !s.enter(RouteProfile, w) {
		return
	}

	var req api.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	s.mu.Lock()
	acc := currentAccount(r)
	if req.Name != nil {
		acc.user.Name = *req.Name
	}
	if req.Email != nil {
		delete(s.byEmail, strings.ToLower(acc.user.Email))
		acc.user.Email = *req.Email
		s.byEmail[strings.ToLower(acc.user.Email)] = acc
	}
	if req.Phone != nil {
		acc.user.Phone = *req.Phone
	}
	if acc.data != nil {
		acc.data.User = acc.user
	}
	user := acc.user
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, user)
}

func (s *Server) userData(w http.ResponseWriter, r *http.Request) {
	if !s.enter(RouteUserData, w) {
		return
	}

	s.mu.Lock()
	acc := currentAccount(r)
	data := clone(acc.data)
	if data != nil {
		data.User = acc.user
	}
	s.mu.Unlock()

	if data == nil {
		writeError(w, http.StatusNotFound, "NO_VENUE", "No venue assigned to this user")
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) venueData(w http.ResponseWriter, r *http.Request) {
	if !s.enter(RouteVenueData, w) {
		return
	}

	venueID := chi.URLParam(r, "venueID")

	s.mu.Lock()
	acc := currentAccount(r)
	role := acc.user.Role
	data := clone(s.venues[venueID])
	s.mu.Unlock()

	if role != "superadmin" {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "superadmin only")
		return
	}
	if data == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "venue not found")
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) venueStatus(w http.ResponseWriter, r *http.Request) {
	if !s.enter(RouteVenueStatus, w) {
		return
	}

	var req api.VenueStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	venueID := chi.URLParam(r, "venueID")

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := currentAccount(r)
	if acc.user.Role != "admin" && acc.user.Role != "superadmin" {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "insufficient permissions")
		return
	}

	var updated *api.Venue
	for _, other := range s.byID {
		if other.data != nil && other.data.Venue != nil && other.data.Venue.ID == venueID {
			other.data.Venue.IsOpen = req.IsOpen
			updated = other.data.Venue
		}
	}
	if scoped, ok := s.venues[venueID]; ok {
		scoped.Venue.IsOpen = req.IsOpen
		updated = scoped.Venue
	}

	if updated == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "venue not found")
		return
	}
	writeJSON(w, http.StatusOK, *updated)
}

func (s *Server) tourStatus(w http.ResponseWriter, r *http.Request) {
	if !s.enter(RouteTourGet, w) {
		return
	}

	s.mu.Lock()
	status := currentAccount(r).tour
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, status)
}

func (s *Server) setTourStatus(w http.ResponseWriter, r *http.Request) {
	if !s.enter(RouteTourSet, w) {
		return
	}

	var req api.TourStatus
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	s.mu.Lock()
	currentAccount(r).tour = req
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // best-effort response
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}

func clone(data *api.UserData) *api.UserData {
	if data == nil {
		return nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil
	}
	var out api.UserData
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return &out
}
