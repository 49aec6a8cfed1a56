package app

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"scorekeep/api/internal/auth"
	"scorekeep/api/internal/authpw"
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ready"
		statusCode := http.StatusOK
		checks := map[string]any{
			"database": map[string]any{"status": "ok"},
		}

		if err := s.service.Ping(ctx); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks["database"] = map[string]any{
				"status": "error",
				"error":  err.Error(),
			}
		}

		writeJSON(w, statusCode, map[string]any{
			"ok":     status == "ready",
			"status": status,
			"checks": checks,
		})
		return
	}

	// Auth routes (no session required)
	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/signup" {
		s.handleAuthSignUp(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/signin" {
		s.handleAuthSignIn(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/verify-email" {
		s.handleAuthVerifyEmail(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/reset-password/request" {
		s.handleAuthRequestReset(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/reset-password" {
		s.handleAuthResetPassword(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/session" {
		token := bearerToken(r)
		if token == "" {
			writeJSON(w, http.StatusOK, map[string]any{"authenticated": false, "userName": nil})
			return
		}
		session, err := s.service.SessionFromToken(r.Context(), token)
		if err != nil {
			writeJSON(w, http.StatusOK, map[string]any{"authenticated": false, "userName": nil})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": true, "userName": session.UserName, "userId": session.UserID})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/session/refresh" {
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		session, err := s.service.Refresh(r.Context(), body.RefreshToken)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Refresh token invalid", nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"accessToken":  session.Token,
			"refreshToken": session.RefreshToken,
			"userId":       session.UserID,
			"userName":     session.UserName,
			"expiresAt":    session.ExpiresAt.Unix(),
		})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/session/logout" {
		session := Session{}
		if token := bearerToken(r); token != "" {
			if parsed, err := s.service.SessionFromToken(r.Context(), token); err == nil {
				session = parsed
			}
		}
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = decodeBody(r, &body)
		_ = s.service.Logout(r.Context(), session, body.RefreshToken)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/search" {
		q := strings.TrimSpace(r.URL.Query().Get("q"))
		filterType := strings.TrimSpace(r.URL.Query().Get("type"))
		limit := 20
		if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "limit must be an integer", nil)
				return
			}
			limit = parsed
		}
		offset := 0
		if raw := strings.TrimSpace(r.URL.Query().Get("offset")); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "offset must be an integer", nil)
				return
			}
			offset = parsed
		}
		writeJSON(w, http.StatusOK, s.service.Search(r.Context(), session.UserID, q, filterType, limit, offset))
		return
	}

	parts := splitPath(r.URL.Path)
	if len(parts) < 2 || parts[0] != "api" {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}

	switch parts[1] {
	case "games":
		s.handleGames(w, r, session, parts)
		return
	case "players":
		s.handlePlayers(w, r, session, parts)
		return
	case "locations":
		s.handleLocations(w, r, session, parts)
		return
	case "scoresheets":
		s.handleScoresheets(w, r, session, parts)
		return
	case "matches":
		s.handleMatches(w, r, session, parts)
		return
	case "shared":
		s.handleShared(w, r, session, parts)
		return
	case "shares":
		s.handleShares(w, r, session, parts)
		return
	case "friends":
		s.handleFriends(w, r, session, parts)
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleGames(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	switch {
	case len(parts) == 2 && r.Method == http.MethodPost:
		var body GameInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		respond(s.service.CreateGame(r.Context(), session.UserID, body))(w, http.StatusCreated)
	case len(parts) == 2 && r.Method == http.MethodGet:
		respond(s.service.ListMyGames(r.Context(), session.UserID))(w, http.StatusOK)
	case len(parts) == 3 && r.Method == http.MethodGet:
		respond(s.service.GetGame(r.Context(), session.UserID, parts[2]))(w, http.StatusOK)
	case len(parts) == 4 && parts[3] == "scoresheets" && r.Method == http.MethodGet:
		respond(s.service.ListGameScoresheets(r.Context(), session.UserID, parts[2]))(w, http.StatusOK)
	case len(parts) == 4 && parts[3] == "scoresheets" && r.Method == http.MethodPost:
		var body ScoresheetInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		body.GameID = parts[2]
		respond(s.service.CreateScoresheet(r.Context(), session.UserID, body))(w, http.StatusCreated)
	case len(parts) == 4 && parts[3] == "roles" && r.Method == http.MethodGet:
		respond(s.service.ListGameRoles(r.Context(), session.UserID, parts[2]))(w, http.StatusOK)
	case len(parts) == 4 && parts[3] == "roles" && r.Method == http.MethodPost:
		var body GameRoleInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		body.GameID = parts[2]
		respond(s.service.CreateGameRole(r.Context(), session.UserID, body))(w, http.StatusCreated)
	case len(parts) == 4 && parts[3] == "matches" && r.Method == http.MethodGet:
		respond(s.service.ListGameMatches(r.Context(), session.UserID, parts[2]))(w, http.StatusOK)
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handlePlayers(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	switch {
	case len(parts) == 2 && r.Method == http.MethodPost:
		var body PlayerInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		respond(s.service.CreatePlayer(r.Context(), session.UserID, body))(w, http.StatusCreated)
	case len(parts) == 2 && r.Method == http.MethodGet:
		respond(s.service.ListMyPlayers(r.Context(), session.UserID))(w, http.StatusOK)
	case len(parts) == 3 && r.Method == http.MethodGet:
		respond(s.service.GetPlayer(r.Context(), session.UserID, parts[2]))(w, http.StatusOK)
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleLocations(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	switch {
	case len(parts) == 2 && r.Method == http.MethodPost:
		var body LocationInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		respond(s.service.CreateLocation(r.Context(), session.UserID, body))(w, http.StatusCreated)
	case len(parts) == 2 && r.Method == http.MethodGet:
		respond(s.service.ListMyLocations(r.Context(), session.UserID))(w, http.StatusOK)
	case len(parts) == 3 && r.Method == http.MethodGet:
		respond(s.service.GetLocation(r.Context(), session.UserID, parts[2]))(w, http.StatusOK)
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleScoresheets(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	if len(parts) == 3 && r.Method == http.MethodGet {
		respond(s.service.GetScoresheet(r.Context(), session.UserID, parts[2]))(w, http.StatusOK)
		return
	}
	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleMatches(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	if len(parts) == 2 && r.Method == http.MethodPost {
		var body CreateMatchInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		respond(s.service.CreateMatch(r.Context(), session.UserID, body))(w, http.StatusCreated)
		return
	}

	if len(parts) < 3 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}
	matchID := parts[2]

	if len(parts) == 3 {
		switch r.Method {
		case http.MethodGet:
			respond(s.service.GetSharedMatch(r.Context(), session.UserID, matchID))(w, http.StatusOK)
		case http.MethodDelete:
			if err := s.service.DeleteMatch(r.Context(), session.UserID, matchID); err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		default:
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		}
		return
	}

	if len(parts) != 4 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}

	switch {
	case parts[3] == "roster" && r.Method == http.MethodPut:
		var body struct {
			Participants []ParticipantInput `json:"participants"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		respond(s.service.UpdateMatchRoster(r.Context(), session.UserID, matchID, body.Participants))(w, http.StatusOK)
	case parts[3] == "start" && r.Method == http.MethodPost:
		respond(s.service.StartSharedMatch(r.Context(), session.UserID, matchID))(w, http.StatusOK)
	case parts[3] == "pause" && r.Method == http.MethodPost:
		var body struct {
			Duration int `json:"duration"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		respond(s.service.PauseSharedMatch(r.Context(), session.UserID, matchID, body.Duration))(w, http.StatusOK)
	case parts[3] == "finish" && r.Method == http.MethodPost:
		var body struct {
			Duration int `json:"duration"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		respond(s.service.FinishSharedMatch(r.Context(), session.UserID, matchID, body.Duration))(w, http.StatusOK)
	case parts[3] == "scores" && r.Method == http.MethodPut:
		var body struct {
			Scores []ScoreInput `json:"scores"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		respond(s.service.UpdateSharedMatchScores(r.Context(), session.UserID, matchID, body.Scores))(w, http.StatusOK)
	case parts[3] == "comment" && r.Method == http.MethodPut:
		var body struct {
			Comment string `json:"comment"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		respond(s.service.UpdateSharedMatchComment(r.Context(), session.UserID, matchID, body.Comment))(w, http.StatusOK)
	case parts[3] == "teams" && r.Method == http.MethodPut:
		var body struct {
			Teams []TeamInput `json:"teams"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		respond(s.service.UpdateSharedMatchTeams(r.Context(), session.UserID, matchID, body.Teams))(w, http.StatusOK)
	case parts[3] == "roles" && r.Method == http.MethodPut:
		var body struct {
			Assignments []RoleAssignmentInput `json:"assignments"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		respond(s.service.UpdateSharedMatchRoles(r.Context(), session.UserID, matchID, body.Assignments))(w, http.StatusOK)
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleShared(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	if len(parts) == 3 && parts[2] == "matches" && r.Method == http.MethodGet {
		respond(s.service.ListSharedMatches(r.Context(), session.UserID))(w, http.StatusOK)
		return
	}
	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleShares(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	switch {
	case len(parts) == 2 && r.Method == http.MethodPost:
		var body struct {
			ItemType    string `json:"itemType"`
			ItemID      string `json:"itemId"`
			RecipientID string `json:"recipientId"`
			Permission  string `json:"permission"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		respond(s.service.CreateShareRequest(r.Context(), session.UserID, body.ItemType, body.ItemID, body.RecipientID, body.Permission))(w, http.StatusCreated)
	case len(parts) == 3 && parts[2] == "pending" && r.Method == http.MethodGet:
		respond(s.service.ListPendingShareRequests(r.Context(), session.UserID))(w, http.StatusOK)
	case len(parts) == 3 && r.Method == http.MethodGet:
		respond(s.service.GetShareRequest(r.Context(), session.UserID, parts[2]))(w, http.StatusOK)
	case len(parts) == 4 && parts[3] == "accept" && r.Method == http.MethodPost:
		var body struct {
			Decisions []DecisionInput `json:"decisions"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		respond(s.service.AcceptShareRequest(r.Context(), session.UserID, parts[2], body.Decisions))(w, http.StatusOK)
	case len(parts) == 4 && parts[3] == "reject" && r.Method == http.MethodPost:
		if err := s.service.RejectShareRequest(r.Context(), session.UserID, parts[2]); err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleFriends(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	switch {
	case len(parts) == 2 && r.Method == http.MethodPost:
		var body struct {
			FriendUserID string `json:"friendUserId"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		if err := s.service.AddFriend(r.Context(), session.UserID, body.FriendUserID); err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"ok": true})
	case len(parts) == 2 && r.Method == http.MethodGet:
		respond(s.service.ListFriends(r.Context(), session.UserID))(w, http.StatusOK)
	case len(parts) == 4 && parts[3] == "settings" && r.Method == http.MethodGet:
		respond(s.service.GetFriendSettings(r.Context(), session.UserID, parts[2]))(w, http.StatusOK)
	case len(parts) == 4 && parts[3] == "settings" && r.Method == http.MethodPut:
		var body FriendSettingPayload
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		respond(s.service.UpdateFriendSettings(r.Context(), session.UserID, parts[2], body))(w, http.StatusOK)
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

// respond captures a service result and writes it on the second call: the
// payload at the given status, or the mapped error. Taking the result first
// lets the call site forward a (payload, error) return directly.
func respond[T any](payload T, err error) func(http.ResponseWriter, int) {
	return func(w http.ResponseWriter, status int) {
		if err != nil {
			s, code, message, details := mapError(err)
			writeError(w, s, code, message, details)
			return
		}
		writeJSON(w, status, payload)
	}
}

func (s *HTTPServer) requireSession(w http.ResponseWriter, r *http.Request) (Session, bool) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return Session{}, false
	}
	session, err := s.service.SessionFromToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) || errors.Is(err, auth.ErrInvalidToken) {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
			return Session{}, false
		}
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Session lookup failed", nil)
		return Session{}, false
	}
	return session, true
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	if errors.Is(err, sql.ErrNoRows) {
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	}
	if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrExpiredToken) {
		return http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}

// Auth handlers for email/password authentication

func (s *HTTPServer) handleAuthSignUp(w http.ResponseWriter, r *http.Request) {
	authSvc := s.service.AuthPasswordService()
	if authSvc == nil {
		writeError(w, http.StatusServiceUnavailable, "AUTH_UNAVAILABLE", "Authentication service not configured", nil)
		return
	}

	var body struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		DisplayName string `json:"displayName"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	resp, err := authSvc.SignUp(r.Context(), authpw.SignUpRequest{
		Email:       body.Email,
		Password:    body.Password,
		DisplayName: body.DisplayName,
	})
	if err != nil {
		if err.Error() == "email already registered" {
			writeError(w, http.StatusConflict, "EMAIL_EXISTS", "Email already registered", nil)
			return
		}
		writeError(w, http.StatusBadRequest, "SIGNUP_FAILED", err.Error(), nil)
		return
	}

	response := map[string]any{
		"userId":  resp.UserID,
		"message": "Please check your email to verify your account",
	}
	// Dev bypass: include verification token in response when email not configured
	if !s.service.SMTPConfigured() {
		response["devVerificationToken"] = resp.VerificationToken
		response["message"] = "Account created. Verify your email to continue."
	}

	writeJSON(w, http.StatusCreated, response)
}

func (s *HTTPServer) handleAuthSignIn(w http.ResponseWriter, r *http.Request) {
	authSvc := s.service.AuthPasswordService()
	if authSvc == nil {
		writeError(w, http.StatusServiceUnavailable, "AUTH_UNAVAILABLE", "Authentication service not configured", nil)
		return
	}

	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	resp, err := authSvc.SignIn(r.Context(), authpw.SignInRequest{
		Email:    body.Email,
		Password: body.Password,
	})
	if err != nil {
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil)
		return
	}

	if resp.RequiresVerify {
		writeError(w, http.StatusForbidden, "EMAIL_NOT_VERIFIED", "Please verify your email before signing in", nil)
		return
	}

	session, err := s.service.CreateSession(r.Context(), resp.User.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "SESSION_FAILED", "Failed to create session", nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"accessToken":  session.Token,
		"refreshToken": session.RefreshToken,
		"userId":       session.UserID,
		"userName":     session.UserName,
		"expiresAt":    session.ExpiresAt.Unix(),
	})
}

func (s *HTTPServer) handleAuthVerifyEmail(w http.ResponseWriter, r *http.Request) {
	authSvc := s.service.AuthPasswordService()
	if authSvc == nil {
		writeError(w, http.StatusServiceUnavailable, "AUTH_UNAVAILABLE", "Authentication service not configured", nil)
		return
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	if err := authSvc.VerifyEmail(r.Context(), body.Token); err != nil {
		writeError(w, http.StatusBadRequest, "VERIFICATION_FAILED", err.Error(), nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Email verified successfully",
	})
}

func (s *HTTPServer) handleAuthRequestReset(w http.ResponseWriter, r *http.Request) {
	authSvc := s.service.AuthPasswordService()
	if authSvc == nil {
		writeError(w, http.StatusServiceUnavailable, "AUTH_UNAVAILABLE", "Authentication service not configured", nil)
		return
	}

	var body struct {
		Email string `json:"email"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	token, _ := authSvc.RequestPasswordReset(r.Context(), body.Email)

	response := map[string]any{
		"message": "If an account exists, a reset email has been sent",
	}
	// Dev bypass: include reset token in response when email not configured and token was created
	if !s.service.SMTPConfigured() && token != "" {
		response["devResetToken"] = token
	}

	writeJSON(w, http.StatusOK, response)
}

func (s *HTTPServer) handleAuthResetPassword(w http.ResponseWriter, r *http.Request) {
	authSvc := s.service.AuthPasswordService()
	if authSvc == nil {
		writeError(w, http.StatusServiceUnavailable, "AUTH_UNAVAILABLE", "Authentication service not configured", nil)
		return
	}

	var body struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	if err := authSvc.ResetPassword(r.Context(), authpw.ResetPasswordRequest{
		Token:       body.Token,
		NewPassword: body.NewPassword,
	}); err != nil {
		writeError(w, http.StatusBadRequest, "RESET_FAILED", err.Error(), nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Password reset successfully",
	})
}
