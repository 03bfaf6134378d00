package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/storefront-sessions/internal/errors"
	"github.com/jrsteele09/storefront-sessions/session"
	"github.com/jrsteele09/storefront-sessions/users"
)

const maxBodyBytes = 1 << 20

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string           `json:"token"`
	TokenType string           `json:"token_type"`
	ExpiresIn int64            `json:"expires_in"`
	User      *users.Principal `json:"user"`
}

type LogoutRequest struct {
	AllDevices bool `json:"all_devices"`
}

type LogoutResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type SweepResponse struct {
	Removed int64 `json:"removed"`
}

// decodeJSON reads a JSON body; an empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !apperrors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeAppError(w, apperrors.ErrInvalidRequest)
			return
		}
		if strings.TrimSpace(req.Email) == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "email and password are required")
			return
		}

		credential, principal, err := s.auth.LoginWithPassword(r.Context(), req.Email, req.Password)
		if err != nil {
			if !apperrors.Is(err, session.ErrInvalidLogin) {
				s.log.Error().Err(err).Msg("login failed")
			}
			writeAppError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, LoginResponse{
			Token:     credential,
			TokenType: "bearer",
			ExpiresIn: int64(s.auth.TTL().Seconds()),
			User:      principal,
		})
	}
}

// LogoutHandler revokes the presented credential, or with all_devices every credential
// of its subject. An unusable credential is reported in the body, not with a 401.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LogoutRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeAppError(w, apperrors.ErrInvalidRequest)
			return
		}

		credential, ok := bearerToken(r)
		if !ok {
			writeJSON(w, http.StatusOK, LogoutResponse{Message: session.OutcomeAlreadyInvalid.Message()})
			return
		}

		if !req.AllDevices {
			outcome, _ := s.auth.LogoutOne(r.Context(), credential)
			writeJSON(w, logoutStatus(outcome), LogoutResponse{
				Success: outcome.Success(),
				Message: outcome.Message(),
			})
			return
		}

		principal, err := s.auth.Validate(r.Context(), credential)
		if err != nil {
			if apperrors.Is(err, session.ErrUnavailable) {
				writeJSON(w, http.StatusServiceUnavailable, LogoutResponse{Message: session.OutcomeFailed.AllDevicesMessage()})
				return
			}
			writeJSON(w, http.StatusOK, LogoutResponse{Message: session.OutcomeAlreadyInvalid.Message()})
			return
		}

		outcome, _ := s.auth.LogoutAll(r.Context(), principal.ID)
		writeJSON(w, logoutStatus(outcome), LogoutResponse{
			Success: outcome.Success(),
			Message: outcome.AllDevicesMessage(),
		})
	}
}

func logoutStatus(outcome session.Outcome) int {
	if outcome == session.OutcomeFailed {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFromContext(r.Context())
		if !ok {
			writeUnauthorized(w)
			return
		}
		writeJSON(w, http.StatusOK, principal)
	}
}

// SweepHandler runs an on-demand purge of expired deny-list records.
func (s *Server) SweepHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		removed, err := s.auth.SweepExpired(r.Context(), s.nowTime())
		if err != nil {
			s.log.Error().Err(err).Msg("admin sweep failed")
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, SweepResponse{Removed: removed})
	}
}
