package devauthority

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/MrEthical07/goConsole/internal/rate"
	"github.com/MrEthical07/goConsole/jwt"
	"github.com/MrEthical07/goConsole/session"
)

type ctxKey int

const (
	claimsKey ctxKey = iota
	userKey
)

type loginRequest struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
	Username   string `json:"username"`
	Password   string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type loginResponse struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	TokenType    string   `json:"tokenType"`
	ExpiresIn    int64    `json:"expiresIn"`
	UserID       int64    `json:"userId"`
	Username     string   `json:"username"`
	FullName     string   `json:"fullName,omitempty"`
	Email        string   `json:"email,omitempty"`
	Role         string   `json:"role"`
	UnitID       *int64   `json:"unitId,omitempty"`
	UnitName     string   `json:"unitName,omitempty"`
	Permissions  []string `json:"permissions"`
}

type errorResponse struct {
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
	Timestamp    string `json:"timestamp"`
	HTTPStatus   int    `json:"http_status"`
	Path         string `json:"path"`
}

// Handler returns the authority's HTTP surface. Endpoints live under /api.
func (a *Authority) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(a.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", a.handleLogin)
		r.Post("/auth/refresh", a.handleRefresh)

		r.Group(func(r chi.Router) {
			r.Use(a.requireBearer)
			r.Post("/auth/logout", a.handleLogout)
			r.Get("/users/me", a.handleMe)
		})
	})
	return r
}

func (a *Authority) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body")
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		username = strings.TrimSpace(req.Identifier)
	}
	password := req.Password
	if password == "" {
		password = req.Secret
	}
	if username == "" || password == "" {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Username and password are required")
		return
	}

	ip := clientIP(r)
	if a.throttle != nil {
		if err := a.throttle.CheckLogin(r.Context(), username, ip); err != nil {
			a.writeThrottleError(w, r, username, err)
			return
		}
	}

	out, err := a.login(username, password)
	if err != nil {
		a.logger.Info("login rejected", zap.String("username", username), zap.Error(err))
		if a.throttle != nil && errors.Is(err, errBadCredentials) {
			if terr := a.throttle.IncrementLogin(r.Context(), username, ip); terr != nil {
				a.logger.Warn("login throttle increment failed", zap.Error(terr))
			}
		}
		a.writeAuthError(w, r, err)
		return
	}
	if a.throttle != nil {
		if terr := a.throttle.ResetLogin(r.Context(), username); terr != nil {
			a.logger.Warn("login throttle reset failed", zap.Error(terr))
		}
	}
	a.logger.Info("login", zap.String("username", username))
	writeJSON(w, http.StatusOK, newLoginResponse(out))
}

func (a *Authority) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Refresh token is required")
		return
	}

	out, err := a.refresh(req.RefreshToken)
	if err != nil {
		a.logger.Info("refresh rejected", zap.Error(err))
		a.writeAuthError(w, r, err)
		return
	}
	a.logger.Debug("refresh", zap.String("username", out.user.Username))
	writeJSON(w, http.StatusOK, newLoginResponse(out))
}

func (a *Authority) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims, _ := r.Context().Value(claimsKey).(*jwt.AccessClaims)
	if claims != nil {
		a.logout(claims.ID)
		a.logger.Info("logout", zap.String("username", claims.Subject))
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Logged out"})
}

func (a *Authority) handleMe(w http.ResponseWriter, r *http.Request) {
	user, _ := r.Context().Value(userKey).(*session.User)
	if user == nil {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *Authority) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := extractBearerToken(r.Header.Get("Authorization"))
		if !ok {
			writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Missing bearer token")
			return
		}

		claims, user, err := a.authenticate(token)
		if err != nil {
			a.logger.Debug("bearer rejected", zap.Error(err))
			writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid access token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		ctx = context.WithValue(ctx, userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Authority) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		a.logger.Debug("http_request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.String("request_id", chimiddleware.GetReqID(r.Context())),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (a *Authority) writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errBadCredentials):
		writeError(w, r, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password")
	case errors.Is(err, errInactive):
		writeError(w, r, http.StatusUnauthorized, "ACCOUNT_INACTIVE", "User account is inactive")
	case errors.Is(err, errBadRefresh):
		writeError(w, r, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN", "Invalid refresh token")
	default:
		a.logger.Error("token issue failed", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}

func (a *Authority) writeThrottleError(w http.ResponseWriter, r *http.Request, username string, err error) {
	if errors.Is(err, rate.ErrRateLimited) {
		a.logger.Info("login throttled", zap.String("username", username))
		writeError(w, r, http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "Too many login attempts")
		return
	}
	a.logger.Error("login throttle unavailable", zap.Error(err))
	writeError(w, r, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Service temporarily unavailable")
}

// clientIP returns the host part of RemoteAddr, which RealIP may already
// have replaced with a bare address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func newLoginResponse(out *issued) loginResponse {
	resp := loginResponse{
		AccessToken:  out.accessToken,
		RefreshToken: out.refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(out.expiresIn / time.Second),
		UserID:       out.user.ID,
		Username:     out.user.Username,
		FullName:     out.user.FullName,
		Email:        out.user.Email,
		Role:         string(out.user.Role),
		Permissions:  out.user.Permissions.Tokens(),
	}
	if out.user.Unit != nil {
		id := out.user.Unit.ID
		resp.UnitID = &id
		resp.UnitName = out.user.Unit.Name
	}
	return resp
}

func extractBearerToken(value string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(value), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(out)
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, errCode, msg string) {
	writeJSON(w, code, errorResponse{
		ErrorCode:    errCode,
		ErrorMessage: msg,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		HTTPStatus:   code,
		Path:         r.URL.Path,
	})
}
