package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"registry-report/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey string

const (
	UserIDKey ctxKey = "userID"
	RoleKey   ctxKey = "role"
)

var (
	errMissingToken = errors.New("missing bearer token")
	errInvalidToken = errors.New("invalid token")
	errTokenExpired = errors.New("token expired")
)

// TokenLookup resolves personal access tokens issued by the main application.
type TokenLookup interface {
	FindTokenByPlainToken(ctx context.Context, plainToken string) (*domain.PersonalAccessToken, error)
}

// Authenticator accepts either an HS256 JWT (sub + role claims) or a
// personal access token. Either source may be disabled.
type Authenticator struct {
	tokens    TokenLookup
	jwtSecret []byte
	now       func() time.Time
	log       *slog.Logger
}

func NewAuthenticator(tokens TokenLookup, jwtSecret string, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{
		tokens:    tokens,
		jwtSecret: []byte(jwtSecret),
		now:       time.Now,
		log:       logger,
	}
}

// Middleware authenticates the request from the Authorization header, or from
// the token query parameter for websocket handshakes.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, role, err := a.authenticate(r)
		if err != nil {
			a.log.InfoContext(r.Context(), "request not authenticated",
				"method", r.Method, "path", r.URL.Path, "error", err)
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userID, role)))
	})
}

func (a *Authenticator) authenticate(r *http.Request) (int64, string, error) {
	token := bearerToken(r)
	if token == "" {
		return 0, "", errMissingToken
	}

	if len(a.jwtSecret) > 0 && strings.Count(token, ".") == 2 {
		return a.parseJWT(token)
	}
	if a.tokens == nil {
		return 0, "", errInvalidToken
	}

	pat, err := a.tokens.FindTokenByPlainToken(r.Context(), token)
	if err != nil {
		a.log.DebugContext(r.Context(), "personal access token lookup failed", "error", err)
		return 0, "", errInvalidToken
	}
	if pat.ExpiresAt != nil && pat.ExpiresAt.Before(a.now()) {
		return 0, "", errTokenExpired
	}
	return pat.UserID, pat.Role, nil
}

func (a *Authenticator) parseJWT(tokenString string) (int64, string, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return a.jwtSecret, nil
	}, jwt.WithTimeFunc(a.now))
	if err != nil || !token.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, "", errTokenExpired
		}
		return 0, "", errInvalidToken
	}

	uid, err := parseTokenUserID(claims["sub"])
	if err != nil {
		return 0, "", fmt.Errorf("invalid token subject: %w", err)
	}
	role, _ := claims["role"].(string)
	return uid, role, nil
}

// IssueToken signs a JWT the middleware accepts.
func IssueToken(secret string, userID int64, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(userID, 10),
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		if token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")); token != "" {
			return token
		}
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

func parseTokenUserID(raw any) (int64, error) {
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, errors.New("non-integer subject")
		}
		return int64(v), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	default:
		return 0, fmt.Errorf("unsupported subject type %T", raw)
	}
}

func WithUser(ctx context.Context, userID int64, role string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, RoleKey, role)
}

func GetUserID(ctx context.Context) (int64, error) {
	userID, ok := ctx.Value(UserIDKey).(int64)
	if !ok {
		return 0, errors.New("userID not found in context")
	}
	return userID, nil
}

func GetRole(ctx context.Context) string {
	role, _ := ctx.Value(RoleKey).(string)
	return role
}

// writeError mirrors the REST envelope so auth failures look like every
// other API error.
func writeError(w http.ResponseWriter, httpStatus int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error_code": httpStatus,
		"status":     "error",
		"message":    message,
		"data":       nil,
	})
}
