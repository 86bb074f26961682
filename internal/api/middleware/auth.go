package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/m04kA/SMC-ReservationEngine/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

const (
	headerAuthorization = "Authorization"
	headerUserID        = "X-User-ID"
	headerAdminKey      = "X-Admin-Key"
	roleAdmin           = "admin"

	msgUnauthorized = "требуется аутентификация"
	msgInvalidToken = "некорректный токен"
)

type ctxKey int

const (
	userIDKey ctxKey = iota
	adminKey
)

// AuthOptions настройки аутентификации
type AuthOptions struct {
	JWTSecret      string
	AllowHeaderID  bool
	AdminHeaderKey string
}

// Claims полезная нагрузка JWT: sub - ID пользователя, role - роль
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Auth проверяет Bearer токен (HS256); при разрешенном fallback принимает X-User-ID
func Auth(opts AuthOptions, logger Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, isAdmin, err := authenticate(r, opts)
			if err != nil {
				logger.Warn("Auth: %s %s rejected: %v", r.Method, r.URL.Path, err)
				if errors.Is(err, errNoCredentials) {
					handlers.RespondUnauthorized(w, msgUnauthorized)
				} else {
					handlers.RespondUnauthorized(w, msgInvalidToken)
				}
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			ctx = context.WithValue(ctx, adminKey, isAdmin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

var errNoCredentials = errors.New("no credentials")

func authenticate(r *http.Request, opts AuthOptions) (int64, bool, error) {
	if raw := r.Header.Get(headerAuthorization); raw != "" && opts.JWTSecret != "" {
		if !strings.HasPrefix(raw, "Bearer ") {
			return 0, false, fmt.Errorf("malformed authorization header")
		}
		return parseToken(strings.TrimPrefix(raw, "Bearer "), opts.JWTSecret)
	}

	if !opts.AllowHeaderID {
		return 0, false, errNoCredentials
	}

	raw := r.Header.Get(headerUserID)
	if raw == "" {
		return 0, false, errNoCredentials
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		return 0, false, fmt.Errorf("invalid %s header %q", headerUserID, raw)
	}

	isAdmin := opts.AdminHeaderKey != "" && r.Header.Get(headerAdminKey) == opts.AdminHeaderKey
	return userID, isAdmin, nil
}

func parseToken(raw, secret string) (int64, bool, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return 0, false, fmt.Errorf("invalid token: %w", err)
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, false, fmt.Errorf("invalid subject %q", claims.Subject)
	}
	return userID, claims.Role == roleAdmin, nil
}

// GetUserID возвращает ID аутентифицированного пользователя
func GetUserID(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDKey).(int64)
	return userID, ok
}

// GetActor возвращает вызывающего вместе с признаком администратора
func GetActor(ctx context.Context) (domain.Actor, bool) {
	userID, ok := GetUserID(ctx)
	if !ok {
		return domain.Actor{}, false
	}
	isAdmin, _ := ctx.Value(adminKey).(bool)
	return domain.Actor{UserID: userID, IsAdmin: isAdmin}, true
}

// WithActor кладет вызывающего в контекст (тесты хендлеров)
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	ctx = context.WithValue(ctx, userIDKey, actor.UserID)
	return context.WithValue(ctx, adminKey, actor.IsAdmin)
}
