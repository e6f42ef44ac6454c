package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	errMissingCredentials = errors.New("missing session token")
	errInvalidToken       = errors.New("invalid or expired session token")
)

type contextKey string

const AccountIDKey contextKey = "account_id"

// SessionCookieName is the cookie carrying the session token for the web UI.
const SessionCookieName = "session"

// AuthMiddleware validates the session token and puts the account id into
// the request context. The token is read from the Authorization header
// (Bearer) or, failing that, from the session cookie, so the same middleware
// guards both the JSON API and the rendered pages' XHR calls.
func AuthMiddleware(jwtSecret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accountID, err := authenticate(r, jwtSecret)
			if err != nil {
				logger.Debug("Authentication failed", zap.Error(err))
				respondWithError(w, http.StatusUnauthorized, err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), AccountIDKey, accountID)

			logger.Debug("Account authenticated", zap.String("account_id", accountID.String()))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WebAuthMiddleware guards server-rendered pages. Instead of a JSON 401 it
// redirects unauthenticated requests to the login page.
func WebAuthMiddleware(jwtSecret, loginPath string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accountID, err := authenticate(r, jwtSecret)
			if err != nil {
				logger.Debug("Redirecting unauthenticated request", zap.String("path", r.URL.Path))
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), AccountIDKey, accountID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(r *http.Request, jwtSecret string) (uuid.UUID, error) {
	tokenString := bearerToken(r)
	if tokenString == "" {
		if cookie, err := r.Cookie(SessionCookieName); err == nil {
			tokenString = cookie.Value
		}
	}
	if tokenString == "" {
		return uuid.Nil, errMissingCredentials
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, errInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, errInvalidToken
	}

	rawID, ok := claims["account_id"].(string)
	if !ok {
		return uuid.Nil, errInvalidToken
	}

	accountID, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, errInvalidToken
	}

	return accountID, nil
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// GetAccountID extracts the authenticated account id from the request context
func GetAccountID(ctx context.Context) (uuid.UUID, bool) {
	accountID, ok := ctx.Value(AccountIDKey).(uuid.UUID)
	return accountID, ok
}
