package server

import (
	"net/http"
	"strings"
	"time"

	"inwista-wallet-go/internal/auth"
	"inwista-wallet-go/internal/models"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// requestLogger logs one line per request through the global zap logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		zap.L().Info("HTTP request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("proto", r.Proto),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)))
	})
}

// bearerAuth rejects requests without a valid session token and stores the
// session in the request context.
func bearerAuth(tokens *auth.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				respondWithError(w, r, auth.ErrInvalidToken)
				return
			}

			session, err := tokens.Parse(strings.TrimSpace(token))
			if err != nil {
				respondWithError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(models.WithSession(r.Context(), session)))
		})
	}
}

// ownAccount resolves the account a request acts on. An empty accountId
// means the session's own account; any other account is forbidden.
func ownAccount(r *http.Request, accountId string) (string, error) {
	session := models.GetSession(r.Context())
	if session == nil {
		return "", auth.ErrInvalidToken
	}
	if accountId == "" {
		return session.AccountId, nil
	}
	if accountId != session.AccountId {
		return "", errForbidden
	}
	return accountId, nil
}
