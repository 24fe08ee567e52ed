package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	h "mobilizewarehouse/internal/delivery/http/helpers"
	"mobilizewarehouse/internal/domain"
)

type operatorKey struct{}

// bearerChallenge is sent with every 401 from RequireOperator.
const bearerChallenge = `Bearer realm="mobilize-warehouse"`

var errNoBearerToken = errors.New("no bearer token")

// WithOperator returns ctx tagged with the operator that triggered the request.
func WithOperator(ctx context.Context, operator string) context.Context {
	return context.WithValue(ctx, operatorKey{}, operator)
}

// Operator returns the operator set by RequireOperator, or "" when the
// request was not authenticated.
func Operator(ctx context.Context) string {
	op, _ := ctx.Value(operatorKey{}).(string)
	return op
}

// bearerToken reads "Authorization: Bearer <token>". The scheme match is
// case-insensitive.
func bearerToken(r *http.Request) (string, error) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", errNoBearerToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errNoBearerToken
	}
	return token, nil
}

// RequireOperator guards the routes that write to the warehouse. A request
// without a valid operator token gets 401 with a Bearer challenge and never
// reaches next.
func RequireOperator(verifier domain.TokenVerifier, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			var operator string
			if err == nil {
				operator, err = verifier.Verify(token)
			}
			if err != nil {
				logger.WarnContext(r.Context(), "operator token rejected",
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", w.Header().Get(RequestIDHeader),
					"error", err,
				)
				w.Header().Set("WWW-Authenticate", bearerChallenge)
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "a valid operator token is required")
				return
			}
			next(w, r.WithContext(WithOperator(r.Context(), operator)))
		}
	}
}
