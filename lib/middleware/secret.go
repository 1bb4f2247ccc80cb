package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/onkernel/finbot/lib/logger"
)

// SecretTokenHeader is the header Telegram uses to echo the webhook secret token.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// VerifySecret rejects requests whose {param} path segment does not match secret.
// A request carrying the secret token header must match it as well.
func VerifySecret(secret, param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := logger.FromContext(r.Context())

			if !secretMatches(chi.URLParam(r, param), secret) {
				log.WarnContext(r.Context(), "webhook secret mismatch", "remote_addr", r.RemoteAddr)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if token := r.Header.Get(SecretTokenHeader); token != "" && !secretMatches(token, secret) {
				log.WarnContext(r.Context(), "webhook secret token header mismatch", "remote_addr", r.RemoteAddr)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func secretMatches(got, want string) bool {
	if want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
