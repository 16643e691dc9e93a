package auth

import (
	"context"
	"net/http"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"strategydesk/src/model"
)

type userResolver interface {
	GetByAPIKeyID(ctx context.Context, keyID string) (*model.User, error)
}

// Middleware authenticates requests by API key pair. The key id travels in
// X-API-Key-ID, the secret in X-API-Key; only the bcrypt hash of the secret
// is stored, so the comparison happens here.
func Middleware(users userResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			keyID := r.Header.Get("X-API-Key-ID")
			secret := r.Header.Get("X-API-Key")

			if keyID == "" || secret == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			user, err := users.GetByAPIKeyID(r.Context(), keyID)
			if err != nil {
				logger.WithError(err).Error("API key lookup failed")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			if user == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if err := bcrypt.CompareHashAndPassword([]byte(user.APIKeyHash), []byte(secret)); err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}
