package handler

import (
	"encoding/json"
	"net/http"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"strategydesk/src/auth"
	"strategydesk/src/repository"
)

type changePasswordPayload struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func ChangePasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.GetUserFromContext(r.Context())
		if !ok || user == nil {
			logger.Warn("user not found in context during password change")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var payload changePasswordPayload
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&payload); err != nil {
			logger.WithError(err).Warn("invalid change password payload")
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}

		if payload.CurrentPassword == "" || payload.NewPassword == "" {
			http.Error(w, "Current and new passwords are required", http.StatusBadRequest)
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(payload.CurrentPassword)); err != nil {
			logger.WithField("user_id", user.ID).Warn("current password mismatch")
			http.Error(w, "Invalid current password", http.StatusUnauthorized)
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(payload.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			logger.WithError(err).Error("failed to hash new password")
			http.Error(w, "Unable to update password", http.StatusInternalServerError)
			return
		}

		if err := repository.NewUserRepository().UpdatePassword(r.Context(), user.ID, string(hashedPassword)); err != nil {
			logger.WithError(err).Error("failed to update user password")
			http.Error(w, "Unable to update password", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(map[string]string{"status": "password updated"}); err != nil {
			logger.WithError(err).Error("failed to encode change password response")
		}
	}
}
