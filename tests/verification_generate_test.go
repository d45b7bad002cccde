package tests

import (
	"net/http"
	"testing"
)

func TestGenerateOTP(t *testing.T) {

	t.Run("NewUserByPhone", func(t *testing.T) {

		// Arrange
		phone := uniquePhone()

		// Act
		data := generateOTP(t, map[string]string{
			"name":    "Real Test User",
			"channel": "sms",
			"phone":   phone,
		})

		// Assert
		if data.UserID == "" {
			t.Fatal("expected a user id in the response")
		}
		if data.Channel != "sms" || !data.Queued {
			t.Fatalf("expected queued sms code, got %+v", data)
		}
	})

	t.Run("ExistingUserById", func(t *testing.T) {

		// Arrange
		first := generateOTP(t, map[string]string{
			"channel": "sms",
			"phone":   uniquePhone(),
		})

		// Act
		second := generateOTP(t, map[string]string{
			"user_id": first.UserID,
			"channel": "sms",
		})

		// Assert
		if second.UserID != first.UserID {
			t.Fatalf("expected same user, got %q and %q", first.UserID, second.UserID)
		}
	})

	t.Run("MissingContact", func(t *testing.T) {

		// Act
		status, body := doJSON(t, http.MethodPost, "/api/generate-otp", map[string]string{
			"channel": "sms",
		}, "")

		// Assert
		if status != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422 for missing contact, got %d: %s", status, body)
		}
	})

	t.Run("UnknownChannel", func(t *testing.T) {

		// Act
		status, _ := doJSON(t, http.MethodPost, "/api/generate-otp", map[string]string{
			"channel": "pigeon",
			"phone":   uniquePhone(),
		}, "")

		// Assert
		if status != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422 for unknown channel, got %d", status)
		}
	})
}
