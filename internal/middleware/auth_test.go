package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"direct-chat-backend/internal/services"
)

func authedRequest(t *testing.T, userService *services.UserService, header string) (*httptest.ResponseRecorder, string) {
	t.Helper()

	var gotUserID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = GetUserID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/messages/users", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()

	AuthMiddleware(userService)(next).ServeHTTP(rec, req)
	return rec, gotUserID
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	userService := services.NewUserService(nil, "test-secret")
	token, err := userService.GenerateJWT("user-42")
	if err != nil {
		t.Fatalf("GenerateJWT() error = %v", err)
	}

	rec, userID := authedRequest(t, userService, "Bearer "+token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if userID != "user-42" {
		t.Errorf("GetUserID() = %q, want user-42", userID)
	}
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	userService := services.NewUserService(nil, "test-secret")
	other := services.NewUserService(nil, "other-secret")
	foreign, err := other.GenerateJWT("user-42")
	if err != nil {
		t.Fatalf("GenerateJWT() error = %v", err)
	}

	cases := map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic abc123",
		"no token":       "Bearer",
		"garbage token":  "Bearer not-a-jwt",
		"wrong secret":   "Bearer " + foreign,
	}
	for name, header := range cases {
		rec, _ := authedRequest(t, userService, header)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", name, rec.Code)
		}
	}
}

func TestGetUserID_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := GetUserID(req.Context()); got != "" {
		t.Errorf("GetUserID() = %q on a bare context, want empty", got)
	}
}
