package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	"strategydesk/src/model"
)

type mockUserResolver struct {
	user *model.User
	err  error
}

func (m *mockUserResolver) GetByAPIKeyID(ctx context.Context, keyID string) (*model.User, error) {
	return m.user, m.err
}

func protectedHandler(t *testing.T, sawUser **model.User) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := GetUserFromContext(r.Context())
		if !ok {
			t.Error("expected user in context")
		}
		*sawUser = user
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddleware_ValidKeyPair(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret-value"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash secret: %v", err)
	}

	resolver := &mockUserResolver{user: &model.User{ID: 1, APIKeyID: "key-1", APIKeyHash: string(hash)}}

	var sawUser *model.User
	mw := Middleware(resolver)(protectedHandler(t, &sawUser))

	req := httptest.NewRequest(http.MethodGet, "/strategies", nil)
	req.Header.Set("X-API-Key-ID", "key-1")
	req.Header.Set("X-API-Key", "secret-value")
	rr := httptest.NewRecorder()
	mw.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if sawUser == nil || sawUser.ID != 1 {
		t.Fatalf("user not injected into context: %+v", sawUser)
	}
}

func TestMiddleware_MissingHeaders(t *testing.T) {
	var sawUser *model.User
	mw := Middleware(&mockUserResolver{})(protectedHandler(t, &sawUser))

	req := httptest.NewRequest(http.MethodGet, "/strategies", nil)
	rr := httptest.NewRecorder()
	mw.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if sawUser != nil {
		t.Fatal("handler must not run without credentials")
	}
}

func TestMiddleware_WrongSecret(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.MinCost)
	resolver := &mockUserResolver{user: &model.User{ID: 1, APIKeyHash: string(hash)}}

	var sawUser *model.User
	mw := Middleware(resolver)(protectedHandler(t, &sawUser))

	req := httptest.NewRequest(http.MethodGet, "/strategies", nil)
	req.Header.Set("X-API-Key-ID", "key-1")
	req.Header.Set("X-API-Key", "wrong")
	rr := httptest.NewRecorder()
	mw.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestMiddleware_UnknownKey(t *testing.T) {
	var sawUser *model.User
	mw := Middleware(&mockUserResolver{})(protectedHandler(t, &sawUser))

	req := httptest.NewRequest(http.MethodGet, "/strategies", nil)
	req.Header.Set("X-API-Key-ID", "ghost")
	req.Header.Set("X-API-Key", "anything")
	rr := httptest.NewRecorder()
	mw.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestMiddleware_LookupError(t *testing.T) {
	var sawUser *model.User
	mw := Middleware(&mockUserResolver{err: assert.AnError})(protectedHandler(t, &sawUser))

	req := httptest.NewRequest(http.MethodGet, "/strategies", nil)
	req.Header.Set("X-API-Key-ID", "key-1")
	req.Header.Set("X-API-Key", "anything")
	rr := httptest.NewRecorder()
	mw.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}
