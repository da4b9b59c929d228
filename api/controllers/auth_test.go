package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pradeepsarraf/sajilomart-backend/api/middleware"
	"github.com/pradeepsarraf/sajilomart-backend/internal/identity"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/db/models"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/enums"
	pkgerrors "github.com/pradeepsarraf/sajilomart-backend/pkg/errors"
)

type stubIdentityService struct {
	user    *models.User
	session *identity.Session
	err     error

	registered *identity.RegisterInput
	loggedOut  bool
}

func (s *stubIdentityService) Register(ctx context.Context, input identity.RegisterInput) (*models.User, error) {
	s.registered = &input
	return s.user, s.err
}

func (s *stubIdentityService) Login(ctx context.Context, email, password string) (*identity.Session, error) {
	return s.session, s.err
}

func (s *stubIdentityService) Refresh(ctx context.Context, userID uuid.UUID, refreshToken string) (*identity.Session, error) {
	return s.session, s.err
}

func (s *stubIdentityService) Logout(ctx context.Context, userID uuid.UUID) error {
	s.loggedOut = true
	return s.err
}

func (s *stubIdentityService) ChangePassword(ctx context.Context, userID uuid.UUID, current, replacement string) error {
	return s.err
}

func (s *stubIdentityService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.user, s.err
}

func (s *stubIdentityService) ListUsers(ctx context.Context) ([]models.User, error) {
	if s.user == nil {
		return nil, s.err
	}
	return []models.User{*s.user}, s.err
}

func (s *stubIdentityService) SetStatus(ctx context.Context, id uuid.UUID, status enums.UserStatus) (*models.User, error) {
	return s.user, s.err
}

func TestAuthRegisterSuccess(t *testing.T) {
	svc := &stubIdentityService{user: &models.User{ID: uuid.New(), Email: "ram@example.com"}}
	handler := AuthRegister(svc, nil)

	body := `{"name":"Ram Thapa","email":"ram@example.com","password":"sajilopass"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if svc.registered == nil || svc.registered.Email != "ram@example.com" {
		t.Fatalf("register input not forwarded: %+v", svc.registered)
	}
}

func TestAuthRegisterRejectsShortPassword(t *testing.T) {
	handler := AuthRegister(&stubIdentityService{}, nil)

	body := `{"name":"Ram","email":"ram@example.com","password":"short"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAuthLoginReturnsSession(t *testing.T) {
	session := &identity.Session{
		User:         &models.User{ID: uuid.New(), Email: "ram@example.com"},
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		ExpiresAt:    time.Now().Add(time.Hour),
	}
	handler := AuthLogin(&stubIdentityService{session: session}, nil)

	body := `{"email":"ram@example.com","password":"sajilopass"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data sessionResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.AccessToken != "access-token" {
		t.Fatalf("unexpected access token: %q", envelope.Data.AccessToken)
	}
	if envelope.Data.RefreshToken != "refresh-token" {
		t.Fatalf("unexpected refresh token: %q", envelope.Data.RefreshToken)
	}
}

func TestAuthLoginBadCredentials(t *testing.T) {
	svc := &stubIdentityService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")}
	handler := AuthLogin(svc, nil)

	body := `{"email":"ram@example.com","password":"wrong-pass"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthLogoutRequiresUserContext(t *testing.T) {
	handler := AuthLogout(&stubIdentityService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthLogoutRevokesSession(t *testing.T) {
	svc := &stubIdentityService{}
	handler := AuthLogout(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !svc.loggedOut {
		t.Fatal("expected logout to reach the service")
	}
}
