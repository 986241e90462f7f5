package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ErlanBelekov/taskboard/internal/domain"
	"github.com/ErlanBelekov/taskboard/internal/transport/http/handler"
	"github.com/ErlanBelekov/taskboard/internal/transport/http/middleware"
	"github.com/ErlanBelekov/taskboard/internal/usecase"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeAuthUsecase implements the unexported authUsecaser interface via
// method matching.
type fakeAuthUsecase struct {
	register      func(ctx context.Context, input usecase.RegisterInput) (*domain.User, string, error)
	login         func(ctx context.Context, email, password string) (*domain.User, string, error)
	getProfile    func(ctx context.Context, userID string) (*domain.User, error)
	updateProfile func(ctx context.Context, userID string, input usecase.UpdateProfileInput) (*domain.User, error)
}

func (f *fakeAuthUsecase) Register(ctx context.Context, input usecase.RegisterInput) (*domain.User, string, error) {
	return f.register(ctx, input)
}

func (f *fakeAuthUsecase) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	return f.login(ctx, email, password)
}

func (f *fakeAuthUsecase) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	return f.getProfile(ctx, userID)
}

func (f *fakeAuthUsecase) UpdateProfile(ctx context.Context, userID string, input usecase.UpdateProfileInput) (*domain.User, error) {
	return f.updateProfile(ctx, userID, input)
}

var testUser = &domain.User{ID: "user-1", Name: "Ann", Email: "a@example.com", Role: domain.RoleUser}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// injectUser stands in for the Auth + CurrentUser middleware pair.
func injectUser(u *domain.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserKey, u)
	}
}

func newAuthEngine(uc *fakeAuthUsecase) *gin.Engine {
	h := handler.NewAuthHandler(uc, time.Hour, testLogger())

	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.GET("/auth/profile", injectUser(testUser), h.GetProfile)
	r.PUT("/auth/profile", injectUser(testUser), h.UpdateProfile)
	r.POST("/auth/logout", injectUser(testUser), h.Logout)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

// ---- Register ----

func TestRegister_MissingFields_Returns400(t *testing.T) {
	w := doJSON(t, newAuthEngine(&fakeAuthUsecase{}), http.MethodPost, "/auth/register",
		`{"email":"a@example.com"}`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestRegister_DuplicateEmail_Returns400(t *testing.T) {
	uc := &fakeAuthUsecase{
		register: func(context.Context, usecase.RegisterInput) (*domain.User, string, error) {
			return nil, "", domain.ErrDuplicateEmail
		},
	}
	w := doJSON(t, newAuthEngine(uc), http.MethodPost, "/auth/register",
		`{"name":"Ann","email":"a@example.com","password":"Passw0rd"}`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "already exists") {
		t.Errorf("body = %q, want duplicate email message", w.Body.String())
	}
}

func TestRegister_Success_Returns201WithTokenAndCookie(t *testing.T) {
	uc := &fakeAuthUsecase{
		register: func(context.Context, usecase.RegisterInput) (*domain.User, string, error) {
			return testUser, "signed.jwt.token", nil
		},
	}
	w := doJSON(t, newAuthEngine(uc), http.MethodPost, "/auth/register",
		`{"name":"Ann","email":"a@example.com","password":"Passw0rd"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	if !strings.Contains(w.Body.String(), "signed.jwt.token") {
		t.Error("response body missing token")
	}
	if !strings.Contains(w.Header().Get("Set-Cookie"), "token=signed.jwt.token") {
		t.Errorf("Set-Cookie = %q, want token cookie", w.Header().Get("Set-Cookie"))
	}
}

func TestRegister_NeverSerializesPasswordHash(t *testing.T) {
	user := *testUser
	user.PasswordHash = "$2a$10$secret-hash"
	uc := &fakeAuthUsecase{
		register: func(context.Context, usecase.RegisterInput) (*domain.User, string, error) {
			return &user, "t", nil
		},
	}
	w := doJSON(t, newAuthEngine(uc), http.MethodPost, "/auth/register",
		`{"name":"Ann","email":"a@example.com","password":"Passw0rd"}`)

	if strings.Contains(w.Body.String(), "secret-hash") {
		t.Error("response leaked the password hash")
	}
}

// ---- Login ----

func TestLogin_InvalidCredentials_Returns401(t *testing.T) {
	uc := &fakeAuthUsecase{
		login: func(context.Context, string, string) (*domain.User, string, error) {
			return nil, "", domain.ErrInvalidCredentials
		},
	}
	w := doJSON(t, newAuthEngine(uc), http.MethodPost, "/auth/login",
		`{"email":"a@example.com","password":"wrong-1"}`)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestLogin_InternalError_Returns500WithoutDetail(t *testing.T) {
	uc := &fakeAuthUsecase{
		login: func(context.Context, string, string) (*domain.User, string, error) {
			return nil, "", errors.New("pq: connection reset")
		},
	}
	w := doJSON(t, newAuthEngine(uc), http.MethodPost, "/auth/login",
		`{"email":"a@example.com","password":"Passw0rd"}`)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if strings.Contains(w.Body.String(), "connection reset") {
		t.Error("response leaked internal error detail")
	}
}

func TestLogin_Success_Returns200(t *testing.T) {
	uc := &fakeAuthUsecase{
		login: func(context.Context, string, string) (*domain.User, string, error) {
			return testUser, "signed.jwt.token", nil
		},
	}
	w := doJSON(t, newAuthEngine(uc), http.MethodPost, "/auth/login",
		`{"email":"a@example.com","password":"Passw0rd"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
		Data    struct {
			Email string `json:"email"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !body.Success || body.Token == "" || body.Data.Email != testUser.Email {
		t.Errorf("unexpected response: %+v", body)
	}
}

// ---- Profile ----

func TestGetProfile_ReturnsCurrentUser(t *testing.T) {
	w := doJSON(t, newAuthEngine(&fakeAuthUsecase{}), http.MethodGet, "/auth/profile", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), testUser.Email) {
		t.Errorf("body = %q, want profile with email", w.Body.String())
	}
}

func TestUpdateProfile_DuplicateEmail_Returns400(t *testing.T) {
	uc := &fakeAuthUsecase{
		updateProfile: func(context.Context, string, usecase.UpdateProfileInput) (*domain.User, error) {
			return nil, domain.ErrDuplicateEmail
		},
	}
	w := doJSON(t, newAuthEngine(uc), http.MethodPut, "/auth/profile",
		`{"email":"taken@example.com"}`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestUpdateProfile_Success(t *testing.T) {
	var gotUserID string
	uc := &fakeAuthUsecase{
		updateProfile: func(_ context.Context, userID string, input usecase.UpdateProfileInput) (*domain.User, error) {
			gotUserID = userID
			updated := *testUser
			if input.Name != nil {
				updated.Name = *input.Name
			}
			return &updated, nil
		},
	}
	w := doJSON(t, newAuthEngine(uc), http.MethodPut, "/auth/profile", `{"name":"Annie"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if gotUserID != testUser.ID {
		t.Errorf("usecase called for %q, want the authenticated user", gotUserID)
	}
	if !strings.Contains(w.Body.String(), "Annie") {
		t.Errorf("body = %q, want updated name", w.Body.String())
	}
}

// ---- Logout ----

func TestLogout_ExpiresCookie(t *testing.T) {
	w := doJSON(t, newAuthEngine(&fakeAuthUsecase{}), http.MethodPost, "/auth/logout", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	cookie := w.Header().Get("Set-Cookie")
	if !strings.Contains(cookie, "token=") || !strings.Contains(cookie, "Max-Age=0") {
		t.Errorf("Set-Cookie = %q, want expired token cookie", cookie)
	}
}
