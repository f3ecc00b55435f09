package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sahsisunny/xproli-backend/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newJWTService() *JWTService {
	return NewJWTService(&JWTConfig{
		SecretKey:            []byte("test-secret"),
		AccessTokenDuration:  15 * time.Minute,
		RefreshTokenDuration: 168 * time.Hour,
		Issuer:               "xproli-backend",
	})
}

func newAuthFixture(t *testing.T) (*AuthHandlers, *memory.MemStorage) {
	t.Helper()
	storage := memory.New()
	handlers := NewAuthHandlers(storage, newJWTService(), NewPasswordService(), zap.NewNop())
	return handlers, storage
}

func TestJWT_RoundTrip(t *testing.T) {
	svc := newJWTService()

	token, err := svc.GenerateAccessToken(42, "user@example.com")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, "xproli-backend", claims.Issuer)
}

func TestJWT_Expired(t *testing.T) {
	svc := NewJWTService(&JWTConfig{
		SecretKey:           []byte("test-secret"),
		AccessTokenDuration: -time.Minute,
		Issuer:              "xproli-backend",
	})

	token, err := svc.GenerateAccessToken(1, "user@example.com")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWT_WrongSecret(t *testing.T) {
	token, err := newJWTService().GenerateAccessToken(1, "user@example.com")
	require.NoError(t, err)

	other := NewJWTService(&JWTConfig{
		SecretKey:           []byte("different-secret"),
		AccessTokenDuration: 15 * time.Minute,
	})
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractTokenFromBearer(t *testing.T) {
	assert.Equal(t, "abc.def.ghi", ExtractTokenFromBearer("Bearer abc.def.ghi"))
	assert.Equal(t, "", ExtractTokenFromBearer("abc.def.ghi"))
	assert.Equal(t, "", ExtractTokenFromBearer(""))
}

func TestPasswordService(t *testing.T) {
	svc := NewPasswordService()

	hash, err := svc.HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.NoError(t, svc.VerifyPassword(hash, "correct horse"))
	assert.Error(t, svc.VerifyPassword(hash, "battery staple"))
}

func TestIsValidPassword(t *testing.T) {
	assert.NoError(t, IsValidPassword("secret1"))
	assert.Error(t, IsValidPassword("short"))
	assert.Error(t, IsValidPassword(strings.Repeat("x", 200)))
}

func TestRegister(t *testing.T) {
	handlers, storage := newAuthFixture(t)

	body := `{"email":"User@Example.com","password":"secret123"}`
	rec := httptest.NewRecorder()
	handlers.Register(rec, httptest.NewRequest("POST", "/api/auth/register", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)

	var envelope struct {
		Status string       `json:"status"`
		Data   AuthResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	assert.Equal(t, "success", envelope.Status)
	assert.NotEmpty(t, envelope.Data.AccessToken)
	assert.NotEmpty(t, envelope.Data.RefreshToken)
	// Emails are normalized to lower case.
	assert.Equal(t, "user@example.com", envelope.Data.User.Email)

	user, err := storage.GetUserByEmail(context.Background(), "user@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", user.PasswordHash)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	handlers, _ := newAuthFixture(t)
	body := `{"email":"user@example.com","password":"secret123"}`

	rec := httptest.NewRecorder()
	handlers.Register(rec, httptest.NewRequest("POST", "/api/auth/register", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	handlers.Register(rec, httptest.NewRequest("POST", "/api/auth/register", strings.NewReader(body)))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegister_Validation(t *testing.T) {
	handlers, _ := newAuthFixture(t)

	rec := httptest.NewRecorder()
	handlers.Register(rec, httptest.NewRequest("POST", "/api/auth/register",
		strings.NewReader(`{"email":"not-an-email","password":"secret123"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	handlers.Register(rec, httptest.NewRequest("POST", "/api/auth/register",
		strings.NewReader(`{"email":"user@example.com","password":"x"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin(t *testing.T) {
	handlers, _ := newAuthFixture(t)
	register := `{"email":"user@example.com","password":"secret123"}`
	rec := httptest.NewRecorder()
	handlers.Register(rec, httptest.NewRequest("POST", "/api/auth/register", strings.NewReader(register)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	handlers.Login(rec, httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(register)))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handlers.Login(rec, httptest.NewRequest("POST", "/api/auth/login",
		strings.NewReader(`{"email":"user@example.com","password":"wrong"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	handlers.Login(rec, httptest.NewRequest("POST", "/api/auth/login",
		strings.NewReader(`{"email":"nobody@example.com","password":"secret123"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth(t *testing.T) {
	jwtService := newJWTService()
	middleware := NewMiddleware(jwtService, zap.NewNop())

	var gotUserID int64
	protected := middleware.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = GetUserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	protected(rec, httptest.NewRequest("GET", "/api/links", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := jwtService.GenerateAccessToken(7, "user@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/links", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	protected(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), gotUserID)

	req = httptest.NewRequest("GET", "/api/links", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	protected(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
