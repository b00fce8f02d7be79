package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAPI_Register_Success(t *testing.T) {
	payload := RegisterRequest{Email: "register_ok@example.com", Password: "password123"}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest("POST", "/api/v1/auth/register", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	http.HandlerFunc(testServer.RegisterHandler).ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	var resp RegisterResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "register_ok@example.com", resp.Email)
	require.Equal(t, "free", resp.Tier)
	require.Len(t, resp.APIKey, 40)
	require.NotZero(t, resp.ID)
}

func TestAPI_Register_DuplicateEmail(t *testing.T) {
	createAPITestUser(t, "register_dup@example.com", 1024)

	payload := RegisterRequest{Email: "register_dup@example.com", Password: "password123"}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest("POST", "/api/v1/auth/register", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	http.HandlerFunc(testServer.RegisterHandler).ServeHTTP(rr, req)

	require.Equal(t, http.StatusConflict, rr.Code)
}

func TestAPI_Register_MissingFields(t *testing.T) {
	payload := RegisterRequest{Email: "  ", Password: ""}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest("POST", "/api/v1/auth/register", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	http.HandlerFunc(testServer.RegisterHandler).ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAPI_Login(t *testing.T) {
	createAPITestUser(t, "login_test@example.com", 1024)

	// Poprawne dane logowania
	payload := LoginRequest{Email: "login_test@example.com", Password: "password"}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest("POST", "/api/v1/auth/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	http.HandlerFunc(testServer.LoginHandler).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var tokens TokenResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tokens))
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)

	// Złe hasło
	payload.Password = "wrongpassword"
	body, _ = json.Marshal(payload)
	req = httptest.NewRequest("POST", "/api/v1/auth/login", bytes.NewReader(body))
	rr = httptest.NewRecorder()

	http.HandlerFunc(testServer.LoginHandler).ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	// Nieistniejące konto
	payload = LoginRequest{Email: "ghost@example.com", Password: "password"}
	body, _ = json.Marshal(payload)
	req = httptest.NewRequest("POST", "/api/v1/auth/login", bytes.NewReader(body))
	rr = httptest.NewRecorder()

	http.HandlerFunc(testServer.LoginHandler).ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAPI_RefreshToken_Rotation(t *testing.T) {
	createAPITestUser(t, "refresh_test@example.com", 1024)

	// Logowanie daje pierwszy refresh token
	body, _ := json.Marshal(LoginRequest{Email: "refresh_test@example.com", Password: "password"})
	req := httptest.NewRequest("POST", "/api/v1/auth/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	http.HandlerFunc(testServer.LoginHandler).ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var tokens TokenResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tokens))
	oldRefreshToken := tokens.RefreshToken

	// Wymiana tokenu
	body, _ = json.Marshal(RefreshTokenRequest{RefreshToken: oldRefreshToken})
	req = httptest.NewRequest("POST", "/api/v1/auth/refresh", bytes.NewReader(body))
	rr = httptest.NewRecorder()
	http.HandlerFunc(testServer.RefreshTokenHandler).ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var newTokens TokenResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &newTokens))
	require.NotEqual(t, oldRefreshToken, newTokens.RefreshToken)

	// Stary token jest po rotacji bezużyteczny
	body, _ = json.Marshal(RefreshTokenRequest{RefreshToken: oldRefreshToken})
	req = httptest.NewRequest("POST", "/api/v1/auth/refresh", bytes.NewReader(body))
	rr = httptest.NewRecorder()
	http.HandlerFunc(testServer.RefreshTokenHandler).ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAPI_Logout(t *testing.T) {
	createAPITestUser(t, "logout_test@example.com", 1024)

	body, _ := json.Marshal(LoginRequest{Email: "logout_test@example.com", Password: "password"})
	req := httptest.NewRequest("POST", "/api/v1/auth/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	http.HandlerFunc(testServer.LoginHandler).ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var tokens TokenResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tokens))

	body, _ = json.Marshal(RefreshTokenRequest{RefreshToken: tokens.RefreshToken})
	req = httptest.NewRequest("POST", "/api/v1/auth/logout", bytes.NewReader(body))
	rr = httptest.NewRecorder()
	http.HandlerFunc(testServer.LogoutHandler).ServeHTTP(rr, req)
	require.Equal(t, http.StatusNoContent, rr.Code)

	// Po wylogowaniu refresh token nie działa
	body, _ = json.Marshal(RefreshTokenRequest{RefreshToken: tokens.RefreshToken})
	req = httptest.NewRequest("POST", "/api/v1/auth/refresh", bytes.NewReader(body))
	rr = httptest.NewRecorder()
	http.HandlerFunc(testServer.RefreshTokenHandler).ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAPI_AuthMiddleware(t *testing.T) {
	_, token, _ := createAPITestUser(t, "middleware_test@example.com", 1024)

	protected := testServer.AuthMiddleware(http.HandlerFunc(testServer.GetCurrentUserHandler))

	// Bez nagłówka
	req := httptest.NewRequest("GET", "/api/v1/me", nil)
	rr := httptest.NewRecorder()
	protected.ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	// Zepsuty token
	req = httptest.NewRequest("GET", "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rr = httptest.NewRecorder()
	protected.ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	// Poprawny token
	req = httptest.NewRequest("GET", "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	protected.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
}
