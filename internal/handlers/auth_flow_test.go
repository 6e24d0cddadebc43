package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"smartcal/internal/handlers"
	"smartcal/internal/response"

	"github.com/stretchr/testify/assert"
)

func TestRegisterLoginMe(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.Close()

	email := fmt.Sprintf("ivan_%d@example.com", time.Now().UnixNano())
	alias := fmt.Sprintf("ivan_%d", time.Now().UnixNano())

	reg, err := json.Marshal(handlers.RegisterRequest{
		Name:     "Иван",
		Email:    email,
		Password: "password123",
		Alias:    alias,
	})
	assert.NoError(t, err)

	res, err := http.Post(ts.URL+"/users/register", "application/json", bytes.NewReader(reg))
	assert.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusCreated, res.StatusCode)

	var created handlers.UserResponse
	assert.NoError(t, json.NewDecoder(res.Body).Decode(&created))
	assert.Equal(t, email, created.Email)
	assert.Equal(t, "user", created.Role)

	// Повторная регистрация с тем же email отклоняется.
	res2, err := http.Post(ts.URL+"/users/register", "application/json", bytes.NewReader(reg))
	assert.NoError(t, err)
	defer res2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res2.StatusCode)
	code, _ := decodeError(t, res2)
	assert.Equal(t, "EMAIL_EXISTS", code)

	// Неверный пароль.
	badLogin, _ := json.Marshal(handlers.LoginRequest{Email: email, Password: "wrongpass"})
	res3, err := http.Post(ts.URL+"/users/login", "application/json", bytes.NewReader(badLogin))
	assert.NoError(t, err)
	defer res3.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, res3.StatusCode)

	// Успешный вход выдаёт bearer-токен.
	login, _ := json.Marshal(handlers.LoginRequest{Email: email, Password: "password123"})
	res4, err := http.Post(ts.URL+"/users/login", "application/json", bytes.NewReader(login))
	assert.NoError(t, err)
	defer res4.Body.Close()
	assert.Equal(t, http.StatusOK, res4.StatusCode)

	var token response.TokenResponse
	assert.NoError(t, json.NewDecoder(res4.Body).Decode(&token))
	assert.NotEmpty(t, token.AccessToken)
	assert.Equal(t, "bearer", token.TokenType)

	// Токен открывает /users/me.
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	res5, err := http.DefaultClient.Do(req)
	assert.NoError(t, err)
	defer res5.Body.Close()
	assert.Equal(t, http.StatusOK, res5.StatusCode)

	var me handlers.UserResponse
	assert.NoError(t, json.NewDecoder(res5.Body).Decode(&me))
	assert.Equal(t, created.ID, me.ID)

	// Без токена доступ закрыт.
	res6, err := http.Get(ts.URL + "/users/me")
	assert.NoError(t, err)
	defer res6.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, res6.StatusCode)
}
