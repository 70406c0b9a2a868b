package server

import (
	"net/http"
	"testing"

	"riddlery/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignup(t *testing.T) {
	_, app, _ := setupTestServer(t)

	tests := []struct {
		name           string
		body           map[string]string
		expectedStatus int
	}{
		{
			name: "Success",
			body: map[string]string{
				"username": "solver",
				"email":    "solver@riddles.example.com",
				"password": testPassword,
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "Duplicate Email",
			body: map[string]string{
				"username": "solver2",
				"email":    "solver@riddles.example.com",
				"password": testPassword,
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "Weak Password",
			body: map[string]string{
				"username": "weakling",
				"email":    "weak@riddles.example.com",
				"password": "short",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Invalid Email",
			body: map[string]string{
				"username": "bademail",
				"email":    "not-an-email",
				"password": testPassword,
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Missing Fields",
			body: map[string]string{
				"username": "incomplete",
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", tt.body)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestLogin(t *testing.T) {
	s, app, db := setupTestServer(t)
	user, _ := createTestUser(t, s, db, "returning", false)

	t.Run("Success", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email":    user.Email,
			"password": testPassword,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody[map[string]any](t, resp)
		token, ok := body["token"].(string)
		require.True(t, ok)
		require.NotEmpty(t, token)

		// The token works against a protected endpoint.
		me := doJSON(t, app, http.MethodGet, "/api/users/me", token, nil)
		require.Equal(t, http.StatusOK, me.StatusCode)
		profile := decodeBody[models.User](t, me)
		assert.Equal(t, user.Username, profile.Username)
	})

	t.Run("Wrong Password", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email":    user.Email,
			"password": "Wrong-Password-99!",
		})
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Unknown Email", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email":    "nobody@riddles.example.com",
			"password": testPassword,
		})
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}
