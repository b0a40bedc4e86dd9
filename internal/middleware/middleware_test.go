package middleware

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataprep/ingest/internal/auth"
)

const testSecret = "test-secret"

func newApp(handlers ...fiber.Handler) *fiber.App {
	app := fiber.New()
	chain := append(handlers, func(c *fiber.Ctx) error {
		return c.SendString(GetUserID(c) + "|" + GetUserEmail(c))
	})
	app.Get("/", chain...)
	return app
}

func TestAuthenticate(t *testing.T) {
	m := NewAuthMiddleware(testSecret)
	app := newApp(m.Authenticate())

	token, err := auth.GenerateToken(testSecret, "user-1", "a@b.c", time.Hour)
	require.NoError(t, err)
	other, err := auth.GenerateToken("other", "user-1", "", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + token, fiber.StatusOK},
		{"lowercase scheme", "bearer " + token, fiber.StatusOK},
		{"missing", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic abc", fiber.StatusUnauthorized},
		{"wrong secret", "Bearer " + other, fiber.StatusUnauthorized},
		{"garbage", "Bearer not-a-jwt", fiber.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.status == fiber.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				assert.Equal(t, "user-1|a@b.c", string(body))
			}
		})
	}
}

func setUser(id string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("userId", id)
		return c.Next()
	}
}

func TestRateLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	rl := NewRateLimiter(client, nil)
	app := newApp(setUser("u1"), rl.UploadLimit(2))

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "2", resp.Header.Get("X-RateLimit-Limit"))
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	mr.FastForward(time.Hour + time.Second)
	resp, err = app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRateLimiter_WithoutRedis(t *testing.T) {
	app := newApp(setUser("u1"), NewRateLimiter(nil, nil).UploadLimit(1))
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
}

func TestAuthenticateQuery(t *testing.T) {
	app := newApp(NewAuthMiddleware(testSecret).AuthenticateQuery())
	token, err := auth.GenerateToken(testSecret, "user-9", "", time.Hour)
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest("GET", "/?token="+token, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
