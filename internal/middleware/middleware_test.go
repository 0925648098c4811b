package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/modelboard/api/internal/model"
)

func newTestApp(handlers ...fiber.Handler) *fiber.App {
	app := fiber.New()
	handlers = append(handlers, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"userId": GetUserID(c), "role": GetUserRole(c)})
	})
	app.Get("/test", handlers...)
	return app
}

func TestAuthenticate(t *testing.T) {
	auth := NewAuthMiddleware("test-secret")
	app := newTestApp(auth.Authenticate())

	token, err := auth.GenerateToken("u1", "u1@example.com", "")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic abc", fiber.StatusUnauthorized},
		{"bad token", "Bearer nope", fiber.StatusUnauthorized},
		{"valid token", "Bearer " + token, fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestAuthenticate_WrongSecret(t *testing.T) {
	other := NewAuthMiddleware("other-secret")
	token, _ := other.GenerateToken("u1", "", model.RoleAdmin)

	app := newTestApp(NewAuthMiddleware("test-secret").Authenticate())
	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestRequireRole(t *testing.T) {
	auth := NewAuthMiddleware("test-secret")
	app := newTestApp(auth.Authenticate(), RequireRole(model.RoleAdmin))

	userToken, _ := auth.GenerateToken("u1", "", model.RoleUser)
	adminToken, _ := auth.GenerateToken("a1", "", model.RoleAdmin)

	for token, want := range map[string]int{
		userToken:  fiber.StatusForbidden,
		adminToken: fiber.StatusOK,
	} {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		if resp.StatusCode != want {
			t.Fatalf("status = %d, want %d", resp.StatusCode, want)
		}
	}
}

func TestGatewayAuth(t *testing.T) {
	app := newTestApp(GatewayAuthMiddleware(), RequireRole(model.RoleAdmin))

	req := httptest.NewRequest("GET", "/test", nil)
	resp, _ := app.Test(req)
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}

	req = httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-User-Id", "a1")
	req.Header.Set("X-User-Role", model.RoleAdmin)
	resp, _ = app.Test(req)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestRateLimiter_NilRedisAllows(t *testing.T) {
	app := newTestApp(NewRateLimiter(nil).BioLimit(1))

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
	}
}
