package e2e

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"

	"github.com/modelboard/api/internal/client"
	"github.com/modelboard/api/internal/handler"
	"github.com/modelboard/api/internal/middleware"
	"github.com/modelboard/api/internal/model"
	"github.com/modelboard/api/internal/repository"
	"github.com/modelboard/api/internal/service"
	"github.com/modelboard/api/internal/translation"
)

const testJWTSecret = "test-secret-for-e2e"

// testApp holds all components needed for testing
type testApp struct {
	app       *fiber.App
	scheduler *translation.Scheduler
	auth      *middleware.AuthMiddleware
}

// recordingQueue stands in for the asynq client
type recordingQueue struct {
	tasks []*asynq.Task
}

func (q *recordingQueue) Enqueue(task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	q.tasks = append(q.tasks, task)
	return &asynq.TaskInfo{ID: "sweep-1", Queue: service.QueueTranslation}, nil
}

// libreTranslateStub answers like a LibreTranslate server, translating to "<target>:<q>".
func libreTranslateStub(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Q      string `json:"q"`
		Target string `json:"target"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"translatedText": req.Target + ":" + req.Q})
}

// setupApp creates a Fiber app wired like main.go, with in-memory storage
// and a local LibreTranslate stub.
func setupApp(t *testing.T) *testApp {
	return setupAppWith(t, libreTranslateStub, &recordingQueue{})
}

func setupAppWith(t *testing.T, provider http.HandlerFunc, queue service.TaskEnqueuer) *testApp {
	t.Helper()

	providerServer := httptest.NewServer(provider)
	t.Cleanup(providerServer.Close)

	validate := validator.New()
	repo := repository.NewMemoryRepository()

	chain := translation.NewChain(
		[]client.Provider{client.NewLibreTranslateClient(providerServer.URL, "", 2*time.Second)},
		nil,
		translation.NewMemoryCache(100),
		2*time.Second,
	)
	scheduler := translation.NewScheduler(repo, chain, nil, translation.SchedulerConfig{
		Targets: []string{"en", "pt", "es"},
		Retry:   translation.DefaultRetryPolicy(),
	})
	t.Cleanup(scheduler.Wait)

	profileService := service.NewProfileService(repo, scheduler, queue)
	profileHandler := handler.NewProfileHandler(profileService, validate)
	adminHandler := handler.NewAdminHandler(profileService, validate)

	authMiddleware := middleware.NewAuthMiddleware(testJWTSecret)
	rateLimiter := middleware.NewRateLimiter(nil)

	app := fiber.New()

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"providers": chain.Size(),
				"targets":   scheduler.Targets(),
			},
		})
	})

	app.Get("/auth/verify", handler.NewAuthHandler(authMiddleware).Verify)

	api := app.Group("/api", authMiddleware.Authenticate())

	profiles := api.Group("/profiles")
	profiles.Get("/", profileHandler.List)
	profiles.Post("/", rateLimiter.BioLimit(10000), profileHandler.Create)
	profiles.Get("/:id", profileHandler.Get)
	profiles.Put("/:id/bio", rateLimiter.BioLimit(10000), profileHandler.UpdateBio)
	profiles.Get("/:id/translations", profileHandler.Translations)

	admin := api.Group("/admin/translations", middleware.RequireRole(model.RoleAdmin))
	admin.Post("/retranslate", adminHandler.Retranslate)
	admin.Post("/sweep", adminHandler.Sweep)

	return &testApp{app: app, scheduler: scheduler, auth: authMiddleware}
}

// generateToken creates an HMAC JWT token for test requests.
func generateToken(t *testing.T, ta *testApp, role string) string {
	t.Helper()
	signed, err := ta.auth.GenerateToken("test-user-123", "test@example.com", role)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	return signed
}

// doRequest is a helper to perform HTTP requests against the test app.
func doRequest(app *fiber.App, method, path string, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

// doAuthRequest performs a request as a regular user.
func doAuthRequest(t *testing.T, ta *testApp, method, path, body string) (*http.Response, error) {
	t.Helper()
	return doRequest(ta.app, method, path, body, map[string]string{
		"Authorization": "Bearer " + generateToken(t, ta, model.RoleUser),
	})
}

// doAdminRequest performs a request as an operator.
func doAdminRequest(t *testing.T, ta *testApp, method, path, body string) (*http.Response, error) {
	t.Helper()
	return doRequest(ta.app, method, path, body, map[string]string{
		"Authorization": "Bearer " + generateToken(t, ta, model.RoleAdmin),
	})
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// parseJSON parses response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

// createProfile creates a profile and returns its ID.
func createProfile(t *testing.T, ta *testApp, body string) string {
	t.Helper()
	resp, err := doAuthRequest(t, ta, http.MethodPost, "/api/profiles", body)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create profile: status %d: %s", resp.StatusCode, readBody(t, resp))
	}
	id, _ := parseJSON(t, resp)["id"].(string)
	if id == "" {
		t.Fatal("expected 'id' in response")
	}
	return id
}

// decodeJSON parses a raw body into v.
func decodeJSON(body string, v interface{}) error {
	return json.Unmarshal([]byte(body), v)
}
