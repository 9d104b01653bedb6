package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/westservices/ticketd/internal/api/http/handlers"
	"github.com/westservices/ticketd/internal/archive"
	"github.com/westservices/ticketd/internal/auth"
	"github.com/westservices/ticketd/internal/config"
	"github.com/westservices/ticketd/internal/domain"
	"github.com/westservices/ticketd/internal/observability"
	"github.com/westservices/ticketd/internal/persistence"
	"github.com/westservices/ticketd/internal/repository"
	"github.com/westservices/ticketd/internal/service"
)

func newTestApp(t *testing.T) (*fiber.App, repository.TicketRepository) {
	t.Helper()
	logger := zap.NewNop()

	store, err := persistence.NewFileStore(config.StorageConfig{DataDir: t.TempDir()}, logger)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	archiveStore, err := archive.NewStore(config.StorageConfig{TranscriptsDir: t.TempDir()}, logger)
	if err != nil {
		t.Fatalf("archive.NewStore: %v", err)
	}

	stats, err := repository.NewStatsRepository(store)
	if err != nil {
		t.Fatalf("NewStatsRepository: %v", err)
	}
	ratings, err := repository.NewRatingRepository(store)
	if err != nil {
		t.Fatalf("NewRatingRepository: %v", err)
	}
	blacklist, err := repository.NewBlacklistRepository(store)
	if err != nil {
		t.Fatalf("NewBlacklistRepository: %v", err)
	}
	tickets, err := repository.NewTicketRepository(store, stats, ratings, logger)
	if err != nil {
		t.Fatalf("NewTicketRepository: %v", err)
	}

	adminHash, err := auth.HashPassword("correct horse", 4)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	authService := service.NewAuthService(config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 5,
		AdminUser:             "admin",
		AdminPasswordHash:     adminHash,
	})
	accessService := service.NewAccessService(service.AccessDependencies{
		BlacklistRepo:   blacklist,
		TicketRepo:      tickets,
		OpenTicketLimit: 1,
	})
	statsService := service.NewStatsService(stats, ratings)

	app := fiber.New()
	RegisterMiddlewares(app, logger, observability.NewMetrics(), 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("ticketd", "test"),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(tickets, archiveStore),
		Blacklist:      handlers.NewBlacklistHandler(accessService),
		Stats:          handlers.NewStatsHandler(statsService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager()),
	})
	return app, tickets
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func loginAdmin(t *testing.T, app *fiber.App) string {
	t.Helper()
	resp := doJSON(t, app, http.MethodPost, "/auth/login", "", map[string]string{
		"username": "admin",
		"password": "correct horse",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want 200", resp.StatusCode)
	}
	var out struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if out.Data.Token == "" {
		t.Fatal("login returned empty token")
	}
	return out.Data.Token
}

func TestPublicEndpoints(t *testing.T) {
	app, _ := newTestApp(t)

	for _, path := range []string{"/health/live", "/health/ready", "/stats"} {
		resp := doJSON(t, app, http.MethodGet, path, "", nil)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, resp.StatusCode)
		}
	}
}

func TestProtectedEndpointsRequireToken(t *testing.T) {
	app, _ := newTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/tickets", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("GET /tickets without token = %d, want 401", resp.StatusCode)
	}
	resp = doJSON(t, app, http.MethodGet, "/tickets", "not-a-jwt", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("GET /tickets with garbage token = %d, want 401", resp.StatusCode)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	app, _ := newTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/auth/login", "", map[string]string{
		"username": "admin",
		"password": "wrong",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad login status = %d, want 401", resp.StatusCode)
	}
}

func TestAdminFlow(t *testing.T) {
	app, tickets := newTestApp(t)
	token := loginAdmin(t, app)

	created, err := tickets.Create("user-1", "chan-1", domain.CategorySupport)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	resp := doJSON(t, app, http.MethodGet, "/tickets", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /tickets = %d, want 200", resp.StatusCode)
	}
	var list struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode tickets: %v", err)
	}
	if len(list.Data) != 1 || list.Data[0].ID != created.ID {
		t.Errorf("tickets = %+v, want [%s]", list.Data, created.ID)
	}

	resp = doJSON(t, app, http.MethodGet, "/tickets/"+created.ID, token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /tickets/%s = %d, want 200", created.ID, resp.StatusCode)
	}
	resp = doJSON(t, app, http.MethodGet, "/tickets/ticket-9999", token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET absent ticket = %d, want 404", resp.StatusCode)
	}
	resp = doJSON(t, app, http.MethodGet, "/tickets/"+created.ID+"/transcript", token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET transcript before close = %d, want 404", resp.StatusCode)
	}

	resp = doJSON(t, app, http.MethodPost, "/blacklist", token, map[string]string{
		"user_id": "user-2",
		"reason":  "spam",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST /blacklist = %d, want 201", resp.StatusCode)
	}
	resp = doJSON(t, app, http.MethodPost, "/blacklist", token, map[string]string{
		"user_id": "user-2",
		"reason":  "spam",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate POST /blacklist = %d, want 409", resp.StatusCode)
	}
	resp = doJSON(t, app, http.MethodDelete, "/blacklist/user-2", token, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("DELETE /blacklist/user-2 = %d, want 204", resp.StatusCode)
	}
	resp = doJSON(t, app, http.MethodDelete, "/blacklist/user-2", token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("repeat DELETE /blacklist/user-2 = %d, want 404", resp.StatusCode)
	}
}

func TestStaffTokenScope(t *testing.T) {
	app, _ := newTestApp(t)
	adminToken := loginAdmin(t, app)

	resp := doJSON(t, app, http.MethodPost, "/auth/tokens/staff", adminToken, map[string]string{
		"subject_id": "staff-7",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST /auth/tokens/staff = %d, want 201", resp.StatusCode)
	}
	var out struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode staff token: %v", err)
	}

	resp = doJSON(t, app, http.MethodGet, "/tickets", out.Data.Token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("staff GET /tickets = %d, want 200", resp.StatusCode)
	}
	resp = doJSON(t, app, http.MethodPost, "/blacklist", out.Data.Token, map[string]string{
		"user_id": "user-3",
		"reason":  "spam",
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("staff POST /blacklist = %d, want 403", resp.StatusCode)
	}
	resp = doJSON(t, app, http.MethodPost, "/auth/tokens/staff", out.Data.Token, map[string]string{
		"subject_id": "staff-8",
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("staff minting staff token = %d, want 403", resp.StatusCode)
	}
}
