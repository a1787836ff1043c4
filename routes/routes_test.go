package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"retailtasks/handlers"
	"retailtasks/models"
	service "retailtasks/services"
	"retailtasks/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "routes-secret"

type stubUserService struct {
	service.UserService
}

func (stubUserService) GetProfile(ctx context.Context, actor models.Actor) (*models.User, error) {
	return &models.User{ID: actor.UserID, Username: "alice", Role: actor.Role}, nil
}

func (stubUserService) ListCompanyUsers(ctx context.Context, actor models.Actor) ([]models.User, error) {
	return []models.User{}, nil
}

func newTestRouter() http.Handler {
	return newTestRouterFor("http://localhost:3000")
}

func newTestRouterFor(origins ...string) http.Handler {
	return SetupRoutes(Handlers{
		Companies:     handlers.NewCompanyHandler(nil),
		Users:         handlers.NewUserHandler(stubUserService{}),
		Departments:   handlers.NewDepartmentHandler(nil),
		Tasks:         handlers.NewTaskHandler(nil, nil),
		Images:        handlers.NewImageHandler(nil),
		Notifications: handlers.NewNotificationHandler(nil),
		Messages:      handlers.NewMessageHandler(nil),
		Schedules:     handlers.NewScheduleHandler(nil),
		Requests:      handlers.NewRequestHandler(nil),
		Analytics:     handlers.NewAnalyticsHandler(nil),
	}, Options{
		JWTSecret:      testSecret,
		AllowedOrigins: origins,
		LoginRateLimit: 2,
	})
}

func bearer(t *testing.T, role models.Role) string {
	t.Helper()
	user := &models.User{ID: primitive.NewObjectID(), Company: primitive.NewObjectID(), Username: "alice", Role: role}
	token, err := utils.GenerateToken(testSecret, user, time.Hour, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	return "Bearer " + token
}

func serve(router http.Handler, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router := newTestRouter()

	paths := []struct{ method, path string }{
		{http.MethodGet, "/api/tasks"},
		{http.MethodGet, "/api/profile"},
		{http.MethodGet, "/api/messages/inbox"},
		{http.MethodGet, "/api/analytics"},
		{http.MethodDelete, "/api/notifications"},
	}
	for _, p := range paths {
		if rec := serve(router, p.method, p.path, ""); rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without token = %d, want 401", p.method, p.path, rec.Code)
		}
	}

	if rec := serve(router, http.MethodGet, "/api/profile", "Bearer not-a-token"); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token = %d, want 401", rec.Code)
	}
}

func TestValidTokenReachesHandler(t *testing.T) {
	router := newTestRouter()

	rec := serve(router, http.MethodGet, "/api/profile", bearer(t, models.RoleEmployee))
	if rec.Code != http.StatusOK {
		t.Errorf("GET /api/profile = %d, want 200: %s", rec.Code, rec.Body.String())
	}
}

func TestRoleGates(t *testing.T) {
	router := newTestRouter()
	employee := bearer(t, models.RoleEmployee)

	gated := []struct{ method, path string }{
		{http.MethodGet, "/api/admin/users"},
		{http.MethodGet, "/api/analytics"},
		{http.MethodGet, "/api/analytics/export"},
		{http.MethodGet, "/api/requests"},
		{http.MethodPost, "/api/schedules"},
	}
	for _, g := range gated {
		if rec := serve(router, g.method, g.path, employee); rec.Code != http.StatusForbidden {
			t.Errorf("%s %s as employee = %d, want 403", g.method, g.path, rec.Code)
		}
	}

	if rec := serve(router, http.MethodGet, "/api/admin/users", bearer(t, models.RoleManager)); rec.Code != http.StatusForbidden {
		t.Errorf("admin route as manager = %d, want 403", rec.Code)
	}
	if rec := serve(router, http.MethodGet, "/api/admin/users", bearer(t, models.RoleAdmin)); rec.Code != http.StatusOK {
		t.Errorf("admin route as admin = %d, want 200", rec.Code)
	}
}

func TestLoginIsRateLimited(t *testing.T) {
	router := newTestRouter()

	var last int
	for i := 0; i < 3; i++ {
		last = serve(router, http.MethodPost, "/api/login", "").Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("third login attempt = %d, want 429", last)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter()

	rec := serve(router, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Errorf("GET /metrics = %d, want 200", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Access-Control-Allow-Credentials = %q, want true for a listed origin", got)
	}
}

func TestCORSWildcardWithoutCredentials(t *testing.T) {
	router := newTestRouterFor("*")

	req := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	req.Header.Set("Origin", "https://shop.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Error("wildcard config should still answer the preflight")
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "" {
		t.Errorf("Access-Control-Allow-Credentials = %q, want unset", got)
	}
}

func TestAllowCredentials(t *testing.T) {
	cases := []struct {
		origins []string
		want    bool
	}{
		{nil, false},
		{[]string{"*"}, false},
		{[]string{"http://localhost:3000", "*"}, false},
		{[]string{"http://localhost:3000"}, true},
	}
	for _, c := range cases {
		if got := allowCredentials(c.origins); got != c.want {
			t.Errorf("allowCredentials(%v) = %v, want %v", c.origins, got, c.want)
		}
	}
}
