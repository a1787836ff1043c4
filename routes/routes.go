package routes

import (
	"net/http"
	"time"

	"retailtasks/handlers"
	"retailtasks/middlewares"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups the HTTP handlers mounted by SetupRoutes.
type Handlers struct {
	Companies     *handlers.CompanyHandler
	Users         *handlers.UserHandler
	Departments   *handlers.DepartmentHandler
	Tasks         *handlers.TaskHandler
	Images        *handlers.ImageHandler
	Notifications *handlers.NotificationHandler
	Messages      *handlers.MessageHandler
	Schedules     *handlers.ScheduleHandler
	Requests      *handlers.RequestHandler
	Analytics     *handlers.AnalyticsHandler
}

type Options struct {
	JWTSecret      string
	AllowedOrigins []string
	// LoginRateLimit is the number of login/register attempts allowed per IP per minute.
	LoginRateLimit int
}

func SetupRoutes(h Handlers, opts Options) http.Handler {
	mux := http.NewServeMux()

	jwtMiddleware := middlewares.JWTMiddleware(opts.JWTSecret)
	manager := middlewares.RequireManager()
	admin := middlewares.RequireAdmin()

	auth := func(fn http.HandlerFunc) http.Handler {
		return jwtMiddleware(fn)
	}
	managerOnly := func(fn http.HandlerFunc) http.Handler {
		return jwtMiddleware(manager(fn))
	}
	adminOnly := func(fn http.HandlerFunc) http.Handler {
		return jwtMiddleware(admin(fn))
	}

	limit := opts.LoginRateLimit
	if limit <= 0 {
		limit = 10
	}
	loginLimiter := httprate.LimitByIP(limit, time.Minute)

	// Public routes
	mux.Handle("POST /api/companies", loginLimiter(http.HandlerFunc(h.Companies.CreateCompany)))
	mux.Handle("POST /api/register", loginLimiter(http.HandlerFunc(h.Users.Register)))
	mux.Handle("POST /api/login", loginLimiter(http.HandlerFunc(h.Users.Login)))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.Handle("GET /api/companies/{id}", auth(h.Companies.GetCompany))

	// Profile
	mux.Handle("GET /api/profile", auth(h.Users.GetProfile))
	mux.Handle("PUT /api/profile", auth(h.Users.UpdateProfile))
	mux.Handle("POST /api/profile/password", auth(h.Users.ChangePassword))

	// Admin
	mux.Handle("GET /api/admin/users", adminOnly(h.Users.ListUsers))
	mux.Handle("GET /api/admin/users/{id}", adminOnly(h.Users.GetUser))
	mux.Handle("PUT /api/admin/users/{id}", adminOnly(h.Users.UpdateUserRole))

	mux.Handle("GET /api/departments", auth(h.Departments.ListDepartments))
	mux.Handle("POST /api/departments", auth(h.Departments.CreateDepartment))

	// Tasks
	mux.Handle("POST /api/tasks", auth(h.Tasks.CreateTask))
	mux.Handle("GET /api/tasks", auth(h.Tasks.ListTasks))
	mux.Handle("GET /api/tasks/{id}", auth(h.Tasks.GetTask))
	mux.Handle("PUT /api/tasks/{id}", auth(h.Tasks.UpdateTask))
	mux.Handle("DELETE /api/tasks/{id}", auth(h.Tasks.DeleteTask))
	mux.Handle("POST /api/tasks/{id}/complete", auth(h.Tasks.ToggleComplete))
	mux.Handle("GET /api/tasks/{id}/history", auth(h.Tasks.GetHistory))
	mux.Handle("GET /api/tasks/{id}/comments", auth(h.Tasks.ListComments))
	mux.Handle("POST /api/tasks/{id}/comments", auth(h.Tasks.PostComment))
	// Image routes
	mux.Handle("POST /api/tasks/{id}/images", auth(h.Tasks.UploadImages))
	mux.Handle("DELETE /api/tasks/{id}/images/{fileId}", auth(h.Tasks.DeleteImage))
	mux.Handle("GET /api/images/{fileId}", auth(h.Images.DownloadImage))

	// Notifications
	mux.Handle("GET /api/notifications", auth(h.Notifications.ListNotifications))
	mux.Handle("PUT /api/notifications/{id}/read", auth(h.Notifications.MarkRead))
	mux.Handle("DELETE /api/notifications", auth(h.Notifications.ClearAll))

	// Messages
	mux.Handle("POST /api/messages", auth(h.Messages.SendMessage))
	mux.Handle("GET /api/messages/inbox", auth(h.Messages.Inbox))
	mux.Handle("GET /api/messages/sent", auth(h.Messages.Sent))
	mux.Handle("GET /api/messages/check-new", auth(h.Messages.CheckNew))
	mux.Handle("GET /api/messages/{threadId}", auth(h.Messages.Thread))
	mux.Handle("DELETE /api/messages/{id}", auth(h.Messages.DeleteMessage))

	// Schedules
	mux.Handle("GET /api/schedules", auth(h.Schedules.ListSchedules))
	mux.Handle("POST /api/schedules", managerOnly(h.Schedules.CreateSchedule))
	mux.Handle("GET /api/schedules/{id}", auth(h.Schedules.GetSchedule))
	mux.Handle("PUT /api/schedules/{id}", managerOnly(h.Schedules.UpdateSchedule))
	mux.Handle("DELETE /api/schedules/{id}", managerOnly(h.Schedules.DeleteSchedule))

	// Change requests
	mux.Handle("GET /api/requests", managerOnly(h.Requests.ListRequests))
	mux.Handle("POST /api/requests", managerOnly(h.Requests.CreateRequest))
	mux.Handle("PUT /api/requests/{id}/status", managerOnly(h.Requests.UpdateStatus))

	// Analytics
	mux.Handle("GET /api/analytics", managerOnly(h.Analytics.GetAnalytics))
	mux.Handle("GET /api/analytics/departments", managerOnly(h.Analytics.GetDepartments))
	mux.Handle("GET /api/analytics/users", managerOnly(h.Analytics.GetUsers))
	mux.Handle("GET /api/analytics/priorities", managerOnly(h.Analytics.GetPriorities))
	mux.Handle("GET /api/analytics/real-time", managerOnly(h.Analytics.RealTime))
	mux.Handle("GET /api/analytics/export", managerOnly(h.Analytics.ExportCSV))
	mux.Handle("POST /api/analytics/custom-range", managerOnly(h.Analytics.CustomRange))
	mux.Handle("GET /api/analytics/users/{id}", managerOnly(h.Analytics.GetUserStats))
	mux.Handle("GET /api/analytics/departments/{id}", managerOnly(h.Analytics.GetDepartmentStats))

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition", "Content-Length"},
		AllowCredentials: allowCredentials(opts.AllowedOrigins),
		MaxAge:           300,
	})

	return middlewares.MetricsMiddleware(corsHandler(mux))
}

// allowCredentials is true only for an explicit origin list. With a
// wildcard, go-chi/cors would echo any origin back alongside credentials.
func allowCredentials(origins []string) bool {
	if len(origins) == 0 {
		return false
	}
	for _, origin := range origins {
		if origin == "*" {
			return false
		}
	}
	return true
}
