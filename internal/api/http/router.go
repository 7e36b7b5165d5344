package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-console/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-console/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Board          *handlers.BoardHandler
	Analytics      *handlers.AnalyticsHandler
	Queues         *handlers.QueuesHandler
	Users          *handlers.UsersHandler
	Notifications  *handlers.NotificationsHandler
	AuthMiddleware *auth.SessionMiddleware
	PublicTickets  bool
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	if cfg.PublicTickets {
		app.Post("/api/public/tickets", cfg.Tickets.CreatePublicTicket)
	}

	api := app.Group("/api", cfg.AuthMiddleware.Handle)

	tickets := api.Group("/tickets")
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", cfg.Tickets.UpdateTicket)
	tickets.Delete("/:id", cfg.Tickets.DeleteTicket)
	tickets.Post("/:id/assign", cfg.Tickets.AssignTicket)
	tickets.Post("/:id/unassign", cfg.Tickets.UnassignTicket)
	tickets.Post("/:id/transition", cfg.Tickets.TransitionTicket)
	tickets.Get("/:id/history", cfg.Tickets.ListHistory)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Get("/:id/documents", cfg.Tickets.ListDocuments)
	tickets.Post("/:id/documents", cfg.Tickets.UploadDocument)
	tickets.Delete("/:id/documents/:docId", cfg.Tickets.RemoveDocument)

	queues := api.Group("/queues")
	queues.Get("", cfg.Queues.ListQueues)
	queues.Post("", cfg.Queues.CreateQueue)
	queues.Get("/:id", cfg.Queues.GetQueue)
	queues.Patch("/:id", cfg.Queues.UpdateQueue)
	queues.Delete("/:id", cfg.Queues.DeleteQueue)
	queues.Get("/:id/users", cfg.Queues.ListQueueUsers)
	queues.Post("/:id/users", cfg.Queues.AddQueueUsers)
	queues.Delete("/:id/users/:userId", cfg.Queues.RemoveQueueUser)
	queues.Get("/:id/board", cfg.Board.GetBoard)
	queues.Post("/:id/board/moves", cfg.Board.MoveTicket)
	queues.Get("/:id/timeline", cfg.Board.GetTimeline)

	categories := api.Group("/categories")
	categories.Get("", cfg.Queues.ListCategories)
	categories.Post("", cfg.Queues.CreateCategory)
	categories.Patch("/:id", cfg.Queues.UpdateCategory)
	categories.Delete("/:id", cfg.Queues.DeleteCategory)

	api.Get("/analytics", cfg.Analytics.Dashboard)

	users := api.Group("/users")
	users.Get("", cfg.Users.ListUsers)
	users.Get("/:id", cfg.Users.GetUser)
	users.Delete("/:id", cfg.Users.DeleteUser)
	users.Get("/:id/notification-preferences", cfg.Users.GetPreferences)
	users.Patch("/:id/notification-preferences", cfg.Users.UpdatePreferences)

	notifications := api.Group("/notifications")
	notifications.Get("", cfg.Notifications.ListNotifications)
	notifications.Patch("/read-all", cfg.Notifications.MarkAllRead)
	notifications.Patch("/:id/read", cfg.Notifications.MarkRead)
	api.Get("/notices", cfg.Notifications.Notices)

	admin := api.Group("/admin", auth.RequireAdmin())
	admin.Post("/notifications/broadcast", cfg.Notifications.Broadcast)
	admin.Post("/notifications/send-to-users", cfg.Notifications.SendToUsers)
}
