package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/OumaArera/goalkeepers-server-sub000/internal/config"
	"github.com/OumaArera/goalkeepers-server-sub000/internal/handlers"
	"github.com/OumaArera/goalkeepers-server-sub000/internal/middleware"
	"github.com/OumaArera/goalkeepers-server-sub000/internal/mpesa"
	"github.com/OumaArera/goalkeepers-server-sub000/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	gateway := mpesa.NewClient(cfg)
	paymentService := services.NewPaymentService(db, gateway, cfg.PollInterval, cfg.PollMaxAttempts)
	ticketService := services.NewTicketService(db, gateway, cfg.PollInterval, cfg.PollMaxAttempts)

	authHandler := handlers.NewAuthHandler(db, cfg)
	userHandler := handlers.NewUserHandler(db)
	customerHandler := handlers.NewCustomerHandler(db)
	goalkeeperHandler := handlers.NewGoalkeeperHandler(db)
	leagueHandler := handlers.NewLeagueHandler(db)
	itemHandler := handlers.NewItemHandler(db)
	cartHandler := handlers.NewCartHandler(db)
	orderHandler := handlers.NewOrderHandler(db)
	eventHandler := handlers.NewEventHandler(db)
	paymentHandler := handlers.NewPaymentHandler(db, paymentService, ticketService)
	ticketHandler := handlers.NewTicketHandler(db, ticketService)

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.StaffLogin)
	auth.Post("/register", authHandler.CustomerRegister)
	auth.Post("/customer-login", authHandler.CustomerLogin)
	auth.Post("/password-reset/request", authHandler.RequestPasswordReset)
	auth.Post("/password-reset/confirm", authHandler.PerformPasswordReset)

	// Public catalog and registry reads
	api.Get("/items", itemHandler.ListItems)
	api.Get("/items/:id", itemHandler.GetItem)
	api.Get("/goalkeepers", goalkeeperHandler.ListGoalkeepers)
	api.Get("/goalkeepers/:id", goalkeeperHandler.GetGoalkeeper)
	api.Get("/goalkeepers/:id/stats", goalkeeperHandler.GetStats)
	api.Get("/leagues", leagueHandler.ListLeagues)
	api.Get("/leagues/:id", leagueHandler.GetLeague)
	api.Get("/partners", leagueHandler.ListPartners)
	api.Get("/partners/:id", leagueHandler.GetPartner)
	api.Get("/events", eventHandler.ListEvents)
	api.Get("/events/:id", eventHandler.GetEvent)

	// Ticket purchase and gate verification
	api.Post("/tickets", ticketHandler.Purchase)
	api.Get("/tickets/verify/:number", ticketHandler.Verify)

	// Payment flow
	payments := api.Group("/payments")
	payments.Post("/pay", paymentHandler.Pay)
	payments.Post("/mpesa/callback", middleware.CallbackTokenMiddleware(cfg.CallbackToken), paymentHandler.Callback)

	// Authenticated customer routes
	protected := api.Group("", middleware.AuthMiddleware(cfg))

	protected.Get("/profile", customerHandler.GetProfile)
	protected.Put("/profile", customerHandler.UpdateProfile)

	protected.Get("/cart", cartHandler.ListCart)
	protected.Post("/cart", cartHandler.AddToCart)
	protected.Put("/cart/:id", cartHandler.UpdateCartItem)
	protected.Delete("/cart/:id", cartHandler.RemoveCartItem)
	protected.Delete("/cart", cartHandler.ClearCart)

	protected.Post("/orders", orderHandler.CreateOrder)
	protected.Get("/orders", orderHandler.ListOrders)
	protected.Get("/orders/:id", orderHandler.GetOrder)

	// Staff routes
	staff := protected.Group("", middleware.RequireRole("superuser", "admin"))

	staff.Get("/users", userHandler.ListUsers)
	staff.Post("/users", userHandler.CreateUser)
	staff.Get("/users/:id", userHandler.GetUser)
	staff.Put("/users/:id", userHandler.UpdateUser)
	staff.Delete("/users/:id", userHandler.DeleteUser)

	staff.Get("/customers", customerHandler.ListCustomers)
	staff.Get("/customers/:id", customerHandler.GetCustomer)
	staff.Delete("/customers/:id", customerHandler.DeleteCustomer)

	staff.Post("/items", itemHandler.CreateItem)
	staff.Put("/items/:id", itemHandler.UpdateItem)
	staff.Delete("/items/:id", itemHandler.DeleteItem)

	staff.Post("/goalkeepers", goalkeeperHandler.CreateGoalkeeper)
	staff.Put("/goalkeepers/:id", goalkeeperHandler.UpdateGoalkeeper)
	staff.Delete("/goalkeepers/:id", goalkeeperHandler.DeleteGoalkeeper)
	staff.Put("/goalkeepers/:id/stats", goalkeeperHandler.UpsertStats)

	staff.Post("/leagues", leagueHandler.CreateLeague)
	staff.Put("/leagues/:id", leagueHandler.UpdateLeague)
	staff.Delete("/leagues/:id", leagueHandler.DeleteLeague)

	staff.Post("/partners", leagueHandler.CreatePartner)
	staff.Put("/partners/:id", leagueHandler.UpdatePartner)
	staff.Delete("/partners/:id", leagueHandler.DeletePartner)

	staff.Post("/events", eventHandler.CreateEvent)
	staff.Put("/events/:id", eventHandler.UpdateEvent)
	staff.Delete("/events/:id", eventHandler.DeleteEvent)

	staff.Put("/orders/:id/status", orderHandler.UpdateOrderStatus)

	staff.Get("/payments", paymentHandler.ListPayments)
	staff.Get("/payments/:id", paymentHandler.GetPayment)
	staff.Get("/tickets", ticketHandler.ListTickets)
	staff.Get("/tickets/:id", ticketHandler.GetTicket)
}
