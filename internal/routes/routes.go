package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/ranco-loyalty/internal/config"
	"github.com/example/ranco-loyalty/internal/handlers"
	"github.com/example/ranco-loyalty/internal/middleware"
	"github.com/example/ranco-loyalty/internal/services"
)

// Deps bundles the outbound transports injected into handlers.
type Deps struct {
	SMS  services.SMSSender
	Mail services.MailSender
	Geo  *services.GeoService
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config, deps Deps) {
	registrationHandler := handlers.NewRegistrationHandler(db)
	verificationHandler := handlers.NewVerificationHandler(db, deps.SMS, deps.Mail)
	ownerHandler := handlers.NewOwnerHandler(db, cfg, deps.Geo)
	broadcastHandler := handlers.NewBroadcastHandler(db, deps.SMS, deps.Mail)
	customersHandler := handlers.NewCustomersHandler(db)
	draftsHandler := handlers.NewDraftsHandler(db)

	api := app.Group("/api")

	// Public registration flow
	api.Post("/register", registrationHandler.Register)
	api.Post("/verify/send", verificationHandler.Send)
	api.Post("/verify/confirm", verificationHandler.Confirm)
	api.Post("/sync/form-data", draftsHandler.Sync)

	// Owner login flow
	api.Post("/owner/login", ownerHandler.Login)
	api.Post("/admin/2fa/login", ownerHandler.TwoFactorLogin)

	// Admin endpoints: static token or bearer session, interchangeably
	admin := api.Group("", middleware.AdminAuth(cfg))

	admin.Get("/customers", customersHandler.List)
	admin.Get("/sync/form-data", draftsHandler.List)
	admin.Get("/submissions", draftsHandler.List)
	admin.Get("/export/customers", customersHandler.ExportJSON)
	admin.Get("/export/customers.json", customersHandler.ExportJSON)
	admin.Get("/export/customers.csv", customersHandler.ExportCSV)

	admin.Post("/broadcast", broadcastHandler.Broadcast)
	admin.Post("/owner/broadcast/sms", broadcastHandler.BroadcastSMS)
	admin.Post("/owner/broadcast/email", broadcastHandler.BroadcastEmail)

	admin.Post("/admin/2fa/setup", ownerHandler.TwoFactorSetup)
	admin.Post("/admin/2fa/verify", ownerHandler.TwoFactorVerify)
	admin.Post("/admin/2fa/disable", ownerHandler.TwoFactorDisable)
}
