package main

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"

	"github.com/example/ranco-loyalty/internal/config"
	"github.com/example/ranco-loyalty/internal/database"
	"github.com/example/ranco-loyalty/internal/handlers"
	"github.com/example/ranco-loyalty/internal/routes"
	"github.com/example/ranco-loyalty/internal/services"
)

const draftSweepInterval = 5 * time.Minute

func main() {
	cfg := config.Load()
	db := database.Connect(cfg.DatabaseURL)

	app := fiber.New(fiber.Config{
		AppName:      "Ranco Loyalty Backend",
		ErrorHandler: jsonErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	deps := routes.Deps{
		SMS:  services.NewSMSService(cfg.SMSAPIURL, cfg.SMSAPIToken, cfg.SMSFrom),
		Mail: services.NewMailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom),
		Geo:  services.NewGeoService(cfg.GeoAPIURL, cfg.GeoTimeout),
	}

	routes.Register(app, db, cfg, deps)

	go sweepStaleDrafts(db)

	log.Printf("Starting server on :%s", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatalf("fiber.Listen error: %v", err)
	}
}

// jsonErrorHandler keeps every error response a JSON body with a message.
func jsonErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	} else {
		log.Printf("unhandled error: %v", err)
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

// sweepStaleDrafts deletes abandoned form drafts on a fixed interval.
func sweepStaleDrafts(db *gorm.DB) {
	ticker := time.NewTicker(draftSweepInterval)
	defer ticker.Stop()

	for range ticker.C {
		if err := handlers.DeleteStaleDrafts(db); err != nil {
			log.Printf("draft sweep failed: %v", err)
		}
	}
}
