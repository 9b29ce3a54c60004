package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"invoiceapi/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Keep handlers minimal and free of business logic.
func RegisterRoutes(app *fiber.App, db *sql.DB, authSvc service.AuthService, invSvc service.InvoiceService, requireAuth fiber.Handler) {
	// Serve OpenAPI spec and a docs UI page
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	// Health endpoints
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	// Public auth endpoints
	app.Post("/register", Register(authSvc))
	app.Post("/login", Login(authSvc))

	// Protected pipeline endpoints: nothing past the gate without a verified token
	app.Post("/upload", requireAuth, UploadInvoice(invSvc))
	app.Get("/invoices", requireAuth, ListInvoices(invSvc))
}
