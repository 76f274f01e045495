package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/Ananth-NQI/washpe-backend/internal/handlers"
	"github.com/Ananth-NQI/washpe-backend/internal/metrics"
	"github.com/Ananth-NQI/washpe-backend/internal/middleware"
	"github.com/Ananth-NQI/washpe-backend/internal/models"
	"github.com/Ananth-NQI/washpe-backend/internal/services"
	"github.com/Ananth-NQI/washpe-backend/internal/storage"
)

// Version is reported by the root and health endpoints
const Version = "1.0.0"

// Dependencies are the services the routes are built from
type Dependencies struct {
	Store  storage.Store
	Tokens *services.TokenIssuer
	Media  *services.MediaStore

	UserFlow            *services.UserFlow
	PartnerFlow         *services.PartnerFlow
	DeliveryPartnerFlow *services.DeliveryPartnerFlow

	Users            *services.UserService
	Partners         *services.PartnerService
	DeliveryPartners *services.DeliveryPartnerService
	Coupons          *services.CouponService
	Orders           *services.OrderService

	Metrics  metrics.Recorder
	Gatherer prometheus.Gatherer

	// TwilioAuthToken signs status callbacks; ignored when SkipWebhookValidation is set
	TwilioAuthToken       string
	SkipWebhookValidation bool
	HealthTimeout         time.Duration
}

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, d Dependencies) {
	if d.Metrics == nil {
		d.Metrics = metrics.Nop{}
	}
	if d.HealthTimeout <= 0 {
		d.HealthTimeout = 2 * time.Second
	}

	// Root endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Welcome to WashPe Backend!",
			"success": true,
			"version": Version,
			"endpoints": fiber.Map{
				"health":  "/health",
				"metrics": "/metrics",
				"api":     "/api",
				"webhook": "/webhook/sms-status",
			},
		})
	})

	health := handlers.NewHealthHandler(Version, d.Store, d.HealthTimeout)
	app.Get("/health", health.Check)
	if d.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler(d.Gatherer)))
	}

	// Auth gates
	userAuth := middleware.RequireActor[*models.User](d.Tokens, models.KindUser, d.UserFlow.Resolve)
	partnerAuth := middleware.RequireActor[*models.Partner](d.Tokens, models.KindPartner, d.PartnerFlow.Resolve)
	deliveryAuth := middleware.RequireActor[*models.DeliveryPartner](d.Tokens, models.KindDeliveryPartner, d.DeliveryPartnerFlow.Resolve)

	api := app.Group("/api")

	// ========== USER ROUTES ==========
	userSignup := handlers.NewAuthHandler(d.UserFlow, "user", "User")
	users := handlers.NewUserHandler(d.Users)
	api.Post("/userSignup", userSignup.Signup)
	api.Post("/verifyUserSignup", userSignup.VerifySignup)
	api.Post("/userLogin", userSignup.Login)
	api.Post("/verifyUserLogin", userSignup.VerifyLogin)
	api.Get("/user", userAuth, users.GetProfile)
	api.Put("/updateUser", userAuth, users.UpdateProfile)
	api.Post("/uploadUserImage", userAuth, users.UploadImage)

	// ========== PARTNER ROUTES ==========
	partnerSignup := handlers.NewAuthHandler(d.PartnerFlow, "partner", "Partner")
	partners := handlers.NewPartnerHandler(d.Partners)
	api.Post("/partnerSignup", partnerSignup.Signup)
	api.Post("/verifyPartnerSignup", partnerSignup.VerifySignup)
	api.Post("/partnerLogin", partnerSignup.Login)
	api.Post("/verifyPartnerLogin", partnerSignup.VerifyLogin)
	api.Get("/partner", partnerAuth, partners.GetProfile)
	api.Put("/updatePartner", partnerAuth, partners.UpdateProfile)

	api.Post("/category", partnerAuth, partners.AddCategory)
	api.Get("/categories", partnerAuth, partners.ListCategories)
	api.Put("/category/:categoryId", partnerAuth, partners.UpdateCategory)
	api.Delete("/category/:categoryId", partnerAuth, partners.DeleteCategory)

	api.Post("/addOrUpdatePartnerBankDetails", partnerAuth, partners.SetBankDetails)
	api.Post("/addServicesAndLocation", partnerAuth, partners.AddServices)
	api.Put("/updateServicesAndLocation", partnerAuth, partners.UpdateServices)

	api.Post("/upload-partner-logo", partnerAuth, partners.UploadLogo)
	api.Post("/upload-partner-images", partnerAuth, partners.UploadImages)
	api.Post("/delete-partner-images", partnerAuth, partners.DeleteImages)
	api.Post("/upload-partner-image", partnerAuth, partners.UploadProfileImage)

	coupons := handlers.NewCouponHandler(d.Coupons)
	api.Post("/create-coupon", partnerAuth, coupons.Create)
	api.Put("/update-coupon/:couponId", partnerAuth, coupons.Update)
	api.Get("/get-coupons", partnerAuth, coupons.List)
	api.Delete("/delete-coupon/:couponId", partnerAuth, coupons.Delete)

	// ========== DELIVERY PARTNER ROUTES ==========
	deliveryLogin := handlers.NewAuthHandler(d.DeliveryPartnerFlow, "delivery", "Delivery partner")
	delivery := handlers.NewDeliveryPartnerHandler(d.DeliveryPartnerFlow, d.DeliveryPartners, d.Media)
	api.Post("/deliveryPartnerSignup", delivery.Signup)
	api.Post("/verifyDeliveryPartnerSignup", deliveryLogin.VerifySignup)
	api.Post("/deliveryPartnerLogin", deliveryLogin.Login)
	api.Post("/verifyDeliveryPartnerLogin", deliveryLogin.VerifyLogin)
	api.Get("/deliveryPartner", deliveryAuth, delivery.GetProfile)
	api.Put("/updateDeliveryPartner", deliveryAuth, delivery.UpdateProfile)
	api.Post("/uploadDocuments", deliveryAuth, delivery.UploadDocuments)

	// ========== ORDER ROUTES ==========
	orders := handlers.NewOrderHandler(d.Orders)
	api.Post("/orders", userAuth, orders.Place)
	api.Get("/orders", userAuth, orders.ListForUser)
	api.Get("/orders/:orderId", userAuth, orders.GetForUser)
	api.Put("/orders/:orderId/cancel", userAuth, orders.Cancel)
	api.Get("/partner/orders", partnerAuth, orders.ListForPartner)
	api.Put("/partner/orders/:orderId/status", partnerAuth, orders.SetStatus)
	api.Put("/partner/orders/:orderId/delivery", partnerAuth, orders.AssignDelivery)
	api.Get("/deliveryPartner/orders", deliveryAuth, orders.ListForDelivery)

	// ========== WEBHOOK ROUTES ==========
	webhooks := app.Group("/webhook")
	status := handlers.NewWebhookHandler(d.Metrics)
	if d.SkipWebhookValidation {
		// Development: Skip validation for tunnels
		log.Warn("⚠️  SMS status webhook validation DISABLED")
		webhooks.Post("/sms-status", status.SMSStatus)
	} else {
		webhooks.Post("/sms-status", middleware.ValidateTwilioSignature(d.TwilioAuthToken), status.SMSStatus)
	}
}
