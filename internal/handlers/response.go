package handlers

import (
	"errors"
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/Ananth-NQI/washpe-backend/internal/models"
	"github.com/Ananth-NQI/washpe-backend/internal/services"
)

var statusByCode = map[string]int{
	models.CodeValidation:         fiber.StatusBadRequest,
	models.CodeDuplicateActor:     fiber.StatusConflict,
	models.CodeNotFound:           fiber.StatusNotFound,
	models.CodeInvalidOTP:         fiber.StatusBadRequest,
	models.CodeOTPExpired:         fiber.StatusBadRequest,
	models.CodeUnauthenticated:    fiber.StatusUnauthorized,
	models.CodeDeliveryFailed:     fiber.StatusInternalServerError,
	models.CodeStorageUnavailable: fiber.StatusServiceUnavailable,
	models.CodeConflict:           fiber.StatusConflict,
	models.CodeRateLimited:        fiber.StatusTooManyRequests,
	models.CodeInternal:           fiber.StatusInternalServerError,
}

// StatusFor maps a domain error code to its HTTP status
func StatusFor(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return fiber.StatusInternalServerError
}

// respond writes {message, success:true, ...payload}
func respond(c *fiber.Ctx, status int, message string, payload fiber.Map) error {
	body := fiber.Map{"message": message, "success": true}
	for k, v := range payload {
		body[k] = v
	}
	return c.Status(status).JSON(body)
}

// respondError writes the failure body for err; causes are logged, never returned
func respondError(c *fiber.Ctx, err error) error {
	var domainErr *models.Error
	if !errors.As(err, &domainErr) {
		domainErr = models.InternalError(err)
	}
	status := StatusFor(domainErr.Code)
	if status >= fiber.StatusInternalServerError {
		log.WithError(err).WithFields(log.Fields{
			"method": c.Method(),
			"path":   c.Path(),
			"code":   domainErr.Code,
		}).Error("❌ Request failed")
	}
	return c.Status(status).JSON(fiber.Map{
		"message": domainErr.Message,
		"success": false,
		"code":    domainErr.Code,
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return respondError(c, models.ValidationError(message))
}

// ErrorHandler shapes errors that escape handlers, including fiber's own
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{
			"message": fiberErr.Message,
			"success": false,
		})
	}
	return respondError(c, err)
}

// uploadFrom adapts a multipart file header to a media upload
func uploadFrom(field string, fh *multipart.FileHeader) services.Upload {
	return services.Upload{
		Field:    field,
		Filename: fh.Filename,
		Size:     fh.Size,
		Open:     func() (io.ReadCloser, error) { return fh.Open() },
	}
}

// formUploads collects the first file of each named field present in the form
func formUploads(form *multipart.Form, fields []string) []services.Upload {
	var uploads []services.Upload
	for _, field := range fields {
		if files := form.File[field]; len(files) > 0 {
			uploads = append(uploads, uploadFrom(field, files[0]))
		}
	}
	return uploads
}

// singleUpload reads one required file field
func singleUpload(c *fiber.Ctx, field string) (services.Upload, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return services.Upload{}, models.ValidationError(field + " file is required")
	}
	return uploadFrom(field, fh), nil
}
