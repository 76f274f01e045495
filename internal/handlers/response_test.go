package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/washpe-backend/internal/models"
	"github.com/Ananth-NQI/washpe-backend/internal/storage"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{models.CodeValidation, fiber.StatusBadRequest},
		{models.CodeDuplicateActor, fiber.StatusConflict},
		{models.CodeNotFound, fiber.StatusNotFound},
		{models.CodeInvalidOTP, fiber.StatusBadRequest},
		{models.CodeOTPExpired, fiber.StatusBadRequest},
		{models.CodeUnauthenticated, fiber.StatusUnauthorized},
		{models.CodeDeliveryFailed, fiber.StatusInternalServerError},
		{models.CodeStorageUnavailable, fiber.StatusServiceUnavailable},
		{models.CodeRateLimited, fiber.StatusTooManyRequests},
		{"SOMETHING_NEW", fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.code); got != tt.want {
			t.Errorf("StatusFor(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestRespondError_HidesCauses(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/domain", func(c *fiber.Ctx) error {
		return respondError(c, models.StorageUnavailable(errors.New("dial tcp 10.0.0.5:5432: refused")))
	})
	app.Get("/plain", func(c *fiber.Ctx) error {
		return respondError(c, errors.New("secret internals"))
	})
	app.Get("/escaped", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusMethodNotAllowed, "nope")
	})

	tests := []struct {
		path    string
		status  int
		code    string
		message string
	}{
		{"/domain", fiber.StatusServiceUnavailable, models.CodeStorageUnavailable, "Service temporarily unavailable"},
		{"/plain", fiber.StatusInternalServerError, models.CodeInternal, "Internal server error"},
		{"/escaped", fiber.StatusMethodNotAllowed, "", "nope"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil))
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			defer resp.Body.Close()
			var body struct {
				Message string `json:"message"`
				Success bool   `json:"success"`
				Code    string `json:"code"`
			}
			raw, _ := io.ReadAll(resp.Body)
			if err := json.Unmarshal(raw, &body); err != nil {
				t.Fatalf("decode %s: %v", raw, err)
			}
			if resp.StatusCode != tt.status || body.Code != tt.code || body.Message != tt.message || body.Success {
				t.Errorf("got %d %s", resp.StatusCode, raw)
			}
		})
	}
}

func TestFormPayload(t *testing.T) {
	form := &multipart.Form{Value: map[string][]string{
		"firstName":   {"Ravi"},
		"languages":   {"hi, mr", "en"},
		"bankDetails": {`{"accountNumber":"123456789012"}`},
		"empty":       {},
	}}
	payload, err := formPayload(form)
	if err != nil {
		t.Fatalf("formPayload: %v", err)
	}
	if payload["firstName"] != "Ravi" {
		t.Errorf("firstName = %v", payload["firstName"])
	}
	langs, _ := payload["languages"].([]string)
	if len(langs) != 3 || langs[0] != "hi" || langs[2] != "en" {
		t.Errorf("languages = %v", payload["languages"])
	}
	bank, _ := payload["bankDetails"].(map[string]any)
	if bank["accountNumber"] != "123456789012" {
		t.Errorf("bankDetails = %v", payload["bankDetails"])
	}
	if _, ok := payload["empty"]; ok {
		t.Error("empty field kept")
	}

	form.Value["bankDetails"] = []string{"not json"}
	_, err = formPayload(form)
	if models.CodeOf(err) != models.CodeValidation {
		t.Errorf("error = %v, want validation", err)
	}
}

type downStore struct{}

func (downStore) Ping(ctx context.Context) error { return storage.ErrUnavailable }

type upStore struct{}

func (upStore) Ping(ctx context.Context) error { return nil }

func TestHealthCheck(t *testing.T) {
	for _, tt := range []struct {
		name   string
		store  Pinger
		status int
		want   string
	}{
		{"up", upStore{}, fiber.StatusOK, "OK"},
		{"down", downStore{}, fiber.StatusServiceUnavailable, "DEGRADED"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/health", NewHealthHandler("1.0.0", tt.store, time.Second).Check)
			resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			defer resp.Body.Close()
			var body map[string]any
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.StatusCode != tt.status || body["status"] != tt.want {
				t.Errorf("got %d %v", resp.StatusCode, body)
			}
		})
	}
}

func TestSingleUpload_RequiresFile(t *testing.T) {
	app := fiber.New()
	app.Post("/upload", func(c *fiber.Ctx) error {
		u, err := singleUpload(c, "image")
		if err != nil {
			return respondError(c, err)
		}
		return c.SendString(u.Filename)
	})

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, _ := w.CreateFormFile("image", "me.png")
	part.Write([]byte("png"))
	w.Close()
	req := httptest.NewRequest("POST", "/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != fiber.StatusOK || string(raw) != "me.png" {
		t.Errorf("got %d %s", resp.StatusCode, raw)
	}

	var empty bytes.Buffer
	w = multipart.NewWriter(&empty)
	w.Close()
	req = httptest.NewRequest("POST", "/upload", &empty)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("missing file status = %d", resp.StatusCode)
	}
}
