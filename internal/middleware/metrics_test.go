package middleware

import (
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/washpe-backend/internal/metrics"
)

type requestLog struct {
	metrics.Nop
	mu       sync.Mutex
	statuses []int
}

func (r *requestLog) RecordHTTPRequest(method string, status int, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}

func TestRecordRequests(t *testing.T) {
	rec := &requestLog{}
	app := fiber.New()
	app.Use(RecordRequests(rec))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusCreated) })
	app.Get("/teapot", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "short and stout") })

	for _, path := range []string{"/ok", "/teapot", "/missing"} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		if err != nil {
			t.Fatalf("app.Test(%s): %v", path, err)
		}
		resp.Body.Close()
	}

	want := []int{fiber.StatusCreated, fiber.StatusTeapot, fiber.StatusNotFound}
	if len(rec.statuses) != len(want) {
		t.Fatalf("recorded %v, want %v", rec.statuses, want)
	}
	for i := range want {
		if rec.statuses[i] != want[i] {
			t.Errorf("request %d status = %d, want %d", i, rec.statuses[i], want[i])
		}
	}
}
