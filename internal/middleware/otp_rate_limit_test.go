package middleware

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

func TestOTPRateLimitCountsPhoneFormatsTogether(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	app := fiber.New()
	app.Post("/request-otp", OTPRateLimit(cache, 3), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	send := func(phone string) int {
		body := fmt.Sprintf(`{"phone":%q}`, phone)
		req := httptest.NewRequest(fiber.MethodPost, "/request-otp", strings.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	// The same number in three different formats shares one bucket.
	formats := []string{"+249912000001", "00249 912 000 001", "+249 (912) 000-001"}
	for _, phone := range formats {
		if code := send(phone); code != fiber.StatusOK {
			t.Fatalf("phone %q: expected %d got %d", phone, fiber.StatusOK, code)
		}
	}
	if code := send(formats[1]); code != fiber.StatusTooManyRequests {
		t.Fatalf("expected %d after limit, got %d", fiber.StatusTooManyRequests, code)
	}

	// A different number is unaffected.
	if code := send("+249912000002"); code != fiber.StatusOK {
		t.Fatalf("other phone: expected %d got %d", fiber.StatusOK, code)
	}
}
