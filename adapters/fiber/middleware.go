package fiber

import (
	"github.com/gofiber/fiber/v3"

	"github.com/lmarand/wicket"
)

const guardLocal = "wicket_guard"

// RequireLogin creates a Fiber middleware that gates a route on the
// kernel's login and authorization checks, storing the resolved guard in
// the context for downstream handlers.
func RequireLogin(w *wicket.Wicket) fiber.Handler {
	return func(c fiber.Ctx) error {
		guard, err := Guard(w, c)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
		}

		// A failed check has already written the denial response.
		if !guard.RequireLogin() {
			return nil
		}

		c.Locals(guardLocal, guard)
		return c.Next()
	}
}

// GuardFromCtx returns the guard stored by RequireLogin, or nil when the
// route is not behind the middleware.
func GuardFromCtx(c fiber.Ctx) *wicket.Guard {
	guard, _ := c.Locals(guardLocal).(*wicket.Guard)
	return guard
}
