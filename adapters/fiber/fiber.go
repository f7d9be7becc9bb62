// Package fiber adapts the wicket session and transport ports to Fiber v3
// and its session middleware.
package fiber

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/session"

	"github.com/lmarand/wicket"
)

// Session bridges Fiber's session middleware to wicket.SessionStore.
type Session struct {
	sess *session.Middleware
}

var _ wicket.SessionStore = (*Session)(nil)

// SessionFromCtx wraps the request's session. The session middleware must
// be registered on the app.
func SessionFromCtx(c fiber.Ctx) *Session {
	return &Session{sess: session.FromContext(c)}
}

func (s *Session) ID() string {
	return s.sess.ID()
}

func (s *Session) Get(key string) (string, bool) {
	v := s.sess.Get(key)
	if v == nil {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

func (s *Session) Set(key, value string) {
	s.sess.Set(key, value)
}

func (s *Session) Delete(key string) {
	s.sess.Delete(key)
}

// Renew reissues the session identifier with all keys cleared.
func (s *Session) Renew() error {
	return s.sess.Reset()
}

// Transport bridges one Fiber request to wicket.Transport.
type Transport struct {
	c fiber.Ctx
}

var _ wicket.Transport = (*Transport)(nil)

func TransportFromCtx(c fiber.Ctx) *Transport {
	return &Transport{c: c}
}

func (t *Transport) Path() string {
	return t.c.Path()
}

func (t *Transport) Deny(message string) {
	_ = t.c.Status(fiber.StatusUnauthorized).SendString(message)
}

func (t *Transport) Redirect(url string) {
	_ = t.c.Redirect().To(url)
}

// Guard builds the per-request guard for a kernel from a Fiber context.
func Guard(w *wicket.Wicket, c fiber.Ctx) (*wicket.Guard, error) {
	return w.Guard(SessionFromCtx(c), TransportFromCtx(c))
}
