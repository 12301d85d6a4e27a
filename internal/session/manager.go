package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
)

const (
	defaultCookieName = "admin_session"
	defaultCookiePath = "/"
	defaultLifetime   = 2 * time.Hour
)

var (
	// ErrNoSession means the request carried no session cookie.
	ErrNoSession = errors.New("session: no session")
	// ErrInvalid means the cookie failed signature or format checks.
	ErrInvalid = errors.New("session: invalid session")
	// ErrExpired means the session lifetime has elapsed.
	ErrExpired = errors.New("session: session expired")
	// ErrInvalidConfig indicates missing or invalid manager options.
	ErrInvalidConfig = errors.New("session: invalid config")
)

// Data is the payload stored in the signed admin session cookie.
type Data struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Config controls cookie encoding and lifetime.
type Config struct {
	CookieName   string
	HashKey      []byte
	BlockKey     []byte
	CookiePath   string
	CookieSecure bool
	Lifetime     time.Duration
	Now          func() time.Time
}

// Manager issues and verifies admin session cookies.
type Manager struct {
	cfg   Config
	codec *securecookie.SecureCookie
	now   func() time.Time
}

// NewManager constructs a Manager using the provided configuration.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.HashKey) == 0 {
		return nil, fmt.Errorf("%w: hash key is required", ErrInvalidConfig)
	}
	if cfg.CookieName == "" {
		cfg.CookieName = defaultCookieName
	}
	if cfg.CookiePath == "" {
		cfg.CookiePath = defaultCookiePath
	}
	if cfg.Lifetime < time.Second {
		cfg.Lifetime = defaultLifetime
	}
	nowFn := cfg.Now
	if nowFn == nil {
		nowFn = time.Now
	}

	codec := securecookie.New(cfg.HashKey, cfg.BlockKey)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(int(cfg.Lifetime.Seconds()))

	return &Manager{cfg: cfg, codec: codec, now: nowFn}, nil
}

// CookieName returns the name of the session cookie.
func (m *Manager) CookieName() string {
	return m.cfg.CookieName
}

// Issue starts a new session for username and sets the cookie on the response.
func (m *Manager) Issue(c *fiber.Ctx, username string) (Data, error) {
	now := m.now().UTC()
	data := Data{
		ID:        uuid.NewString(),
		Username:  username,
		CreatedAt: now,
		ExpiresAt: now.Add(m.cfg.Lifetime),
	}
	encoded, err := m.codec.Encode(m.cfg.CookieName, data)
	if err != nil {
		return Data{}, fmt.Errorf("encode session: %w", err)
	}
	c.Cookie(&fiber.Cookie{
		Name:     m.cfg.CookieName,
		Value:    encoded,
		Path:     m.cfg.CookiePath,
		Expires:  data.ExpiresAt,
		MaxAge:   int(m.cfg.Lifetime.Seconds()),
		Secure:   m.cfg.CookieSecure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return data, nil
}

// Load verifies the session cookie on the request. It distinguishes a
// missing cookie from one that is invalid or expired.
func (m *Manager) Load(c *fiber.Ctx) (Data, error) {
	raw := c.Cookies(m.cfg.CookieName)
	if raw == "" {
		return Data{}, ErrNoSession
	}
	var data Data
	if err := m.codec.Decode(m.cfg.CookieName, raw, &data); err != nil {
		return Data{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if data.ExpiresAt.IsZero() || !m.now().UTC().Before(data.ExpiresAt) {
		return Data{}, ErrExpired
	}
	return data, nil
}

// Destroy clears the session cookie.
func (m *Manager) Destroy(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     m.cfg.CookieName,
		Value:    "",
		Path:     m.cfg.CookiePath,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Secure:   m.cfg.CookieSecure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
