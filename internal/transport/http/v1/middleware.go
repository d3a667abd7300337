package v1

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tourify/guide-api/internal/adapter/auth"
)

// HeaderDeviceFingerprint carries a client-computed device fingerprint.
const HeaderDeviceFingerprint = "X-Device-Fingerprint"

// Context keys set by the middleware.
const (
	ContextKeyClaims      = "claims"
	ContextKeyFingerprint = "fingerprint"
)

// RequireBearer rejects requests without a valid bearer token and stores the claims.
func (h *Handler) RequireBearer(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := auth.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if !ok {
			return c.JSON(http.StatusUnauthorized, errorBody{Error: "missing bearer token"})
		}
		claims, err := h.verifier.Verify(token)
		if err != nil {
			h.log.Debug("token rejected", "path", c.Path(), "error", err)
			return c.JSON(http.StatusUnauthorized, errorBody{Error: "invalid token"})
		}
		c.Set(ContextKeyClaims, claims)
		return next(c)
	}
}

// Fingerprint stores the device fingerprint of an anonymous request: the
// X-Device-Fingerprint header when present, else a derived hash.
func Fingerprint(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Set(ContextKeyFingerprint, requestFingerprint(c))
		return next(c)
	}
}

func requestFingerprint(c echo.Context) string {
	if fp := strings.TrimSpace(c.Request().Header.Get(HeaderDeviceFingerprint)); fp != "" {
		return fp
	}
	return DeviceFingerprint(c.Request(), c.RealIP())
}

// DeviceFingerprint hashes user agent, client address and accepted languages.
func DeviceFingerprint(r *http.Request, ip string) string {
	sum := sha256.Sum256([]byte(r.UserAgent() + ":" + ip + ":" + r.Header.Get("Accept-Language")))
	return hex.EncodeToString(sum[:])
}

func fingerprintOf(c echo.Context) string {
	if fp, ok := c.Get(ContextKeyFingerprint).(string); ok {
		return fp
	}
	return requestFingerprint(c)
}
