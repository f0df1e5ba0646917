package middleware

import (
	"encoding/hex"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fablefeed-backend/internal/model"
)

// Callers without an account correlate their activity through an opaque guest
// identifier carried on every request.
const (
	GuestHeader = "X-Guest-Id"
	GuestQuery  = "guest_id"
)

// ResolveIdentity maps the request to an identity: the authenticated user when
// auth middleware stored claims, else a guest identifier from the explicit
// value (request body), the X-Guest-Id header, or the guest_id query param.
// The zero Identity means the caller supplied neither.
func ResolveIdentity(c *gin.Context, explicit string) model.Identity {
	if uid, ok := AuthedUserID(c); ok {
		return model.UserIdentity(uid)
	}
	if explicit != "" {
		return model.GuestIdentity(explicit)
	}
	if g := c.GetHeader(GuestHeader); g != "" {
		return model.GuestIdentity(g)
	}
	if g := c.Query(GuestQuery); g != "" {
		return model.GuestIdentity(g)
	}
	return model.Identity{}
}

// ResolveOrCreateIdentity behaves like ResolveIdentity but mints a fresh guest
// identifier for anonymous writes. The second return reports whether a new
// identifier was generated; hand it back to the caller for reuse.
func ResolveOrCreateIdentity(c *gin.Context, explicit string) (model.Identity, bool) {
	id := ResolveIdentity(c, explicit)
	if !id.IsZero() {
		return id, false
	}
	return model.GuestIdentity(NewGuestIdentifier()), true
}

// NewGuestIdentifier returns a hex-encoded 128-bit random identifier.
func NewGuestIdentifier() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}
