package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T, target string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", target, nil)
	return c
}

func TestResolveIdentityPrefersAuthedUser(t *testing.T) {
	c := testContext(t, "/books?guest_id=query-guest")
	c.Set(CtxUserID, uint(7))
	c.Request.Header.Set(GuestHeader, "header-guest")

	id := ResolveIdentity(c, "explicit-guest")
	require.True(t, id.IsUser())
	assert.Equal(t, uint(7), id.UserID())
}

func TestResolveIdentityGuestPrecedence(t *testing.T) {
	// Explicit beats header beats query.
	c := testContext(t, "/books?guest_id=query-guest")
	c.Request.Header.Set(GuestHeader, "header-guest")
	assert.Equal(t, "explicit-guest", ResolveIdentity(c, "explicit-guest").Guest())

	c = testContext(t, "/books?guest_id=query-guest")
	c.Request.Header.Set(GuestHeader, "header-guest")
	assert.Equal(t, "header-guest", ResolveIdentity(c, "").Guest())

	c = testContext(t, "/books?guest_id=query-guest")
	assert.Equal(t, "query-guest", ResolveIdentity(c, "").Guest())

	c = testContext(t, "/books")
	assert.True(t, ResolveIdentity(c, "").IsZero())
}

func TestResolveOrCreateIdentityMintsGuest(t *testing.T) {
	c := testContext(t, "/progress")
	id, minted := ResolveOrCreateIdentity(c, "")
	assert.True(t, minted)
	assert.True(t, id.IsGuest())
	assert.Len(t, id.Guest(), 32)

	c = testContext(t, "/progress")
	id, minted = ResolveOrCreateIdentity(c, "existing")
	assert.False(t, minted)
	assert.Equal(t, "existing", id.Guest())
}

func TestNewGuestIdentifierIsUnique(t *testing.T) {
	a := NewGuestIdentifier()
	b := NewGuestIdentifier()
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}
