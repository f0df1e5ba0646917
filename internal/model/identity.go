package model

// Identity is the resolved actor for a request: a registered user or an
// anonymous guest correlated by an opaque identifier. The zero value is
// neither; exactly one side is ever set.
type Identity struct {
	userID uint
	guest  string
}

// UserIdentity builds an identity for a registered user.
func UserIdentity(userID uint) Identity {
	return Identity{userID: userID}
}

// GuestIdentity builds an identity for a caller-held guest identifier.
func GuestIdentity(identifier string) Identity {
	return Identity{guest: identifier}
}

func (i Identity) IsUser() bool { return i.userID != 0 }

func (i Identity) IsGuest() bool { return i.userID == 0 && i.guest != "" }

// IsZero reports whether no identity could be resolved.
func (i Identity) IsZero() bool { return i.userID == 0 && i.guest == "" }

func (i Identity) UserID() uint { return i.userID }

func (i Identity) Guest() string { return i.guest }
