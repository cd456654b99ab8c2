package domain

// Identity is the principal issued by the auth provider.
type Identity struct {
	ID    string
	Email string
}

// SameIdentity reports whether a and b refer to the same principal. Two nil
// identities are the same.
func SameIdentity(a, b *Identity) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID
}
