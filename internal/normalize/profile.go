package normalize

// UserProfile is the signed-in user.
type UserProfile struct {
	ID        string
	Username  string
	Email     string
	Currency  string
	Active    *bool
	CreatedAt string
	UpdatedAt string
}

// Profile normalizes a current-user payload, unwrapping "data" or "user". It
// reports false when the payload carries no identity at all.
func Profile(payload any) (UserProfile, bool) {
	root, ok := asObject(payload)
	if !ok {
		return UserProfile{}, false
	}
	m := unwrap(root, "data", "user")

	p := UserProfile{
		ID:        firstIdentifier(m, "id", "userId", "user_id", "_id"),
		Username:  firstString(m, "username", "userName", "name"),
		Email:     firstString(m, "email"),
		Currency:  firstString(m, "currency", "preferredCurrency", "preferred_currency"),
		Active:    firstBool(m, "isActive", "is_active", "active"),
		CreatedAt: firstString(m, "createdAt", "created_at"),
		UpdatedAt: firstString(m, "updatedAt", "updated_at"),
	}
	if p.ID == "" && p.Username == "" && p.Email == "" {
		return UserProfile{}, false
	}
	return p, true
}

// DisplayName is the best label for the user.
func (p UserProfile) DisplayName() string {
	switch {
	case p.Username != "":
		return p.Username
	case p.Email != "":
		return p.Email
	}
	return p.ID
}
