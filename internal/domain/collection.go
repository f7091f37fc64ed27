package domain

// Collection groups a user's birthday records ("Family", "Work", ...).
// Collections are private to their owner: every birthday belongs to exactly
// one collection, and deleting a collection deletes the birthdays in it.
type Collection struct {
	Meta
	OwnerID     string `json:"owner_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// IsOwnedBy reports whether the collection belongs to the given user.
func (c *Collection) IsOwnedBy(userID string) bool {
	return c.OwnerID == userID
}
