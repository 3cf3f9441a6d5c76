package domain

import "time"

type Business struct {
	ID          string
	OwnerID     string
	Name        string
	Description string
	Address     string
	Phone       string
	Email       string
	IsActive    bool
	CreatedAt   time.Time
}

func (b Business) OwnedBy(userID string) bool {
	return userID != "" && b.OwnerID == userID
}
