package repositories

import "github.com/conadsciacca/totem-voti/internal/models"

// UserRepository defines the interface for user account data access.
type UserRepository interface {
	Create(user *models.User) error
	GetByUsername(username string) (*models.User, error)
}
