package models

// Roles a user account can hold. Admin accounts manage the roster and
// reports of their store; store accounts run the customer-facing totem.
const (
	RoleAdmin = "admin"
	RoleStore = "store"
)

// User represents a login account, always bound to a single store.
type User struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	Username string `json:"username" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=3,max=100"`
	Password string `gorm:"type:varchar(255)" validate:"required"` // bcrypt hash, no json tag for security
	Role     string `json:"role" gorm:"type:varchar(16)" validate:"required,oneof=admin store"`
	Store    string `json:"store" gorm:"type:varchar(100);index" validate:"required"`
}
