package repositories

import "github.com/conadsciacca/totem-voti/internal/models"

// EmployeeRepository defines the interface for employee roster data access.
// Every lookup is scoped to a store: an admin must never see or touch
// another tenant's roster.
type EmployeeRepository interface {
	GetAllByStore(store string) ([]models.Employee, error)
	GetByIDAndStore(id uint, store string) (*models.Employee, error)
	Create(employee *models.Employee) error
	Update(employee *models.Employee) error
	Delete(id uint, store string) error
}
