package repositories

import (
	"fmt"

	"github.com/conadsciacca/totem-voti/internal/models"

	"gorm.io/gorm"
)

// GORMEmployeeRepository is a GORM implementation of EmployeeRepository.
type GORMEmployeeRepository struct {
	db *gorm.DB
}

// NewGORMEmployeeRepository creates a new instance of GORMEmployeeRepository.
func NewGORMEmployeeRepository(db *gorm.DB) *GORMEmployeeRepository {
	return &GORMEmployeeRepository{
		db: db,
	}
}

// GetAllByStore retrieves the roster of one store, ordered by name.
func (r *GORMEmployeeRepository) GetAllByStore(store string) ([]models.Employee, error) {
	var employees []models.Employee
	if err := r.db.Where("store = ?", store).Order("name").Find(&employees).Error; err != nil {
		return nil, fmt.Errorf("failed to get employees for store %s: %w", store, err)
	}
	return employees, nil
}

// GetByIDAndStore retrieves a single employee only if it belongs to the
// given store. A hit for another tenant's employee is a not-found.
func (r *GORMEmployeeRepository) GetByIDAndStore(id uint, store string) (*models.Employee, error) {
	var employee models.Employee
	if err := r.db.First(&employee, "id = ? AND store = ?", id, store).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("employee with ID %d not found in store %s", id, store)
		}
		return nil, fmt.Errorf("failed to get employee %d: %w", id, err)
	}
	return &employee, nil
}

// Create creates a new employee in the database.
func (r *GORMEmployeeRepository) Create(employee *models.Employee) error {
	if err := r.db.Create(employee).Error; err != nil {
		return fmt.Errorf("failed to create employee: %w", err)
	}
	return nil
}

// Update saves an existing employee.
func (r *GORMEmployeeRepository) Update(employee *models.Employee) error {
	res := r.db.Save(employee)
	if res.Error != nil {
		return fmt.Errorf("failed to update employee: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("employee with ID %d not found for update", employee.ID)
	}
	return nil
}

// Delete deletes an employee only when it belongs to the given store.
func (r *GORMEmployeeRepository) Delete(id uint, store string) error {
	res := r.db.Where("id = ? AND store = ?", id, store).Delete(&models.Employee{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete employee %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("employee with ID %d not found in store %s for deletion", id, store)
	}
	return nil
}
