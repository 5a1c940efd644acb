package repositories

import (
	"fmt"
	"sync"

	"github.com/conadsciacca/totem-voti/internal/models"
)

// MockEmployeeRepository is an in-memory implementation of
// EmployeeRepository, used by unit tests and local runs without a database.
type MockEmployeeRepository struct {
	employees map[uint]models.Employee
	nextID    uint
	mu        sync.RWMutex
}

// NewMockEmployeeRepository creates a new instance of MockEmployeeRepository.
func NewMockEmployeeRepository() *MockEmployeeRepository {
	return &MockEmployeeRepository{
		employees: make(map[uint]models.Employee),
		nextID:    1,
	}
}

// GetAllByStore returns all employees of a store.
func (r *MockEmployeeRepository) GetAllByStore(store string) ([]models.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	employeeList := make([]models.Employee, 0)
	for _, e := range r.employees {
		if e.Store == store {
			employeeList = append(employeeList, e)
		}
	}
	return employeeList, nil
}

// GetByIDAndStore returns an employee only when it belongs to the store.
func (r *MockEmployeeRepository) GetByIDAndStore(id uint, store string) (*models.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	employee, ok := r.employees[id]
	if !ok || employee.Store != store {
		return nil, fmt.Errorf("employee with ID %d not found in store %s", id, store)
	}
	return &employee, nil
}

// Create adds a new employee, assigning an id when missing.
func (r *MockEmployeeRepository) Create(employee *models.Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if employee.ID == 0 {
		employee.ID = r.nextID
		r.nextID++
	} else if employee.ID >= r.nextID {
		r.nextID = employee.ID + 1
	}
	r.employees[employee.ID] = *employee
	return nil
}

// Update modifies an existing employee.
func (r *MockEmployeeRepository) Update(employee *models.Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.employees[employee.ID]
	if !ok {
		return fmt.Errorf("employee with ID %d not found for update", employee.ID)
	}
	r.employees[employee.ID] = *employee
	return nil
}

// Delete removes an employee when it belongs to the store.
func (r *MockEmployeeRepository) Delete(id uint, store string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	employee, ok := r.employees[id]
	if !ok || employee.Store != store {
		return fmt.Errorf("employee with ID %d not found in store %s for deletion", id, store)
	}
	delete(r.employees, id)
	return nil
}
