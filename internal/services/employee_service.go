package services

import (
	"errors"
	"fmt"
	"log"
	"mime/multipart"

	"github.com/conadsciacca/totem-voti/internal/models"
	"github.com/conadsciacca/totem-voti/internal/repositories"
	"github.com/conadsciacca/totem-voti/internal/storage"
)

var (
	// ErrNotFound covers both genuinely missing employees and employees
	// belonging to another store: cross-tenant probes learn nothing.
	ErrNotFound = errors.New("employee not found")

	// ErrNameRequired is returned when an employee name is empty.
	ErrNameRequired = errors.New("employee name is required")

	// ErrPhotoExtension is returned for uploads that are not png/jpg/jpeg.
	ErrPhotoExtension = errors.New("photo extension not allowed")
)

// EmployeeService handles the tenant-scoped employee roster, including
// photo files.
type EmployeeService struct {
	employeeRepo repositories.EmployeeRepository
	voteRepo     repositories.VoteRepository
	photos       *storage.PhotoStore
}

// NewEmployeeService creates a new EmployeeService.
func NewEmployeeService(employeeRepo repositories.EmployeeRepository, voteRepo repositories.VoteRepository, photos *storage.PhotoStore) *EmployeeService {
	return &EmployeeService{
		employeeRepo: employeeRepo,
		voteRepo:     voteRepo,
		photos:       photos,
	}
}

// List retrieves the roster of one store.
func (s *EmployeeService) List(store string) ([]models.Employee, error) {
	return s.employeeRepo.GetAllByStore(store)
}

// Get retrieves a single employee of one store.
func (s *EmployeeService) Get(store string, id uint) (*models.Employee, error) {
	employee, err := s.employeeRepo.GetByIDAndStore(id, store)
	if err != nil {
		return nil, ErrNotFound
	}
	return employee, nil
}

// Create validates and stores a new employee with their photo.
func (s *EmployeeService) Create(store, name string, photo *multipart.FileHeader) (*models.Employee, error) {
	if name == "" {
		return nil, ErrNameRequired
	}
	if photo == nil || !storage.AllowedExtension(photo.Filename) {
		return nil, ErrPhotoExtension
	}

	filename, err := s.photos.Save(photo)
	if err != nil {
		return nil, fmt.Errorf("failed to store photo: %w", err)
	}

	employee := &models.Employee{
		Name:  name,
		Photo: filename,
		Store: store,
	}
	if err := s.employeeRepo.Create(employee); err != nil {
		return nil, err
	}
	return employee, nil
}

// Update renames an employee and, when a valid new file is supplied,
// replaces their photo. The name is written through unconditionally,
// empty included. Employees of other stores are ErrNotFound.
func (s *EmployeeService) Update(store string, id uint, name string, photo *multipart.FileHeader) error {
	employee, err := s.employeeRepo.GetByIDAndStore(id, store)
	if err != nil {
		return ErrNotFound
	}

	if photo != nil && photo.Filename != "" && storage.AllowedExtension(photo.Filename) {
		filename, err := s.photos.Save(photo)
		if err != nil {
			return fmt.Errorf("failed to store photo: %w", err)
		}
		employee.Photo = filename
	}
	employee.Name = name

	return s.employeeRepo.Update(employee)
}

// Delete removes an employee of one store together with their photo file
// and every vote referencing them. There is no transaction spanning the
// filesystem and the database; a crash in between leaves an orphan file.
func (s *EmployeeService) Delete(store string, id uint) error {
	employee, err := s.employeeRepo.GetByIDAndStore(id, store)
	if err != nil {
		return ErrNotFound
	}

	if err := s.photos.Remove(employee.Photo); err != nil {
		log.Printf("Warning: could not remove photo of employee %d: %v", id, err)
	}
	if err := s.voteRepo.DeleteByEmployee(id); err != nil {
		return fmt.Errorf("failed to delete votes of employee %d: %w", id, err)
	}
	return s.employeeRepo.Delete(id, store)
}
