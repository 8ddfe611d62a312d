package categories

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidID rejects non-positive identifiers.
var ErrInvalidID = errors.New("invalid category ID")

// ValidationError carries a user facing validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Message }

// SafeMessage is shown on the form.
func (e *ValidationError) SafeMessage() string { return e.Message }

// Service applies category rules on top of a Repository.
type Service struct {
	repo     Repository
	validate *validator.Validate
}

// NewService builds a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, validate: validator.New()}
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]Category, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Category, error) {
	if id <= 0 {
		return Category{}, ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, category Category) (Category, error) {
	category, err := s.check(category)
	if err != nil {
		return Category{}, err
	}
	return s.repo.Create(ctx, category)
}

func (s *Service) Update(ctx context.Context, id int64, category Category) error {
	if id <= 0 {
		return ErrInvalidID
	}
	category, err := s.check(category)
	if err != nil {
		return err
	}
	return s.repo.Update(ctx, id, category)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidID
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) check(c Category) (Category, error) {
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	c.Name = strings.TrimSpace(c.Name)
	if err := s.validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			msg := "category " + strings.ToLower(fe.Field()) + " is required"
			if fe.Tag() == "max" {
				msg = "category " + strings.ToLower(fe.Field()) + " is too long"
			}
			return Category{}, &ValidationError{Field: fe.Field(), Message: msg}
		}
		return Category{}, err
	}
	return c, nil
}
