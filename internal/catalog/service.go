package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/partfinderz-backend/pkg/db/models"
	"github.com/angelmondragon/partfinderz-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/partfinderz-backend/pkg/errors"
)

type productSearcher interface {
	Search(ctx context.Context, q QueryDescriptor) ([]models.Product, error)
	FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type primaryVehicleLoader interface {
	FindPrimary(ctx context.Context, userID uuid.UUID) (*models.Vehicle, error)
}

// Service exposes catalog search and product detail reads.
type Service interface {
	Search(ctx context.Context, userID uuid.UUID, input SearchInput) (*SearchResult, error)
	Product(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
}

// SearchInput is the raw filter selection sent by the client.
type SearchInput struct {
	Name                 string
	PartCode             string
	Category             string
	Specifications       []string
	Position             string
	PriceCeiling         *decimal.Decimal
	Sort                 string
	RequireCompatibility bool
}

type service struct {
	repo           productSearcher
	vehicles       primaryVehicleLoader
	defaultCeiling decimal.Decimal
	maxResults     int
}

// NewService builds the catalog service. maxResults caps every search.
func NewService(repo productSearcher, vehicles primaryVehicleLoader, defaultCeiling decimal.Decimal, maxResults int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if vehicles == nil {
		return nil, fmt.Errorf("vehicle loader required")
	}
	if defaultCeiling.IsNegative() {
		return nil, fmt.Errorf("default price ceiling must be non-negative")
	}
	return &service{
		repo:           repo,
		vehicles:       vehicles,
		defaultCeiling: defaultCeiling,
		maxResults:     maxResults,
	}, nil
}

// criteriaFrom builds FilterCriteria from client input, applying category-scoped
// tags through the criteria's own transitions.
func (s *service) criteriaFrom(input SearchInput) (FilterCriteria, error) {
	c := NewFilterCriteria(s.defaultCeiling)
	sortBy, err := enums.ParseSortOrder(input.Sort)
	if err != nil {
		return c, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sort")
	}
	c.SortBy = sortBy
	c.NameQuery = input.Name
	c.PartCodeQuery = input.PartCode
	c.Position = input.Position
	c.RequireCompatibility = input.RequireCompatibility
	if input.PriceCeiling != nil {
		if input.PriceCeiling.IsNegative() {
			return c, pkgerrors.New(pkgerrors.CodeValidation, "price ceiling must be non-negative")
		}
		c.PriceCeiling = *input.PriceCeiling
	}
	c.SelectCategory(input.Category)
	for _, tag := range input.Specifications {
		if !containsTag(c.Specifications, strings.TrimSpace(tag)) {
			c.ToggleSpecification(tag)
		}
	}
	return c, nil
}

func (s *service) Search(ctx context.Context, userID uuid.UUID, input SearchInput) (*SearchResult, error) {
	criteria, err := s.criteriaFrom(input)
	if err != nil {
		return nil, err
	}

	var vehicle *VehicleProfile
	if criteria.RequireCompatibility && userID != uuid.Nil {
		primary, err := s.vehicles.FindPrimary(ctx, userID)
		if err != nil && !isNotFound(err) {
			return nil, err
		}
		vehicle = ProfileFromVehicle(primary)
	}

	query := BuildQuery(criteria)
	localFilters := len(query.Specifications) > 0 || (criteria.RequireCompatibility && vehicle != nil)
	if !localFilters {
		query.Limit = s.maxResults
	}

	products, err := s.repo.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	products = ApplySpecificationFilter(products, criteria)
	products = ApplyCompatibilityFilter(products, criteria, vehicle)
	if s.maxResults > 0 && len(products) > s.maxResults {
		products = products[:s.maxResults]
	}

	out := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		out = append(out, NewProductDTO(p))
	}
	return &SearchResult{
		Products:          out,
		ActiveFilterCount: ActiveFilterCount(criteria),
		Vehicle:           vehicle,
	}, nil
}

func (s *service) Product(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.repo.FindActiveByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := NewProductDTO(*product)
	return &dto, nil
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || pkgerrors.IsCode(err, pkgerrors.CodeNotFound)
}
