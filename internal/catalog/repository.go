package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/partfinderz-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/partfinderz-backend/pkg/errors"
)

// searchableColumns whitelists the descriptor fields that may reach SQL.
var searchableColumns = map[string]string{
	FieldName:        "name",
	FieldDescription: "description",
	FieldPartNumber:  "part_number",
	FieldPrice:       "price",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Repository executes catalog queries against the products table.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Search runs the descriptor and preloads compatibility records. Specification
// tags are not part of the SQL; callers post-filter them.
func (r *Repository) Search(ctx context.Context, q QueryDescriptor) ([]models.Product, error) {
	tx := r.db.WithContext(ctx).Model(&models.Product{}).Preload("Compatibilities")

	if q.ActiveOnly {
		tx = tx.Where("is_active = ?", true)
	}
	if q.TextSearch != nil && q.TextSearch.Term != "" {
		pattern := containsPattern(q.TextSearch.Term)
		clauses := make([]string, 0, len(q.TextSearch.Fields))
		args := make([]any, 0, len(q.TextSearch.Fields))
		for _, field := range q.TextSearch.Fields {
			column, ok := searchableColumns[field]
			if !ok {
				return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unsupported search field %q", field)
			}
			clauses = append(clauses, fmt.Sprintf(`LOWER(%s) LIKE ? ESCAPE '\'`, column))
			args = append(args, pattern)
		}
		if len(clauses) > 0 {
			tx = tx.Where("("+strings.Join(clauses, " OR ")+")", args...)
		}
	}
	if q.PartCode != "" {
		tx = tx.Where(`LOWER(part_number) LIKE ? ESCAPE '\'`, containsPattern(q.PartCode))
	}
	if q.Category != "" {
		tx = tx.Where("category = ?", q.Category)
	}
	if q.Position != "" {
		tx = tx.Where("position = ?", q.Position)
	}
	tx = tx.Where("price >= ? AND price <= ?", q.PriceMin, q.PriceMax)

	sortColumn, ok := searchableColumns[q.Sort.Field]
	if !ok {
		sortColumn = "price"
	}
	direction := "ASC"
	if q.Sort.Descending {
		direction = "DESC"
	}
	tx = tx.Order(sortColumn + " " + direction).Order("name ASC").Order("id ASC")

	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var products []models.Product
	if err := tx.Find(&products).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "search products")
	}
	return products, nil
}

// FindActiveByID loads an active product with its compatibility records.
func (r *Repository) FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Compatibilities").
		Where("id = ? AND is_active = ?", id, true).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return &product, nil
}

// Create inserts a product together with its compatibility records.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	for i := range product.Compatibilities {
		if product.Compatibilities[i].ID == uuid.Nil {
			product.Compatibilities[i].ID = uuid.New()
		}
		product.Compatibilities[i].ProductID = product.ID
	}
	return r.db.WithContext(ctx).Create(product).Error
}

func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(term))) + "%"
}
