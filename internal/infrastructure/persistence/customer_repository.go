package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/sultan/backend/internal/domain/partner"
	"github.com/sultan/backend/internal/domain/shared"
	"github.com/sultan/backend/internal/domain/shared/update"
	"github.com/sultan/backend/internal/infrastructure/persistence/models"
)

// GormCustomerRepository implements partner.CustomerRepository using GORM
type GormCustomerRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db, now: time.Now}
}

// Create inserts a customer under the given id
func (r *GormCustomerRepository) Create(ctx context.Context, id int64, customer *partner.CustomerCreate) error {
	model := models.CustomerModelFromCreate(id, customer)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("create customer: %w", translateError(err))
	}
	return nil
}

// Update writes only the columns the update touches. updated_at is always
// bumped, so an empty update still proves the row exists.
func (r *GormCustomerRepository) Update(ctx context.Context, id int64, u *partner.CustomerUpdate) error {
	values := update.Assignments{"updated_at": r.now()}
	update.PutPtr(values, "number", u.Number)
	update.PutPtr(values, "name", u.Name)
	values.
		Put("address", u.Address).
		Put("email", u.Email).
		Put("phone", u.Phone)
	update.PutPtr(values, "level", u.Level)
	update.PutPtr(values, "credit_limit", u.CreditLimit)
	values.Put("metadata", update.Map(u.Metadata, func(m json.RawMessage) string { return string(m) }))

	result := r.db.WithContext(ctx).
		Model(&models.CustomerModel{}).
		Where("id = ?", id).
		Updates(map[string]any(values))
	return affectedOne(result)
}

// Delete soft deletes a customer
func (r *GormCustomerRepository) Delete(ctx context.Context, id int64) error {
	return affectedOne(r.db.WithContext(ctx).Delete(&models.CustomerModel{}, "id = ?", id))
}

// FindByID finds a live customer by its ID
func (r *GormCustomerRepository) FindByID(ctx context.Context, id int64) (*partner.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByNumber finds a live customer by its number
func (r *GormCustomerRepository) FindByNumber(ctx context.Context, number string) (*partner.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).
		Where("number = ?", strings.ToUpper(strings.TrimSpace(number))).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists customers matching the filter, one page at a time
func (r *GormCustomerRepository) FindAll(ctx context.Context, filter partner.CustomerFilter, page shared.PageRequest) ([]partner.Customer, error) {
	var customerModels []models.CustomerModel
	err := applyCustomerFilter(r.db.WithContext(ctx).Model(&models.CustomerModel{}), filter).
		Order(customerSortColumns.orderBy(page)).
		Limit(page.Limit()).
		Offset(page.Offset()).
		Find(&customerModels).Error
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}

	customers := make([]partner.Customer, len(customerModels))
	for i := range customerModels {
		customers[i] = *customerModels[i].ToDomain()
	}
	return customers, nil
}

// Count counts customers matching the filter
func (r *GormCustomerRepository) Count(ctx context.Context, filter partner.CustomerFilter) (int64, error) {
	var count int64
	err := applyCustomerFilter(r.db.WithContext(ctx).Model(&models.CustomerModel{}), filter).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count customers: %w", err)
	}
	return count, nil
}

func applyCustomerFilter(query *gorm.DB, filter partner.CustomerFilter) *gorm.DB {
	if filter.Number != nil {
		query = query.Where(likeClause("number"), containsPattern(strings.ToUpper(*filter.Number)))
	}
	if filter.Name != nil {
		query = query.Where(likeClause("name"), containsPattern(*filter.Name))
	}
	if filter.Phone != nil {
		query = query.Where(likeClause("phone"), containsPattern(*filter.Phone))
	}
	if filter.Email != nil {
		query = query.Where(likeClause("email"), containsPattern(strings.ToLower(*filter.Email)))
	}
	if filter.Level != nil {
		query = query.Where("level = ?", *filter.Level)
	}
	return query
}

// likeClause matches column against a pattern built by containsPattern.
// sqlite has no default LIKE escape character, so it is spelled out.
func likeClause(column string) string {
	return column + ` LIKE ? ESCAPE '\'`
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching s anywhere, with s's own
// wildcards escaped
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
