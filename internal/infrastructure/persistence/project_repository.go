package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/slnkoenergy/epc-backend/internal/domain/project"
	"github.com/slnkoenergy/epc-backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormProjectRepository implements project.Repository using GORM
type GormProjectRepository struct {
	db *gorm.DB
}

// NewGormProjectRepository creates a new GormProjectRepository
func NewGormProjectRepository(db *gorm.DB) *GormProjectRepository {
	return &GormProjectRepository{db: db}
}

// FindByID finds a project by internal id
func (r *GormProjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*project.Project, error) {
	var p project.Project
	if err := connFor(ctx, r.db).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// FindByNumber finds a project by its external numeric project number
func (r *GormProjectRepository) FindByNumber(ctx context.Context, projectNumber int64) (*project.Project, error) {
	var p project.Project
	if err := connFor(ctx, r.db).First(&p, "project_number = ?", projectNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// FindAll finds projects with filtering and pagination
func (r *GormProjectRepository) FindAll(ctx context.Context, filter shared.Filter) ([]project.Project, error) {
	var projects []project.Project
	query := connFor(ctx, r.db).Model(&project.Project{})

	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("code ILIKE ? OR name ILIKE ? OR customer ILIKE ?", like, like, like)
	}
	if group, ok := filter.Filters["group_name"]; ok {
		query = query.Where("group_name = ?", group)
	}

	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize)
		if filter.Page > 0 {
			query = query.Offset((filter.Page - 1) * filter.PageSize)
		}
	}

	if err := query.Order("project_number ASC").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// Count counts projects matching the filter
func (r *GormProjectRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := connFor(ctx, r.db).Model(&project.Project{})
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("code ILIKE ? OR name ILIKE ? OR customer ILIKE ?", like, like, like)
	}
	if group, ok := filter.Filters["group_name"]; ok {
		query = query.Where("group_name = ?", group)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindAllNumbers returns every project number, for full-ledger sync passes
func (r *GormProjectRepository) FindAllNumbers(ctx context.Context) ([]int64, error) {
	var numbers []int64
	if err := connFor(ctx, r.db).
		Model(&project.Project{}).
		Order("project_number ASC").
		Pluck("project_number", &numbers).Error; err != nil {
		return nil, err
	}
	return numbers, nil
}

var _ project.Repository = (*GormProjectRepository)(nil)
