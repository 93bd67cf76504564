package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "hisaab/internal/errors"
	"hisaab/internal/models"
)

// categoryService handles category-related business logic. Categories are
// shared by every user of the ledger.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// ListCategories returns categories usable for the given applicability, or
// all of them when applicability is nil. System categories come first.
func (s *categoryService) ListCategories(applicability *models.Applicability) ([]models.Category, error) {
	if applicability != nil && !applicability.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrConstraint, "applicability must be income, expense or both")
	}

	var categories []models.Category
	if err := categoriesFor(s.db, applicability).Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}

func categoriesFor(db *gorm.DB, applicability *models.Applicability) *gorm.DB {
	q := db.Model(&models.Category{})
	if applicability != nil {
		q = q.Where("applicability IN ?", []models.Applicability{*applicability, models.ApplicabilityBoth})
	}
	return q.Order("user_created ASC").Order("name_key ASC")
}

// AddCategory creates a user category unless one with the same name (case
// insensitive) already applies, in which case the existing id is returned.
func (s *categoryService) AddCategory(name string, applicability models.Applicability) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	if !applicability.Valid() {
		return "", apperrors.WithMessage(apperrors.ErrConstraint, "applicability must be income, expense or both")
	}

	var existing models.Category
	err := s.db.
		Where("name_key = ? AND applicability IN ?", models.CategoryKey(name),
			[]models.Applicability{applicability, models.ApplicabilityBoth}).
		Order("user_created ASC").
		First(&existing).Error
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	category := &models.Category{
		Name:          name,
		Applicability: applicability,
		UserCreated:   true,
	}
	if err := s.db.Create(category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", apperrors.WithMessage(apperrors.ErrConflict, "category already exists")
		}
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category.ID, nil
}

// GetCategoryByID retrieves a category by ID
func (s *categoryService) GetCategoryByID(categoryID string) (*models.Category, error) {
	return findCategory(s.db, categoryID)
}

func findCategory(db *gorm.DB, categoryID string) (*models.Category, error) {
	var category models.Category
	if err := db.Where("id = ?", categoryID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

func (s *categoryService) EnsureCategory(tx *gorm.DB, name string, applicability models.Applicability) (*models.Category, error) {
	key := models.CategoryKey(name)

	category := &models.Category{
		Name:          strings.TrimSpace(name),
		Applicability: applicability,
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var found models.Category
	if err := tx.Where("name_key = ? AND applicability = ?", key, applicability).First(&found).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &found, nil
}

// ResolveSettlementCategory picks the category a settlement of the given kind
// is filed under: Loans & Debts when available, then Other, then whatever
// category sorts first.
func (s *categoryService) ResolveSettlementCategory(tx *gorm.DB, kind models.TransactionKind) (*models.Category, error) {
	applicability := kind.Applicability()

	var candidates []models.Category
	if err := categoriesFor(tx, &applicability).Find(&candidates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(candidates) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrIntegrity, "no category available for "+string(kind))
	}

	for _, preferred := range []string{models.LoansCategoryName, models.OtherCategoryName} {
		key := models.CategoryKey(preferred)
		for i := range candidates {
			if candidates[i].NameKey == key {
				return &candidates[i], nil
			}
		}
	}
	return &candidates[0], nil
}
