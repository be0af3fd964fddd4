package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/waste3d/courseforge/internal/domain"
)

type ExerciseRepository struct {
	db *gorm.DB
}

func NewExerciseRepository(db *gorm.DB) *ExerciseRepository {
	return &ExerciseRepository{db: db}
}

// Create ставит упражнение в конец курса.
func (r *ExerciseRepository) Create(ctx context.Context, ex *domain.Exercise) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last int
		if err := tx.Model(&domain.Exercise{}).
			Where("course_id = ?", ex.CourseID).
			Select("COALESCE(MAX(position), 0)").
			Scan(&last).Error; err != nil {
			return err
		}
		ex.Position = last + 1
		return tx.Omit(clause.Associations).Create(ex).Error
	})
}

func (r *ExerciseRepository) ListByLesson(ctx context.Context, lessonID uint) ([]domain.Exercise, error) {
	var exercises []domain.Exercise
	err := r.db.WithContext(ctx).
		Where("lesson_id = ?", lessonID).
		Order("position asc").
		Find(&exercises).Error
	return exercises, err
}

func (r *ExerciseRepository) GetByID(ctx context.Context, id uint) (*domain.Exercise, error) {
	var ex domain.Exercise
	if err := r.db.WithContext(ctx).First(&ex, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &ex, nil
}
