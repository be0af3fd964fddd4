package usecase

import (
	"context"

	"github.com/waste3d/courseforge/internal/domain"
	"github.com/waste3d/courseforge/internal/infrastructure/repository"
)

// CatalogUseCase отдаёт сохранённые курсы только на чтение, плюс удаление курса.
type CatalogUseCase struct {
	courses   *repository.CourseRepository
	lessons   *repository.LessonRepository
	exercises *repository.ExerciseRepository
}

func NewCatalogUseCase(c *repository.CourseRepository, l *repository.LessonRepository, e *repository.ExerciseRepository) *CatalogUseCase {
	return &CatalogUseCase{courses: c, lessons: l, exercises: e}
}

func (uc *CatalogUseCase) Courses(ctx context.Context) ([]domain.Course, error) {
	return uc.courses.List(ctx)
}

func (uc *CatalogUseCase) Sections(ctx context.Context, courseID uint) ([]domain.Section, error) {
	return uc.courses.ListSections(ctx, courseID)
}

func (uc *CatalogUseCase) Lessons(ctx context.Context, sectionID uint) ([]domain.Lesson, error) {
	return uc.lessons.ListBySection(ctx, sectionID)
}

func (uc *CatalogUseCase) Lesson(ctx context.Context, lessonID uint) (*domain.Lesson, error) {
	return uc.lessons.Get(ctx, lessonID)
}

func (uc *CatalogUseCase) Exercises(ctx context.Context, lessonID uint) ([]domain.Exercise, error) {
	return uc.exercises.ListByLesson(ctx, lessonID)
}

func (uc *CatalogUseCase) Exercise(ctx context.Context, id uint) (*domain.Exercise, error) {
	return uc.exercises.GetByID(ctx, id)
}

func (uc *CatalogUseCase) DeleteCourse(ctx context.Context, courseID, userID uint) error {
	return uc.courses.Delete(ctx, courseID, userID)
}
