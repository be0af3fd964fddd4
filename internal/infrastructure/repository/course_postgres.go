package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/waste3d/courseforge/internal/domain"
)

const (
	courseListKey = "courses:list"
	courseListTTL = 10 * time.Minute
	maxSlugProbes = 1000
)

// SlugCandidates возвращает n-й вариант slug (1 - базовый).
type SlugCandidates func(n int) string

type CourseRepository struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewCourseRepository: rdb может быть nil, тогда кеш списков отключён.
func NewCourseRepository(db *gorm.DB, rdb *redis.Client) *CourseRepository {
	return &CourseRepository{db: db, rdb: rdb}
}

// CreateFromDraft пишет курс, секции и уроки одной транзакцией.
// Нарушение уникальности slug при вставке курса превращается в domain.ErrSlugConflict.
func (r *CourseRepository) CreateFromDraft(ctx context.Context, d domain.NormalizedDraft, slugs SlugCandidates, ownerID *uint) (*domain.Course, error) {
	var course domain.Course

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slug, err := freeSlug(tx, slugs)
		if err != nil {
			return err
		}

		course = domain.Course{
			Slug:        slug,
			Title:       d.Title,
			Description: d.Description,
			Status:      domain.StatusNotStarted,
			OwnerID:     ownerID,
		}
		if err := tx.Omit(clause.Associations).Create(&course).Error; err != nil {
			// Кто-то занял slug между проверкой и вставкой
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %v", domain.ErrSlugConflict, err)
			}
			return err
		}

		for _, s := range d.Sections {
			section := domain.Section{
				CourseID: course.ID,
				Title:    s.Title,
				Position: s.Position,
				Status:   domain.StatusNotStarted,
			}
			if err := tx.Omit(clause.Associations).Create(&section).Error; err != nil {
				return err
			}

			sectionID := section.ID
			lessons := make([]domain.Lesson, 0, len(s.Lessons))
			for _, l := range s.Lessons {
				lessons = append(lessons, domain.Lesson{
					CourseID:    course.ID,
					SectionID:   &sectionID,
					Title:       l.Title,
					Description: l.Description,
					Messages:    []domain.Message{},
					Position:    l.Position,
					Status:      domain.StatusNotStarted,
				})
			}
			if err := tx.Omit(clause.Associations).Create(&lessons).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.invalidateLists(ctx)
	return &course, nil
}

func freeSlug(tx *gorm.DB, slugs SlugCandidates) (string, error) {
	for n := 1; n <= maxSlugProbes; n++ {
		candidate := slugs(n)
		var count int64
		if err := tx.Model(&domain.Course{}).Where("slug = ?", candidate).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
	}
	return "", domain.ErrSlugConflict
}

// === КЕШИРУЕМ СПИСОК КУРСОВ ===
func (r *CourseRepository) List(ctx context.Context) ([]domain.Course, error) {
	if r.rdb != nil {
		if val, err := r.rdb.Get(ctx, courseListKey).Result(); err == nil {
			var cached []domain.Course
			if json.Unmarshal([]byte(val), &cached) == nil {
				return cached, nil
			}
		}
	}

	var courses []domain.Course
	if err := r.db.WithContext(ctx).Order("id asc").Find(&courses).Error; err != nil {
		return nil, err
	}

	if r.rdb != nil {
		if data, err := json.Marshal(courses); err == nil {
			r.rdb.Set(ctx, courseListKey, data, courseListTTL)
		}
	}
	return courses, nil
}

func (r *CourseRepository) GetByID(ctx context.Context, id uint) (*domain.Course, error) {
	var course domain.Course
	if err := r.db.WithContext(ctx).First(&course, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &course, nil
}

func (r *CourseRepository) ListSections(ctx context.Context, courseID uint) ([]domain.Section, error) {
	var sections []domain.Section
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("position asc").
		Find(&sections).Error
	return sections, err
}

// Delete удаляет курс каскадом. Курс без владельца может удалить любой вошедший пользователь.
func (r *CourseRepository) Delete(ctx context.Context, id, userID uint) error {
	var lessonIDs []uint

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var course domain.Course
		if err := tx.First(&course, id).Error; err != nil {
			return notFound(err)
		}
		if course.OwnerID != nil && *course.OwnerID != userID {
			return domain.ErrForbidden
		}
		if err := tx.Model(&domain.Lesson{}).Where("course_id = ?", id).Pluck("id", &lessonIDs).Error; err != nil {
			return err
		}
		// Секции, уроки и упражнения удаляет ON DELETE CASCADE
		return tx.Delete(&course).Error
	})
	if err != nil {
		return err
	}

	r.invalidateLists(ctx)
	if r.rdb != nil && len(lessonIDs) > 0 {
		keys := make([]string, 0, len(lessonIDs))
		for _, lid := range lessonIDs {
			keys = append(keys, lessonKey(lid))
		}
		r.rdb.Del(ctx, keys...)
	}
	return nil
}

func (r *CourseRepository) invalidateLists(ctx context.Context) {
	if r.rdb != nil {
		r.rdb.Del(ctx, courseListKey)
	}
}

func lessonKey(id uint) string {
	return "lesson:detail:" + strconv.FormatUint(uint64(id), 10)
}
