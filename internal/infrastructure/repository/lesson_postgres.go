package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/waste3d/courseforge/internal/domain"
)

const lessonTTL = time.Hour

type LessonRepository struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewLessonRepository(db *gorm.DB, rdb *redis.Client) *LessonRepository {
	return &LessonRepository{db: db, rdb: rdb}
}

// LessonContext то, что нужно модели для генерации тела урока.
type LessonContext struct {
	CourseTitle       string
	CourseDescription string
	Summaries         string
	FutureLessons     []string
}

// === КЕШИРУЕМ ОДИН УРОК ===
func (r *LessonRepository) Get(ctx context.Context, id uint) (*domain.Lesson, error) {
	key := lessonKey(id)

	// 1. Кеш
	if r.rdb != nil {
		if val, err := r.rdb.Get(ctx, key).Result(); err == nil {
			var l domain.Lesson
			if json.Unmarshal([]byte(val), &l) == nil {
				return &l, nil
			}
		}
	}

	// 2. БД
	lesson, err := r.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	// 3. Кладём в кеш на час
	if r.rdb != nil {
		if data, err := json.Marshal(lesson); err == nil {
			r.rdb.Set(ctx, key, data, lessonTTL)
		}
	}
	return lesson, nil
}

// Load читает урок из БД мимо кеша. Для изменений урока только так.
func (r *LessonRepository) Load(ctx context.Context, id uint) (*domain.Lesson, error) {
	var lesson domain.Lesson
	if err := r.db.WithContext(ctx).First(&lesson, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &lesson, nil
}

// Save перезаписывает урок по id и сбрасывает кеш. Статус не может откатиться назад:
// такая запись отклоняется с domain.ErrInvalidTransition. Запись поверх чужого
// Save (версия в БД уже другая) отклоняется с domain.ErrStaleLesson.
// Заодно продвигает статусы секции и курса.
func (r *LessonRepository) Save(ctx context.Context, l *domain.Lesson) error {
	loaded := l.Version
	l.Version = loaded + 1

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(l).
			Where("status <= ? AND version = ?", l.Status, loaded).
			Select("body_md", "messages", "summary", "status", "version", "updated_at").
			Updates(l)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return rejected(tx, l)
		}

		switch l.Status {
		case domain.StatusStarted:
			return markStarted(tx, l)
		case domain.StatusFinished:
			return rollUpFinished(tx, l)
		}
		return nil
	})

	if err != nil {
		l.Version = loaded
	}
	r.evict(ctx, l.ID)
	return err
}

func rejected(tx *gorm.DB, l *domain.Lesson) error {
	var current domain.Lesson
	if err := tx.Select("status").First(&current, l.ID).Error; err != nil {
		return notFound(err)
	}
	if current.Status > l.Status {
		return domain.ErrInvalidTransition
	}
	return fmt.Errorf("lesson %d: %w", l.ID, domain.ErrStaleLesson)
}

func markStarted(tx *gorm.DB, l *domain.Lesson) error {
	if l.SectionID != nil {
		if err := tx.Model(&domain.Section{}).
			Where("id = ? AND status = ?", *l.SectionID, domain.StatusNotStarted).
			Update("status", domain.StatusStarted).Error; err != nil {
			return err
		}
	}
	return tx.Model(&domain.Course{}).
		Where("id = ? AND status = ?", l.CourseID, domain.StatusNotStarted).
		Update("status", domain.StatusStarted).Error
}

func rollUpFinished(tx *gorm.DB, l *domain.Lesson) error {
	if l.SectionID != nil {
		var open int64
		if err := tx.Model(&domain.Lesson{}).
			Where("section_id = ? AND status <> ?", *l.SectionID, domain.StatusFinished).
			Count(&open).Error; err != nil {
			return err
		}
		if open == 0 {
			var lessons []domain.Lesson
			if err := tx.Select("summary").
				Where("section_id = ?", *l.SectionID).
				Order("position asc").
				Find(&lessons).Error; err != nil {
				return err
			}
			summary := joinSummaries(lessons)
			if err := tx.Model(&domain.Section{}).
				Where("id = ?", *l.SectionID).
				Updates(map[string]any{"status": domain.StatusFinished, "summary": summary}).Error; err != nil {
				return err
			}
		}
	}

	var open int64
	if err := tx.Model(&domain.Lesson{}).
		Where("course_id = ? AND status <> ?", l.CourseID, domain.StatusFinished).
		Count(&open).Error; err != nil {
		return err
	}
	if open > 0 {
		return nil
	}
	return tx.Model(&domain.Course{}).
		Where("id = ?", l.CourseID).
		Update("status", domain.StatusFinished).Error
}

func (r *LessonRepository) evict(ctx context.Context, id uint) {
	if r.rdb != nil {
		r.rdb.Del(ctx, lessonKey(id))
	}
}

func (r *LessonRepository) ListBySection(ctx context.Context, sectionID uint) ([]domain.Lesson, error) {
	var lessons []domain.Lesson
	err := r.db.WithContext(ctx).
		Where("section_id = ?", sectionID).
		Order("position asc").
		Find(&lessons).Error
	return lessons, err
}

// Context собирает название курса, конспекты пройденного и названия следующих уроков.
// Для первого урока первой секции конспектов нет.
func (r *LessonRepository) Context(ctx context.Context, l *domain.Lesson) (*LessonContext, error) {
	db := r.db.WithContext(ctx)

	var course domain.Course
	if err := db.First(&course, l.CourseID).Error; err != nil {
		return nil, notFound(err)
	}
	out := &LessonContext{
		CourseTitle:       course.Title,
		CourseDescription: course.Description,
	}
	if l.SectionID == nil {
		return out, nil
	}

	var section domain.Section
	if err := db.First(&section, *l.SectionID).Error; err != nil {
		return nil, notFound(err)
	}

	var parts []string

	// 1. Предыдущие секции: конспект секции, а если его нет - конспекты её уроков
	var previous []domain.Section
	if err := db.Where("course_id = ? AND position < ?", l.CourseID, section.Position).
		Order("position asc").
		Find(&previous).Error; err != nil {
		return nil, err
	}
	for _, s := range previous {
		if s.Summary != nil && strings.TrimSpace(*s.Summary) != "" {
			parts = append(parts, strings.TrimSpace(*s.Summary))
			continue
		}
		var lessons []domain.Lesson
		if err := db.Select("summary").Where("section_id = ?", s.ID).Order("position asc").Find(&lessons).Error; err != nil {
			return nil, err
		}
		if joined := joinSummaries(lessons); joined != "" {
			parts = append(parts, joined)
		}
	}

	// 2. Более ранние уроки этой секции
	var earlier []domain.Lesson
	if err := db.Select("summary").
		Where("section_id = ? AND position < ?", *l.SectionID, l.Position).
		Order("position asc").
		Find(&earlier).Error; err != nil {
		return nil, err
	}
	if joined := joinSummaries(earlier); joined != "" {
		parts = append(parts, joined)
	}
	out.Summaries = strings.Join(parts, "\n\n")

	// 3. Что будет дальше
	if err := db.Model(&domain.Lesson{}).
		Where("section_id = ? AND position > ?", *l.SectionID, l.Position).
		Order("position asc").
		Pluck("title", &out.FutureLessons).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func joinSummaries(lessons []domain.Lesson) string {
	parts := make([]string, 0, len(lessons))
	for _, l := range lessons {
		if l.Summary == nil {
			continue
		}
		if s := strings.TrimSpace(*l.Summary); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}
