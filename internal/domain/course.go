package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Status общий для курсов, секций, уроков и упражнений.
type Status int

const (
	StatusNotStarted Status = 0
	StatusStarted    Status = 1
	StatusFinished   Status = 2
)

func (s Status) String() string {
	switch s {
	case StatusNotStarted:
		return "not_started"
	case StatusStarted:
		return "started"
	case StatusFinished:
		return "finished"
	default:
		return "unknown"
	}
}

type Course struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Slug        string `gorm:"uniqueIndex;not null;size:80" json:"slug"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"not null" json:"description"`
	Status      Status `gorm:"not null;default:0" json:"status"`
	OwnerID     *uint  `gorm:"index" json:"owner_id,omitempty"`

	// Удаление курса каскадом удаляет всё содержимое
	Sections  []Section  `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE;" json:"-"`
	Lessons   []Lesson   `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE;" json:"-"`
	Exercises []Exercise `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE;" json:"-"`
	Quizzes   []Quiz     `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE;" json:"-"`
	Projects  []Project  `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE;" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Section struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	CourseID uint    `gorm:"not null;uniqueIndex:idx_sections_course_position" json:"course_id"`
	Title    string  `gorm:"not null" json:"title"`
	Summary  *string `json:"summary"`
	Position int     `gorm:"not null;uniqueIndex:idx_sections_course_position" json:"position"`
	Status   Status  `gorm:"not null;default:0" json:"status"`

	// Секция удаляется - дочерние записи остаются без секции
	Lessons   []Lesson   `gorm:"foreignKey:SectionID;constraint:OnDelete:SET NULL;" json:"-"`
	Exercises []Exercise `gorm:"foreignKey:SectionID;constraint:OnDelete:SET NULL;" json:"-"`
	Quizzes   []Quiz     `gorm:"foreignKey:SectionID;constraint:OnDelete:SET NULL;" json:"-"`
	Projects  []Project  `gorm:"foreignKey:SectionID;constraint:OnDelete:SET NULL;" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// Message одна запись транскрипта урока.
type Message struct {
	ID      int    `json:"id"`
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Role string

const (
	RoleUser        Role = "user"
	RoleApplication Role = "application"
)

type Lesson struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	CourseID    uint    `gorm:"not null;index" json:"course_id"`
	SectionID   *uint   `gorm:"uniqueIndex:idx_lessons_section_position" json:"section_id"`
	Title       string  `gorm:"not null" json:"title"`
	Description string  `gorm:"not null;default:''" json:"description"`
	BodyMD      *string `gorm:"column:body_md" json:"body_md"`
	// Транскрипт только дописывается, никогда не переписывается
	Messages datatypes.JSONSlice[Message] `gorm:"not null" json:"messages"`
	Summary  *string                      `json:"summary"`
	Position int                          `gorm:"not null;uniqueIndex:idx_lessons_section_position" json:"position"`
	Status   Status                       `gorm:"not null;default:0" json:"status"`
	// Растёт на каждом Save; запись со старой версией отклоняется
	Version int `gorm:"not null;default:0" json:"version"`

	Exercises []Exercise `gorm:"foreignKey:LessonID;constraint:OnDelete:SET NULL;" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AppendMessage дописывает запись в транскрипт с плотным id.
func (l *Lesson) AppendMessage(role Role, content string) {
	l.Messages = append(l.Messages, Message{
		ID:      len(l.Messages) + 1,
		Role:    role,
		Content: content,
	})
}

// PendingBody остаток тела урока, ещё не показанный студенту.
func (l *Lesson) PendingBody() string {
	if l.BodyMD == nil {
		return ""
	}
	return *l.BodyMD
}

type Exercise struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	CourseID  uint   `gorm:"not null;uniqueIndex:idx_exercises_course_position" json:"course_id"`
	SectionID *uint  `gorm:"index" json:"section_id"`
	LessonID  *uint  `gorm:"index" json:"lesson_id"`
	Title     string `gorm:"not null" json:"title"`
	Prompt    string `gorm:"not null" json:"prompt"`
	Solution  string `gorm:"not null" json:"solution"`
	Position  int    `gorm:"not null;uniqueIndex:idx_exercises_course_position" json:"position"`
	Status    Status `gorm:"not null;default:0" json:"status"`

	CreatedAt time.Time `json:"created_at"`
}

type Quiz struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	CourseID  uint   `gorm:"not null;uniqueIndex:idx_quizzes_course_position" json:"course_id"`
	SectionID *uint  `gorm:"index" json:"section_id"`
	Title     string `gorm:"not null" json:"title"`
	Position  int    `gorm:"not null;uniqueIndex:idx_quizzes_course_position" json:"position"`
	Status    Status `gorm:"not null;default:0" json:"status"`

	CreatedAt time.Time `json:"created_at"`
}

type Project struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	CourseID  uint   `gorm:"not null;uniqueIndex:idx_projects_course_position" json:"course_id"`
	SectionID *uint  `gorm:"index" json:"section_id"`
	Brief     string `gorm:"not null" json:"brief"`
	Position  int    `gorm:"not null;uniqueIndex:idx_projects_course_position" json:"position"`
	Status    Status `gorm:"not null;default:0" json:"status"`

	CreatedAt time.Time `json:"created_at"`
}
