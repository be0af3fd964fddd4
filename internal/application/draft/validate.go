// Package draft validates course drafts produced by the build agent.
package draft

import (
	"fmt"
	"strings"

	"github.com/waste3d/courseforge/internal/domain"
)

// Validate checks a decoded draft and returns it with dense 1-based positions.
// Checks run in a fixed order and stop at the first failure.
func Validate(raw any) (domain.NormalizedDraft, error) {
	var out domain.NormalizedDraft

	obj, ok := raw.(map[string]any)
	if !ok {
		return out, invalid("", "draft must be an object")
	}

	title, ok := nonEmptyString(obj["title"])
	if !ok {
		return out, invalid("title", "missing course title")
	}
	description, ok := nonEmptyString(obj["description"])
	if !ok {
		return out, invalid("description", "missing course description")
	}

	sections, ok := obj["sections"].([]any)
	if !ok || len(sections) == 0 {
		return out, invalid("sections", "course needs at least one section")
	}

	out.Title = title
	out.Description = description
	out.Sections = make([]domain.DraftSection, 0, len(sections))

	for i, rawSection := range sections {
		sectionPath := fmt.Sprintf("section #%d", i+1)

		section, ok := rawSection.(map[string]any)
		if !ok {
			return out, invalid(sectionPath, "section must be an object")
		}
		sectionTitle, ok := nonEmptyString(section["title"])
		if !ok {
			return out, invalid(sectionPath, "missing section title")
		}
		lessons, ok := section["lessons"].([]any)
		if !ok || len(lessons) == 0 {
			return out, invalid(sectionPath, "section needs at least one lesson")
		}

		normalized := domain.DraftSection{
			Title:    sectionTitle,
			Position: i + 1,
			Lessons:  make([]domain.DraftLesson, 0, len(lessons)),
		}

		for j, rawLesson := range lessons {
			lessonPath := fmt.Sprintf("%s lesson #%d", sectionPath, j+1)

			lesson, ok := rawLesson.(map[string]any)
			if !ok {
				return out, invalid(lessonPath, "lesson must be an object")
			}
			lessonTitle, ok := nonEmptyString(lesson["title"])
			if !ok {
				return out, invalid(lessonPath, "missing lesson title")
			}
			// Описание урока может быть пустым, но должно быть строкой
			lessonDescription, ok := lesson["description"].(string)
			if !ok {
				return out, invalid(lessonPath, "missing lesson description")
			}

			normalized.Lessons = append(normalized.Lessons, domain.DraftLesson{
				Title:       lessonTitle,
				Description: strings.TrimSpace(lessonDescription),
				Position:    j + 1,
			})
		}

		out.Sections = append(out.Sections, normalized)
	}

	return out, nil
}

func nonEmptyString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func invalid(path, reason string) error {
	return &domain.InvalidDraftError{Path: path, Reason: reason}
}
