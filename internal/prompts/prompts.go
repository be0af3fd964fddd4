// Package prompts loads the model prompt catalogue embedded in the binary.
package prompts

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var catalogue []byte

type Name string

const (
	BuildSystem      Name = "build_system"
	RouteSystem      Name = "route_system"
	Lesson           Name = "lesson"
	Answer           Name = "answer"
	Summary          Name = "summary"
	Exercise         Name = "exercise"
	ExerciseTitle    Name = "exercise_title"
	ExerciseSolution Name = "exercise_solution"
)

var required = []Name{BuildSystem, RouteSystem, Lesson, Answer, Summary, Exercise, ExerciseTitle, ExerciseSolution}

type Catalogue struct {
	templates map[Name]*template.Template
}

// Load parses the embedded catalogue and fails if any prompt is missing.
func Load() (*Catalogue, error) {
	return parse(catalogue)
}

func parse(data []byte) (*Catalogue, error) {
	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode prompts: %w", err)
	}

	funcs := template.FuncMap{"join": strings.Join}
	c := &Catalogue{templates: make(map[Name]*template.Template, len(raw))}
	for _, name := range required {
		text, ok := raw[string(name)]
		if !ok {
			return nil, fmt.Errorf("prompt %q is missing", name)
		}
		tmpl, err := template.New(string(name)).Funcs(funcs).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("parse prompt %q: %w", name, err)
		}
		c.templates[name] = tmpl
	}
	return c, nil
}

// Render executes the named prompt with data.
func (c *Catalogue) Render(name Name, data any) (string, error) {
	tmpl, ok := c.templates[name]
	if !ok {
		return "", fmt.Errorf("unknown prompt %q", name)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render prompt %q: %w", name, err)
	}
	return strings.TrimSpace(b.String()), nil
}

// Data types for each templated prompt.

type LessonData struct {
	CourseTitle       string
	CourseDescription string
	LessonTitle       string
	LessonDescription string
	Summaries         string
	FutureLessons     []string
}

type AnswerData struct {
	Context  string
	Question string
}

type SummaryData struct {
	Transcript string
}

type ExerciseData struct {
	CourseTitle string
	Transcript  string
	Exercise    string
}
