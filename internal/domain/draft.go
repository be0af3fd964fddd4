package domain

// NormalizedDraft черновик после проверки, позиции плотные и начинаются с 1.
type NormalizedDraft struct {
	Title       string
	Description string
	Sections    []DraftSection
}

type DraftSection struct {
	Title    string
	Position int
	Lessons  []DraftLesson
}

type DraftLesson struct {
	Title       string
	Description string
	Position    int
}

// ChatTurn одна реплика в истории сессии сборки курса.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	TurnUser      = "user"
	TurnAssistant = "assistant"
)
