package llm

import "time"

// Task identifies the kind of model call being performed.
type Task string

const (
	TaskBuild            Task = "build"
	TaskRoute            Task = "route"
	TaskLesson           Task = "lesson"
	TaskAnswer           Task = "answer"
	TaskSummary          Task = "summary"
	TaskExercise         Task = "exercise"
	TaskExerciseTitle    Task = "exercise_title"
	TaskExerciseSolution Task = "exercise_solution"
)

// TaskConfig holds per-task model parameters.
type TaskConfig struct {
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration // overrides Config.Timeout if > 0
}

type Config struct {
	Endpoint      string
	Model         string
	ContextWindow int
	Timeout       time.Duration
	MaxRetries    int
	RetryBackoff  time.Duration
	Tasks         map[Task]TaskConfig
}

func DefaultConfig() Config {
	return Config{
		Endpoint:      "http://localhost:11434",
		Model:         "qwen2",
		ContextWindow: 8192,
		Timeout:       60 * time.Second,
		MaxRetries:    1,
		RetryBackoff:  250 * time.Millisecond,
		Tasks: map[Task]TaskConfig{
			TaskBuild:            {Temperature: 0.2, MaxTokens: 2048, Timeout: 90 * time.Second},
			TaskRoute:            {Temperature: 0, MaxTokens: 8, Timeout: 15 * time.Second},
			TaskLesson:           {Temperature: 0.4, MaxTokens: 4096, Timeout: 3 * time.Minute},
			TaskAnswer:           {Temperature: 0.3, MaxTokens: 1024},
			TaskSummary:          {Temperature: 0.2, MaxTokens: 512},
			TaskExercise:         {Temperature: 0.5, MaxTokens: 1024},
			TaskExerciseTitle:    {Temperature: 0.2, MaxTokens: 32, Timeout: 20 * time.Second},
			TaskExerciseSolution: {Temperature: 0.2, MaxTokens: 2048},
		},
	}
}

// TaskTimeout returns the task-specific timeout if set, otherwise the global one.
func (c Config) TaskTimeout(task Task) time.Duration {
	if tc, ok := c.Tasks[task]; ok && tc.Timeout > 0 {
		return tc.Timeout
	}
	return c.Timeout
}
