package usecase

import "strings"

type CommandKind int

const (
	CommandAsk CommandKind = iota
	CommandStart
	CommandContinue
	CommandFinish
	CommandLeave
)

func (k CommandKind) String() string {
	switch k {
	case CommandStart:
		return "start"
	case CommandContinue:
		return "continue"
	case CommandFinish:
		return "finish"
	case CommandLeave:
		return "leave"
	default:
		return "ask"
	}
}

// Command is a decoded student action. Text is set only for CommandAsk.
type Command struct {
	Kind CommandKind
	Text string
}

// DecodeCommand maps control words to commands; any other text is a question.
func DecodeCommand(text string) Command {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "start":
		return Command{Kind: CommandStart}
	case "continue", "resume":
		return Command{Kind: CommandContinue}
	case "finish":
		return Command{Kind: CommandFinish}
	case "leave":
		return Command{Kind: CommandLeave}
	default:
		return Command{Kind: CommandAsk, Text: text}
	}
}
