package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"
)

// Logger обёртка над zap.SugaredLogger. Чувствительные поля маскируются до записи.
type Logger struct {
	SugaredLogger *zap.SugaredLogger
}

// New строит логгер: "prod" пишет JSON, всё остальное - консольный dev-формат.
func New(mode string) (*Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	zapLogger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{SugaredLogger: zapLogger.Sugar()}, nil
}

// Nop для тестов.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func (l *Logger) Sync() { _ = l.SugaredLogger.Sync() }

func (l *Logger) Debug(msg string, kv ...any) { l.SugaredLogger.Debugw(msg, mask(kv)...) }
func (l *Logger) Info(msg string, kv ...any)  { l.SugaredLogger.Infow(msg, mask(kv)...) }
func (l *Logger) Warn(msg string, kv ...any)  { l.SugaredLogger.Warnw(msg, mask(kv)...) }
func (l *Logger) Error(msg string, kv ...any) { l.SugaredLogger.Errorw(msg, mask(kv)...) }

func (l *Logger) With(kv ...any) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(mask(kv)...)}
}

type policy int

const (
	keep policy = iota
	redact
	digest
)

// Поля, которые этот сервис может передать в лог. Остальные пишутся как есть.
// Идентификаторы сессий и пользователей пишем хешем, чтобы строки можно было связать.
var fields = map[string]policy{
	"password":       redact,
	"password_hash":  redact,
	"sid":            redact,
	"cookie":         redact,
	"session_secret": redact,
	"authorization":  redact,
	"session_id":     digest,
	"user_id":        digest,
	"owner_id":       digest,
}

func mask(kv []any) []any {
	if len(kv) < 2 {
		return kv
	}
	out := slices.Clone(kv)
	for i := 0; i+1 < len(out); i += 2 {
		key, ok := out[i].(string)
		if !ok {
			continue
		}
		switch fields[strings.ToLower(key)] {
		case redact:
			out[i+1] = "[REDACTED]"
		case digest:
			out[i+1] = digestOf(out[i+1])
		}
	}
	return out
}

func digestOf(v any) string {
	if v == nil {
		return ""
	}
	raw := fmt.Sprint(v)
	if raw == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(raw))
	return "hash:" + hex.EncodeToString(sum[:6])
}
