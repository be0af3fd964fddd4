package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidSessionToken = errors.New("invalid session token")

// SessionSigner подписывает значение cookie sid, чтобы клиент не мог подобрать чужой id.
type SessionSigner struct {
	secret []byte
	ttl    time.Duration
}

func NewSessionSigner(secret string, ttl time.Duration) *SessionSigner {
	return &SessionSigner{secret: []byte(secret), ttl: ttl}
}

func (s *SessionSigner) TTL() time.Duration { return s.ttl }

func (s *SessionSigner) Sign(sid string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sid,
		"exp":  time.Now().Add(s.ttl).Unix(),
		"type": "session",
	})
	return token.SignedString(s.secret)
}

// Parse проверяет подпись и срок действия и возвращает session id.
func (s *SessionSigner) Parse(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return "", ErrInvalidSessionToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid || claims["type"] != "session" {
		return "", ErrInvalidSessionToken
	}
	sid, ok := claims["sub"].(string)
	if !ok || sid == "" {
		return "", ErrInvalidSessionToken
	}
	return sid, nil
}
