// Package auth issues and verifies room tokens. A token binds a player UUID
// to a room code so a client can reconnect to a game in progress without
// re-negotiating identity. Tokens are optional: servers without AUTH_SECRET
// skip verification entirely.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL bounds how long a reconnect token stays valid.
const TokenTTL = 24 * time.Hour

// RoomClaims are the JWT claims carried by a room token.
type RoomClaims struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
	jwt.RegisteredClaims
}

// CreateRoomToken signs a token binding playerID to roomID.
func CreateRoomToken(secret, roomID, playerID string) (string, error) {
	if secret == "" {
		return "", errors.New("auth secret is not configured")
	}
	claims := RoomClaims{
		RoomID:   roomID,
		PlayerID: playerID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign room token: %w", err)
	}
	return signed, nil
}

// ParseRoomToken verifies a token and returns its claims.
func ParseRoomToken(secret, tokenString string) (*RoomClaims, error) {
	if secret == "" {
		return nil, errors.New("auth secret is not configured")
	}
	claims := &RoomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse room token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid room token")
	}
	return claims, nil
}
