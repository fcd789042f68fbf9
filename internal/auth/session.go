// internal/auth/session.go
package auth

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// privateKey and publicKey sign and verify seat tokens.
var (
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey

	// tokenTTL is how long a seat token stays valid (0 => never expires).
	tokenTTL time.Duration
)

// SeatClaims identify a player seated in a room.
type SeatClaims struct {
	RoomID string `json:"room"`
	jwt.RegisteredClaims
}

// Seat is the verified content of a token.
type Seat struct {
	PlayerID uuid.UUID
	RoomID   uuid.UUID
}

// Init generates a fresh ed25519 key pair. Tokens issued before a restart stop validating.
func Init(ttl time.Duration) error {
	var err error
	publicKey, privateKey, err = ed25519.GenerateKey(nil)
	if err != nil {
		return fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}
	tokenTTL = ttl
	return nil
}

// InitFromPath reads a raw ed25519 key pair from disk.
func InitFromPath(privatePath, publicPath string, ttl time.Duration) error {
	privateKeyData, err := os.ReadFile(privatePath)
	if err != nil {
		return fmt.Errorf("failed to read private key file: %w", err)
	}
	publicKeyData, err := os.ReadFile(publicPath)
	if err != nil {
		return fmt.Errorf("failed to read public key file: %w", err)
	}
	if len(privateKeyData) != ed25519.PrivateKeySize || len(publicKeyData) != ed25519.PublicKeySize {
		return errors.New("key files are not raw ed25519 keys")
	}

	privateKey = ed25519.PrivateKey(privateKeyData)
	publicKey = ed25519.PublicKey(publicKeyData)
	tokenTTL = ttl
	return nil
}

// CreateJWT issues a token binding playerID to roomID.
func CreateJWT(playerID, roomID uuid.UUID) (string, error) {
	if privateKey == nil {
		return "", errors.New("auth not initialized")
	}
	claims := SeatClaims{
		RoomID: roomID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  playerID.String(),
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	if tokenTTL > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(tokenTTL))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(privateKey)
}

// AuthenticateJWT verifies tokenString and returns the seat it grants.
func AuthenticateJWT(tokenString string) (Seat, error) {
	var claims SeatClaims
	t, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil {
		return Seat{}, fmt.Errorf("jwt parse error: %w", err)
	}
	if !t.Valid {
		return Seat{}, errors.New("invalid token")
	}

	playerID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Seat{}, fmt.Errorf("invalid sub in jwt: %w", err)
	}
	roomID, err := uuid.Parse(claims.RoomID)
	if err != nil {
		return Seat{}, fmt.Errorf("invalid room in jwt: %w", err)
	}
	return Seat{PlayerID: playerID, RoomID: roomID}, nil
}
