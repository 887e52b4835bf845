package jwtinfra

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-chat-push/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

// ErrSigningDisabled is returned by Sign when no private key was loaded.
var ErrSigningDisabled = errors.New("jwt signing disabled: no private key configured")

// Claims identifies a caller: a chat user for broadcasts, or the event
// source (role "trigger") for change-feed deliveries.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Provider signs and verifies RS256 JWTs.
type Provider struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	expiry     time.Duration
}

// NewProvider loads the public key and, when configured, the private key.
// A provider without a private key can only verify.
func NewProvider(cfg *config.Config) (*Provider, error) {
	pubBytes, err := os.ReadFile(cfg.JWTPublicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(pubBytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}

	var privKey *rsa.PrivateKey
	if cfg.JWTPrivateKeyPath != "" {
		privBytes, err := os.ReadFile(cfg.JWTPrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("read private key: %w", err)
		}
		privKey, err = jwt.ParseRSAPrivateKeyFromPEM(privBytes)
		if err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}
	}

	return NewProviderFromKeys(privKey, pubKey, cfg.JWTExpiry), nil
}

func NewProviderFromKeys(priv *rsa.PrivateKey, pub *rsa.PublicKey, expiry time.Duration) *Provider {
	return &Provider{privateKey: priv, publicKey: pub, expiry: expiry}
}

func (p *Provider) Sign(userID, role string) (string, error) {
	if p.privateKey == nil {
		return "", ErrSigningDisabled
	}
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(p.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(p.privateKey)
}

func (p *Provider) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return p.publicKey, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.UserID == "" {
		return nil, errors.New("token has no user_id")
	}
	return claims, nil
}
