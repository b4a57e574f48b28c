package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/smallbiznis/atelier/internal/auth/domain"
	"github.com/smallbiznis/atelier/internal/config"
	"go.uber.org/zap"
)

const clockSkew = 30 * time.Second

type tokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type Verifier struct {
	log    *zap.Logger
	secret []byte
	now    func() time.Time
}

func New(cfg config.Config, log *zap.Logger) domain.Verifier {
	return NewVerifier(cfg.AuthJWTSecret, log)
}

func NewVerifier(secret string, log *zap.Logger) *Verifier {
	return &Verifier{
		log:    log.Named("auth.verifier"),
		secret: []byte(strings.TrimSpace(secret)),
		now:    time.Now,
	}
}

// Verify accepts HS256 tokens signed with the shared secret.
func (v *Verifier) Verify(rawToken string) (domain.Claims, error) {
	if len(v.secret) == 0 {
		return domain.Claims{}, domain.ErrNotConfigured
	}
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return domain.Claims{}, domain.ErrMissingToken
	}

	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(rawToken, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Claims{}, domain.ErrTokenExpired
		}
		v.log.Debug("rejected bearer token", zap.Error(err))
		return domain.Claims{}, domain.ErrInvalidToken
	}
	if !token.Valid {
		return domain.Claims{}, domain.ErrInvalidToken
	}

	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return domain.Claims{}, domain.ErrMissingSubject
	}

	out := domain.Claims{
		Subject: subject,
		Email:   strings.TrimSpace(claims.Email),
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
