package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieSigner firma y valida la cookie que identifica al navegador.
type CookieSigner struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

type CookieClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

var (
	ErrCookieInvalid = errors.New("session cookie invalid")
	ErrCookieExpired = errors.New("session cookie expired")
)

func NewCookieSigner(secret string, ttl time.Duration) *CookieSigner {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &CookieSigner{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: "mycoaching",
		now:    time.Now,
	}
}

// TTL es la vida de la cookie y del contenedor asociado.
func (s *CookieSigner) TTL() time.Duration {
	return s.ttl
}

func (s *CookieSigner) Sign(sessionID string) (string, error) {
	if len(s.secret) == 0 || strings.TrimSpace(sessionID) == "" {
		return "", ErrCookieInvalid
	}
	now := s.now().UTC()
	claims := CookieClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Parse devuelve el id de sesión contenido en value.
func (s *CookieSigner) Parse(value string) (string, error) {
	claims, err := s.ParseClaims(value)
	if err != nil {
		return "", err
	}
	return claims.SessionID, nil
}

// ParseClaims valida value y devuelve sus claims.
func (s *CookieSigner) ParseClaims(value string) (CookieClaims, error) {
	if len(s.secret) == 0 || strings.TrimSpace(value) == "" {
		return CookieClaims{}, ErrCookieInvalid
	}
	var claims CookieClaims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	_, err := parser.ParseWithClaims(value, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return CookieClaims{}, ErrCookieExpired
		}
		return CookieClaims{}, ErrCookieInvalid
	}
	if strings.TrimSpace(claims.SessionID) == "" {
		return CookieClaims{}, ErrCookieInvalid
	}
	return claims, nil
}

// NeedsRenewal indica si la cookie ya consumió la mitad de su vida.
func (s *CookieSigner) NeedsRenewal(claims CookieClaims) bool {
	if claims.IssuedAt == nil {
		return true
	}
	return s.now().Sub(claims.IssuedAt.Time) >= s.ttl/2
}
