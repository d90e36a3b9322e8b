// Package auth verifies the bearer tokens issued by the identity provider.
package auth

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("no token provided")
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrForbidden    = errors.New("email is not allowed")
)

// Identity is the verified caller.
type Identity struct {
	UID     string `json:"uid"`
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
}

type Claims struct {
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

type Config struct {
	Secret   string
	Issuer   string
	Audience string
	// AllowedDomains restricts sign-in to these email domains. Empty allows all.
	AllowedDomains []string
	// TestEmails bypass the domain restriction.
	TestEmails []string
}

type Verifier struct {
	secret     []byte
	issuer     string
	audience   string
	domains    []string
	testEmails []string
	parser     *jwt.Parser
}

func NewVerifier(cfg Config) (*Verifier, error) {
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("token secret is required")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	return &Verifier{
		secret:     []byte(secret),
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		domains:    lower(cfg.AllowedDomains),
		testEmails: lower(cfg.TestEmails),
		parser:     jwt.NewParser(opts...),
	}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || scheme != "Bearer" || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(token), nil
}

// Verify checks the signature, expiry and the email policy of token.
func (v *Verifier) Verify(token string) (*Identity, error) {
	claims := &Claims{}
	_, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	id := &Identity{
		UID:     claims.Subject,
		Email:   strings.ToLower(strings.TrimSpace(claims.Email)),
		Name:    claims.Name,
		Picture: claims.Picture,
	}

	if !v.EmailAllowed(id.Email) {
		return nil, fmt.Errorf("%w: %s", ErrForbidden, id.Email)
	}

	return id, nil
}

// EmailAllowed reports whether email passes the domain policy.
func (v *Verifier) EmailAllowed(email string) bool {
	if len(v.domains) == 0 {
		return true
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if slices.Contains(v.testEmails, email) {
		return true
	}
	return slices.ContainsFunc(v.domains, func(d string) bool {
		return strings.HasSuffix(email, "@"+d)
	})
}

// ForbiddenMessage tells the user which emails may sign in.
func (v *Verifier) ForbiddenMessage() string {
	return fmt.Sprintf("Only %s emails are allowed", strings.Join(v.domains, " / "))
}

// Issue signs a token for id. It is used by the token command and by tests.
func (v *Verifier) Issue(id Identity, ttl time.Duration, now time.Time) (string, error) {
	if id.UID == "" {
		return "", errors.New("uid is required")
	}

	claims := &Claims{
		Email:   id.Email,
		Name:    id.Name,
		Picture: id.Picture,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if v.audience != "" {
		claims.Audience = jwt.ClaimStrings{v.audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

func lower(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.ToLower(strings.TrimSpace(item)); item != "" {
			out = append(out, item)
		}
	}
	return out
}
