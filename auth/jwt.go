package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTConfig configures the JWT authenticator and signer.
type JWTConfig struct {
	// Issuer is the expected token issuer (iss claim).
	Issuer string

	// Audience is the expected token audience (aud claim).
	Audience string

	// HeaderName is the header containing the token.
	// Default: "Authorization"
	HeaderName string

	// TokenPrefix is the prefix before the token in the header.
	// Default: "Bearer "
	TokenPrefix string

	// ClinicClaim is the claim naming the staff member's clinic.
	// Default: "clinic_id"
	ClinicClaim string

	// RolesClaim is the claim containing staff roles.
	// Default: "roles"
	RolesClaim string

	// Leeway tolerates clock skew when checking exp, nbf and iat.
	// Default: 0
	Leeway time.Duration
}

func (c JWTConfig) withDefaults() JWTConfig {
	if c.HeaderName == "" {
		c.HeaderName = "Authorization"
	}
	if c.TokenPrefix == "" {
		c.TokenPrefix = "Bearer "
	}
	if c.ClinicClaim == "" {
		c.ClinicClaim = "clinic_id"
	}
	if c.RolesClaim == "" {
		c.RolesClaim = "roles"
	}
	return c
}

// KeyProvider retrieves signing keys for JWT validation.
type KeyProvider interface {
	// GetKey returns the key for the given key ID.
	GetKey(ctx context.Context, keyID string) (any, error)
}

// StaticKeyProvider provides a static HMAC key.
type StaticKeyProvider struct {
	key []byte
}

// NewStaticKeyProvider creates a static key provider.
func NewStaticKeyProvider(key []byte) *StaticKeyProvider {
	return &StaticKeyProvider{key: key}
}

// GetKey returns the static key.
func (p *StaticKeyProvider) GetKey(_ context.Context, _ string) (any, error) {
	if len(p.key) == 0 {
		return nil, ErrKeyNotFound
	}
	return p.key, nil
}

// JWTAuthenticator validates HS256 bearer tokens issued to clinic staff.
type JWTAuthenticator struct {
	config      JWTConfig
	keyProvider KeyProvider
	parser      *jwt.Parser
}

// NewJWTAuthenticator creates a new JWT authenticator.
func NewJWTAuthenticator(config JWTConfig, keyProvider KeyProvider) *JWTAuthenticator {
	config = config.withDefaults()

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(config.Leeway),
	}
	if config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(config.Issuer))
	}
	if config.Audience != "" {
		opts = append(opts, jwt.WithAudience(config.Audience))
	}

	return &JWTAuthenticator{
		config:      config,
		keyProvider: keyProvider,
		parser:      jwt.NewParser(opts...),
	}
}

// Name returns "jwt".
func (a *JWTAuthenticator) Name() string {
	return "jwt"
}

// Authenticate validates the bearer token in headers.
func (a *JWTAuthenticator) Authenticate(ctx context.Context, headers http.Header) (*Identity, error) {
	header := headers.Get(a.config.HeaderName)
	if header == "" {
		return nil, ErrMissingCredentials
	}
	tokenString, found := strings.CutPrefix(header, a.config.TokenPrefix)
	if !found || strings.TrimSpace(tokenString) == "" {
		return nil, ErrMissingCredentials
	}

	claims := jwt.MapClaims{}
	_, err := a.parser.ParseWithClaims(strings.TrimSpace(tokenString), claims, func(token *jwt.Token) (any, error) {
		kid, _ := token.Header["kid"].(string)
		return a.keyProvider.GetKey(ctx, kid)
	})
	if err != nil {
		return nil, classifyJWTError(err)
	}

	return a.buildIdentity(claims)
}

func classifyJWTError(err error) error {
	switch {
	case errors.Is(err, ErrKeyNotFound):
		return ErrKeyNotFound
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %w", ErrTokenMalformed, err)
	default:
		return fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
}

func (a *JWTAuthenticator) buildIdentity(claims jwt.MapClaims) (*Identity, error) {
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("%w: sub", ErrMissingClaim)
	}

	identity := &Identity{
		StaffID: sub,
		Claims:  make(map[string]any, len(claims)),
	}
	for k, v := range claims {
		identity.Claims[k] = v
	}

	switch clinic := claims[a.config.ClinicClaim].(type) {
	case string:
		identity.ClinicID = clinic
	case float64:
		identity.ClinicID = fmt.Sprintf("%.0f", clinic)
	}
	if identity.ClinicID == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingClaim, a.config.ClinicClaim)
	}

	if roles, ok := claims[a.config.RolesClaim].([]any); ok {
		identity.Roles = make([]string, 0, len(roles))
		for _, r := range roles {
			if s, ok := r.(string); ok {
				identity.Roles = append(identity.Roles, s)
			}
		}
	}

	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		identity.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		identity.IssuedAt = iat.Time
	}
	return identity, nil
}

// Signer issues HS256 tokens in the shape JWTAuthenticator accepts. It backs
// the development token command and tests.
type Signer struct {
	config JWTConfig
	key    []byte
}

// NewSigner creates a signer for key.
func NewSigner(config JWTConfig, key []byte) *Signer {
	return &Signer{config: config.withDefaults(), key: key}
}

// Sign issues a token for id valid for ttl.
func (s *Signer) Sign(id *Identity, ttl time.Duration) (string, error) {
	if len(s.key) == 0 {
		return "", ErrKeyNotFound
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":                id.StaffID,
		s.config.ClinicClaim: id.ClinicID,
		"iat":                now.Unix(),
		"exp":                now.Add(ttl).Unix(),
	}
	if len(id.Roles) > 0 {
		claims[s.config.RolesClaim] = id.Roles
	}
	if s.config.Issuer != "" {
		claims["iss"] = s.config.Issuer
	}
	if s.config.Audience != "" {
		claims["aud"] = s.config.Audience
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

var (
	_ Authenticator = (*JWTAuthenticator)(nil)
	_ KeyProvider   = (*StaticKeyProvider)(nil)
)
