package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("jwt-manager")

const (
	// ScopeService is carried by tokens the console presents to the scoring service.
	ScopeService = "scoring:call"
	// ScopeConsole is carried by tokens accepted on the console API.
	ScopeConsole = "console:use"

	defaultIssuer = "mindease-console"
)

// ErrMissingSigningKey is returned when a manager is built without a key.
var ErrMissingSigningKey = errors.New("signing key is required")

// JWTManager signs and validates HS256 tokens with a single shared key.
type JWTManager struct {
	signingKey []byte
	algorithm  string
	keyID      string
	issuer     string
	tracer     trace.Tracer
	now        func() time.Time
}

// Claims are the claims carried by MindEase tokens.
type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// NewJWTManager creates a manager for the given key. keyID is placed in the
// token header and may be empty.
func NewJWTManager(signingKey, keyID string) (*JWTManager, error) {
	if signingKey == "" {
		return nil, ErrMissingSigningKey
	}
	if keyID == "" {
		keyID = "default"
	}

	return &JWTManager{
		signingKey: []byte(signingKey),
		algorithm:  jwt.SigningMethodHS256.Alg(),
		keyID:      keyID,
		issuer:     defaultIssuer,
		tracer:     tracer,
		now:        time.Now,
	}, nil
}

// GenerateToken issues a token for subject with the given scope.
func (jm *JWTManager) GenerateToken(ctx context.Context, subject, scope string, ttl time.Duration) (string, error) {
	_, span := jm.tracer.Start(ctx, "jwt.generate_token")
	defer span.End()

	now := jm.now()
	claims := &Claims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    jm.issuer,
			Subject:   subject,
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.GetSigningMethod(jm.algorithm), claims)
	token.Header["kid"] = jm.keyID

	signed, err := token.SignedString(jm.signingKey)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	span.SetAttributes(
		attribute.String("jwt.subject", subject),
		attribute.String("jwt.scope", scope),
		attribute.String("jwt.id", claims.ID),
	)

	return signed, nil
}

// ValidateToken parses tokenString and checks signature, expiry, issuer and
// the required scope. An empty scope accepts any scope.
func (jm *JWTManager) ValidateToken(ctx context.Context, tokenString, scope string) (*Claims, error) {
	_, span := jm.tracer.Start(ctx, "jwt.validate_token")
	defer span.End()

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jm.algorithm {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		if kid, ok := token.Header["kid"].(string); ok && kid != jm.keyID {
			span.SetAttributes(attribute.String("jwt.kid_mismatch", kid))
		}
		return jm.signingKey, nil
	}, jwt.WithIssuer(jm.issuer), jwt.WithTimeFunc(jm.now))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if scope != "" && claims.Scope != scope {
		return nil, fmt.Errorf("token scope %q does not grant %q", claims.Scope, scope)
	}

	span.SetAttributes(
		attribute.String("jwt.subject", claims.Subject),
		attribute.String("jwt.id", claims.ID),
	)

	return claims, nil
}

// ServiceTokenSource hands out the bearer token attached to outgoing scoring
// service calls. A token is reused until it is within a tenth of its TTL of
// expiring.
type ServiceTokenSource struct {
	manager *JWTManager
	subject string
	ttl     time.Duration

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewServiceTokenSource returns a token source for subject.
func NewServiceTokenSource(manager *JWTManager, subject string, ttl time.Duration) *ServiceTokenSource {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ServiceTokenSource{
		manager: manager,
		subject: subject,
		ttl:     ttl,
	}
}

// Token returns a valid service token, minting a new one when needed.
func (s *ServiceTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.manager.now()
	if s.token != "" && now.Before(s.expires.Add(-s.ttl/10)) {
		return s.token, nil
	}

	token, err := s.manager.GenerateToken(ctx, s.subject, ScopeService, s.ttl)
	if err != nil {
		return "", err
	}
	s.token = token
	s.expires = now.Add(s.ttl)
	return token, nil
}
