package token

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// DefaultTTL is the lifetime of a credential when the caller does not supply one.
const DefaultTTL = 30 * time.Minute

// Claims is the decoded content of a credential.
type Claims struct {
	ID        string    // Unique credential id (jti)
	Subject   string    // Principal id (sub)
	IssuedAt  time.Time // iat, whole seconds
	ExpiresAt time.Time // exp, whole seconds
}

// Expired reports whether the credential can no longer be presented at now.
func (c Claims) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Codec encodes and decodes self-contained bearer credentials. It holds no state
// besides the signer, so a single value is shared by the whole process.
type Codec struct {
	signer     Signer
	defaultTTL time.Duration
	parser     *jwt.Parser
}

type CodecOption func(*Codec)

func WithDefaultTTL(ttl time.Duration) CodecOption {
	return func(c *Codec) {
		c.defaultTTL = ttl
	}
}

func NewCodec(signer Signer, options ...CodecOption) *Codec {
	c := &Codec{
		signer:     signer,
		defaultTTL: DefaultTTL,
	}
	for _, opt := range options {
		opt(c)
	}
	if c.defaultTTL < time.Second {
		c.defaultTTL = DefaultTTL
	}

	// Expiry is deliberately left to the caller: signature-valid but expired
	// credentials must still decode for revocation bookkeeping.
	c.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{signer.GetSigningMethod().Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	return c
}

// DefaultTTL returns the lifetime applied when Issue is called with ttl <= 0.
func (c *Codec) DefaultTTL() time.Duration {
	return c.defaultTTL
}

// Issue signs a credential for subjectID issued at now and expiring at now+ttl.
// A ttl <= 0 selects the codec's default lifetime.
func (c *Codec) Issue(subjectID string, now time.Time, ttl time.Duration) (string, error) {
	if strings.TrimSpace(subjectID) == "" {
		return "", ErrInvalidSubject
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	if ttl < time.Second {
		return "", ErrInvalidTTL
	}

	issuedAt := now.Truncate(time.Second)
	claims := jwt.RegisteredClaims{
		Subject:   subjectID,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		ID:        uuid.New().String(),
	}

	signed, err := c.signer.Sign(claims)
	if err != nil {
		return "", errors.Wrap(err, "Codec.Issue Sign")
	}
	return signed, nil
}

// Verify checks the credential's signature and structure and returns its claims.
// It does not compare the expiry with the current time; see Claims.Expired.
func (c *Codec) Verify(credential string) (Claims, error) {
	if strings.TrimSpace(credential) == "" {
		return Claims{}, ErrInvalid
	}

	var registered jwt.RegisteredClaims
	parsed, err := c.parser.ParseWithClaims(credential, &registered, c.signer.GetVerificationKey)
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalid
	}

	if registered.Subject == "" || registered.IssuedAt == nil || registered.ExpiresAt == nil {
		return Claims{}, ErrInvalid
	}

	claims := Claims{
		ID:        registered.ID,
		Subject:   registered.Subject,
		IssuedAt:  registered.IssuedAt.Time,
		ExpiresAt: registered.ExpiresAt.Time,
	}
	if !claims.ExpiresAt.After(claims.IssuedAt) {
		return Claims{}, ErrInvalid
	}
	return claims, nil
}
