package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/storefront-sessions/internal/errors"
	"github.com/jrsteele09/storefront-sessions/internal/metrics"
	"github.com/jrsteele09/storefront-sessions/revocation"
	"github.com/jrsteele09/storefront-sessions/token"
	"github.com/jrsteele09/storefront-sessions/users"
	"github.com/rs/zerolog"
)

var (
	// ErrInvalidCredential is the single answer for every rejected credential:
	// malformed, forged, expired, revoked, covered by a logout-all or orphaned.
	ErrInvalidCredential = apperrors.ErrInvalidCredential
	// ErrInvalidLogin is returned by LoginWithPassword for any mismatch.
	ErrInvalidLogin = apperrors.ErrInvalidLogin
	// ErrUnavailable wraps persistence failures. It never means access denied.
	ErrUnavailable = apperrors.ErrUnavailable
)

// dummyHash is compared against when an email is unknown so that unknown and
// known accounts take the same time to refuse.
var dummyHash = sync.OnceValue(func() string {
	hash, err := users.HashPassword("storefront-sessions-dummy-password")
	if err != nil {
		return ""
	}
	return hash
})

// Authority issues, validates and revokes credentials. It keeps no revocation state
// of its own: every decision reads the store, so concurrent requests on any process
// sharing the store observe each other's logouts.
type Authority struct {
	codec      *token.Codec
	store      revocation.Store
	principals users.PrincipalRepo
	ttl        time.Duration
	nowTime    func() time.Time
	log        zerolog.Logger
}

// Option configures an Authority.
type Option func(*Authority)

// WithNowFunc sets the clock (primarily for testing)
func WithNowFunc(nowFunc func() time.Time) Option {
	return func(a *Authority) {
		a.nowTime = nowFunc
	}
}

// WithTTL sets the lifetime of issued credentials; values below a second keep the codec default.
func WithTTL(ttl time.Duration) Option {
	return func(a *Authority) {
		if ttl >= time.Second {
			a.ttl = ttl
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(a *Authority) {
		a.log = logger
	}
}

// NewAuthority wires an Authority to its codec and collaborators.
func NewAuthority(
	codec *token.Codec,
	store revocation.Store,
	principals users.PrincipalRepo,
	options ...Option,
) (*Authority, error) {
	if codec == nil {
		return nil, errors.New("[NewAuthority] codec is required")
	}
	if store == nil {
		return nil, errors.New("[NewAuthority] revocation store is required")
	}
	if principals == nil {
		return nil, errors.New("[NewAuthority] principal repo is required")
	}

	a := &Authority{
		codec:      codec,
		store:      store,
		principals: principals,
		ttl:        codec.DefaultTTL(),
		nowTime:    time.Now,
		log:        zerolog.Nop(),
	}
	for _, opt := range options {
		opt(a)
	}
	return a, nil
}

// TTL is the lifetime given to credentials issued by Login.
func (a *Authority) TTL() time.Duration {
	return a.ttl
}

// Login issues a credential for subjectID. It touches no storage.
func (a *Authority) Login(_ context.Context, subjectID string) (string, error) {
	credential, err := a.codec.Issue(subjectID, a.nowTime(), a.ttl)
	if err != nil {
		return "", apperrors.Wrapf(err, "Login")
	}
	metrics.LoginsTotal.WithLabelValues("issued").Inc()
	return credential, nil
}

// LoginWithPassword checks an email and password pair and issues a credential for the
// matching principal. Unknown emails, wrong passwords and blocked accounts all return
// ErrInvalidLogin.
func (a *Authority) LoginWithPassword(ctx context.Context, email, password string) (string, *users.Principal, error) {
	principal, err := a.principals.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, users.ErrNotFound) {
			return "", nil, unavailable("principal lookup", err)
		}
		users.CheckPasswordHash(password, dummyHash())
		metrics.LoginsTotal.WithLabelValues("refused").Inc()
		return "", nil, ErrInvalidLogin
	}

	if !principal.CheckPassword(password) || principal.Blocked {
		metrics.LoginsTotal.WithLabelValues("refused").Inc()
		a.log.Info().Str("subject", principal.ID).Msg("password login refused")
		return "", nil, ErrInvalidLogin
	}

	credential, err := a.Login(ctx, principal.ID)
	if err != nil {
		return "", nil, err
	}
	return credential, principal, nil
}

// Validate resolves a credential to its principal. The checks run in a fixed order:
// deny-list, signature and structure, expiry, the subject's logout-all watermark and
// finally the principal lookup. Any rejection is ErrInvalidCredential; a storage
// failure is ErrUnavailable and must not be read as a rejection.
func (a *Authority) Validate(ctx context.Context, credential string) (*users.Principal, error) {
	principal, _, err := a.validate(ctx, credential)
	switch {
	case err == nil:
		metrics.ValidationsTotal.WithLabelValues("valid").Inc()
	case errors.Is(err, ErrUnavailable):
		metrics.ValidationsTotal.WithLabelValues("unavailable").Inc()
		a.log.Error().Err(err).Msg("credential validation unavailable")
	default:
		metrics.ValidationsTotal.WithLabelValues("invalid").Inc()
	}
	return principal, err
}

func (a *Authority) validate(ctx context.Context, credential string) (*users.Principal, token.Claims, error) {
	revoked, err := a.store.IsRevoked(ctx, credential)
	if err != nil {
		return nil, token.Claims{}, unavailable("deny-list lookup", err)
	}
	if revoked {
		return nil, token.Claims{}, ErrInvalidCredential
	}
	return a.validateClaims(ctx, credential)
}

// validateClaims runs every check after the deny-list lookup.
func (a *Authority) validateClaims(ctx context.Context, credential string) (*users.Principal, token.Claims, error) {
	claims, err := a.codec.Verify(credential)
	if err != nil {
		return nil, token.Claims{}, ErrInvalidCredential
	}

	if claims.Expired(a.nowTime()) {
		return nil, claims, ErrInvalidCredential
	}

	watermark, found, err := a.store.GetWatermark(ctx, claims.Subject)
	if err != nil {
		return nil, claims, unavailable("watermark lookup", err)
	}
	if found && watermark.Covers(claims.IssuedAt) {
		return nil, claims, ErrInvalidCredential
	}

	principal, err := a.principals.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, claims, ErrInvalidCredential
		}
		return nil, claims, unavailable("principal lookup", err)
	}
	return principal, claims, nil
}

// LogoutOne revokes a single credential. A credential already on the deny-list
// reports AlreadyRevoked; any other invalid credential reports AlreadyInvalid and
// writes nothing.
func (a *Authority) LogoutOne(ctx context.Context, credential string) (Outcome, error) {
	outcome, err := a.logoutOne(ctx, credential)
	metrics.LogoutsTotal.WithLabelValues("one", outcome.String()).Inc()
	if err != nil {
		a.log.Error().Err(err).Msg("logout failed")
	}
	return outcome, err
}

func (a *Authority) logoutOne(ctx context.Context, credential string) (Outcome, error) {
	revoked, err := a.store.IsRevoked(ctx, credential)
	if err != nil {
		return OutcomeFailed, unavailable("deny-list lookup", err)
	}
	if revoked {
		return OutcomeAlreadyRevoked, nil
	}

	_, claims, err := a.validateClaims(ctx, credential)
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			return OutcomeFailed, err
		}
		return OutcomeAlreadyInvalid, nil
	}

	record := revocation.Record{
		Credential: credential,
		SubjectID:  claims.Subject,
		ExpiresAt:  claims.ExpiresAt,
	}
	if err := a.store.Revoke(ctx, record); err != nil {
		return OutcomeFailed, unavailable("revoke", err)
	}
	a.log.Info().Str("subject", claims.Subject).Msg("credential revoked")
	return OutcomeRevoked, nil
}

// LogoutAll invalidates every credential issued to subjectID up to and including the
// current second. Credentials issued later are unaffected.
func (a *Authority) LogoutAll(ctx context.Context, subjectID string) (Outcome, error) {
	outcome := OutcomeRevoked
	err := a.store.SetWatermark(ctx, subjectID, a.nowTime())
	if err != nil {
		outcome = OutcomeFailed
		err = unavailable("set watermark", err)
		a.log.Error().Err(err).Str("subject", subjectID).Msg("logout from all devices failed")
	} else {
		a.log.Info().Str("subject", subjectID).Msg("logged out from all devices")
	}
	metrics.LogoutsTotal.WithLabelValues("all", outcome.String()).Inc()
	return outcome, err
}

// SweepExpired removes deny-list records that expired strictly before now. Removing
// them never changes a verdict: an expired credential is rejected on its own.
func (a *Authority) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	removed, err := a.store.PurgeExpired(ctx, now)
	if err != nil {
		return 0, unavailable("purge expired", err)
	}
	return removed, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}
