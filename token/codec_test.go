package token_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/storefront-sessions/token"
	"github.com/stretchr/testify/require"
)

const (
	testSecret  = "1234"
	testSubject = "user-1"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestCodec() *token.Codec {
	return token.NewCodec(token.NewHMACSigner(testSecret))
}

func TestCodec_IssueAndVerify(t *testing.T) {
	codec := newTestCodec()

	credential, err := codec.Issue(testSubject, testNow, 30*time.Minute)
	require.NoError(t, err)
	require.Len(t, strings.Split(credential, "."), 3)

	claims, err := codec.Verify(credential)
	require.NoError(t, err)
	require.Equal(t, testSubject, claims.Subject)
	require.True(t, claims.IssuedAt.Equal(testNow))
	require.True(t, claims.ExpiresAt.Equal(testNow.Add(30*time.Minute)))
	require.NotEmpty(t, claims.ID)
}

func TestCodec_IssueDefaults(t *testing.T) {
	t.Run("zero ttl uses default", func(t *testing.T) {
		codec := newTestCodec()
		credential, err := codec.Issue(testSubject, testNow, 0)
		require.NoError(t, err)

		claims, err := codec.Verify(credential)
		require.NoError(t, err)
		require.Equal(t, token.DefaultTTL, claims.ExpiresAt.Sub(claims.IssuedAt))
	})

	t.Run("configured default ttl", func(t *testing.T) {
		codec := token.NewCodec(token.NewHMACSigner(testSecret), token.WithDefaultTTL(time.Minute))
		require.Equal(t, time.Minute, codec.DefaultTTL())

		credential, err := codec.Issue(testSubject, testNow, 0)
		require.NoError(t, err)
		claims, err := codec.Verify(credential)
		require.NoError(t, err)
		require.Equal(t, time.Minute, claims.ExpiresAt.Sub(claims.IssuedAt))
	})

	t.Run("issued at truncated to seconds", func(t *testing.T) {
		codec := newTestCodec()
		credential, err := codec.Issue(testSubject, testNow.Add(750*time.Millisecond), time.Minute)
		require.NoError(t, err)
		claims, err := codec.Verify(credential)
		require.NoError(t, err)
		require.True(t, claims.IssuedAt.Equal(testNow))
	})

	t.Run("two credentials in the same second differ", func(t *testing.T) {
		codec := newTestCodec()
		first, err := codec.Issue(testSubject, testNow, time.Minute)
		require.NoError(t, err)
		second, err := codec.Issue(testSubject, testNow, time.Minute)
		require.NoError(t, err)
		require.NotEqual(t, first, second)
	})
}

func TestCodec_IssueRejectsBadInput(t *testing.T) {
	codec := newTestCodec()

	_, err := codec.Issue("  ", testNow, time.Minute)
	require.ErrorIs(t, err, token.ErrInvalidSubject)

	_, err = codec.Issue(testSubject, testNow, 500*time.Millisecond)
	require.ErrorIs(t, err, token.ErrInvalidTTL)

	_, err = token.NewCodec(token.NewHMACSigner("")).Issue(testSubject, testNow, time.Minute)
	require.Error(t, err)
}

func TestCodec_VerifyDoesNotEnforceExpiry(t *testing.T) {
	codec := newTestCodec()

	credential, err := codec.Issue(testSubject, time.Now().Add(-2*time.Hour), time.Minute)
	require.NoError(t, err)

	claims, err := codec.Verify(credential)
	require.NoError(t, err)
	require.True(t, claims.Expired(time.Now()))
}

func TestClaims_Expired(t *testing.T) {
	claims := token.Claims{IssuedAt: testNow, ExpiresAt: testNow.Add(time.Minute)}

	require.False(t, claims.Expired(testNow))
	require.False(t, claims.Expired(testNow.Add(59*time.Second)))
	require.True(t, claims.Expired(testNow.Add(time.Minute)))
	require.True(t, claims.Expired(testNow.Add(61*time.Second)))
}

func TestCodec_VerifyRejects(t *testing.T) {
	codec := newTestCodec()
	valid, err := codec.Issue(testSubject, testNow, time.Minute)
	require.NoError(t, err)

	sign := func(method jwt.SigningMethod, key any, claims jwt.Claims) string {
		t.Helper()
		signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return signed
	}
	fullClaims := jwt.RegisteredClaims{
		Subject:   testSubject,
		IssuedAt:  jwt.NewNumericDate(testNow),
		ExpiresAt: jwt.NewNumericDate(testNow.Add(time.Minute)),
	}

	tests := []struct {
		name       string
		credential string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"two segments", "abc.def"},
		{"wrong secret", sign(jwt.SigningMethodHS256, []byte("other"), fullClaims)},
		{"other hmac algorithm", sign(jwt.SigningMethodHS512, []byte(testSecret), fullClaims)},
		{"alg none", sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, fullClaims)},
		{"missing subject", sign(jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{
			IssuedAt:  fullClaims.IssuedAt,
			ExpiresAt: fullClaims.ExpiresAt,
		})},
		{"missing issued at", sign(jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{
			Subject:   testSubject,
			ExpiresAt: fullClaims.ExpiresAt,
		})},
		{"missing expiry", sign(jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{
			Subject:  testSubject,
			IssuedAt: fullClaims.IssuedAt,
		})},
		{"expiry not after issued at", sign(jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{
			Subject:   testSubject,
			IssuedAt:  fullClaims.IssuedAt,
			ExpiresAt: fullClaims.IssuedAt,
		})},
		{"unparseable expiry", sign(jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
			"sub": testSubject,
			"iat": testNow.Unix(),
			"exp": "tomorrow",
		})},
		{"truncated", valid[:len(valid)-10]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Verify(tt.credential)
			require.ErrorIs(t, err, token.ErrInvalid)
		})
	}
}

func TestCodec_TamperedSignature(t *testing.T) {
	codec := newTestCodec()
	credential, err := codec.Issue(testSubject, testNow, time.Minute)
	require.NoError(t, err)

	segments := strings.Split(credential, ".")
	signature := []byte(segments[2])

	// The final base64 character carries padding bits, so only positions before it are
	// guaranteed to change the decoded signature.
	for i := 0; i < len(signature)-1; i++ {
		tampered := make([]byte, len(signature))
		copy(tampered, signature)
		if tampered[i] == 'A' {
			tampered[i] = 'B'
		} else {
			tampered[i] = 'A'
		}

		_, err := codec.Verify(segments[0] + "." + segments[1] + "." + string(tampered))
		require.ErrorIs(t, err, token.ErrInvalid, "position %d", i)
	}
}

func TestHMACSigner_RejectsOtherMethods(t *testing.T) {
	signer := token.NewHMACSigner(testSecret)
	require.Equal(t, jwt.SigningMethodHS256, signer.GetSigningMethod())

	_, err := signer.GetVerificationKey(&jwt.Token{
		Method: jwt.SigningMethodRS256,
		Header: map[string]any{"alg": "RS256"},
	})
	require.Error(t, err)
}
