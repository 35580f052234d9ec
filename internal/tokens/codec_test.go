package tokens

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/task_manager/internal/apperr"
)

var testSecret = []byte("test-jwt-secret")

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := NewCodec(testSecret, "HS256")
	require.NoError(t, err)
	return c
}

func testSubject() Subject {
	return Subject{UserUID: uuid.NewString(), Email: "a@x.com", Role: "user"}
}

func TestNewCodec_RejectsBadConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		secret []byte
		alg    string
	}{
		{name: "empty secret", secret: nil, alg: "HS256"},
		{name: "asymmetric algorithm", secret: testSecret, alg: "RS256"},
		{name: "none algorithm", secret: testSecret, alg: "none"},
		{name: "unknown algorithm", secret: testSecret, alg: "HS999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewCodec(tt.secret, tt.alg)
			require.Error(t, err)
		})
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, refresh := range []bool{false, true} {
		refresh := refresh
		t.Run(map[bool]string{false: "access", true: "refresh"}[refresh], func(t *testing.T) {
			t.Parallel()

			c := newTestCodec(t)
			sub := testSubject()

			raw, err := c.Issue(sub, time.Hour, refresh)
			require.NoError(t, err)
			require.NotEmpty(t, raw)

			claims, err := c.Parse(raw)
			require.NoError(t, err)
			assert.Equal(t, sub, claims.User)
			assert.Equal(t, refresh, claims.IsRefresh())
			assert.NotEmpty(t, claims.ID)
			require.NotNil(t, claims.ExpiresAt)
			assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 2*time.Second)
		})
	}
}

func TestCodec_FreshJTIPerToken(t *testing.T) {
	t.Parallel()

	c := newTestCodec(t)
	sub := testSubject()

	a, err := c.Issue(sub, time.Hour, false)
	require.NoError(t, err)
	b, err := c.Issue(sub, time.Hour, false)
	require.NoError(t, err)

	ca, err := c.Parse(a)
	require.NoError(t, err)
	cb, err := c.Parse(b)
	require.NoError(t, err)
	assert.NotEqual(t, ca.ID, cb.ID)
}

func TestCodec_ExpiryElapsed(t *testing.T) {
	t.Parallel()

	issuedAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := newTestCodec(t).WithClock(func() time.Time { return issuedAt })

	raw, err := c.Issue(testSubject(), time.Minute, false)
	require.NoError(t, err)

	_, err = c.WithClock(func() time.Time { return issuedAt.Add(59 * time.Second) }).Parse(raw)
	require.NoError(t, err)

	_, err = c.WithClock(func() time.Time { return issuedAt.Add(2 * time.Minute) }).Parse(raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestCodec_ParseRejects(t *testing.T) {
	t.Parallel()

	c := newTestCodec(t)
	valid, err := c.Issue(testSubject(), time.Hour, false)
	require.NoError(t, err)

	other, err := NewCodec([]byte("another-secret"), "HS256")
	require.NoError(t, err)
	foreign, err := other.Issue(testSubject(), time.Hour, false)
	require.NoError(t, err)

	hs512, err := NewCodec(testSecret, "HS512")
	require.NoError(t, err)
	wrongAlg, err := hs512.Issue(testSubject(), time.Hour, false)
	require.NoError(t, err)

	noRefresh := signRaw(t, jwt.MapClaims{
		"user": map[string]any{"user_uid": uuid.NewString(), "email": "a@x.com"},
		"jti":  uuid.NewString(),
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	noExp := signRaw(t, jwt.MapClaims{
		"user":    map[string]any{"user_uid": uuid.NewString()},
		"jti":     uuid.NewString(),
		"refresh": false,
	})
	noJTI := signRaw(t, jwt.MapClaims{
		"user":    map[string]any{"user_uid": uuid.NewString()},
		"exp":     time.Now().Add(time.Hour).Unix(),
		"refresh": false,
	})

	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "garbage", raw: "not-a-valid-jwt"},
		{name: "tampered payload", raw: tampered},
		{name: "foreign secret", raw: foreign},
		{name: "different algorithm", raw: wrongAlg},
		{name: "missing refresh flag", raw: noRefresh},
		{name: "missing exp", raw: noExp},
		{name: "missing jti", raw: noJTI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			claims, err := c.Parse(tt.raw)
			require.Error(t, err)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, apperr.ErrInvalidToken)
		})
	}
}

func TestCodec_URLToken(t *testing.T) {
	t.Parallel()

	c := newTestCodec(t)

	raw, err := c.IssueURLToken("a@x.com", PurposeEmailVerification, time.Hour)
	require.NoError(t, err)

	email, err := c.ParseURLToken(raw, PurposeEmailVerification)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", email)

	_, err = c.ParseURLToken(raw, PurposePasswordReset)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)

	_, err = c.Parse(raw)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken, "url tokens must not pass as bearer tokens")

	access, err := c.Issue(testSubject(), time.Hour, false)
	require.NoError(t, err)
	_, err = c.ParseURLToken(access, PurposePasswordReset)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func signRaw(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return s
}
