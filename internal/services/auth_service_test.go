package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/localnerve/docauthor/internal/config"
	"github.com/localnerve/docauthor/internal/models"
	"github.com/localnerve/docauthor/internal/testsupport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIssuer() *TokenIssuer {
	return NewTokenIssuer(&config.Config{
		SecretKey:                "test-secret",
		TokenIssuer:              "docauthor-test",
		AccessTokenExpireMinutes: 30,
	})
}

func TestRegisterAndAuthenticate(t *testing.T) {
	db := testsupport.NewSQLiteDB(t)
	ctx := context.Background()

	user, err := Register(ctx, db, " Writer@Example.com ", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, "writer@example.com", user.Email)
	assert.NotEqual(t, "s3cret-pass", user.HashedPassword)

	_, err = Register(ctx, db, "writer@example.com", "another")
	assert.ErrorIs(t, err, ErrEmailTaken)

	got, err := Authenticate(ctx, db, "writer@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = Authenticate(ctx, db, "writer@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = Authenticate(ctx, db, "nobody@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = GetUserByEmail(ctx, db, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := testIssuer()
	user := &models.User{ID: 42, Email: "writer@example.com"}

	token, err := issuer.Issue(user)
	require.NoError(t, err)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "writer@example.com", claims.Subject)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.Equal(t, "docauthor-test", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenRejections(t *testing.T) {
	issuer := testIssuer()
	user := &models.User{ID: 1, Email: "writer@example.com"}

	t.Run("expired", func(t *testing.T) {
		old := testIssuer()
		old.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, err := old.Issue(user)
		require.NoError(t, err)

		_, err = issuer.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := testIssuer()
		other.secret = []byte("other-secret")
		token, err := other.Issue(user)
		require.NoError(t, err)

		_, err = issuer.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := testIssuer()
		other.issuer = "someone-else"
		token, err := other.Issue(user)
		require.NoError(t, err)

		_, err = issuer.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"sub": "writer@example.com",
			"iss": "docauthor-test",
			"exp": time.Now().Add(time.Hour).Unix(),
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = issuer.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.Parse("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
