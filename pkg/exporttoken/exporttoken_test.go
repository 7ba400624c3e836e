package exporttoken

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	issuer, err := NewIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	requestID := uuid.New()
	userID := uuid.New()

	token, err := issuer.Issue(requestID, userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	gotRequest, gotUser, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, requestID, gotRequest)
	assert.Equal(t, userID, gotUser)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	issuer, err := NewIssuer("test-secret", time.Hour)
	require.NoError(t, err)
	issuer.ttl = -time.Minute

	token, err := issuer.Issue(uuid.New(), uuid.New())
	require.NoError(t, err)

	_, _, err = issuer.Verify(token)
	assert.Error(t, err)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer, err := NewIssuer("secret-a", time.Hour)
	require.NoError(t, err)

	other, err := NewIssuer("secret-b", time.Hour)
	require.NoError(t, err)

	token, err := issuer.Issue(uuid.New(), uuid.New())
	require.NoError(t, err)

	_, _, err = other.Verify(token)
	assert.Error(t, err)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	issuer, err := NewIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	_, _, err = issuer.Verify("not-a-token")
	assert.Error(t, err)
}

func TestNewIssuerRequiresSecret(t *testing.T) {
	_, err := NewIssuer("", time.Hour)
	assert.Error(t, err)
}
