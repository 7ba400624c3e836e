package adapters

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticSecretSource struct {
	secrets map[uuid.UUID]string
}

func (s *staticSecretSource) GetTOTPSecret(_ context.Context, userID uuid.UUID) (string, error) {
	return s.secrets[userID], nil
}

func TestEmailCodeRoundTrip(t *testing.T) {
	verifier := NewIdentityVerifier(nil, zap.NewNop())
	ctx := context.Background()
	userID := uuid.New()

	code, err := verifier.IssueEmailCode(ctx, userID)
	require.NoError(t, err)
	require.Len(t, code, 6)

	require.NoError(t, verifier.VerifyMethod(ctx, userID, "email:"+code))

	// Codes are single use.
	err = verifier.VerifyMethod(ctx, userID, "email:"+code)
	assert.Error(t, err)
}

func TestEmailCodeWrongCode(t *testing.T) {
	verifier := NewIdentityVerifier(nil, zap.NewNop())
	ctx := context.Background()
	userID := uuid.New()

	_, err := verifier.IssueEmailCode(ctx, userID)
	require.NoError(t, err)

	assert.Error(t, verifier.VerifyMethod(ctx, userID, "email:000000"))
}

func TestEmailCodeExpiry(t *testing.T) {
	verifier := NewIdentityVerifier(nil, zap.NewNop())
	ctx := context.Background()
	userID := uuid.New()

	code, err := verifier.IssueEmailCode(ctx, userID)
	require.NoError(t, err)

	verifier.mu.Lock()
	issued := verifier.codes[userID]
	issued.expiresAt = time.Now().UTC().Add(-time.Minute)
	verifier.codes[userID] = issued
	verifier.mu.Unlock()

	err = verifier.VerifyMethod(ctx, userID, "email:"+code)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestTOTPVerification(t *testing.T) {
	userID := uuid.New()
	key, err := totp.Generate(totp.GenerateOpts{Issuer: "privacy-service-test", AccountName: "ada"})
	require.NoError(t, err)

	verifier := NewIdentityVerifier(&staticSecretSource{
		secrets: map[uuid.UUID]string{userID: key.Secret()},
	}, zap.NewNop())
	ctx := context.Background()

	code, err := totp.GenerateCode(key.Secret(), time.Now())
	require.NoError(t, err)
	require.NoError(t, verifier.VerifyMethod(ctx, userID, "totp:"+code))

	assert.Error(t, verifier.VerifyMethod(ctx, userID, "totp:000000"))
	assert.Error(t, verifier.VerifyMethod(ctx, uuid.New(), "totp:"+code), "unenrolled user is rejected")
}

func TestTrustedMethodsAndUnknownMethods(t *testing.T) {
	verifier := NewIdentityVerifier(nil, zap.NewNop())
	ctx := context.Background()
	userID := uuid.New()

	assert.NoError(t, verifier.VerifyMethod(ctx, userID, "document"))
	assert.NoError(t, verifier.VerifyMethod(ctx, userID, "in_person"))

	assert.Error(t, verifier.VerifyMethod(ctx, userID, "carrier_pigeon"))
	assert.Error(t, verifier.VerifyMethod(ctx, userID, "totp"))
	assert.Error(t, verifier.VerifyMethod(ctx, userID, "email"))
}
