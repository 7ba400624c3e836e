package adapters

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// TOTPSecretSource resolves a user's enrolled TOTP secret. Returns ("", nil)
// when the user has no authenticator enrolled.
type TOTPSecretSource interface {
	GetTOTPSecret(ctx context.Context, userID uuid.UUID) (string, error)
}

const emailCodeTTL = 15 * time.Minute

type issuedCode struct {
	hash      []byte
	expiresAt time.Time
}

// IdentityVerifier checks verification methods before a data subject
// request is processed. Two challenge-based methods are supported:
//
//	totp:<code>   validated against the user's enrolled authenticator
//	email:<code>  validated against a one-time code issued by IssueEmailCode
//
// Method names without a challenge ("document", "in_person") are accepted
// as-is; they represent out-of-band verification performed by an operator.
type IdentityVerifier struct {
	secrets TOTPSecretSource
	logger  *zap.Logger

	mu    sync.Mutex
	codes map[uuid.UUID]issuedCode
}

// NewIdentityVerifier creates an identity verifier. secrets may be nil when
// no TOTP enrollment exists, in which case totp methods are rejected.
func NewIdentityVerifier(secrets TOTPSecretSource, logger *zap.Logger) *IdentityVerifier {
	return &IdentityVerifier{
		secrets: secrets,
		logger:  logger,
		codes:   make(map[uuid.UUID]issuedCode),
	}
}

// IssueEmailCode generates a one-time numeric code for the user, stores its
// bcrypt hash, and returns the plaintext for delivery. Reissuing replaces
// any previous code.
func (v *IdentityVerifier) IssueEmailCode(ctx context.Context, userID uuid.UUID) (string, error) {
	code, err := generateNumericCode(6)
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash verification code: %w", err)
	}

	v.mu.Lock()
	v.codes[userID] = issuedCode{hash: hash, expiresAt: time.Now().UTC().Add(emailCodeTTL)}
	v.mu.Unlock()

	v.logger.Info("verification code issued",
		zap.String("user_id", userID.String()),
	)
	return code, nil
}

// VerifyMethod validates the given verification method for the user
func (v *IdentityVerifier) VerifyMethod(ctx context.Context, userID uuid.UUID, method string) error {
	kind, challenge, hasChallenge := strings.Cut(method, ":")
	switch kind {
	case "totp":
		if !hasChallenge {
			return fmt.Errorf("totp verification requires a code")
		}
		return v.verifyTOTP(ctx, userID, challenge)
	case "email":
		if !hasChallenge {
			return fmt.Errorf("email verification requires a code")
		}
		return v.verifyEmailCode(userID, challenge)
	case "document", "in_person":
		return nil
	default:
		return fmt.Errorf("unsupported verification method: %s", kind)
	}
}

func (v *IdentityVerifier) verifyTOTP(ctx context.Context, userID uuid.UUID, code string) error {
	if v.secrets == nil {
		return fmt.Errorf("totp verification is not configured")
	}
	secret, err := v.secrets.GetTOTPSecret(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to resolve totp secret: %w", err)
	}
	if secret == "" {
		return fmt.Errorf("user %s has no authenticator enrolled", userID)
	}
	if !totp.Validate(code, secret) {
		return fmt.Errorf("invalid totp code")
	}
	return nil
}

func (v *IdentityVerifier) verifyEmailCode(userID uuid.UUID, code string) error {
	v.mu.Lock()
	issued, ok := v.codes[userID]
	if ok {
		// One attempt per issued code.
		delete(v.codes, userID)
	}
	v.mu.Unlock()

	if !ok {
		return fmt.Errorf("no verification code issued for user %s", userID)
	}
	if time.Now().UTC().After(issued.expiresAt) {
		return fmt.Errorf("verification code expired")
	}
	if bcrypt.CompareHashAndPassword(issued.hash, []byte(code)) != nil {
		return fmt.Errorf("invalid verification code")
	}
	return nil
}

func generateNumericCode(digits int) (string, error) {
	var builder strings.Builder
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		builder.WriteString(n.String())
	}
	return builder.String(), nil
}
