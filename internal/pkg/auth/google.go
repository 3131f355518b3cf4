package auth

import (
	"errors"
	"fmt"
	"strings"

	googleAuthIDTokenVerifier "github.com/futurenda/google-auth-id-token-verifier"
)

// ErrGoogleNotConfigured is returned when no OAuth client id is configured
var ErrGoogleNotConfigured = errors.New("google sign-in is not configured")

// GoogleIdentity is the verified subset of a Google ID token
type GoogleIdentity struct {
	Subject string
	Email   string
	Name    string
}

// GoogleVerifier checks Google ID tokens against the configured audience
type GoogleVerifier struct {
	clientID string
}

// NewGoogleVerifier creates a verifier for the given OAuth client id
func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{clientID: strings.TrimSpace(clientID)}
}

// Verify validates the signature, expiry and audience of idToken and returns its identity
func (g *GoogleVerifier) Verify(idToken string) (*GoogleIdentity, error) {
	if g.clientID == "" {
		return nil, ErrGoogleNotConfigured
	}

	v := googleAuthIDTokenVerifier.Verifier{}
	if err := v.VerifyIDToken(idToken, []string{g.clientID}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claimSet, err := googleAuthIDTokenVerifier.Decode(idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claimSet.Email == "" {
		return nil, fmt.Errorf("%w: token carries no email", ErrInvalidToken)
	}

	return &GoogleIdentity{
		Subject: claimSet.Sub,
		Email:   claimSet.Email,
		Name:    claimSet.Name,
	}, nil
}
