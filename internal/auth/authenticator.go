package auth

import (
	"context"
	"fmt"

	"github.com/spec-kit/dochub-service/internal/domain"
)

// Authenticator validates presented tokens. A token passes only when its
// signature verifies, it is unexpired, its purpose matches the expected one,
// and it is byte-identical to the live entry in the revocation store. The
// last check is what makes revocation work despite JWTs being self-contained.
type Authenticator struct {
	codec *TokenCodec
	store RevocationStore
}

// NewAuthenticator builds an authenticator over the codec and store.
func NewAuthenticator(codec *TokenCodec, store RevocationStore) *Authenticator {
	return &Authenticator{codec: codec, store: store}
}

// Authenticate resolves a presented token against an expected purpose. It
// returns one of ErrTokenMalformed, ErrTokenExpired, ErrTokenRevoked or
// ErrStoreUnavailable; callers decide how much of that to surface.
func (a *Authenticator) Authenticate(ctx context.Context, token string, purpose domain.Purpose) (Claims, error) {
	claims, err := a.codec.Decode(token)
	if err != nil {
		return nil, err
	}
	if claims.Purpose() != purpose {
		return nil, fmt.Errorf("%w: token purpose %q, expected %q", ErrTokenMalformed, claims.Purpose(), purpose)
	}

	stored, ok, err := a.store.Get(ctx, claims.SubjectID(), purpose)
	if err != nil {
		return nil, err
	}
	if !ok || stored != token {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}
