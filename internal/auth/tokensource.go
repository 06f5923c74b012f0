package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// DefaultExpirySkew is subtracted from the token expiry before a cached token is reused.
const DefaultExpirySkew = 30 * time.Second

// Refresher obtains a new token set for an expired one.
type Refresher interface {
	Refresh(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error)
}

// SessionTokenSource serves the access token stored in a session.
type SessionTokenSource struct {
	ctx       context.Context
	refresher Refresher
	save      func(*oauth2.Token) error
	skew      time.Duration
	now       func() time.Time

	mu  sync.Mutex
	tok *oauth2.Token
}

// NewSessionTokenSource returns a token source for tok. Refreshed tokens are handed to save.
// refresher may be nil, an expired token then always requires a new login.
func NewSessionTokenSource(ctx context.Context, refresher Refresher, tok *oauth2.Token,
	save func(*oauth2.Token) error,
) *SessionTokenSource {
	return &SessionTokenSource{
		ctx:       ctx,
		refresher: refresher,
		save:      save,
		skew:      DefaultExpirySkew,
		now:       time.Now,
		tok:       tok,
	}
}

// Valid reports whether tok carries an access token that is not about to expire.
func Valid(tok *oauth2.Token, now time.Time, skew time.Duration) bool {
	if tok == nil || tok.AccessToken == "" {
		return false
	}

	return tok.Expiry.IsZero() || tok.Expiry.After(now.Add(skew))
}

// Token implements oauth2.TokenSource.
func (s *SessionTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if Valid(s.tok, s.now(), s.skew) {
		return s.tok, nil
	}

	if s.tok == nil || s.tok.RefreshToken == "" || s.refresher == nil {
		return nil, ErrLoginRequired
	}

	fresh, err := s.refresher.Refresh(s.ctx, s.tok)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoginRequired, err)
	}

	if fresh.RefreshToken == "" {
		fresh.RefreshToken = s.tok.RefreshToken
	}

	s.tok = fresh

	if s.save != nil {
		if err = s.save(fresh); err != nil {
			log.Warn().Err(err).Msg("failed to store refreshed token in session")
		}
	}

	return fresh, nil
}
