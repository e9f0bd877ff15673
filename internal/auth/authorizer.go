package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/neexbeast/vetero/internal/metrics"
)

// ErrAuthFault means the grant could not be evaluated. Callers must not treat
// it as a denial.
var ErrAuthFault = errors.New("authorization fault")

const (
	bearerPrefix = "Bearer "

	penaltyStep     = 10 * time.Millisecond
	penaltyMaxSteps = 30
)

// GrantStore evaluates whether a token holds an enabled grant for a resource.
type GrantStore interface {
	CheckAuthorization(ctx context.Context, token, resource string) (bool, error)
}

// Authorizer checks bearer credentials against a GrantStore.
type Authorizer struct {
	store GrantStore
	log   *slog.Logger
}

// NewAuthorizer constructs an Authorizer.
func NewAuthorizer(store GrantStore, log *slog.Logger) *Authorizer {
	return &Authorizer{store: store, log: log.With("component", "authorizer")}
}

// CanAccess reports whether the Authorization header value grants resource.
// A missing or malformed header is a denial, not an error.
func (a *Authorizer) CanAccess(ctx context.Context, header, resource string) (bool, error) {
	token, ok := strings.CutPrefix(header, bearerPrefix)
	token = strings.TrimSpace(token)
	if !ok || token == "" {
		metrics.RecordAuthDecision("denied")
		return false, nil
	}

	granted, err := a.store.CheckAuthorization(ctx, token, resource)
	if err != nil {
		metrics.RecordAuthDecision("fault")
		return false, fmt.Errorf("%w: %w", ErrAuthFault, err)
	}

	if !granted {
		metrics.RecordAuthDecision("denied")
		a.log.Info("access denied", "resource", resource)
		return false, nil
	}

	metrics.RecordAuthDecision("granted")
	return true, nil
}

// Penalty delays a denied caller by a random 10-300ms, in 10ms steps, or until
// ctx is done.
func (a *Authorizer) Penalty(ctx context.Context) {
	d := time.Duration(rand.Intn(penaltyMaxSteps)+1) * penaltyStep

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
