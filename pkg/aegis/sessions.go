package aegis

import (
	"strconv"
	"time"

	"github.com/cuemby/aegis/pkg/audit"
	"github.com/cuemby/aegis/pkg/session"
)

// CreateSession mints a bearer token for entityLabel valid for ttl (0 means
// it never expires).
func (e *Engine) CreateSession(entityLabel string, ttl time.Duration) (string, error) {
	token, err := session.CreateSession(e.db, entityLabel, ttl, time.Now())
	if err != nil {
		return "", err
	}
	e.audit.Publish(audit.EventSessionCreated, 0, 0, map[string]string{"entity": entityLabel})
	return token, nil
}

// ValidateSession resolves token to its bound entity, or an error if it's
// missing, corrupted, or expired.
func (e *Engine) ValidateSession(token string) (string, error) {
	return session.ValidateSession(e.db, token, time.Now())
}

// RevokeSession deletes the session bound to token.
func (e *Engine) RevokeSession(token string) (bool, error) {
	existed, err := session.RevokeSession(e.db, token)
	if err != nil {
		return false, err
	}
	if existed {
		e.audit.Publish(audit.EventSessionRevoked, 0, 0, map[string]string{"token_revoked": "true"})
	}
	return existed, nil
}

// ListSessions returns every non-expired session bound to entityLabel.
func (e *Engine) ListSessions(entityLabel string) ([]session.Info, error) {
	return session.ListSessions(e.db, entityLabel, time.Now())
}

// RevokeAllSessions deletes every session bound to entityLabel, returning
// the count removed.
func (e *Engine) RevokeAllSessions(entityLabel string) (int, error) {
	count, err := session.RevokeAllSessions(e.db, entityLabel)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		e.audit.Publish(audit.EventSessionRevoked, 0, 0, map[string]string{"entity": entityLabel, "count": strconv.Itoa(count)})
	}
	return count, nil
}

// BootstrapWithToken runs genesis and returns a ready-to-use session for the
// new root entity in one call.
func (e *Engine) BootstrapWithToken(rootID string) (session.Result, error) {
	result, err := session.BootstrapWithToken(e.db, rootID, time.Now())
	if err != nil {
		return session.Result{}, err
	}
	e.audit.Publish(audit.EventBootstrapComplete, 0, 0, map[string]string{"root": result.RootEntity})
	return result, nil
}
