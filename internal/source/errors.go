package source

import (
	"errors"
	"fmt"
)

// ErrAuth is matched by every authentication failure, see AuthError.
var ErrAuth = errors.New("authentication error")

// AuthError reports that a platform rejected or lacks credentials.
// Status is the HTTP status (401 or 403), or 0 when no cookies are stored.
type AuthError struct {
	Platform Platform
	Status   int
}

func (e *AuthError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: not authenticated (run 'feedweave cookies import %s <file>')", e.Platform, e.Platform)
	}
	return fmt.Sprintf("%s: authentication error (%d). Cookies may be expired.", e.Platform, e.Status)
}

func (e *AuthError) Is(target error) bool {
	return target == ErrAuth
}

// FetchError reports a non-auth upstream failure.
type FetchError struct {
	Platform Platform
	Status   int
	Body     string // truncated
}

func (e *FetchError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", e.Platform, e.Status)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Platform, e.Status, e.Body)
}

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool {
	return errors.Is(err, ErrAuth)
}
