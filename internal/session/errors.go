package session

import "errors"

// ErrIdentityMissing is returned when no user identifier can be resolved from
// the stored token. Callers treat it as an unauthenticated state and must not
// contact the API.
var ErrIdentityMissing = errors.New("user ID not found in token")
