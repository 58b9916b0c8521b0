package social

import "errors"

// Sentinel errors for the social core. Handlers map these onto HTTP
// statuses; services wrap them with fmt.Errorf("...: %w", Err...) so
// errors.Is keeps working through the chain.
var (
	// ErrNotFound indicates the requested member, request, or cache entry
	// does not exist.
	ErrNotFound = errors.New("social: not found")
	// ErrConflict indicates a duplicate friendship or a pending request
	// already exists between the pair (in either direction).
	ErrConflict = errors.New("social: conflict")
	// ErrNotFriends indicates an unfriend was attempted between members
	// that do not have both directional edges.
	ErrNotFriends = errors.New("social: not friends")
	// ErrValidation indicates a malformed filter or request parameter.
	ErrValidation = errors.New("social: validation failed")
	// ErrUpstream indicates the scoring service call failed or returned
	// unusable data. No cache state is mutated when this is returned.
	ErrUpstream = errors.New("social: upstream scorer failed")
)
