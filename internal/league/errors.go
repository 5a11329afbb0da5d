package league

import "errors"

// Error kinds surfaced verbatim at the command boundary. Engines wrap these
// with fmt.Errorf("...: %w", Err...) so callers can match with errors.Is.
var (
	// ErrIllegalTransition means a phase guard was violated: either the
	// requested season phase is not the next legal one, or the active
	// engine has not reported completion yet.
	ErrIllegalTransition = errors.New("illegal transition")

	// ErrNotYourTurn means a turn-ordered action was attempted by a player
	// other than the one the current index points at.
	ErrNotYourTurn = errors.New("not your turn")

	// ErrDuplicateAction means a slot was already filled and the operation
	// does not model overwriting (picks, reveals, cuts).
	ErrDuplicateAction = errors.New("duplicate action")

	// ErrDuplicateVote means a vote for this (voter, category) already
	// exists; re-casting must go through ChangeVote.
	ErrDuplicateVote = errors.New("vote already cast")

	// ErrSelfVoteForbidden means a voter nominated themselves.
	ErrSelfVoteForbidden = errors.New("self vote forbidden")

	// ErrQuotaExceeded means a counted allowance (reveals, cuts, redraft
	// picks) was exhausted.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrOnCooldown means an advantage was used before its canUseAfterWeek.
	ErrOnCooldown = errors.New("advantage on cooldown")

	// ErrNotFound means a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the actor is neither the affected player nor the
	// season commissioner, or attempted a commissioner-only operation.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict means an optimistic concurrency check failed at commit
	// time; the caller should re-read and retry.
	ErrConflict = errors.New("version conflict")

	// ErrPlaylistFetchFailed means the external playlist provider could not
	// produce a validated track list for a submitted URL.
	ErrPlaylistFetchFailed = errors.New("playlist fetch failed")
)
