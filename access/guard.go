// Package access holds the authorization predicate for collection runs.
// The policy is deliberately small: a run is visible to its owner and to
// org admins, identically for read and mutate paths.
package access

import (
	"github.com/xraph/harvest"
	"github.com/xraph/harvest/collection"
)

// Guard decides whether a caller may act on a run. It is a pure
// predicate with no side effects; callers evaluate it against the
// current identity on every request, never a cached decision.
type Guard struct{}

// CanAccess reports whether the caller may view or mutate the run:
// true iff the caller owns the run or carries the org_admin role.
func (Guard) CanAccess(r *collection.Run, caller harvest.Identity) bool {
	if r == nil {
		return false
	}
	return caller.Subject == r.OwnerID || caller.IsAdmin()
}
