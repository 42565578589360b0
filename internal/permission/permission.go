// Package permission is the single place where actors are checked against
// the soft-delete actions. Handlers and services never compare roles.
package permission

import (
	"path"
	"strings"

	"go-soft-delete/internal/model"
)

const (
	ActionRead    = "softdelete.read"
	ActionRestore = "softdelete.restore"
	ActionPurge   = "softdelete.purge"
	ActionAudit   = "softdelete.audit"
)

// CollectionAction names a per-collection action such as
// "collection:api::article.article:update".
func CollectionAction(uid, verb string) string {
	return "collection:" + uid + ":" + verb
}

type Checker interface {
	HasPermission(actor *model.Actor, action string) bool
}

// RoleChecker grants actions by role. Grants may use path.Match wildcards.
type RoleChecker struct {
	grants               map[string][]string
	allowUnauthenticated bool
}

// DefaultGrants is the built-in role table.
func DefaultGrants() map[string][]string {
	return map[string][]string{
		"admin":  {"*"},
		"editor": {ActionRead, ActionRestore, CollectionAction("*", "read"), CollectionAction("*", "create"), CollectionAction("*", "update")},
		"viewer": {ActionRead, CollectionAction("*", "read")},
		"system": {"*"},
	}
}

func NewRoleChecker(grants map[string][]string, allowUnauthenticated bool) *RoleChecker {
	if grants == nil {
		grants = DefaultGrants()
	}
	normalized := make(map[string][]string, len(grants))
	for role, actions := range grants {
		normalized[strings.ToLower(strings.TrimSpace(role))] = actions
	}
	return &RoleChecker{grants: normalized, allowUnauthenticated: allowUnauthenticated}
}

// HasPermission reports whether actor may perform action. A nil actor is
// only allowed when unauthenticated service calls are enabled.
func (c *RoleChecker) HasPermission(actor *model.Actor, action string) bool {
	if actor == nil {
		return c.allowUnauthenticated
	}
	for _, pattern := range c.grants[strings.ToLower(actor.Role)] {
		if pattern == "*" || pattern == action {
			return true
		}
		if ok, err := path.Match(pattern, action); err == nil && ok {
			return true
		}
	}
	return false
}

// Authorize checks every action and maps a denial to ErrUnauthorized for
// anonymous callers and ErrForbidden otherwise.
func Authorize(c Checker, actor *model.Actor, actions ...string) error {
	for _, action := range actions {
		if c.HasPermission(actor, action) {
			continue
		}
		if actor == nil {
			return model.ErrUnauthorized
		}
		return model.ErrForbidden
	}
	return nil
}
