package security

import (
	"context"
	"strings"

	"github.com/samber/oops"

	"usersvc/internal/common"
	"usersvc/internal/models"
)

// Resource names a guarded record type.
type Resource string

const (
	ResourceAccount Resource = "account"
	ResourcePet     Resource = "pet"
)

// Action names an operation on a resource.
type Action string

const (
	ActionList   Action = "list"
	ActionGet    Action = "get"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Decision is the verdict of the gate.
type Decision bool

const (
	Deny  Decision = false
	Allow Decision = true
)

// Target describes the record an action is applied to. Username is only
// meaningful for accounts and is empty when the record does not exist.
type Target struct {
	Username string
}

var (
	anyRole    = []models.Role{models.RoleAdmin, models.RoleEditor, models.RoleUser}
	staffRoles = []models.Role{models.RoleAdmin, models.RoleEditor}
	adminOnly  = []models.Role{models.RoleAdmin}
)

// Gate decides whether a caller may perform an action. It holds no state
// beyond its immutable rule table.
type Gate struct {
	rules map[Resource]map[Action][]models.Role
}

// NewGate returns a gate with the directory's role table.
func NewGate() *Gate {
	return &Gate{rules: map[Resource]map[Action][]models.Role{
		ResourceAccount: {
			ActionList:   anyRole,
			ActionGet:    staffRoles,
			ActionCreate: adminOnly,
			ActionUpdate: anyRole,
			ActionDelete: adminOnly,
		},
		ResourcePet: {
			ActionList:   anyRole,
			ActionGet:    staffRoles,
			ActionCreate: adminOnly,
			ActionUpdate: anyRole,
			ActionDelete: adminOnly,
		},
	}}
}

// Authorize returns the verdict for caller performing action on target.
func (g *Gate) Authorize(resource Resource, action Action, caller Caller, target Target) Decision {
	allowed, ok := g.rules[resource][action]
	if !ok || !caller.Roles.HasAny(allowed...) {
		return Deny
	}
	if resource == ResourceAccount && action == ActionUpdate {
		// Only admins may update someone else's account.
		if caller.IsAdmin() {
			return Allow
		}
		if target.Username == "" || !strings.EqualFold(caller.Username, target.Username) {
			return Deny
		}
	}
	return Allow
}

// Require authorizes the caller stored in ctx and converts a denial into
// common.ErrUnauthorized for account updates or common.ErrForbidden otherwise.
func (g *Gate) Require(ctx context.Context, resource Resource, action Action, target Target) error {
	_, err := g.RequireCaller(ctx, resource, action, target)
	return err
}

// RequireCaller is Require returning the authorized caller.
func (g *Gate) RequireCaller(ctx context.Context, resource Resource, action Action, target Target) (Caller, error) {
	caller, ok := CallerFrom(ctx)
	if ok && g.Authorize(resource, action, caller, target) == Allow {
		return caller, nil
	}
	denial := common.ErrForbidden
	if resource == ResourceAccount && action == ActionUpdate {
		denial = common.ErrUnauthorized
	}
	return Caller{}, oops.Code("ACCESS_DENIED").
		With("resource", string(resource)).
		With("action", string(action)).
		With("caller", caller.Username).
		Wrap(denial)
}
