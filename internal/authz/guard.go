// Package authz decides which role may perform which intent. Decisions are
// pure functions of the actor and the target context; callers turn a denial
// into an authorization error.
package authz

import "github.com/noah-isme/lms-portal/internal/models"

// Action names a user intent subject to authorization.
type Action string

const (
	ActionCreateDepartment Action = "createDepartment"
	ActionCreateModule     Action = "createModule"
	ActionAssignLecturer   Action = "assignLecturer"
	ActionApproveLecturer  Action = "approveLecturer"
	ActionBanUser          Action = "banUser"
	ActionEnroll           Action = "enroll"
	ActionUnenroll         Action = "unenroll"
	ActionViewRoster       Action = "viewRoster"
)

// Actor is the authenticated user attempting an action.
type Actor struct {
	ID       string
	Role     models.UserRole
	IsActive bool
}

// ActorFromUser builds an Actor from a user record.
func ActorFromUser(u models.User) Actor {
	return Actor{ID: u.ID, Role: u.Role, IsActive: u.IsActive}
}

// Context carries the target of an action.
type Context struct {
	// StudentID is the student an enroll or unenroll acts on.
	StudentID string
	// ModuleLecturerID is the lecturer assigned to the module in question.
	ModuleLecturerID string
}

// Guard evaluates authorization rules.
type Guard struct{}

// NewGuard returns a Guard.
func NewGuard() *Guard {
	return &Guard{}
}

// Can reports whether actor may perform action against ctx.
func (g *Guard) Can(actor Actor, action Action, ctx Context) bool {
	return Can(actor, action, ctx)
}

// Can reports whether actor may perform action against ctx.
func Can(actor Actor, action Action, ctx Context) bool {
	if !actor.IsActive || actor.ID == "" {
		return false
	}

	switch action {
	case ActionCreateDepartment, ActionCreateModule, ActionAssignLecturer, ActionApproveLecturer, ActionBanUser:
		return actor.Role == models.RoleAdmin
	case ActionEnroll:
		return actor.Role == models.RoleStudent && ctx.StudentID == actor.ID
	case ActionUnenroll:
		switch actor.Role {
		case models.RoleAdmin:
			return ctx.StudentID != ""
		case models.RoleStudent:
			return ctx.StudentID == actor.ID
		}
		return false
	case ActionViewRoster:
		switch actor.Role {
		case models.RoleAdmin:
			return true
		case models.RoleLecturer:
			return ctx.ModuleLecturerID != "" && ctx.ModuleLecturerID == actor.ID
		}
		return false
	default:
		return false
	}
}
