package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/lms-portal/internal/models"
)

var (
	admin    = Actor{ID: "admin-1", Role: models.RoleAdmin, IsActive: true}
	lecturer = Actor{ID: "lect-1", Role: models.RoleLecturer, IsActive: true}
	student  = Actor{ID: "stud-1", Role: models.RoleStudent, IsActive: true}
)

func TestAdminOnlyActions(t *testing.T) {
	actions := []Action{ActionCreateDepartment, ActionCreateModule, ActionAssignLecturer, ActionApproveLecturer, ActionBanUser}
	for _, action := range actions {
		t.Run(string(action), func(t *testing.T) {
			assert.True(t, Can(admin, action, Context{}))
			assert.False(t, Can(lecturer, action, Context{}))
			assert.False(t, Can(student, action, Context{}))
		})
	}
}

func TestEnrollOnlyForSelf(t *testing.T) {
	assert.True(t, Can(student, ActionEnroll, Context{StudentID: "stud-1"}))
	assert.False(t, Can(student, ActionEnroll, Context{StudentID: "stud-2"}))
	assert.False(t, Can(admin, ActionEnroll, Context{StudentID: "stud-1"}))
	assert.False(t, Can(lecturer, ActionEnroll, Context{StudentID: "stud-1"}))
}

func TestUnenroll(t *testing.T) {
	assert.True(t, Can(student, ActionUnenroll, Context{StudentID: "stud-1"}))
	assert.False(t, Can(student, ActionUnenroll, Context{StudentID: "stud-2"}))
	assert.True(t, Can(admin, ActionUnenroll, Context{StudentID: "stud-2"}))
	assert.False(t, Can(admin, ActionUnenroll, Context{}))
	assert.False(t, Can(lecturer, ActionUnenroll, Context{StudentID: "stud-1"}))
}

func TestViewRoster(t *testing.T) {
	assert.True(t, Can(lecturer, ActionViewRoster, Context{ModuleLecturerID: "lect-1"}))
	assert.False(t, Can(lecturer, ActionViewRoster, Context{ModuleLecturerID: "lect-2"}))
	assert.False(t, Can(lecturer, ActionViewRoster, Context{}))
	assert.True(t, Can(admin, ActionViewRoster, Context{}))
	assert.False(t, Can(student, ActionViewRoster, Context{ModuleLecturerID: "stud-1"}))
}

func TestInactiveActorDeniedEverything(t *testing.T) {
	inactive := admin
	inactive.IsActive = false
	assert.False(t, Can(inactive, ActionCreateDepartment, Context{}))

	pending := lecturer
	pending.IsActive = false
	assert.False(t, Can(pending, ActionViewRoster, Context{ModuleLecturerID: "lect-1"}))
}

func TestUnknownActionDenied(t *testing.T) {
	assert.False(t, NewGuard().Can(admin, Action("deleteEverything"), Context{}))
}

func TestActorFromUser(t *testing.T) {
	a := ActorFromUser(models.User{ID: "stud-9", Role: models.RoleStudent, IsActive: true})
	assert.Equal(t, Actor{ID: "stud-9", Role: models.RoleStudent, IsActive: true}, a)
}
