package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/noah-isme/lms-portal/internal/models"
	appErrors "github.com/noah-isme/lms-portal/pkg/errors"
)

func TestAdminDashboardSummarisesDepartments(t *testing.T) {
	st := seedStore()
	st.UpsertModule(models.Module{ID: "m3", Code: "MA101", DepartmentID: "d2", Limit: 1, EnrolledCount: 1})

	dash, err := NewDashboardService(true).Admin(st, "")
	require.NoError(t, err)
	require.Len(t, dash.Departments, 2)
	assert.Nil(t, dash.Selected)

	cs := dash.Departments[0]
	assert.Equal(t, "d1", cs.ID)
	assert.Equal(t, 2, cs.TotalModules)
	assert.Equal(t, 1, cs.UnassignedModules)
	assert.Equal(t, 0, cs.FullModules)

	math := dash.Departments[1]
	assert.Equal(t, 1, math.FullModules)
	assert.Equal(t, 1, math.UnassignedModules)

	require.Len(t, dash.PendingLecturers, 1)
	assert.Equal(t, "lect-2", dash.PendingLecturers[0].ID)
}

func TestAdminDashboardSelectedDepartment(t *testing.T) {
	svc := NewDashboardService(true)

	dash, err := svc.Admin(seedStore(), "d1")
	require.NoError(t, err)
	require.NotNil(t, dash.Selected)
	assert.Len(t, dash.Selected.Modules, 2)
	assert.Len(t, dash.Selected.Lecturers, 2)
	assert.Len(t, dash.Selected.Students, 2)
	assert.Equal(t, "Alice Smith", dash.Selected.Modules[0].LecturerName)

	_, err = svc.Admin(seedStore(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.KindNotFound, appErrors.KindOf(err))
}

func TestStudentDashboardHidesUnassignedWhenLecturerRequired(t *testing.T) {
	st := seedStore()
	st.UpsertEnrollment(models.Enrollment{ID: "e1", StudentID: "stud-1", ModuleID: "m1", EnrolledAt: time.Now()})

	dash, err := NewDashboardService(true).Student(st, "stud-1")
	require.NoError(t, err)
	require.Len(t, dash.Enrolled, 1)
	assert.Equal(t, "m1", dash.Enrolled[0].ID)
	assert.True(t, dash.Enrolled[0].Enrolled)
	assert.False(t, dash.Enrolled[0].Enrollable)
	assert.Empty(t, dash.Available)
	require.NotNil(t, dash.Department)
	assert.Equal(t, "Computer Science", dash.Department.Name)

	relaxed, err := NewDashboardService(false).Student(st, "stud-1")
	require.NoError(t, err)
	require.Len(t, relaxed.Available, 1)
	assert.Equal(t, "m2", relaxed.Available[0].ID)
	assert.False(t, relaxed.Available[0].Available)
	assert.True(t, relaxed.Available[0].Enrollable)
}

func TestStudentDashboardMarksFullModules(t *testing.T) {
	st := seedStore()
	st.UpsertModule(models.Module{ID: "m1", Code: "CS101", DepartmentID: "d1", LecturerID: null.StringFrom("lect-1"), Limit: 2, EnrolledCount: 2})

	dash, err := NewDashboardService(true).Student(st, "stud-2")
	require.NoError(t, err)
	require.Len(t, dash.Available, 1)
	card := dash.Available[0]
	assert.True(t, card.Full)
	assert.False(t, card.Enrollable)
	assert.Equal(t, 0, card.Capacity)
	assert.Equal(t, float64(100), card.FillPercent)
}

func TestStudentDashboardRejectsNonStudent(t *testing.T) {
	_, err := NewDashboardService(true).Student(seedStore(), "lect-1")
	assert.ErrorIs(t, err, appErrors.ErrStudentNotFound)
}

func TestLecturerDashboard(t *testing.T) {
	st := seedStore()
	st.UpsertModule(models.Module{ID: "m1", Code: "CS101", DepartmentID: "d1", LecturerID: null.StringFrom("lect-1"), Limit: 2, EnrolledCount: 1})

	dash, err := NewDashboardService(true).Lecturer(st, "lect-1")
	require.NoError(t, err)
	require.Len(t, dash.Modules, 1)
	assert.Equal(t, 1, dash.Modules[0].StudentCount)
	require.Len(t, dash.Peers, 1)
	assert.Equal(t, "lect-2", dash.Peers[0].ID)

	_, err = NewDashboardService(true).Lecturer(st, "stud-1")
	assert.ErrorIs(t, err, appErrors.ErrLecturerNotFound)
}

func TestRosterOrdersByEnrollment(t *testing.T) {
	st := seedStore()
	base := time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)
	st.UpsertEnrollment(models.Enrollment{ID: "e2", StudentID: "stud-2", ModuleID: "m1", EnrolledAt: base.Add(time.Hour)})
	st.UpsertEnrollment(models.Enrollment{ID: "e1", StudentID: "stud-1", ModuleID: "m1", EnrolledAt: base})

	roster, err := NewDashboardService(true).Roster(st, "m1")
	require.NoError(t, err)
	require.Len(t, roster.Students, 2)
	assert.Equal(t, "stud-1", roster.Students[0].ID)
	assert.Equal(t, "Charlie Brown", roster.Students[0].FullName)
	assert.Equal(t, "e2", roster.Students[1].EnrollmentID)

	_, err = NewDashboardService(true).Roster(st, "nope")
	assert.ErrorIs(t, err, appErrors.ErrModuleNotFound)
}
