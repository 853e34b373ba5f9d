package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-portal/internal/models"
	appErrors "github.com/noah-isme/lms-portal/pkg/errors"
)

type fakeRegistrar struct {
	calls []models.RegistrationRequest
	err   error
}

func (f *fakeRegistrar) Register(ctx context.Context, req models.RegistrationRequest) error {
	f.calls = append(f.calls, req)
	return f.err
}

func validRegistration(role models.UserRole) models.RegistrationRequest {
	return models.RegistrationRequest{
		Username:     " alice ",
		Password:     "s3cret!",
		FirstName:    "Alice",
		LastName:     "Smith",
		Email:        "alice@example.edu",
		Role:         role,
		DepartmentID: "d1",
	}
}

func TestRegisterLecturerIsPendingApproval(t *testing.T) {
	upstream := &fakeRegistrar{}
	audit := &recordingAuditRepo{}
	svc := NewRegistrationService(upstream, NewAuditService(audit, nil, nil), nil, nil, nil)

	result, err := svc.Register(context.Background(), validRegistration("lecturer"))
	require.NoError(t, err)
	assert.Equal(t, models.RoleLecturer, result.Role)
	assert.False(t, result.IsActive)
	assert.True(t, result.PendingApproval)
	require.Len(t, upstream.calls, 1)
	assert.Equal(t, "alice", upstream.calls[0].Username)
	assert.Equal(t, models.IntentRegister, audit.last().Intent)
}

func TestRegisterStudentIsActive(t *testing.T) {
	upstream := &fakeRegistrar{}
	svc := NewRegistrationService(upstream, nil, nil, nil, nil)

	student, err := svc.Register(context.Background(), validRegistration(models.RoleStudent))
	require.NoError(t, err)
	assert.True(t, student.IsActive)
	assert.False(t, student.PendingApproval)
	require.Len(t, upstream.calls, 1)
	assert.Equal(t, "d1", upstream.calls[0].DepartmentID)
}

func TestRegisterRejectsAdminSelfSignup(t *testing.T) {
	upstream := &fakeRegistrar{}
	audit := &recordingAuditRepo{}
	svc := NewRegistrationService(upstream, NewAuditService(audit, nil, nil), nil, nil, nil)

	for _, departmentID := range []string{"", "d1"} {
		req := validRegistration(models.RoleAdmin)
		req.DepartmentID = departmentID
		result, err := svc.Register(context.Background(), req)
		require.Error(t, err)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, appErrors.ErrValidation)
	}
	assert.Empty(t, upstream.calls)
	assert.Equal(t, models.OutcomeRejected, audit.last().Outcome)
}

func TestRegisterValidation(t *testing.T) {
	upstream := &fakeRegistrar{}
	svc := NewRegistrationService(upstream, nil, nil, nil, nil)

	cases := map[string]func(*models.RegistrationRequest){
		"missing department": func(r *models.RegistrationRequest) { r.DepartmentID = "" },
		"bad email":          func(r *models.RegistrationRequest) { r.Email = "nope" },
		"unknown role":       func(r *models.RegistrationRequest) { r.Role = "guest" },
		"short password":     func(r *models.RegistrationRequest) { r.Password = "abc" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := validRegistration(models.RoleStudent)
			mutate(&req)
			_, err := svc.Register(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, appErrors.KindValidation, appErrors.KindOf(err))
		})
	}
	assert.Empty(t, upstream.calls)
}

func TestRegisterPropagatesUpstreamFailure(t *testing.T) {
	upstream := &fakeRegistrar{err: appErrors.Remote(nil, 409, "username taken")}
	svc := NewRegistrationService(upstream, nil, nil, nil, nil)

	_, err := svc.Register(context.Background(), validRegistration(models.RoleStudent))
	require.Error(t, err)
	assert.Equal(t, "username taken", appErrors.FromError(err).Message)
}
