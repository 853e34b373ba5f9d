package models

import (
	"time"

	"github.com/google/uuid"
)

// enrollmentNamespace seeds deterministic ids for enrollments inferred from
// roster reads, which carry no enrollment id of their own.
var enrollmentNamespace = uuid.MustParse("4f8b2c1e-6a3d-5e7f-9b0a-1c2d3e4f5a6b")

// Enrollment links one student to one module.
type Enrollment struct {
	ID         string    `json:"id"`
	StudentID  string    `json:"studentId"`
	ModuleID   string    `json:"moduleId"`
	EnrolledAt time.Time `json:"enrolledAt"`
}

// EnrollmentRequest is the upstream body for enroll and unenroll.
type EnrollmentRequest struct {
	StudentID string `json:"studentId" validate:"required"`
	ModuleID  string `json:"moduleId" validate:"required"`
}

// PairKey identifies the (student, module) pair an enrollment belongs to.
func PairKey(studentID, moduleID string) string {
	return studentID + "\x00" + moduleID
}

// InferredEnrollmentID derives a stable id for a pair seen only through list reads.
func InferredEnrollmentID(studentID, moduleID string) string {
	return uuid.NewSHA1(enrollmentNamespace, []byte(PairKey(studentID, moduleID))).String()
}
