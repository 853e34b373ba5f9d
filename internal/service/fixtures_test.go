package service

import (
	"github.com/volatiletech/null/v8"

	"github.com/noah-isme/lms-portal/internal/models"
	"github.com/noah-isme/lms-portal/internal/store"
)

// seedStore returns a store with two departments and a handful of users and
// modules:
//
//	d1 Computer Science: lect-1 (active), lect-2 (pending), stud-1, stud-2,
//	   m1 CS101 (lect-1, limit 2), m2 CS102 (no lecturer, limit 30)
//	d2 Mathematics: lect-3 (active), stud-3, m3 MA101 (lect-3, limit 1)
func seedStore() *store.Store {
	s := store.New()
	s.UpsertDepartment(models.Department{ID: "d1", Name: "Computer Science", Code: "CS"})
	s.UpsertDepartment(models.Department{ID: "d2", Name: "Mathematics", Code: "MA"})

	s.UpsertUser(models.User{ID: "admin-1", Username: "admin", FirstName: "Ada", LastName: "Admin", Role: models.RoleAdmin, IsActive: true})
	s.UpsertUser(models.User{ID: "lect-1", Username: "alice", FirstName: "Alice", LastName: "Smith", Role: models.RoleLecturer, DepartmentID: null.StringFrom("d1"), IsActive: true})
	s.UpsertUser(models.User{ID: "lect-2", Username: "bob", FirstName: "Bob", LastName: "Jones", Role: models.RoleLecturer, DepartmentID: null.StringFrom("d1"), IsActive: false})
	s.UpsertUser(models.User{ID: "lect-3", Username: "carol", FirstName: "Carol", LastName: "White", Role: models.RoleLecturer, DepartmentID: null.StringFrom("d2"), IsActive: true})
	s.UpsertUser(models.User{ID: "stud-1", Username: "charlie", FirstName: "Charlie", LastName: "Brown", Role: models.RoleStudent, DepartmentID: null.StringFrom("d1"), IsActive: true})
	s.UpsertUser(models.User{ID: "stud-2", Username: "dana", FirstName: "Dana", LastName: "Green", Role: models.RoleStudent, DepartmentID: null.StringFrom("d1"), IsActive: true})
	s.UpsertUser(models.User{ID: "stud-3", Username: "eve", FirstName: "Eve", LastName: "Black", Role: models.RoleStudent, DepartmentID: null.StringFrom("d2"), IsActive: true})

	s.UpsertModule(models.Module{ID: "m1", Code: "CS101", Name: "Intro to Programming", DepartmentID: "d1", LecturerID: null.StringFrom("lect-1"), Limit: 2})
	s.UpsertModule(models.Module{ID: "m2", Code: "CS102", Name: "Data Structures", DepartmentID: "d1", Limit: 30})
	s.UpsertModule(models.Module{ID: "m3", Code: "MA101", Name: "Calculus", DepartmentID: "d2", LecturerID: null.StringFrom("lect-3"), Limit: 1})
	return s
}
