package models

import "github.com/volatiletech/null/v8"

// Department groups modules and users. Display fields may change; the id never does.
type Department struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Code        string      `json:"code"`
	Description null.String `json:"description"`
}

// CreateDepartmentRequest is the payload accepted by the department create endpoint.
type CreateDepartmentRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}
