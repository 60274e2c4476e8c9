package models

import "strings"

type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

// ParseStatus accepts form values in any case. Everything that is not
// "active" is treated as inactive, including "pending".
func ParseStatus(s string) Status {
	if strings.EqualFold(strings.TrimSpace(s), string(StatusActive)) {
		return StatusActive
	}
	return StatusInactive
}

func (s Status) Enabled() bool {
	return s == StatusActive
}

func StatusFromEnabled(enabled bool) Status {
	if enabled {
		return StatusActive
	}
	return StatusInactive
}

type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Status Status `json:"status"`
}

// UserInput is a user that has not been assigned an id by the backend yet.
type UserInput struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Status Status `json:"status"`
}

// UserPatch carries only the fields that should be sent on update.
type UserPatch struct {
	Name   *string `json:"name,omitempty"`
	Email  *string `json:"email,omitempty"`
	Role   *string `json:"role,omitempty"`
	Status *Status `json:"status,omitempty"`
}

func PatchFromUser(u User) UserPatch {
	p := UserPatch{
		Name:   &u.Name,
		Email:  &u.Email,
		Status: &u.Status,
	}
	if u.Role != "" {
		p.Role = &u.Role
	}
	return p
}

func (in UserInput) WithID(id string) User {
	return User{
		ID:     id,
		Name:   in.Name,
		Email:  in.Email,
		Role:   in.Role,
		Status: in.Status,
	}
}
