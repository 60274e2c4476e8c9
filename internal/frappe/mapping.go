package frappe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/cloudyy74/frappe-user-admin/internal/models"
)

const userDoctype = "User"

type frappeUser struct {
	Name    string      `json:"name"`
	Email   string      `json:"email"`
	Role    string      `json:"role"`
	Enabled enabledFlag `json:"enabled"`
}

// enabledFlag decodes Frappe's check fields, which arrive as 0/1 on most
// endpoints and as booleans on some.
type enabledFlag bool

func (f *enabledFlag) UnmarshalJSON(b []byte) error {
	raw := string(bytes.TrimSpace(b))
	switch raw {
	case "", "null", "false", `""`:
		*f = false
		return nil
	case "true":
		*f = true
		return nil
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = unquoted
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid enabled value %s", string(b))
	}
	*f = n != 0
	return nil
}

func mapUser(fu frappeUser) models.User {
	return models.User{
		ID:     fu.Name,
		Name:   fu.Name,
		Email:  fu.Email,
		Role:   fu.Role,
		Status: models.StatusFromEnabled(bool(fu.Enabled)),
	}
}

func mapUsers(fus []frappeUser) []models.User {
	users := make([]models.User, 0, len(fus))
	for _, fu := range fus {
		users = append(users, mapUser(fu))
	}
	return users
}

type roleRef struct {
	Role string `json:"role"`
}

type searchLinkRequest struct {
	Doctype    string `json:"doctype"`
	Txt        string `json:"txt"`
	PageLength int    `json:"page_length"`
}

type createUserRequest struct {
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
	Roles    []roleRef `json:"roles"`
	Enabled  int       `json:"enabled"`
}

type updateUserRequest struct {
	Email    *string   `json:"email,omitempty"`
	FullName *string   `json:"full_name,omitempty"`
	Roles    []roleRef `json:"roles,omitempty"`
	Enabled  *int      `json:"enabled,omitempty"`
}

type loginRequest struct {
	Usr string `json:"usr"`
	Pwd string `json:"pwd"`
}

func enabledInt(s models.Status) int {
	if s.Enabled() {
		return 1
	}
	return 0
}

func newCreateRequest(in models.UserInput) createUserRequest {
	return createUserRequest{
		Email:    in.Email,
		FullName: in.Name,
		Roles:    []roleRef{{Role: in.Role}},
		Enabled:  enabledInt(in.Status),
	}
}

func newUpdateRequest(p models.UserPatch) updateUserRequest {
	req := updateUserRequest{
		Email:    p.Email,
		FullName: p.Name,
	}
	if p.Role != nil && *p.Role != "" {
		req.Roles = []roleRef{{Role: *p.Role}}
	}
	if p.Status != nil {
		enabled := enabledInt(*p.Status)
		req.Enabled = &enabled
	}
	return req
}

type envelope struct {
	Message json.RawMessage `json:"message"`
	Data    json.RawMessage `json:"data"`
	Exc     json.RawMessage `json:"exc"`
	ExcType string          `json:"exc_type"`
}

func (e envelope) exception() string {
	if isNull(e.Exc) {
		return ""
	}
	var text string
	if err := json.Unmarshal(e.Exc, &text); err == nil {
		return text
	}
	return string(e.Exc)
}

// payload prefers message; resource endpoints of Frappe answer with data.
func (e envelope) payload() json.RawMessage {
	if !isNull(e.Message) {
		return e.Message
	}
	return e.Data
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
