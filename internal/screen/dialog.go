package screen

import (
	"strings"

	"github.com/cloudyy74/frappe-user-admin/internal/models"
)

type DialogState int

const (
	DialogClosed DialogState = iota
	DialogOpen
	DialogSubmitting
)

func (s DialogState) String() string {
	switch s {
	case DialogOpen:
		return "open"
	case DialogSubmitting:
		return "submitting"
	default:
		return "closed"
	}
}

var (
	AddRoleOptions    = []string{"admin", "user", "editor", "manager", "guest"}
	EditRoleOptions   = []string{"admin", "user", "guest"}
	EditStatusOptions = []string{"active", "inactive", "pending"}
)

const defaultDraftRole = "user"

// Draft is the form state a dialog holds between opening and confirming.
type Draft struct {
	Name   string        `json:"name"`
	Email  string        `json:"email"`
	Role   string        `json:"role"`
	Status models.Status `json:"status"`
}

func NewDraft(name, email, role, status string) Draft {
	return Draft{
		Name:   name,
		Email:  email,
		Role:   strings.TrimSpace(role),
		Status: models.ParseStatus(status),
	}
}

func defaultAddDraft() Draft {
	return Draft{Role: defaultDraftRole, Status: models.StatusActive}
}

func draftFromUser(u models.User) Draft {
	return Draft{Name: u.Name, Email: u.Email, Role: u.Role, Status: u.Status}
}

func (d Draft) input() models.UserInput {
	return models.UserInput{Name: d.Name, Email: d.Email, Role: d.Role, Status: d.Status}
}

// applyTo returns u with every editable field taken from the draft.
func (d Draft) applyTo(u models.User) models.User {
	return d.input().WithID(u.ID)
}

type dialog struct {
	state DialogState
	draft Draft
	// token of the submission in flight, zero when none.
	token uint64
}

func (d *dialog) open(draft Draft) {
	d.state = DialogOpen
	d.draft = draft
	d.token = 0
}

func (d *dialog) close() {
	d.state = DialogClosed
	d.token = 0
}

// settle moves a submitting dialog on once its own request resolved.
func (d *dialog) settle(token uint64, ok bool) bool {
	if d.state != DialogSubmitting || d.token != token {
		return false
	}
	if ok {
		d.close()
	} else {
		d.state = DialogOpen
		d.token = 0
	}
	return true
}

type DialogView struct {
	State DialogState `json:"state"`
	Draft Draft       `json:"draft"`
}

func (v DialogView) Open() bool {
	return v.State != DialogClosed
}

func (v DialogView) Pending() bool {
	return v.State == DialogSubmitting
}

func (d dialog) view() DialogView {
	return DialogView{State: d.state, Draft: d.draft}
}
