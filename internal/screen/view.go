package screen

import (
	"errors"
	"slices"
	"strings"

	"github.com/cloudyy74/frappe-user-admin/internal/models"
)

const FilterAll = "all"

var ErrUnknownColumn = errors.New("unknown sort column")

var (
	RoleFilterOptions   = []string{FilterAll, "admin", "user", "manager"}
	StatusFilterOptions = []string{FilterAll, "active", "inactive", "pending"}
)

type Filters struct {
	Search string `json:"search"`
	Role   string `json:"role"`
	Status string `json:"status"`
}

func DefaultFilters() Filters {
	return Filters{Search: "", Role: FilterAll, Status: FilterAll}
}

type Sort struct {
	Column     string `json:"column,omitempty"`
	Descending bool   `json:"descending,omitempty"`
}

var sortColumns = map[string]func(models.User) string{
	"id":     func(u models.User) string { return u.ID },
	"name":   func(u models.User) string { return u.Name },
	"email":  func(u models.User) string { return u.Email },
	"role":   func(u models.User) string { return u.Role },
	"status": func(u models.User) string { return string(u.Status) },
}

func ValidColumn(column string) bool {
	_, ok := sortColumns[column]
	return ok
}

// FilterUsers returns the users matching every filter. The input is not
// modified.
func FilterUsers(users []models.User, f Filters) []models.User {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		if !matchesSelect(u.Role, f.Role) || !matchesSelect(string(u.Status), f.Status) {
			continue
		}
		if search != "" && !matchesSearch(u, search) {
			continue
		}
		out = append(out, u)
	}
	return out
}

func matchesSelect(value, filter string) bool {
	filter = strings.TrimSpace(filter)
	if filter == "" || strings.EqualFold(filter, FilterAll) {
		return true
	}
	return strings.EqualFold(value, filter)
}

func matchesSearch(u models.User, search string) bool {
	for _, field := range []string{u.Name, u.Email, u.Role} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

// SortUsers returns a sorted copy. Without a column the order is kept.
func SortUsers(users []models.User, s Sort) []models.User {
	out := slices.Clone(users)
	key, ok := sortColumns[s.Column]
	if !ok {
		return out
	}
	slices.SortStableFunc(out, func(a, b models.User) int {
		c := strings.Compare(strings.ToLower(key(a)), strings.ToLower(key(b)))
		if s.Descending {
			return -c
		}
		return c
	})
	return out
}

// Displayed derives what the table shows from the canonical list.
func Displayed(users []models.User, f Filters, s Sort) []models.User {
	return SortUsers(FilterUsers(users, f), s)
}
