package screen

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cloudyy74/frappe-user-admin/internal/models"
)

func TestFilterUsers(t *testing.T) {
	users := seedUsers()
	cases := []struct {
		name    string
		filters Filters
		want    []string
	}{
		{"neutral", DefaultFilters(), []string{"a@x.com", "b@x.com", "c@x.com"}},
		{"empty selects", Filters{}, []string{"a@x.com", "b@x.com", "c@x.com"}},
		{"role is case insensitive", Filters{Role: "user"}, []string{"a@x.com"}},
		{"status", Filters{Status: "inactive"}, []string{"b@x.com"}},
		{"pending matches nothing", Filters{Status: "pending"}, []string{}},
		{"search email", Filters{Search: " B@X "}, []string{"b@x.com"}},
		{"search role", Filters{Search: "mana"}, []string{"c@x.com"}},
		{"combined", Filters{Search: "x.com", Role: FilterAll, Status: "active"}, []string{"a@x.com", "c@x.com"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ids(FilterUsers(users, tc.filters)))
		})
	}
	assert.Equal(t, seedUsers(), users)
}

func TestSortUsers(t *testing.T) {
	users := []models.User{
		{ID: "2", Name: "bob", Status: models.StatusActive},
		{ID: "1", Name: "Alice", Status: models.StatusInactive},
		{ID: "3", Name: "alice", Status: models.StatusActive},
	}

	assert.Equal(t, []string{"2", "1", "3"}, ids(SortUsers(users, Sort{})))
	assert.Equal(t, []string{"1", "3", "2"}, ids(SortUsers(users, Sort{Column: "name"})))
	assert.Equal(t, []string{"2", "1", "3"}, ids(SortUsers(users, Sort{Column: "name", Descending: true})))
	assert.Equal(t, []string{"2", "3", "1"}, ids(SortUsers(users, Sort{Column: "status"})))
	assert.Equal(t, []string{"1", "2", "3"}, ids(SortUsers(users, Sort{Column: "id"})))
	assert.Equal(t, "2", users[0].ID)
}

func TestValidColumn(t *testing.T) {
	for _, c := range []string{"id", "name", "email", "role", "status"} {
		assert.True(t, ValidColumn(c), c)
	}
	assert.False(t, ValidColumn("enabled"))
}

func TestFilterBar_ClearInvokesEachCallbackOnce(t *testing.T) {
	var searches, roles, statuses []string
	bar := NewFilterBar(
		func(v string) { searches = append(searches, v) },
		func(v string) { roles = append(roles, v) },
		func(v string) { statuses = append(statuses, v) },
	)

	bar.Clear()

	assert.Equal(t, []string{""}, searches)
	assert.Equal(t, []string{FilterAll}, roles)
	assert.Equal(t, []string{FilterAll}, statuses)
}

func TestFilterBar_NilCallbacks(t *testing.T) {
	bar := NewFilterBar(nil, nil, nil)
	assert.NotPanics(t, func() {
		bar.Search("x")
		bar.FilterRole("admin")
		bar.FilterStatus("active")
		bar.Apply(DefaultFilters())
		bar.Clear()
	})
}

func TestNewDraft(t *testing.T) {
	d := NewDraft("N", "e@x.com", " admin ", "ACTIVE")
	assert.Equal(t, Draft{Name: "N", Email: "e@x.com", Role: "admin", Status: models.StatusActive}, d)
	assert.Equal(t, models.StatusInactive, NewDraft("", "", "", "pending").Status)
}

func TestDraftApplyTo_KeepsID(t *testing.T) {
	u := models.User{ID: "a@x.com", Name: "Ann", Email: "a@x.com", Role: "User", Status: models.StatusActive}
	got := NewDraft("Annie", "ann@x.com", "Admin", "inactive").applyTo(u)
	assert.Equal(t, models.User{ID: "a@x.com", Name: "Annie", Email: "ann@x.com", Role: "Admin", Status: models.StatusInactive}, got)
	assert.Equal(t, draftFromUser(u).applyTo(u), u)
}
