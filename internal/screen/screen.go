package screen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/cloudyy74/frappe-user-admin/internal/models"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrRequestPending = errors.New("request already pending")
	ErrDialogClosed   = errors.New("dialog is not open")
	ErrNoSelection    = errors.New("no user selected")
)

const (
	msgLoadFailed    = "Failed to load users. Please try again."
	msgCreateFailed  = "Failed to create user. Please try again."
	msgUpdateFailed  = "Failed to update user. Please try again."
	msgDeleteFailed  = "Failed to delete user. Please try again."
	msgCreateSuccess = "User created successfully"
	msgUpdateSuccess = "User updated successfully"
	msgDeleteSuccess = "User deleted successfully"
)

const (
	targetList   = "list"
	targetCreate = "create"
)

func userTarget(id string) string {
	return "user:" + id
}

type Backend interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	CreateUser(ctx context.Context, in models.UserInput) (*models.User, error)
	UpdateUser(ctx context.Context, id string, patch models.UserPatch) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
}

type Auditor interface {
	Record(ctx context.Context, entry models.AuditEntry) error
}

type ActionRecorder interface {
	ObserveAction(action, outcome string)
}

type Option func(*Screen)

func WithAuditor(a Auditor) Option {
	return func(s *Screen) {
		s.auditor = a
	}
}

func WithRecorder(r ActionRecorder) Option {
	return func(s *Screen) {
		s.recorder = r
	}
}

// Screen is the per-session owner of the user list and of every dialog.
// The mutex is never held while the backend is called.
type Screen struct {
	mu sync.Mutex

	sessionID string
	backend   Backend
	auditor   Auditor
	recorder  ActionRecorder
	log       *slog.Logger
	filterBar *FilterBar

	users    []models.User
	mounted  bool
	loaded   bool
	add      dialog
	edit     dialog
	remove   dialog
	selected *models.User
	filters  Filters
	sort     Sort
	notices  []models.Notice

	seq    uint64
	latest map[string]uint64
	// listApplied is the token of the last list response taken.
	listApplied uint64
	// journal holds mutations committed while a list request was in flight.
	journal []change
}

// change is a mutation already confirmed by the backend. user is nil for a
// removal.
type change struct {
	stamp  uint64
	id     string
	user   *models.User
	upsert bool
}

func New(sessionID string, backend Backend, log *slog.Logger, opts ...Option) (*Screen, error) {
	if backend == nil {
		return nil, errors.New("backend cannot be nil")
	}
	if log == nil {
		return nil, errors.New("logger cannot be nil")
	}
	s := &Screen{
		sessionID: sessionID,
		backend:   backend,
		log:       log.With(slog.String("session", sessionID)),
		filters:   DefaultFilters(),
		latest:    make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.filterBar = NewFilterBar(s.SetSearch, s.SetRoleFilter, s.SetStatusFilter)
	return s, nil
}

func (s *Screen) SessionID() string {
	return s.sessionID
}

func (s *Screen) FilterBar() *FilterBar {
	return s.filterBar
}

// issue hands out a new token and makes it the latest one for target.
// Callers hold s.mu.
func (s *Screen) issue(target string) uint64 {
	s.seq++
	s.latest[target] = s.seq
	return s.seq
}

func (s *Screen) current(target string, token uint64) bool {
	return s.latest[target] == token
}

// Load fetches the list the first time the screen is shown.
func (s *Screen) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.mounted {
		s.mu.Unlock()
		return nil
	}
	s.mounted = true
	s.mu.Unlock()
	return s.Refresh(ctx)
}

func (s *Screen) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.mounted = true
	token := s.issue(targetList)
	s.mu.Unlock()

	users, err := s.backend.ListUsers(ctx)

	s.mu.Lock()
	if !s.current(targetList, token) {
		s.mu.Unlock()
		s.discard(ctx, models.AuditList, targetList, token)
		return nil
	}
	s.loaded = true
	if err != nil {
		s.listApplied = token
		s.journal = nil
		s.notify(models.ErrorNotice(msgLoadFailed))
		s.mu.Unlock()
		s.report(ctx, models.AuditList, targetList, err)
		return fmt.Errorf("load users: %w", err)
	}
	s.users = slices.Clone(users)
	s.listApplied = token
	s.replay(token)
	s.mu.Unlock()
	s.report(ctx, models.AuditList, targetList, nil)
	return nil
}

func (s *Screen) OpenAdd() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.closeOthers(&s.add); err != nil {
		return err
	}
	s.add.open(defaultAddDraft())
	return nil
}

func (s *Screen) CancelAdd() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.add.close()
}

func (s *Screen) SubmitAdd(ctx context.Context, draft Draft) error {
	s.mu.Lock()
	if err := submittable(&s.add); err != nil {
		s.mu.Unlock()
		return err
	}
	s.add.draft = draft
	s.add.state = DialogSubmitting
	token := s.issue(targetCreate)
	s.add.token = token
	s.mu.Unlock()

	created, err := s.backend.CreateUser(ctx, draft.input())

	s.mu.Lock()
	s.add.settle(token, err == nil)
	if err != nil {
		s.notify(models.ErrorNotice(msgCreateFailed))
		s.mu.Unlock()
		s.report(ctx, models.AuditCreate, draft.Email, err)
		return fmt.Errorf("create user: %w", err)
	}
	// Creates never supersede each other, so a create is always applied.
	// A refresh that already picked the user up is replaced instead.
	s.commit(change{id: created.ID, user: created, upsert: true})
	s.notify(models.SuccessNotice(msgCreateSuccess))
	s.mu.Unlock()
	s.report(ctx, models.AuditCreate, created.ID, nil)
	return nil
}

func (s *Screen) OpenEdit(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.find(id)
	if err != nil {
		return err
	}
	if err := s.closeOthers(&s.edit); err != nil {
		return err
	}
	s.selected = &u
	s.edit.open(draftFromUser(u))
	return nil
}

func (s *Screen) CancelEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edit.close()
	s.selected = nil
}

func (s *Screen) SubmitEdit(ctx context.Context, draft Draft) error {
	s.mu.Lock()
	if err := submittable(&s.edit); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.selected == nil {
		s.mu.Unlock()
		return ErrNoSelection
	}
	id := s.selected.ID
	edited := draft.applyTo(*s.selected)
	s.edit.draft = draft
	s.edit.state = DialogSubmitting
	token := s.issue(userTarget(id))
	s.edit.token = token
	s.mu.Unlock()

	updated, err := s.backend.UpdateUser(ctx, id, models.PatchFromUser(edited))

	s.mu.Lock()
	if !s.current(userTarget(id), token) {
		s.edit.settle(token, false)
		s.mu.Unlock()
		s.discard(ctx, models.AuditUpdate, id, token)
		return nil
	}
	if s.edit.settle(token, err == nil) && err == nil {
		s.selected = nil
	}
	if err != nil {
		s.notify(models.ErrorNotice(msgUpdateFailed))
		s.mu.Unlock()
		s.report(ctx, models.AuditUpdate, id, err)
		return fmt.Errorf("update user %s: %w", id, err)
	}
	replacement := *updated
	replacement.ID = id
	s.commit(change{id: id, user: &replacement})
	s.notify(models.SuccessNotice(msgUpdateSuccess))
	s.mu.Unlock()
	s.report(ctx, models.AuditUpdate, id, nil)
	return nil
}

func (s *Screen) OpenDelete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.find(id)
	if err != nil {
		return err
	}
	if err := s.closeOthers(&s.remove); err != nil {
		return err
	}
	s.selected = &u
	s.remove.open(draftFromUser(u))
	return nil
}

func (s *Screen) CancelDelete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove.close()
	s.selected = nil
}

func (s *Screen) ConfirmDelete(ctx context.Context) error {
	s.mu.Lock()
	if err := submittable(&s.remove); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.selected == nil {
		s.mu.Unlock()
		return ErrNoSelection
	}
	id := s.selected.ID
	s.remove.state = DialogSubmitting
	token := s.issue(userTarget(id))
	s.remove.token = token
	s.mu.Unlock()

	err := s.backend.DeleteUser(ctx, id)

	s.mu.Lock()
	if !s.current(userTarget(id), token) {
		s.remove.settle(token, false)
		s.mu.Unlock()
		s.discard(ctx, models.AuditDelete, id, token)
		return nil
	}
	if s.remove.settle(token, err == nil) && err == nil {
		s.selected = nil
	}
	if err != nil {
		s.notify(models.ErrorNotice(msgDeleteFailed))
		s.mu.Unlock()
		s.report(ctx, models.AuditDelete, id, err)
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	s.commit(change{id: id})
	s.notify(models.SuccessNotice(msgDeleteSuccess))
	s.mu.Unlock()
	s.report(ctx, models.AuditDelete, id, nil)
	return nil
}

func (s *Screen) SetSearch(search string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters.Search = search
}

func (s *Screen) SetRoleFilter(role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters.Role = neutral(role)
}

func (s *Screen) SetStatusFilter(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters.Status = neutral(status)
}

func (s *Screen) ClearFilters() {
	s.filterBar.Clear()
}

func neutral(v string) string {
	if v == "" {
		return FilterAll
	}
	return v
}

// SortBy sorts on column; sorting on the same column again flips the order.
func (s *Screen) SortBy(column string) error {
	if !ValidColumn(column) {
		return fmt.Errorf("%w: %q", ErrUnknownColumn, column)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sort.Column == column {
		s.sort.Descending = !s.sort.Descending
		return nil
	}
	s.sort = Sort{Column: column}
	return nil
}

type View struct {
	Users    []models.User `json:"users"`
	Total    int           `json:"total"`
	Loading  bool          `json:"loading"`
	Filters  Filters       `json:"filters"`
	Sort     Sort          `json:"sort"`
	Add      DialogView    `json:"add"`
	Edit     DialogView    `json:"edit"`
	Delete   DialogView    `json:"delete"`
	Selected *models.User  `json:"selected,omitempty"`
}

func (s *Screen) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		Users:   Displayed(s.users, s.filters, s.sort),
		Total:   len(s.users),
		Loading: !s.loaded,
		Filters: s.filters,
		Sort:    s.sort,
		Add:     s.add.view(),
		Edit:    s.edit.view(),
		Delete:  s.remove.view(),
	}
	if s.selected != nil {
		selected := *s.selected
		v.Selected = &selected
	}
	return v
}

// Users returns a copy of the canonical list in list order.
func (s *Screen) Users() []models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.users)
}

// TakeNotices drains the queued notices.
func (s *Screen) TakeNotices() []models.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	notices := s.notices
	s.notices = nil
	return notices
}

// commit applies a confirmed mutation and, while a list request is in
// flight, journals it so the list response does not undo it.
func (s *Screen) commit(c change) {
	s.apply(c)
	if s.latest[targetList] != s.listApplied {
		c.stamp = s.seq
		s.journal = append(s.journal, c)
	}
}

func (s *Screen) apply(c change) {
	i := s.indexOf(c.id)
	switch {
	case c.user == nil:
		if i >= 0 {
			s.users = slices.Delete(s.users, i, i+1)
		}
	case i >= 0:
		s.users[i] = *c.user
	case c.upsert:
		s.users = append(s.users, *c.user)
	}
}

// replay re-applies mutations committed after the list request token was
// issued and keeps only those a newer in-flight list still needs.
func (s *Screen) replay(token uint64) {
	newest := s.latest[targetList]
	kept := s.journal[:0]
	for _, c := range s.journal {
		if c.stamp >= token {
			s.apply(c)
		}
		if newest != token && c.stamp >= newest {
			kept = append(kept, c)
		}
	}
	s.journal = kept
}

func (s *Screen) notify(n models.Notice) {
	s.notices = append(s.notices, n)
}

func (s *Screen) find(id string) (models.User, error) {
	i := s.indexOf(id)
	if i < 0 {
		return models.User{}, fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	return s.users[i], nil
}

func (s *Screen) indexOf(id string) int {
	return slices.IndexFunc(s.users, func(u models.User) bool { return u.ID == id })
}

// closeOthers closes every open dialog except keep. It refuses while keep
// or any other dialog waits for the backend.
func (s *Screen) closeOthers(keep *dialog) error {
	dialogs := []*dialog{&s.add, &s.edit, &s.remove}
	for _, d := range dialogs {
		if d.state == DialogSubmitting {
			return ErrRequestPending
		}
	}
	for _, d := range dialogs {
		if d == keep || d.state == DialogClosed {
			continue
		}
		d.close()
		if d != &s.add {
			s.selected = nil
		}
	}
	return nil
}

func submittable(d *dialog) error {
	switch d.state {
	case DialogOpen:
		return nil
	case DialogSubmitting:
		return ErrRequestPending
	default:
		return ErrDialogClosed
	}
}

func (s *Screen) report(ctx context.Context, action models.AuditAction, target string, err error) {
	entry := models.AuditEntry{
		SessionID: s.sessionID,
		Action:    action,
		Target:    target,
		Outcome:   models.AuditSuccess,
	}
	if err != nil {
		entry.Outcome = models.AuditFailure
		entry.Detail = err.Error()
		s.log.Warn("user action failed", slog.String("action", string(action)), slog.String("target", target), slog.Any("error", err))
	} else {
		s.log.Debug("user action applied", slog.String("action", string(action)), slog.String("target", target))
	}
	s.record(ctx, entry)
}

func (s *Screen) discard(ctx context.Context, action models.AuditAction, target string, token uint64) {
	s.log.Info("discarding stale response",
		slog.String("action", string(action)),
		slog.String("target", target),
		slog.Uint64("token", token),
	)
	s.record(ctx, models.AuditEntry{
		SessionID: s.sessionID,
		Action:    action,
		Target:    target,
		Outcome:   models.AuditStale,
	})
}

func (s *Screen) record(ctx context.Context, entry models.AuditEntry) {
	if s.recorder != nil {
		s.recorder.ObserveAction(string(entry.Action), string(entry.Outcome))
	}
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Record(context.WithoutCancel(ctx), entry); err != nil {
		s.log.Error("failed to record audit entry", slog.Any("error", err))
	}
}
