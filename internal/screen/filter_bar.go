package screen

// FilterBar raises search, role and status events. Nil callbacks are
// ignored.
type FilterBar struct {
	onSearch       func(string)
	onFilterRole   func(string)
	onFilterStatus func(string)
}

func NewFilterBar(onSearch, onFilterRole, onFilterStatus func(string)) *FilterBar {
	noop := func(string) {}
	if onSearch == nil {
		onSearch = noop
	}
	if onFilterRole == nil {
		onFilterRole = noop
	}
	if onFilterStatus == nil {
		onFilterStatus = noop
	}
	return &FilterBar{
		onSearch:       onSearch,
		onFilterRole:   onFilterRole,
		onFilterStatus: onFilterStatus,
	}
}

func (b *FilterBar) Search(value string) {
	b.onSearch(value)
}

func (b *FilterBar) FilterRole(role string) {
	b.onFilterRole(role)
}

func (b *FilterBar) FilterStatus(status string) {
	b.onFilterStatus(status)
}

// Clear resets all three filters to their neutral values, raising each
// event once.
func (b *FilterBar) Clear() {
	b.onFilterRole(FilterAll)
	b.onFilterStatus(FilterAll)
	b.onSearch("")
}

// Apply raises the events for a submitted filter form.
func (b *FilterBar) Apply(f Filters) {
	b.onSearch(f.Search)
	b.onFilterRole(f.Role)
	b.onFilterStatus(f.Status)
}
