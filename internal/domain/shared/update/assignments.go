package update

// Bindable is implemented by every Field
type Bindable interface {
	ShouldUpdate() bool
	bindAny() any
}

// Assignments collects column assignments for a partial UPDATE. Values are
// nil for cleared columns.
type Assignments map[string]any

// Put adds column when f should update and returns a
func (a Assignments) Put(column string, f Bindable) Assignments {
	if f.ShouldUpdate() {
		a[column] = f.bindAny()
	}
	return a
}

// PutPtr adds column when p is non-nil. It serves plain optional fields that
// cannot be cleared.
func PutPtr[T any](a Assignments, column string, p *T) Assignments {
	if p != nil {
		a[column] = *p
	}
	return a
}

// Empty reports whether there is nothing to update
func (a Assignments) Empty() bool {
	return len(a) == 0
}
