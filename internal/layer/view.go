package layer

import (
	"errors"
	"fmt"
	"sync"
)

// ErrInvalidSelectionState means neither or both selection toggles are on.
var ErrInvalidSelectionState = errors.New("invalid selection state: exactly one selection mode must be active")

// Mode is the active grouping.
type Mode string

const (
	ModeSize Mode = "size"
	ModeID   Mode = "id"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeSize, ModeID:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown selection mode %q", s)
}

// field is the attribute that marks layers of this grouping.
func (m Mode) field() Field {
	if m == ModeID {
		return FieldComponentID
	}
	return FieldSize
}

func (m Mode) other() Mode {
	if m == ModeID {
		return ModeSize
	}
	return ModeID
}

// Selection is the state of the two mutually exclusive mode toggles.
type Selection struct {
	BySize bool
	ByID   bool
}

// Mode returns the single active mode.
func (s Selection) Mode() (Mode, error) {
	switch {
	case s.BySize && !s.ByID:
		return ModeSize, nil
	case s.ByID && !s.BySize:
		return ModeID, nil
	}
	return "", ErrInvalidSelectionState
}

// View decides which layers are shown: the active grouping, narrowed by the
// line and panel filters, minus layers the user switched off.
type View struct {
	mu       sync.Mutex
	mode     Mode
	line     string
	panel    string
	disabled map[string]bool
}

// NewView returns a view in size mode with no filters.
func NewView() *View {
	return &View{mode: ModeSize, disabled: make(map[string]bool)}
}

// Apply sets the mode from a toggle pair.
func (v *View) Apply(sel Selection) error {
	m, err := sel.Mode()
	if err != nil {
		return err
	}
	v.SetMode(m)
	return nil
}

// SetMode selects the active grouping.
func (v *View) SetMode(m Mode) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mode = m
}

// Mode returns the active grouping.
func (v *View) Mode() Mode {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mode
}

// SetFilter restricts the view to one line and one panel. Empty means all.
func (v *View) SetFilter(line, panel string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.line, v.panel = line, panel
}

// Filter returns the current line and panel filters.
func (v *View) Filter() (line, panel string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.line, v.panel
}

// SetEnabled switches a single layer on or off.
func (v *View) SetEnabled(name string, enabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if enabled {
		delete(v.disabled, name)
	} else {
		v.disabled[name] = true
	}
}

// ResetEnabled switches every layer back on.
func (v *View) ResetEnabled() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.disabled = make(map[string]bool)
}

// Conditions returns the query selecting layers of the active grouping that
// pass the filters.
func (v *View) Conditions() Conditions {
	v.mu.Lock()
	defer v.mu.Unlock()
	c := Conditions{}
	if v.line != "" {
		c[FieldLineID] = v.line
	}
	if v.panel != "" {
		c[FieldPanelID] = v.panel
	}
	return c
}

// Refresh closes the inactive grouping and shows exactly the enabled layers
// of the active grouping that pass the filters.
func (v *View) Refresh(x *Index) error {
	mode := v.Mode()
	x.Close(mode.other().field())

	shown := make(map[string]bool)
	for _, name := range x.Query(v.Conditions()) {
		shown[name] = true
	}

	v.mu.Lock()
	disabled := make(map[string]bool, len(v.disabled))
	for k := range v.disabled {
		disabled[k] = true
	}
	v.mu.Unlock()

	for _, in := range x.Layers(false) {
		if _, ok := in.Attributes.Get(mode.field()); !ok {
			continue
		}
		if err := x.SetVisible(in.Name, shown[in.Name] && !disabled[in.Name]); err != nil {
			return err
		}
	}
	return nil
}
