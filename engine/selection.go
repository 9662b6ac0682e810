package engine

import "fmt"

// Selection is the viewer's quality choice as the controller tracks it.
// The zero value is automatic selection.
type Selection struct {
	index     int
	manual    bool
	confirmed bool
}

// Automatic is the selection that lets the engine pick levels adaptively.
func Automatic() Selection {
	return Selection{}
}

// PendingManual is a manual choice the engine has not yet confirmed.
func PendingManual(index int) Selection {
	return Selection{index: index, manual: true}
}

// Confirmed is a manual choice the engine reported as active.
func Confirmed(index int) Selection {
	return Selection{index: index, manual: true, confirmed: true}
}

func (s Selection) IsAutomatic() bool {
	return !s.manual
}

func (s Selection) IsPending() bool {
	return s.manual && !s.confirmed
}

// ActiveIndex is Auto for automatic selection and the chosen index otherwise.
func (s Selection) ActiveIndex() int {
	if !s.manual {
		return Auto
	}
	return s.index
}

func (s Selection) String() string {
	switch {
	case !s.manual:
		return "auto"
	case s.confirmed:
		return fmt.Sprintf("level %d", s.index)
	default:
		return fmt.Sprintf("level %d (pending)", s.index)
	}
}
