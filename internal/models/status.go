package models

// legalTransitions is the single source of truth for the quote state machine.
// draft and sent are the only non-terminal states.
var legalTransitions = map[QuoteStatus][]QuoteStatus{
	StatusDraft:    {StatusSent},
	StatusSent:     {StatusAccepted, StatusDeclined},
	StatusAccepted: {StatusPaid},
	StatusDeclined: {},
	StatusPaid:     {},
}

// ValidStatus reports whether s is one of the known quote statuses.
func ValidStatus(s QuoteStatus) bool {
	_, ok := legalTransitions[s]
	return ok
}

// CanTransition reports whether from -> to is a legal lifecycle transition.
func CanTransition(from, to QuoteStatus) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Editable reports whether quote content (fields and line items) may still be
// mutated. Content is locked the moment a quote leaves draft.
func (s QuoteStatus) Editable() bool { return s == StatusDraft }

// Terminal reports whether no further transition can leave s.
func (s QuoteStatus) Terminal() bool { return len(legalTransitions[s]) == 0 }
