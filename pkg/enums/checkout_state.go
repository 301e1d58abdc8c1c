package enums

import "fmt"

// CheckoutState is the position of a session's checkout flow.
type CheckoutState string

const (
	CheckoutStateReviewing       CheckoutState = "reviewing"
	CheckoutStateAwaitingContact CheckoutState = "awaiting_contact"
	CheckoutStateSubmitting      CheckoutState = "submitting"
	CheckoutStateSucceeded       CheckoutState = "succeeded"
	CheckoutStateFailed          CheckoutState = "failed"
)

var validCheckoutStates = []CheckoutState{
	CheckoutStateReviewing,
	CheckoutStateAwaitingContact,
	CheckoutStateSubmitting,
	CheckoutStateSucceeded,
	CheckoutStateFailed,
}

// String implements fmt.Stringer.
func (s CheckoutState) String() string {
	return string(s)
}

// IsValid reports whether the value is a known CheckoutState.
func (s CheckoutState) IsValid() bool {
	for _, candidate := range validCheckoutStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible within the same flow.
func (s CheckoutState) IsTerminal() bool {
	return s == CheckoutStateSucceeded
}

// AcceptsSubmit reports whether a contact submission may start from this state.
func (s CheckoutState) AcceptsSubmit() bool {
	return s == CheckoutStateAwaitingContact || s == CheckoutStateFailed
}

// ParseCheckoutState converts raw input into a CheckoutState.
func ParseCheckoutState(value string) (CheckoutState, error) {
	for _, candidate := range validCheckoutStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout state %q", value)
}
