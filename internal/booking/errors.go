package booking

import "errors"

var (
	ErrInvalidSlot              = errors.New("invalid slot")
	ErrInvalidPattern           = errors.New("invalid recurrence pattern")
	ErrInvalidRequest           = errors.New("invalid request")
	ErrRecurrenceTooLarge       = errors.New("recurrence exceeds occurrence limit")
	ErrSlotConflict             = errors.New("slot conflicts with an existing reservation")
	ErrAllOccurrencesConflicted = errors.New("all occurrences conflicted")
	ErrDuplicateEntry           = errors.New("already on waitlist for this slot")
	ErrWaitlistFull             = errors.New("waitlist is full for this slot")
	ErrNotWaiting               = errors.New("waitlist entry is not waiting")
	ErrOfferExpired             = errors.New("waitlist offer is not active")
	ErrInvalidTransition        = errors.New("invalid reservation status transition")
	ErrNotFound                 = errors.New("not found")
)
