package clanbattledomain

import "errors"

var (
	ErrAlreadyAttacking   = errors.New("already attacking elsewhere, finish first")
	ErrNoActiveAttack     = errors.New("no active attack to complete")
	ErrUnknownBoss        = errors.New("boss is not set up for the current cycle")
	ErrStaleAction        = errors.New("action is stale")
	ErrUnregisteredMember = errors.New("member is not registered")
	ErrMalformedAction    = errors.New("malformed action")
	ErrInvalidDamage      = errors.New("damage must be a non-negative integer")
	ErrInvalidBossSetup   = errors.New("invalid boss setup")
	ErrTransport          = errors.New("messaging transport failure")
)

// ErrorKind groups errors by how the caller should react.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindStateConflict
	KindNotFound
	KindTransport
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindStateConflict:
		return "state_conflict"
	case KindNotFound:
		return "not_found"
	case KindTransport:
		return "transport"
	default:
		return "internal"
	}
}

// Classify maps an error onto its ErrorKind. Unknown errors are internal.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrMalformedAction), errors.Is(err, ErrInvalidDamage), errors.Is(err, ErrInvalidBossSetup):
		return KindValidation
	case errors.Is(err, ErrAlreadyAttacking), errors.Is(err, ErrStaleAction), errors.Is(err, ErrNoActiveAttack):
		return KindStateConflict
	case errors.Is(err, ErrUnknownBoss), errors.Is(err, ErrUnregisteredMember):
		return KindNotFound
	case errors.Is(err, ErrTransport):
		return KindTransport
	default:
		return KindInternal
	}
}

// UserMessage is the short notice shown to the member who triggered err.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrAlreadyAttacking):
		return "Already attacking elsewhere, finish first."
	case errors.Is(err, ErrNoActiveAttack):
		return "You have no active attack to complete."
	case errors.Is(err, ErrUnknownBoss):
		return "That boss is not set up for this cycle."
	case errors.Is(err, ErrStaleAction):
		return "That panel is out of date. Use the latest one."
	case errors.Is(err, ErrUnregisteredMember):
		return "You are not registered. Send !register first."
	case errors.Is(err, ErrMalformedAction):
		return "That action could not be understood."
	case errors.Is(err, ErrInvalidDamage):
		return "Damage must be a whole number."
	case errors.Is(err, ErrInvalidBossSetup):
		return "Usage: !boss <slot> <name> <hp>,<hp>,<hp>"
	case errors.Is(err, ErrTransport):
		return "The panel could not be posted. Try again shortly."
	default:
		return "Something went wrong."
	}
}
