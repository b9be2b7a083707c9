package clanbattledomain

import (
	"fmt"
	"strconv"
	"strings"
)

// Action is the verb carried by a panel button.
type Action string

const (
	ActionAttack    Action = "atk"
	ActionCarryOver Action = "over"
	ActionComplete  Action = "comp"
	ActionKill      Action = "beat"
)

func (a Action) valid() bool {
	switch a {
	case ActionAttack, ActionCarryOver, ActionComplete, ActionKill:
		return true
	}
	return false
}

// ActionToken is the parsed form of "action/cycle/slot/lap".
type ActionToken struct {
	Action   Action
	CycleKey string
	Slot     int
	Lap      int
}

// ParseActionToken rejects anything that is not exactly four well-formed fields.
func ParseActionToken(s string) (ActionToken, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 4 {
		return ActionToken{}, fmt.Errorf("%w: %q", ErrMalformedAction, s)
	}
	action := Action(parts[0])
	if !action.valid() {
		return ActionToken{}, fmt.Errorf("%w: unknown action %q", ErrMalformedAction, parts[0])
	}
	if len(parts[1]) != 6 {
		return ActionToken{}, fmt.Errorf("%w: cycle %q", ErrMalformedAction, parts[1])
	}
	if _, err := strconv.Atoi(parts[1]); err != nil {
		return ActionToken{}, fmt.Errorf("%w: cycle %q", ErrMalformedAction, parts[1])
	}
	slot, err := strconv.Atoi(parts[2])
	if err != nil || slot < 1 {
		return ActionToken{}, fmt.Errorf("%w: slot %q", ErrMalformedAction, parts[2])
	}
	lap, err := strconv.Atoi(parts[3])
	if err != nil || lap < 1 {
		return ActionToken{}, fmt.Errorf("%w: lap %q", ErrMalformedAction, parts[3])
	}
	return ActionToken{Action: action, CycleKey: parts[1], Slot: slot, Lap: lap}, nil
}

func (t ActionToken) String() string {
	return fmt.Sprintf("%s/%s/%d/%d", t.Action, t.CycleKey, t.Slot, t.Lap)
}
