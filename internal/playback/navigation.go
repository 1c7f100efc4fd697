package playback

type Zone int

const (
	ZoneLeft Zone = iota
	ZoneCenter
	ZoneRight
)

type Action string

const (
	ActionRetreat     Action = "retreat"
	ActionAdvance     Action = "advance"
	ActionTogglePause Action = "toggle_pause"
)

var tapActions = map[Zone]Action{
	ZoneLeft:   ActionRetreat,
	ZoneCenter: ActionTogglePause,
	ZoneRight:  ActionAdvance,
}

// ZoneFor maps a tap at x on a view of the given width to its third.
func ZoneFor(x, width float64) Zone {
	if width <= 0 {
		return ZoneCenter
	}
	third := width / 3
	switch {
	case x < third:
		return ZoneLeft
	case x >= width-third:
		return ZoneRight
	default:
		return ZoneCenter
	}
}

func ActionFor(x, width float64) Action {
	return tapActions[ZoneFor(x, width)]
}

// Tap dispatches a tap to the player and reports which action it triggered.
func (p *Player) Tap(x, width float64) (Action, error) {
	action := ActionFor(x, width)
	switch action {
	case ActionRetreat:
		return action, p.Retreat()
	case ActionAdvance:
		return action, p.Advance()
	default:
		return action, p.TogglePause()
	}
}
