package listmanager

type Direction string

const (
	DirectionNone Direction = ""
	DirectionAsc  Direction = "asc"
	DirectionDesc Direction = "desc"
)

func ParseDirection(v string) Direction {
	switch Direction(v) {
	case DirectionAsc, DirectionDesc:
		return Direction(v)
	default:
		return DirectionNone
	}
}

// SortState is the active sort column. An empty Key or DirectionNone keeps
// the natural order.
type SortState struct {
	Key       string    `json:"key"`
	Direction Direction `json:"direction"`
}

func (s SortState) Active() bool {
	return s.Key != "" && s.Direction != DirectionNone
}

// Toggle advances the sort for key: a new key starts ascending, the same
// key cycles asc -> desc -> unsorted -> asc.
func (s SortState) Toggle(key string) SortState {
	if key != s.Key || s.Direction == DirectionNone {
		return SortState{Key: key, Direction: DirectionAsc}
	}
	if s.Direction == DirectionAsc {
		return SortState{Key: key, Direction: DirectionDesc}
	}
	return SortState{}
}
