package entity

// State is the lifecycle position of an Entity.
//
//	Empty   --SetProperty-->    Created --Insert--> Filled
//	Empty   --Load-->           Filled
//	Filled  --UpdateProperty--> Updated --Update--> Filled
//	Filled  --Delete-->         Deleted
type State int

const (
	Empty   State = iota // nothing loaded or supplied
	Created              // values supplied, not persisted
	Filled               // mirrors a stored row
	Updated              // pending diff recorded
	Deleted              // row removed; terminal
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Created:
		return "created"
	case Filled:
		return "filled"
	case Updated:
		return "updated"
	case Deleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// persisted reports whether the entity mirrors (or mirrored) a stored row.
func (s State) persisted() bool {
	return s == Filled || s == Updated || s == Deleted
}
