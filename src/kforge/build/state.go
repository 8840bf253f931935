package build

// State enumerates the build pipeline phases in execution order.
type State int

const (
	StateClean State = iota
	StateConfigure
	StateWarnPolicy
	StatePlatformQuirk
	StateCompile
	StateDone
)

func (s State) String() string {
	switch s {
	case StateClean:
		return "clean"
	case StateConfigure:
		return "configure"
	case StateWarnPolicy:
		return "warn-policy"
	case StatePlatformQuirk:
		return "platform-quirk"
	case StateCompile:
		return "compile"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}
