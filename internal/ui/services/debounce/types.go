package debounce

// FiredMsg is delivered to the update loop when a gate's timer elapses
type FiredMsg struct {
	GateID string
	Seq    uint64
}

// State holds debounce state
type State struct {
	Seq     uint64 // bumped on every submit and cancel
	Pending bool
	Latest  string // last submitted query
}
