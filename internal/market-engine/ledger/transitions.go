package ledger

// transições legais; estados terminais não têm saída
var transitions = map[Status][]Status{
	StatusActive: {StatusLocked, StatusCancelled},
	StatusLocked: {StatusResolved, StatusCancelled},
}

// CanTransition informa se from -> to é permitido pela máquina de estados.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
