package entity

// transitions maps a target status to the statuses it may be entered from.
//
// Marking a vehicle ready straight from "parked" is allowed on purpose: staff
// sometimes pull a car without a prior checkout request.
var transitions = map[Status][]Status{
	StatusRequested: {StatusParked},
	StatusReady:     {StatusParked, StatusRequested},
	StatusDelivered: {StatusRequested, StatusReady},
}

// CanTransition reports whether a ticket in status from may move to status to.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[to] {
		if allowed == from {
			return true
		}
	}
	return false
}
