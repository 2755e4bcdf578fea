package consult

// State bundles the relay's collections into one explicitly owned object.
// The signaling router owns exactly one State and every mutation happens
// under the router's handler lock; nothing here is a package-level global.
type State struct {
	Registry      *Registry
	WaitingRoom   *WaitingRoom
	Consultations *Consultations
}

func NewState() *State {
	return &State{
		Registry:      NewRegistry(),
		WaitingRoom:   NewWaitingRoom(),
		Consultations: NewConsultations(),
	}
}

// Counts is the read-only health-probe view of the relay.
type Counts struct {
	WaitingPetOwners    int `json:"waitingPetOwners"`
	AvailableVets       int `json:"availableVets"`
	ActiveConsultations int `json:"activeConsultations"`
}

func (s *State) Counts() Counts {
	return Counts{
		WaitingPetOwners:    s.WaitingRoom.PetOwnerCount(),
		AvailableVets:       s.WaitingRoom.VetCount(),
		ActiveConsultations: s.Consultations.Len(),
	}
}
