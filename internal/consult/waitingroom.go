package consult

import (
	"encoding/json"
	"time"
)

// DefaultReason is reported for pet owners that register without a reason.
const DefaultReason = "No reason provided"

// WaitingPetOwner is one queue slot. ConnID is a weak back-reference used
// only to address the owning socket; the connection lifecycle owns the
// socket itself.
type WaitingPetOwner struct {
	ID           string
	ConnID       string
	WaitingSince time.Time
	PetInfo      json.RawMessage
	Reason       string
}

type WaitingVet struct {
	ID     string
	ConnID string
}

// WaitingListEntry is the wire shape of one pet owner in a
// waiting_list_update payload.
type WaitingListEntry struct {
	ID           string          `json:"id"`
	WaitingSince time.Time       `json:"waitingSince"`
	PetInfo      json.RawMessage `json:"petInfo,omitempty"`
	Reason       string          `json:"reason"`
}

// WaitingRoom holds the FIFO queue of pet owners awaiting a match and the
// list of vets available to accept one. Insertion is append-only and removal
// preserves relative order, so queue position is stable.
type WaitingRoom struct {
	petOwners []*WaitingPetOwner
	vets      []*WaitingVet

	now func() time.Time
}

func NewWaitingRoom() *WaitingRoom {
	return &WaitingRoom{now: time.Now}
}

// EnqueuePetOwner appends to the queue and returns the 1-based position at
// the moment of insertion. The position is a point-in-time estimate; it is
// not recomputed when earlier entries are matched. There is deliberately no
// dedup check: a duplicate register produces a duplicate entry.
func (w *WaitingRoom) EnqueuePetOwner(id string, petInfo json.RawMessage, reason, connID string) int {
	if reason == "" {
		reason = DefaultReason
	}
	w.petOwners = append(w.petOwners, &WaitingPetOwner{
		ID:           id,
		ConnID:       connID,
		WaitingSince: w.now(),
		PetInfo:      petInfo,
		Reason:       reason,
	})
	return len(w.petOwners)
}

func (w *WaitingRoom) EnqueueVet(id, connID string) {
	w.vets = append(w.vets, &WaitingVet{ID: id, ConnID: connID})
}

// DequeuePetOwner removes and returns the first entry matching id, or nil.
// Later duplicates stay queued.
func (w *WaitingRoom) DequeuePetOwner(id string) *WaitingPetOwner {
	for i, p := range w.petOwners {
		if p.ID == id {
			w.petOwners = append(w.petOwners[:i], w.petOwners[i+1:]...)
			return p
		}
	}
	return nil
}

// RemoveVet removes every vet entry matching id (disconnect cleanup).
func (w *WaitingRoom) RemoveVet(id string) {
	kept := w.vets[:0]
	for _, v := range w.vets {
		if v.ID != id {
			kept = append(kept, v)
		}
	}
	w.vets = kept
}

// SnapshotPetOwners returns the queue in order as wire entries. Read-only.
func (w *WaitingRoom) SnapshotPetOwners() []WaitingListEntry {
	out := make([]WaitingListEntry, len(w.petOwners))
	for i, p := range w.petOwners {
		out[i] = WaitingListEntry{
			ID:           p.ID,
			WaitingSince: p.WaitingSince,
			PetInfo:      p.PetInfo,
			Reason:       p.Reason,
		}
	}
	return out
}

// VetConnIDs returns the connection ids of all waiting vets in list order,
// for broadcasts.
func (w *WaitingRoom) VetConnIDs() []string {
	out := make([]string, len(w.vets))
	for i, v := range w.vets {
		out[i] = v.ConnID
	}
	return out
}

func (w *WaitingRoom) PetOwnerCount() int { return len(w.petOwners) }

func (w *WaitingRoom) VetCount() int { return len(w.vets) }
