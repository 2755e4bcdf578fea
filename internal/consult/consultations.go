package consult

import "time"

// Consultation records one matched vet/pet-owner pair, keyed by the channel
// name minted at accept time.
type Consultation struct {
	Channel    string
	VetID      string
	PetOwnerID string
	StartedAt  time.Time
}

type Consultations struct {
	byChannel map[string]*Consultation

	now func() time.Time
}

func NewConsultations() *Consultations {
	return &Consultations{
		byChannel: make(map[string]*Consultation),
		now:       time.Now,
	}
}

func (c *Consultations) Begin(channel, vetID, petOwnerID string) *Consultation {
	consultation := &Consultation{
		Channel:    channel,
		VetID:      vetID,
		PetOwnerID: petOwnerID,
		StartedAt:  c.now(),
	}
	c.byChannel[channel] = consultation
	return consultation
}

func (c *Consultations) Get(channel string) *Consultation {
	return c.byChannel[channel]
}

// End deletes and returns the consultation for a channel (nil if absent).
// The first participant to close wins; the second close finds nothing.
func (c *Consultations) End(channel string) *Consultation {
	consultation := c.byChannel[channel]
	delete(c.byChannel, channel)
	return consultation
}

func (c *Consultations) Len() int {
	return len(c.byChannel)
}
