package consult

// Role of a registered connection. The relay trusts the client-supplied role;
// verifying identity is the CRUD backend's concern, not the relay's.
type Role string

const (
	RolePetOwner Role = "pet-owner"
	RoleVet      Role = "vet"
)

// Entry is the registry's view of one registered connection. Channel is
// empty until the connection joins a channel or is matched into a
// consultation.
type Entry struct {
	UserID  string
	Role    Role
	Channel string
}

// Registry maps connection ids to their registered identity. Entries exist
// only between a register message and the socket close; sockets that never
// register never appear here.
type Registry struct {
	entries map[string]*Entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Entry)}
}

// Register stores role and identity for a connection, overwriting any prior
// entry for the same connection id. The channel starts empty.
func (r *Registry) Register(connID, userID string, role Role) {
	r.entries[connID] = &Entry{UserID: userID, Role: role}
}

// SetChannel updates the channel of a registered connection, preserving role
// and identity. Unknown connections are a silent no-op.
func (r *Registry) SetChannel(connID, channel string) {
	if e, ok := r.entries[connID]; ok {
		e.Channel = channel
	}
}

// Lookup returns the entry for a connection id, or nil.
func (r *Registry) Lookup(connID string) *Entry {
	return r.entries[connID]
}

// Remove deletes and returns the entry for a connection id (nil if absent)
// so callers can clean up keyed on its role and channel.
func (r *Registry) Remove(connID string) *Entry {
	e := r.entries[connID]
	delete(r.entries, connID)
	return e
}

// ConnIDsOnChannel returns the ids of every registered connection currently
// on the given channel, excluding one connection (typically the sender).
// A consultation channel holds at most two participants, so the scan is
// bounded in practice by the legacy join path.
func (r *Registry) ConnIDsOnChannel(channel, exceptConnID string) []string {
	if channel == "" {
		return nil
	}
	var out []string
	for id, e := range r.entries {
		if id != exceptConnID && e.Channel == channel {
			out = append(out, id)
		}
	}
	return out
}

func (r *Registry) Len() int {
	return len(r.entries)
}
