package signaling

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/vetlink/consult-signaling-relay/internal/consult"
	"github.com/vetlink/consult-signaling-relay/internal/metrics"
)

// Router interprets inbound messages, mutates the consult state, and fans
// messages out to the right recipients.
//
// Every handler body (message and close alike) runs to completion under mu,
// which is what makes the registry/waiting-room/consultation mutations
// atomic with respect to each other: two vets accepting the same pet owner
// are processed back-to-back, and the second accept finds the queue entry
// already gone. Handlers must therefore never block; sends go through the
// per-client buffered queue and are fire-and-forget.
type Router struct {
	log                      *slog.Logger
	metrics                  *metrics.Metrics
	estimatedWaitPerPosition int // minutes per queue position ahead

	mu      sync.Mutex
	state   *consult.State
	clients map[string]*client

	newChannelName func() string
}

func NewRouter(logger *slog.Logger, m *metrics.Metrics, estimatedWaitPerPosition int) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.New()
	}
	return &Router{
		log:                      logger,
		metrics:                  m,
		estimatedWaitPerPosition: estimatedWaitPerPosition,
		state:                    consult.NewState(),
		clients:                  make(map[string]*client),
		newChannelName:           func() string { return "consult-" + uuid.NewString() },
	}
}

// Counts reports the health-probe view of the relay.
func (r *Router) Counts() consult.Counts {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Counts()
}

// HandleOpen tracks a fresh socket. The connection stays unregistered (and
// invisible to matchmaking) until its register message arrives.
func (r *Router) HandleOpen(c *client) {
	r.mu.Lock()
	r.clients[c.id] = c
	r.mu.Unlock()
	r.log.Debug("connection opened", "conn_id", c.id)
}

// HandleMessage dispatches one inbound frame. Malformed frames are logged
// and dropped; the connection stays alive.
func (r *Router) HandleMessage(c *client, raw []byte) {
	r.metrics.Inc(metrics.EventMessagesReceived)

	msg, err := parseInbound(raw)
	if err != nil {
		r.metrics.Inc(metrics.EventMessagesMalformed)
		r.log.Warn("dropping malformed message", "conn_id", c.id, "err", err)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case msg.Type == TypeRegister:
		r.handleRegisterLocked(c, msg)
	case msg.Type == TypeAcceptConsultation:
		r.handleAcceptLocked(c, msg)
	case msg.Type == TypeJoin:
		r.handleJoinLocked(c, msg)
	case isRelayType(msg.Type):
		r.handleRelayLocked(c, raw, msg)
	default:
		r.log.Warn("dropping message with unknown type", "conn_id", c.id, "type", msg.Type)
	}
}

// HandleClose removes the connection from every collection that can
// reference it and notifies its consultation peer, if any. Safe to call
// more than once per client.
func (r *Router) HandleClose(c *client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[c.id]; !ok {
		return
	}
	delete(r.clients, c.id)
	close(c.send)

	entry := r.state.Registry.Remove(c.id)
	if entry == nil {
		r.log.Debug("unregistered connection closed", "conn_id", c.id)
		return
	}
	r.log.Info("connection closed", "conn_id", c.id, "user_id", entry.UserID, "role", entry.Role)

	switch entry.Role {
	case consult.RolePetOwner:
		if r.state.WaitingRoom.DequeuePetOwner(entry.UserID) != nil {
			r.broadcastWaitingListLocked()
		}
	case consult.RoleVet:
		r.state.WaitingRoom.RemoveVet(entry.UserID)
	}

	if entry.Channel == "" {
		return
	}
	payload := r.encode(peerDisconnected{
		Type:        TypePeerDisconnected,
		ChannelName: entry.Channel,
		UserID:      entry.UserID,
	})
	for _, peerID := range r.state.Registry.ConnIDsOnChannel(entry.Channel, c.id) {
		if peer := r.clients[peerID]; peer != nil {
			r.sendLocked(peer, payload)
		}
	}
	if r.state.Consultations.End(entry.Channel) != nil {
		r.metrics.Inc(metrics.EventConsultationsEnded)
	}
}

func (r *Router) handleRegisterLocked(c *client, msg inboundMessage) {
	role := consult.Role(msg.Role)
	r.state.Registry.Register(c.id, msg.UserID, role)

	switch role {
	case consult.RolePetOwner:
		position := r.state.WaitingRoom.EnqueuePetOwner(msg.UserID, msg.PetInfo, msg.Reason, c.id)
		r.log.Info("pet owner joined waiting room", "conn_id", c.id, "user_id", msg.UserID, "position", position)
		r.sendLocked(c, r.encode(waitingRoomJoined{
			Type:                 TypeWaitingRoomJoined,
			Position:             position,
			EstimatedWaitMinutes: position * r.estimatedWaitPerPosition,
		}))
		r.broadcastWaitingListLocked()
	case consult.RoleVet:
		r.state.WaitingRoom.EnqueueVet(msg.UserID, c.id)
		r.log.Info("vet available", "conn_id", c.id, "user_id", msg.UserID)
		r.sendLocked(c, r.waitingListPayloadLocked())
	default:
		r.log.Warn("register with unknown role", "conn_id", c.id, "user_id", msg.UserID, "role", msg.Role)
	}
}

func (r *Router) handleAcceptLocked(c *client, msg inboundMessage) {
	entry := r.state.Registry.Lookup(c.id)
	if entry == nil || entry.Role != consult.RoleVet {
		r.log.Warn("ignoring accept_consultation from non-vet connection", "conn_id", c.id)
		return
	}

	waiting := r.state.WaitingRoom.DequeuePetOwner(msg.PetOwnerID)
	if waiting == nil {
		// Either the pet owner left or another vet's accept was processed
		// first. Both are normal; the loser simply no-ops.
		r.metrics.Inc(metrics.EventAcceptMissedQueue)
		r.log.Info("accept_consultation for pet owner no longer waiting",
			"conn_id", c.id, "vet_id", entry.UserID, "pet_owner_id", msg.PetOwnerID)
		return
	}

	channel := r.newChannelName()
	r.state.Registry.SetChannel(c.id, channel)
	r.state.Registry.SetChannel(waiting.ConnID, channel)
	r.state.Consultations.Begin(channel, entry.UserID, waiting.ID)
	r.metrics.Inc(metrics.EventConsultationsStarted)
	r.log.Info("consultation starting",
		"channel", channel, "vet_id", entry.UserID, "pet_owner_id", waiting.ID)

	if owner := r.clients[waiting.ConnID]; owner != nil {
		r.sendLocked(owner, r.encode(consultationStarting{
			Type:        TypeConsultationStarting,
			ChannelName: channel,
			VetID:       entry.UserID,
		}))
	}
	r.sendLocked(c, r.encode(consultationStarting{
		Type:        TypeConsultationStarting,
		ChannelName: channel,
		PetOwnerID:  waiting.ID,
	}))
	r.broadcastWaitingListLocked()
}

// handleJoinLocked is the legacy direct-join path: it sets the channel with
// no queue interaction and no response. Unregistered senders no-op.
func (r *Router) handleJoinLocked(c *client, msg inboundMessage) {
	r.state.Registry.SetChannel(c.id, msg.ChannelName)
	r.log.Info("connection joined channel directly", "conn_id", c.id, "channel", msg.ChannelName)
}

// handleRelayLocked forwards the raw frame, unmodified, to every other
// connection on the message's channel. Zero recipients (late message after
// the partner left) is a silent no-op.
func (r *Router) handleRelayLocked(c *client, raw []byte, msg inboundMessage) {
	targets := r.state.Registry.ConnIDsOnChannel(msg.ChannelName, c.id)
	if len(targets) == 0 {
		r.metrics.Inc(metrics.EventRelayNoRecipients)
		return
	}
	for _, peerID := range targets {
		if peer := r.clients[peerID]; peer != nil {
			r.sendLocked(peer, raw)
		}
	}
	r.metrics.Inc(metrics.EventMessagesRelayed)
}

func (r *Router) broadcastWaitingListLocked() {
	payload := r.waitingListPayloadLocked()
	for _, connID := range r.state.WaitingRoom.VetConnIDs() {
		if vet := r.clients[connID]; vet != nil {
			r.sendLocked(vet, payload)
		}
	}
}

func (r *Router) waitingListPayloadLocked() []byte {
	return r.encode(waitingListUpdate{
		Type:             TypeWaitingListUpdate,
		WaitingPetOwners: r.state.WaitingRoom.SnapshotPetOwners(),
	})
}

// sendLocked enqueues a frame for the client's writer without ever blocking
// the router. A full queue means a stalled reader; the frame is dropped and
// counted rather than holding up every other connection.
func (r *Router) sendLocked(c *client, payload []byte) {
	if payload == nil {
		return
	}
	select {
	case c.send <- payload:
	default:
		r.metrics.Inc(metrics.EventSendQueueFull)
		r.log.Warn("send queue full, dropping frame", "conn_id", c.id)
	}
}

func (r *Router) encode(v any) []byte {
	payload, err := json.Marshal(v)
	if err != nil {
		r.log.Error("failed to encode outbound message", "err", err)
		return nil
	}
	return payload
}
