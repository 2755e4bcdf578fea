package signaling

import (
	"encoding/json"
	"fmt"

	"github.com/vetlink/consult-signaling-relay/internal/consult"
)

type MessageType string

// Client -> relay.
const (
	TypeRegister           MessageType = "register"
	TypeAcceptConsultation MessageType = "accept_consultation"
	TypeJoin               MessageType = "join"
	TypeSendOffer          MessageType = "send_offer"
	TypeSendAnswer         MessageType = "send_answer"
	TypeICECandidate       MessageType = "ice_candidate"
)

// Relay -> client.
const (
	TypeWaitingRoomJoined    MessageType = "waiting_room_joined"
	TypeWaitingListUpdate    MessageType = "waiting_list_update"
	TypeConsultationStarting MessageType = "consultation_starting"
	TypePeerDisconnected     MessageType = "peer_disconnected"
)

// inboundMessage is the union of all client->relay envelope fields. Handlers
// validate only the fields they need; unknown fields are ignored so the
// frontend can evolve without lockstep deploys. SDP and ICE payloads are
// never decoded here: relayed frames are forwarded from the raw inbound
// bytes, untouched.
type inboundMessage struct {
	Type MessageType `json:"type"`

	// register
	UserID  string          `json:"userId,omitempty"`
	Role    string          `json:"role,omitempty"`
	PetInfo json.RawMessage `json:"petInfo,omitempty"`
	Reason  string          `json:"reason,omitempty"`

	// accept_consultation
	PetOwnerID string `json:"petOwnerId,omitempty"`

	// join, send_offer, send_answer, ice_candidate
	ChannelName string `json:"channelName,omitempty"`
}

func parseInbound(data []byte) (inboundMessage, error) {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return inboundMessage{}, err
	}
	if msg.Type == "" {
		return inboundMessage{}, fmt.Errorf("message missing type")
	}
	return msg, nil
}

// isRelayType reports whether a message is forwarded verbatim to the other
// participants of its channel.
func isRelayType(t MessageType) bool {
	switch t {
	case TypeSendOffer, TypeSendAnswer, TypeICECandidate:
		return true
	default:
		return false
	}
}

type waitingRoomJoined struct {
	Type                 MessageType `json:"type"`
	Position             int         `json:"position"`
	EstimatedWaitMinutes int         `json:"estimatedWaitMinutes"`
}

type waitingListUpdate struct {
	Type             MessageType                `json:"type"`
	WaitingPetOwners []consult.WaitingListEntry `json:"waitingPetOwners"`
}

// consultationStarting is sent to both sides of a fresh match; each side
// receives the other participant's id.
type consultationStarting struct {
	Type        MessageType `json:"type"`
	ChannelName string      `json:"channelName"`
	VetID       string      `json:"vetId,omitempty"`
	PetOwnerID  string      `json:"petOwnerId,omitempty"`
}

type peerDisconnected struct {
	Type        MessageType `json:"type"`
	ChannelName string      `json:"channelName"`
	UserID      string      `json:"userId"`
}
