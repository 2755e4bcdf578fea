// Package signaling contains the relay's WebSocket surface: the waiting
// room and matchmaking router plus the WebRTC offer/answer/ICE-candidate
// relay between consultation peers.
//
// The relay carries signaling metadata only; audio and video flow
// peer-to-peer once the consultation is negotiated.
package signaling
