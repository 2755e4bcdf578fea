// Command consult-client-go is a manual test client for the consultation
// signaling relay. It connects as a pet owner or a vet, prints every frame
// the relay sends, and (for vets) can auto-accept the first pet owner that
// appears in the waiting list.
//
// Pet owner:
//
//	RELAY_WS_URL=ws://127.0.0.1:8080/consult/ws ROLE=pet-owner USER_ID=owner1 \
//	  REASON="limping after walk" go run ./e2e/consult-client-go
//
// Vet:
//
//	RELAY_WS_URL=ws://127.0.0.1:8080/consult/ws ROLE=vet USER_ID=vet1 \
//	  AUTO_ACCEPT=1 go run ./e2e/consult-client-go
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/net/websocket"
)

func main() {
	wsURL := envOrDefault("RELAY_WS_URL", "ws://127.0.0.1:8080/consult/ws")
	role := envOrDefault("ROLE", "pet-owner")
	userID := envOrDefault("USER_ID", "owner1")
	autoAccept := os.Getenv("AUTO_ACCEPT") != ""

	conn, err := websocket.Dial(wsURL, "", "http://localhost/")
	if err != nil {
		fmt.Fprintf(os.Stderr, "dial %s: %v\n", wsURL, err)
		os.Exit(1)
	}
	defer conn.Close()

	register := map[string]any{
		"type":   "register",
		"userId": userID,
		"role":   role,
	}
	if role == "pet-owner" {
		register["petInfo"] = map[string]any{
			"name":    envOrDefault("PET_NAME", "Rex"),
			"species": envOrDefault("PET_SPECIES", "dog"),
		}
		if reason := os.Getenv("REASON"); reason != "" {
			register["reason"] = reason
		}
	}
	if err := websocket.JSON.Send(conn, register); err != nil {
		fmt.Fprintf(os.Stderr, "send register: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("registered as %s (%s)\n", userID, role)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		conn.Close()
	}()

	accepted := false
	for {
		var frame map[string]any
		if err := websocket.JSON.Receive(conn, &frame); err != nil {
			fmt.Fprintf(os.Stderr, "connection closed: %v\n", err)
			return
		}
		pretty, _ := json.MarshalIndent(frame, "", "  ")
		fmt.Printf("<- %s\n", pretty)

		if role != "vet" || !autoAccept || accepted {
			continue
		}
		if frame["type"] != "waiting_list_update" {
			continue
		}
		waiting, _ := frame["waitingPetOwners"].([]any)
		if len(waiting) == 0 {
			continue
		}
		first, _ := waiting[0].(map[string]any)
		ownerID, _ := first["id"].(string)
		if ownerID == "" {
			continue
		}
		accept := map[string]any{"type": "accept_consultation", "petOwnerId": ownerID}
		if err := websocket.JSON.Send(conn, accept); err != nil {
			fmt.Fprintf(os.Stderr, "send accept: %v\n", err)
			return
		}
		accepted = true
		fmt.Printf("-> accepted consultation with %s\n", ownerID)
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
