// Package consult holds the relay's mutable domain state: the connection
// registry, the waiting room, and the active-consultation table.
//
// None of the types here are safe for concurrent use. The signaling router
// owns a State and serializes every mutation under its handler lock; tests
// construct a fresh State per case.
package consult
