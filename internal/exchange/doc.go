// Package exchange correlates command frames with their responses.
//
// Host is the controlling side. It numbers commands and keeps each one
// pending until a frame with the same sequence arrives or its deadline
// passes. Device is the dive computer side: it answers every trustworthy
// command frame with a frame carrying the same sequence.
//
// Neither side does I/O. Callers move the returned frames over whatever link
// they have.
package exchange
