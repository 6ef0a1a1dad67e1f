// Package protocol implements the sync-byte/sequence/CRC16 framed message
// protocol the diagnostic link runs over: a small, resynchronizing
// transport that survives UART noise and host disconnects without losing
// framing.
package protocol

// Version identifies this firmware's diagnostic protocol revision.
const Version = "0.0.1-alpha"

// Protocol constants
const (
	MessageMax = 512 // Scratch output buffer size, sized for several queued frames

	// MessageSeqMask isolates the rolling sequence number from the fixed
	// 0x10 direction bits shared by both a command frame and its ACK.
	MessageSeqMask = 0x0F
)
