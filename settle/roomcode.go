package settle

import (
	"crypto/rand"
)

// roomCodeAlphabet excludes visually ambiguous characters (0/O, 1/I/l).
// 32 characters, so reducing a random byte mod 32 introduces no bias.
const roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// RoomCodeLength is the fixed length of generated room codes
const RoomCodeLength = 6

// GenerateRoomCode returns a random room code. Collision handling is the
// caller's job; with 32^6 possible codes retries are rare.
func GenerateRoomCode() string {
	buf := make([]byte, RoomCodeLength)
	rand.Read(buf)
	for i, b := range buf {
		buf[i] = roomCodeAlphabet[int(b)%len(roomCodeAlphabet)]
	}
	return string(buf)
}
