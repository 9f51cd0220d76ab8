// Package idgen provides short, URL-safe unique ID generation backed by nanoid.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes identify the entity an ID belongs to.
const (
	MeetingPrefix     = "mtg-"
	ParticipantPrefix = "ppl-"
	SelectionPrefix   = "sel-"
)

// Alphabet defines the character set used for the random portion of the ID.
var Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the number of random characters generated (excluding the prefix).
var Length = 12

// Meeting returns a new meeting ID.
func Meeting() (string, error) { return GenerateWithPrefix(MeetingPrefix) }

// Participant returns a new participant ID.
func Participant() (string, error) { return GenerateWithPrefix(ParticipantPrefix) }

// Selection returns a new selection record ID.
func Selection() (string, error) { return GenerateWithPrefix(SelectionPrefix) }

// GenerateWithPrefix returns a new unique ID with the given prefix.
func GenerateWithPrefix(prefix string) (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}
