// Package domain contains core concepts of the conversation system.
// This file defines users, participants and participant sets.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"sort"
	"strings"

	"github.com/samber/lo"
)

// User is owned by the identity directory and immutable from the core's point of view.
type User struct {
	ID   string `json:"id" yaml:"id" validate:"required"`
	Name string `json:"name" yaml:"name" validate:"required"`
	Role Role   `json:"role" yaml:"role" validate:"required"`
}

// Participant is the {id, name} pair exposed to presentation layers.
type Participant struct {
	ID   string
	Name string
}

func (u User) Participant() Participant {
	return Participant{ID: u.ID, Name: u.Name}
}

const participantKeySeparator = "\x1f"

// ParticipantKey returns a canonical representation of a participant set.
// Two slices holding the same ids in any order, with or without duplicates,
// produce the same key.
func ParticipantKey(ids []string) string {
	unique := DistinctParticipants(ids)
	sort.Strings(unique)
	return strings.Join(unique, participantKeySeparator)
}

// DistinctParticipants drops empty and duplicated ids, keeping the first occurrence order.
func DistinctParticipants(ids []string) []string {
	return lo.Uniq(lo.Filter(ids, func(id string, _ int) bool {
		return strings.TrimSpace(id) != ""
	}))
}
