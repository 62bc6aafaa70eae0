package domain

import "time"

// ProfileEntry is one cached profile lookup. A failed lookup is cached as
// Absent with the failure text in Reason and a nil Profile.
type ProfileEntry struct {
	UserID    EntityID  `json:"userId"`
	Profile   *User     `json:"profile,omitempty"`
	FetchedAt time.Time `json:"fetchedAt"`
	Absent    bool      `json:"absent,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}
