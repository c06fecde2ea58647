package model

import "time"

// Account is a registered student or counselor.
//
// Students and counselors live in separate collections upstream, so the pair
// (ID, Kind) is what mood entries reference. PasswordHash never leaves the
// server.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Kind         OwnerKind `json:"kind"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (a *Account) Owner() Owner {
	return Owner{ID: a.ID, Kind: a.Kind}
}
