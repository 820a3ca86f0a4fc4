package model

import "time"

// User is a back-office account.
type User struct {
	ID        int64      `json:"id"`
	DNI       string     `json:"dni,omitempty"`
	Firstname string     `json:"firstname,omitempty"`
	Lastname  string     `json:"lastname,omitempty"`
	Names     string     `json:"names"`
	Email     string     `json:"email"`
	Password  string     `json:"password,omitempty"`
	Sex       string     `json:"sex,omitempty"`
	Datebirth string     `json:"datebirth,omitempty"`
	Cellphone string     `json:"cellphone,omitempty"`
	Photo     string     `json:"photo,omitempty"`
	Role      string     `json:"role,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Identifier implements Record.
func (u User) Identifier() int64 { return u.ID }

// DisplayName returns the best available human name for the user.
func (u User) DisplayName() string {
	if u.Names != "" {
		return u.Names
	}
	if u.Firstname != "" || u.Lastname != "" {
		if u.Lastname == "" {
			return u.Firstname
		}
		if u.Firstname == "" {
			return u.Lastname
		}
		return u.Firstname + " " + u.Lastname
	}
	return u.Email
}

// Sex values accepted by the backend.
const (
	SexMale   = "M"
	SexFemale = "F"
)
