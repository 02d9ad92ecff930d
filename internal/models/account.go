// Package models defines the data shapes exchanged with the Clustta Agent.
package models

import "strings"

// Account represents a user identity known to the agent.
type Account struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// DisplayName returns "First Last", falling back to the email when both names are empty.
func (a *Account) DisplayName() string {
	name := strings.TrimSpace(a.FirstName + " " + a.LastName)
	if name == "" {
		return a.Email
	}
	return name
}

// Label is the selector text for an account: "First Last (email)".
func (a *Account) Label() string {
	return strings.TrimSpace(a.FirstName+" "+a.LastName) + " (" + a.Email + ")"
}
