// Package models holds the persisted records shared by repositories,
// services and the REST layer.
package models

import "time"

// User is a credential record together with the user's onboarding progress.
//
// PasswordHash is only populated by lookups that need it (login); profile
// reads leave it empty. Version increases by one on every progress write and
// is used for compare-and-swap updates.
type User struct {
	ID                  string
	Email               string
	PasswordHash        string
	Name                string
	GitHubUsername      string
	MicrosoftLearnEmail string
	CompletedPages      []int
	LastViewedPage      int
	CompletedResources  []string
	Version             int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// DefaultLastViewedPage is the pointer value of a freshly registered user.
const DefaultLastViewedPage = 1

// Clone returns a deep copy so callers can mutate slices freely.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.CompletedPages = append([]int(nil), u.CompletedPages...)
	c.CompletedResources = append([]string(nil), u.CompletedResources...)
	return &c
}

// HasCompletedResource reports whether id is in the user's completed set.
func (u *User) HasCompletedResource(id string) bool {
	for _, r := range u.CompletedResources {
		if r == id {
			return true
		}
	}
	return false
}
