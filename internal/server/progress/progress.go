// Package progress implements the onboarding-progress transitions applied to
// a user record: completed pages, linked accounts and the last-viewed page.
//
// Every function mutates the *models.User it is given and performs no I/O, so
// a caller can re-read a record and re-apply the same mutation after a
// version conflict.
package progress

import (
	"regexp"
	"slices"
	"strings"

	"github.com/dmitrijs2005/onboardkit/internal/common"
	"github.com/dmitrijs2005/onboardkit/internal/server/models"
)

// Mutation is a progress transition on a single record.
type Mutation func(u *models.User) error

// ValidatePage rejects page numbers below 1.
func ValidatePage(page int) error {
	if page < 1 {
		return common.Validation("Page number must be a positive integer")
	}
	return nil
}

// MarkComplete adds page to the completed set. The set stays sorted and free
// of duplicates.
func MarkComplete(page int) Mutation {
	return func(u *models.User) error {
		if err := ValidatePage(page); err != nil {
			return err
		}
		addPage(u, page)
		return nil
	}
}

// MarkIncomplete removes page from the completed set. Removing an absent
// page is a no-op.
func MarkIncomplete(page int) Mutation {
	return func(u *models.User) error {
		if err := ValidatePage(page); err != nil {
			return err
		}
		removePage(u, page)
		return nil
	}
}

// UpdateLastViewed overwrites the last-viewed pointer.
func UpdateLastViewed(page int) Mutation {
	return func(u *models.User) error {
		if err := ValidatePage(page); err != nil {
			return err
		}
		u.LastViewedPage = page
		return nil
	}
}

func addPage(u *models.User, page int) {
	if !slices.Contains(u.CompletedPages, page) {
		u.CompletedPages = append(u.CompletedPages, page)
	}
	slices.Sort(u.CompletedPages)
	u.CompletedPages = slices.Compact(u.CompletedPages)
}

func removePage(u *models.User, page int) {
	u.CompletedPages = slices.DeleteFunc(u.CompletedPages, func(p int) bool { return p == page })
	if u.CompletedPages == nil {
		u.CompletedPages = []int{}
	}
}

// LinkedField describes a linked-account attribute whose save also completes
// an onboarding page.
type LinkedField struct {
	Name     string
	Page     int
	Required string
	validate func(string) error
	norm     func(string) string
	set      func(u *models.User, v string)
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var (
	GitHubUsername = LinkedField{
		Name:     "githubUsername",
		Page:     1,
		Required: "GitHub username is required",
		validate: func(v string) error {
			if strings.Contains(v, " ") {
				return common.Validation("GitHub username cannot contain spaces")
			}
			return nil
		},
		norm: strings.TrimSpace,
		set:  func(u *models.User, v string) { u.GitHubUsername = v },
	}

	MicrosoftLearnEmail = LinkedField{
		Name:     "microsoftLearnEmail",
		Page:     2,
		Required: "Email is required",
		validate: func(v string) error {
			if !emailPattern.MatchString(v) {
				return common.Validation("Invalid email format")
			}
			return nil
		},
		norm: func(v string) string { return strings.ToLower(strings.TrimSpace(v)) },
		set:  func(u *models.User, v string) { u.MicrosoftLearnEmail = v },
	}
)

// Validate checks value without touching any record.
func (f LinkedField) Validate(value string) error {
	if strings.TrimSpace(value) == "" {
		return common.Validation(f.Required)
	}
	return f.validate(value)
}

// Save stores the normalized value and marks the field's page complete.
//
// With clearPrevious the page is removed before being re-added, so the page
// ends up complete either way.
func (f LinkedField) Save(value string, clearPrevious bool) Mutation {
	return func(u *models.User) error {
		if err := f.Validate(value); err != nil {
			return err
		}
		f.set(u, f.norm(value))
		if clearPrevious {
			removePage(u, f.Page)
		}
		addPage(u, f.Page)
		return nil
	}
}

// ToggleResource flips id in the completed-resources set and returns the new
// membership.
func ToggleResource(id string, completed *bool) Mutation {
	return func(u *models.User) error {
		if i := slices.Index(u.CompletedResources, id); i >= 0 {
			u.CompletedResources = slices.Delete(u.CompletedResources, i, i+1)
			*completed = false
			return nil
		}
		u.CompletedResources = append(u.CompletedResources, id)
		*completed = true
		return nil
	}
}

// IsValidEmail applies the basic email shape check used for registration and
// linked emails.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}
