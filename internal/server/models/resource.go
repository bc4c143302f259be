package models

import "time"

type ResourceType string

const (
	ResourceVideo   ResourceType = "video"
	ResourceArticle ResourceType = "article"
	ResourcePDF     ResourceType = "pdf"
	ResourceCourse  ResourceType = "course"
	ResourceOther   ResourceType = "other"
)

var resourceTypes = []ResourceType{ResourceVideo, ResourceArticle, ResourcePDF, ResourceCourse, ResourceOther}

// Valid reports whether t is one of the catalog types.
func (t ResourceType) Valid() bool {
	for _, v := range resourceTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Resource is a catalog entry created by an admin.
type Resource struct {
	ID          string
	Title       string
	Description string
	Type        ResourceType
	URL         string
	CreatedBy   string
	// AttachmentKey is the object storage key of the uploaded attachment,
	// empty when none was issued.
	AttachmentKey string
	// CreatedByEmail is resolved at read time, not stored.
	CreatedByEmail string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ResourcePatch carries a partial update. Empty fields are left unchanged.
type ResourcePatch struct {
	Title       string
	Description string
	Type        ResourceType
	URL         string
}

func (p ResourcePatch) Apply(r *Resource) {
	if p.Title != "" {
		r.Title = p.Title
	}
	if p.Description != "" {
		r.Description = p.Description
	}
	if p.Type != "" {
		r.Type = p.Type
	}
	if p.URL != "" {
		r.URL = p.URL
	}
}

// TypeCount is one bucket of the resources-by-type breakdown.
type TypeCount struct {
	Type  ResourceType
	Count int64
}

// CompletionStats aggregates completed resources over all users.
type CompletionStats struct {
	TotalCompletions     int64
	AvgCompletions       float64
	UsersWithCompletions int64
}
