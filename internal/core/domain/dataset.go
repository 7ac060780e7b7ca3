package domain

import (
	"errors"
	"strings"
	"time"
)

// AnonymousCreator is recorded as CreatedBy when no session is attached.
const AnonymousCreator = "anonymous"

// Field limits shared by request validation and the service-level guard.
const (
	MaxNameLength        = 100
	MaxDescriptionLength = 500
	MaxCategoryLength    = 100
)

var (
	ErrDatasetNotFound = errors.New("dataset not found")
	ErrDuplicateName   = errors.New("dataset name already exists")
)

// Dataset is a named, categorised array of sample values.
type Dataset struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Category    string    `json:"category,omitempty" bson:"category,omitempty"`
	Data        []string  `json:"data" bson:"data"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updated_at"`
	CreatedBy   string    `json:"createdBy" bson:"created_by"`
}

// NameKey is the case-folded name used for uniqueness and the public map.
func (d *Dataset) NameKey() string {
	return NameKey(d.Name)
}

// NameKey folds a dataset name into its uniqueness key.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Clone returns a deep copy so callers can mutate without aliasing Data.
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return nil
	}
	c := *d
	c.Data = append([]string(nil), d.Data...)
	return &c
}

// Apply merges the supplied patch fields into d.
func (d *Dataset) Apply(p DatasetPatch) {
	if p.Name != nil {
		d.Name = *p.Name
	}
	if p.Description != nil {
		d.Description = *p.Description
	}
	if p.Category != nil {
		d.Category = *p.Category
	}
	if p.Data != nil {
		d.Data = append([]string(nil), (*p.Data)...)
	}
	d.UpdatedAt = p.UpdatedAt
}

// DatasetPatch carries a partial update. Nil fields are left untouched;
// UpdatedAt is always applied.
type DatasetPatch struct {
	Name        *string
	Description *string
	Category    *string
	Data        *[]string
	UpdatedAt   time.Time
}

// PublicDataset is the projection served to the plugin, keyed by NameKey.
type PublicDataset struct {
	Description string   `json:"description"`
	Data        []string `json:"data"`
}
