package domain

import (
	"fmt"
	"strings"
	"time"
)

type EntityKind string

const (
	KindAsset         EntityKind = "asset"
	KindCustomer      EntityKind = "customer"
	KindRental        EntityKind = "rental"
	KindConfiguration EntityKind = "configuration"
	KindRepair        EntityKind = "repair"
)

var AllKinds = []EntityKind{KindAsset, KindCustomer, KindRental, KindConfiguration, KindRepair}

func ParseEntityKind(s string) (EntityKind, error) {
	k := EntityKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllKinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown entity kind %q", s)
}

// Entity is implemented by every live record kind that flows through the
// approval workflow.
type Entity interface {
	Kind() EntityKind
	EntityID() int64
	Validate() error
	Stamp(editor string, at time.Time)
	LastEdited() *time.Time
}

// Audit is the editor/timestamp pair carried by every live entity.
type Audit struct {
	EditedBy string     `json:"edited_by,omitempty"`
	EditedAt *time.Time `json:"edited_at,omitempty"`
}

func (a *Audit) Stamp(editor string, at time.Time) {
	t := at.UTC()
	a.EditedBy = editor
	a.EditedAt = &t
}

func (a *Audit) LastEdited() *time.Time {
	return a.EditedAt
}
