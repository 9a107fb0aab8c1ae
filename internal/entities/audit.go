package entities

import "time"

// Audit is embedded by every persisted entity. Timestamps are maintained by
// GORM; the actor columns are filled by the crud layer.
type Audit struct {
	CreatedAt  time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	ModifiedAt time.Time  `gorm:"autoUpdateTime" json:"modified_at"`
	Disabled   bool       `gorm:"not null;default:false;index" json:"disabled"`
	DisabledAt *time.Time `json:"disabled_at,omitempty"`
	CreatedBy  *uint      `json:"created_by,omitempty"`
	ModifiedBy *uint      `json:"modified_by,omitempty"`
	DisabledBy *uint      `json:"disabled_by,omitempty"`
}

// Audited is satisfied by any pointer to a struct embedding Audit.
type Audited interface {
	AuditFields() *Audit
}

func (a *Audit) AuditFields() *Audit { return a }

func (a *Audit) MarkCreated(actor *uint) {
	a.CreatedBy = actor
	a.ModifiedBy = actor
}

func (a *Audit) MarkModified(actor *uint) {
	a.ModifiedBy = actor
}

func (a *Audit) MarkDisabled(actor *uint, at time.Time) {
	a.Disabled = true
	a.DisabledAt = &at
	a.DisabledBy = actor
}

func (a *Audit) MarkEnabled() {
	a.Disabled = false
	a.DisabledAt = nil
	a.DisabledBy = nil
}

// PendingOrderer is implemented by entities that have a notion of records
// awaiting review. The expression sorts pending rows before the rest.
type PendingOrderer interface {
	PendingFirstExpr() string
}

// Actor returns a pointer suitable for the audit actor columns, nil for id 0.
func Actor(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}

func fullName(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += p
	}
	return out
}
