// Package lead holds the structured lead record and its consent-gated
// write path.
package lead

import (
	"fmt"
	"strconv"
	"time"

	contractx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/contract"
	fieldx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/fields"
	validatex "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/validate"
)

type Provenance string

const (
	ProvenanceUnset      Provenance = "unset"
	ProvenanceUserStated Provenance = "user_stated"
	ProvenanceInferred   Provenance = "inferred"
	ProvenanceDeclined   Provenance = "declined"
)

type ConsentStatus string

const (
	ConsentPending ConsentStatus = "pending"
	ConsentGranted ConsentStatus = "granted"
	ConsentDenied  ConsentStatus = "denied"
)

type Data struct {
	// Identity
	Name           string `json:"name,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Email          string `json:"email,omitempty"`
	DocumentType   string `json:"document_type,omitempty"`
	DocumentNumber string `json:"document_number,omitempty"`

	// Interest
	PropertyType   string `json:"property_type,omitempty"`
	District       string `json:"district,omitempty"`
	Zone           string `json:"zone,omitempty"`
	ProjectID      string `json:"project_id,omitempty"`
	AreaM2         int    `json:"area_m2,omitempty"`
	Rooms          int    `json:"rooms,omitempty"`
	BudgetMin      int64  `json:"budget_min,omitempty"`
	BudgetMax      int64  `json:"budget_max,omitempty"`
	BudgetCurrency string `json:"budget_currency,omitempty"`
	Timeline       string `json:"timeline,omitempty"`

	// Legal
	Consent   ConsentStatus `json:"consent"`
	ConsentAt *time.Time    `json:"consent_at,omitempty"`

	Provenance        map[fieldx.Kind]Provenance `json:"provenance,omitempty"`
	CreatedAt         time.Time                  `json:"created_at"`
	UpdatedAt         time.Time                  `json:"updated_at"`
	LastInteractionAt time.Time                  `json:"last_interaction_at"`
}

func New(now time.Time) Data {
	now = now.UTC()
	return Data{
		Consent:           ConsentPending,
		Provenance:        make(map[fieldx.Kind]Provenance, 12),
		CreatedAt:         now,
		UpdatedAt:         now,
		LastInteractionAt: now,
	}
}

func (d *Data) ConsentGranted() bool {
	return d.Consent == ConsentGranted && d.ConsentAt != nil
}

// IsSet reports whether k holds a captured value.
func (d *Data) IsSet(k fieldx.Kind) bool {
	switch k {
	case fieldx.Consent:
		return d.ConsentGranted()
	case fieldx.Area:
		return d.AreaM2 > 0
	case fieldx.Rooms:
		return d.Rooms > 0
	case fieldx.Budget:
		return d.BudgetMax > 0
	default:
		return d.Value(k) != ""
	}
}

// Value renders the captured value of k in canonical form.
func (d *Data) Value(k fieldx.Kind) string {
	switch k {
	case fieldx.Name:
		return d.Name
	case fieldx.Phone:
		return d.Phone
	case fieldx.Email:
		return d.Email
	case fieldx.Document:
		if d.DocumentType == "" {
			return ""
		}
		return d.DocumentType + ":" + d.DocumentNumber
	case fieldx.PropertyType:
		return d.PropertyType
	case fieldx.District:
		return d.District
	case fieldx.ProjectID:
		return d.ProjectID
	case fieldx.Area:
		if d.AreaM2 == 0 {
			return ""
		}
		return strconv.Itoa(d.AreaM2)
	case fieldx.Rooms:
		if d.Rooms == 0 {
			return ""
		}
		return strconv.Itoa(d.Rooms)
	case fieldx.Budget:
		if d.BudgetMax == 0 {
			return ""
		}
		return fmt.Sprintf("%s %d-%d", d.BudgetCurrency, d.BudgetMin, d.BudgetMax)
	case fieldx.Timeline:
		return d.Timeline
	case fieldx.Consent:
		if d.ConsentGranted() {
			return validatex.ConsentYes
		}
		if d.Consent == ConsentDenied {
			return validatex.ConsentNo
		}
		return ""
	default:
		return ""
	}
}

func (d *Data) ProvenanceOf(k fieldx.Kind) Provenance {
	if p, ok := d.Provenance[k]; ok {
		return p
	}
	return ProvenanceUnset
}

func (d *Data) Declined(k fieldx.Kind) bool {
	return d.ProvenanceOf(k) == ProvenanceDeclined
}

// Open reports whether k still needs an answer: unset and not declined.
func (d *Data) Open(k fieldx.Kind) bool {
	return !d.IsSet(k) && !d.Declined(k)
}

// Apply writes a validated value. Invalid results are rejected and every
// field other than consent requires granted consent.
func (d *Data) Apply(k fieldx.Kind, res validatex.Result, prov Provenance, now time.Time) error {
	if !fieldx.Known(k) {
		return fmt.Errorf("%w: unknown field %q", contractx.ErrValidation, k)
	}
	if !res.Valid {
		return fmt.Errorf("%w: %s rejected (%s)", contractx.ErrValidation, k, res.Reason)
	}
	if prov != ProvenanceUserStated && prov != ProvenanceInferred {
		return fmt.Errorf("%w: provenance %q cannot carry a value", contractx.ErrValidation, prov)
	}
	if k == fieldx.Consent {
		return d.applyConsent(res.Value, now)
	}
	if !d.ConsentGranted() {
		return fmt.Errorf("%w: cannot write %s", contractx.ErrConsentViolation, k)
	}

	if err := d.set(k, res.Value); err != nil {
		return err
	}
	d.markProvenance(k, prov)
	d.touch(now)
	return nil
}

func (d *Data) applyConsent(value string, now time.Time) error {
	switch value {
	case validatex.ConsentYes:
		if d.ConsentGranted() {
			return nil
		}
		at := now.UTC()
		d.Consent = ConsentGranted
		d.ConsentAt = &at
	case validatex.ConsentNo:
		if d.ConsentGranted() {
			return fmt.Errorf("%w: consent already granted, close the session to revoke it", contractx.ErrConsentViolation)
		}
		d.Consent = ConsentDenied
		d.ConsentAt = nil
	default:
		return fmt.Errorf("%w: consent value %q", contractx.ErrValidation, value)
	}
	d.markProvenance(fieldx.Consent, ProvenanceUserStated)
	d.touch(now)
	return nil
}

// Decline records that the user chose not to give k. Mandatory fields
// cannot be declined.
func (d *Data) Decline(k fieldx.Kind, now time.Time) error {
	if fieldx.Mandatory(k) || !fieldx.Known(k) {
		return fmt.Errorf("%w: %s cannot be declined", contractx.ErrValidation, k)
	}
	if !d.ConsentGranted() {
		return fmt.Errorf("%w: cannot decline %s", contractx.ErrConsentViolation, k)
	}
	d.clear(k)
	d.markProvenance(k, ProvenanceDeclined)
	d.touch(now)
	return nil
}

// Touch records user activity without changing any field.
func (d *Data) Touch(now time.Time) {
	d.LastInteractionAt = now.UTC()
}

func (d *Data) set(k fieldx.Kind, v string) error {
	switch k {
	case fieldx.Name:
		d.Name = v
	case fieldx.Phone:
		d.Phone = v
	case fieldx.Email:
		d.Email = v
	case fieldx.Document:
		typ, number, ok := validatex.SplitDocument(v)
		if !ok {
			return fmt.Errorf("%w: document value %q", contractx.ErrValidation, v)
		}
		d.DocumentType, d.DocumentNumber = string(typ), number
	case fieldx.PropertyType:
		d.PropertyType = v
	case fieldx.District:
		d.District = v
		d.Zone = validatex.ZoneOf(v)
	case fieldx.ProjectID:
		d.ProjectID = v
	case fieldx.Area:
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: area value %q", contractx.ErrValidation, v)
		}
		d.AreaM2 = n
	case fieldx.Rooms:
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: rooms value %q", contractx.ErrValidation, v)
		}
		d.Rooms = n
	case fieldx.Budget:
		currency, lo, hi, ok := validatex.SplitBudget(v)
		if !ok {
			return fmt.Errorf("%w: budget value %q", contractx.ErrValidation, v)
		}
		d.BudgetCurrency, d.BudgetMin, d.BudgetMax = currency, lo, hi
	case fieldx.Timeline:
		d.Timeline = v
	}
	return nil
}

func (d *Data) clear(k fieldx.Kind) {
	switch k {
	case fieldx.Name:
		d.Name = ""
	case fieldx.Phone:
		d.Phone = ""
	case fieldx.Email:
		d.Email = ""
	case fieldx.Document:
		d.DocumentType, d.DocumentNumber = "", ""
	case fieldx.PropertyType:
		d.PropertyType = ""
	case fieldx.District:
		d.District, d.Zone = "", ""
	case fieldx.ProjectID:
		d.ProjectID = ""
	case fieldx.Area:
		d.AreaM2 = 0
	case fieldx.Rooms:
		d.Rooms = 0
	case fieldx.Budget:
		d.BudgetCurrency, d.BudgetMin, d.BudgetMax = "", 0, 0
	case fieldx.Timeline:
		d.Timeline = ""
	}
}

func (d *Data) markProvenance(k fieldx.Kind, p Provenance) {
	if d.Provenance == nil {
		d.Provenance = make(map[fieldx.Kind]Provenance, 12)
	}
	d.Provenance[k] = p
}

func (d *Data) touch(now time.Time) {
	now = now.UTC()
	d.UpdatedAt = now
	d.LastInteractionAt = now
}
