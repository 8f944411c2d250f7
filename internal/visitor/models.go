package visitor

import (
	"encoding/json"
	"time"
)

// TimeLayout is the wire format for every visitor timestamp: local wall time
// with second precision, no zone offset.
const TimeLayout = "2006-01-02T15:04:05"

// Timestamp wraps time.Time to serialize in TimeLayout instead of RFC 3339.
type Timestamp struct {
	time.Time
}

// NewTimestamp builds a Timestamp from a time.Time.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.Format(TimeLayout) + `"`), nil
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(TimeLayout, s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// Visitor is the persisted entity. The store assigns ID on first save and
// defaults CreatedDate to the save time when unset. Duration is an
// independent field in minutes; it is never derived from check-in/check-out.
type Visitor struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	ContactNumber string     `json:"contactNumber"`
	Email         string     `json:"email"`
	Purpose       string     `json:"purpose"`
	CheckIn       *Timestamp `json:"checkIn"`
	CheckOut      *Timestamp `json:"checkOut"`
	Duration      int64      `json:"duration"`
	Approved      bool       `json:"approved"`
	CreatedDate   Timestamp  `json:"createdDate"`
}

// Projection is the public view of a Visitor: a one-to-one field copy whose
// JSON suppresses unset optional fields.
type Projection struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	ContactNumber string     `json:"contactNumber,omitempty"`
	Email         string     `json:"email,omitempty"`
	Purpose       string     `json:"purpose,omitempty"`
	CheckIn       *Timestamp `json:"checkIn,omitempty"`
	CheckOut      *Timestamp `json:"checkOut,omitempty"`
	Duration      int64      `json:"duration"`
	Approved      bool       `json:"approved"`
	CreatedDate   Timestamp  `json:"createdDate,omitzero"`
}

// ToProjection copies a Visitor into its public view.
func ToProjection(v Visitor) Projection {
	return Projection{
		ID:            v.ID,
		Name:          v.Name,
		ContactNumber: v.ContactNumber,
		Email:         v.Email,
		Purpose:       v.Purpose,
		CheckIn:       v.CheckIn,
		CheckOut:      v.CheckOut,
		Duration:      v.Duration,
		Approved:      v.Approved,
		CreatedDate:   v.CreatedDate,
	}
}

// ToProjectionList converts a slice of visitors, preserving order.
func ToProjectionList(visitors []Visitor) []Projection {
	projections := make([]Projection, 0, len(visitors))
	for _, v := range visitors {
		projections = append(projections, ToProjection(v))
	}
	return projections
}

// ToVisitor copies the projection back into entity form.
func (p Projection) ToVisitor() Visitor {
	return Visitor{
		ID:            p.ID,
		Name:          p.Name,
		ContactNumber: p.ContactNumber,
		Email:         p.Email,
		Purpose:       p.Purpose,
		CheckIn:       p.CheckIn,
		CheckOut:      p.CheckOut,
		Duration:      p.Duration,
		Approved:      p.Approved,
		CreatedDate:   p.CreatedDate,
	}
}
