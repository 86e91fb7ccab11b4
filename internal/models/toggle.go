package models

// Input limits for toggle requests.
const (
	MaxAttributeLen = 63
	MaxLabelKeyLen  = 63
	// MaxRecordIDLen bounds ids sent to the database. Longer ids are treated
	// as missing records.
	MaxRecordIDLen = 255
)

// ToggleRequest is a request to flip one boolean attribute on one record.
type ToggleRequest struct {
	Resource   string
	ResourceID string
	Attribute  string
	// LabelKey names the attribute whose value becomes the response label.
	// Nil means unset.
	LabelKey *string
}

// Validate checks the attribute and labelKey lengths. Callers run it once the
// record is loaded and the attribute is known to be present.
func (r *ToggleRequest) Validate() error {
	if len(r.Attribute) > MaxAttributeLen {
		return ErrFieldTooLong("attribute", MaxAttributeLen)
	}

	if r.LabelKey != nil && len(*r.LabelKey) > MaxLabelKeyLen {
		return ErrFieldTooLong("labelKey", MaxLabelKeyLen)
	}

	return nil
}

// ToggleResult is the outcome of a successful toggle.
type ToggleResult struct {
	Success bool   `json:"success"`
	Value   bool   `json:"value"`
	Label   string `json:"label"`
}

// ToggleEvent is broadcast to subscribers after a toggle is persisted.
type ToggleEvent struct {
	Resource   string `json:"resource"`
	ResourceID string `json:"id"`
	Attribute  string `json:"attribute"`
	Value      bool   `json:"value"`
	Label      string `json:"label"`
	ActorID    string `json:"actor_id"`
}
