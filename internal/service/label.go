package service

import "github.com/adminkit/toggle/internal/models"

// fallbackLabelAttributes are tried in order when no label key resolves.
var fallbackLabelAttributes = []string{"name", "label", "title"}

// ResolveLabel picks the display label for rec. A supplied label key wins if
// the record has a non-null value for it; otherwise the first non-null of
// name, label and title; otherwise the resource's singular label.
func ResolveLabel(rec models.AttributeAccessor, labelKey *string, singular string) string {
	if labelKey != nil && *labelKey != "" {
		if v := rec.Get(*labelKey); !v.IsNull() {
			return v.String()
		}
	}

	for _, attr := range fallbackLabelAttributes {
		if v := rec.Get(attr); !v.IsNull() {
			return v.String()
		}
	}

	return singular
}
