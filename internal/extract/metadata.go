package extract

import (
	"strings"

	"github.com/nao1215/contactscan/internal/model"
)

// metadataKeys is the closed metadata key set in serialization order.
var metadataKeys = []string{model.AttrTitle, model.AttrDescription, model.AttrGenerator}

// Metadata filters raw page tags down to the closed metadata key set and
// trims each value. The input map carries a key only when the page has the
// corresponding element, so an empty-but-present meta content survives as an
// empty string while an absent tag yields no key. Unknown keys are dropped.
func Metadata(tags map[string]string) map[string]string {
	metadata := make(map[string]string)
	for _, key := range metadataKeys {
		value, ok := tags[key]
		if !ok {
			continue
		}
		metadata[key] = strings.TrimSpace(value)
	}
	return metadata
}

// SerializeMetadata renders a metadata mapping as a single deterministic
// string for use as a finding value. Keys appear in the fixed order title,
// description, generator; absent keys are skipped.
func SerializeMetadata(metadata map[string]string) string {
	parts := make([]string, 0, len(metadataKeys))
	for _, key := range metadataKeys {
		value, ok := metadata[key]
		if !ok {
			continue
		}
		parts = append(parts, key+"="+value)
	}
	return strings.Join(parts, "; ")
}
