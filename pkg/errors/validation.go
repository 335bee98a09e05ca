package errors

import "unicode"

// ValidateName validates the external name of a graph element (vertex, port,
// edge, group or bundle) as it appears in graph documents.
//
// Validation rules:
//   - No empty names
//   - No control characters or null bytes
//   - Maximum length of 256 characters
func ValidateName(kind, name string) error {
	if name == "" {
		return New(ErrCodeInvalidGraph, "%s name cannot be empty", kind)
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidGraph, "%s name too long (max 256 characters)", kind)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidGraph, "%s name %q contains invalid control characters", kind, name)
		}
	}

	return nil
}
