package model

// IdentityMetadata is the subset of a document's core properties this
// service reads and rewrites. It is a pure domain model with no coupling to
// any container format; missing fields are normalized to empty strings.
type IdentityMetadata struct {
	Author         string `json:"author"`
	LastModifiedBy string `json:"last_modified_by"`
}

// IdentityUpdate carries optional replacements for the identity fields.
// A nil pointer means "leave the existing value unchanged"; a non-nil pointer
// to an empty string is a real update that clears the field. Callers that
// want to update only one field leave the other pointer nil.
type IdentityUpdate struct {
	Author         *string
	LastModifiedBy *string
}

// IsZero reports whether the update carries no field at all.
func (u IdentityUpdate) IsZero() bool {
	return u.Author == nil && u.LastModifiedBy == nil
}
