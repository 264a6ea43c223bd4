package document

// Patch is a merge-write update: fields present are written, fields absent
// are untouched. Field removal uses the Delete marker rather than omission.
type Patch map[string]any

type deleteMarker struct{}

// Delete is the field-deletion sentinel. Store adapters translate it into
// their native delete marker on write.
var Delete = deleteMarker{}

// IsDelete reports whether v is the deletion sentinel.
func IsDelete(v any) bool {
	_, ok := v.(deleteMarker)
	return ok
}
