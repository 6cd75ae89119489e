package helpers

// ToPtr returns a pointer to a copy of v, for filling optional settings fields.
func ToPtr[T any](v T) *T {
	return &v
}
