package validator

// Validator validates structs using their field tags.
type Validator interface {
	// Validate returns nil when data passes validation, or an error
	// describing the failed fields.
	Validate(data any) error
}
