package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *BookTypstError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigExists(path string) *BookTypstError {
	return New(CategoryConfig, SeverityError, "configuration file already exists (use --force to overwrite)").
		WithContext("path", path)
}

func ValidationFailed(field, reason string) *BookTypstError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Book loading errors

func BookLoadFailed(root string, cause error) *BookTypstError {
	return Wrap(cause, CategoryBook, SeverityFatal, "book could not be loaded").
		WithContext("root", root)
}

func SummaryParseFailed(path string, cause error) *BookTypstError {
	return Wrap(cause, CategoryBook, SeverityFatal, "SUMMARY.md could not be parsed").
		WithContext("path", path)
}

func ChapterReadFailed(path string, cause error) *BookTypstError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "chapter could not be read").
		WithContext("path", path)
}

// Output errors

func OutputWriteFailed(path string, cause error) *BookTypstError {
	return WrapRetryable(cause, CategoryFileSystem, SeverityFatal, "output could not be written").
		WithContext("path", path)
}

// Pipeline errors

func ConversionFailed(stage string, cause error) *BookTypstError {
	return Wrap(cause, CategoryConversion, SeverityFatal, "conversion failed").
		WithContext("stage", stage)
}

// Internal errors

func InternalError(message string, cause error) *BookTypstError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
