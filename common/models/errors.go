package models

import "errors"

// Error taxonomy shared by the store, the storage providers and the service.
// Callers wrap these with fmt.Errorf("...: %w", ErrX) and the HTTP layer
// maps them to status codes with errors.Is.
var (
	ErrMissingFile     = errors.New("MissingFile")
	ErrUnsupportedType = errors.New("UnsupportedType")
	ErrPayloadTooLarge = errors.New("PayloadTooLarge")
	ErrUploadFailed    = errors.New("UploadFailed")
	ErrNotFound        = errors.New("NotFound")
	ErrTooManyIds      = errors.New("TooManyIds")
	ErrInvalidRequest  = errors.New("InvalidRequest")
	ErrPersistence     = errors.New("PersistenceFailure")

	// ErrStorageProvider is only produced by delete paths and is never
	// surfaced to API clients
	ErrStorageProvider = errors.New("StorageProviderFailure")
)

// ErrorName returns the taxonomy name for err, or "" if err is not one of ours
func ErrorName(err error) string {
	for _, known := range []error{
		ErrMissingFile,
		ErrUnsupportedType,
		ErrPayloadTooLarge,
		ErrUploadFailed,
		ErrNotFound,
		ErrTooManyIds,
		ErrInvalidRequest,
		ErrPersistence,
		ErrStorageProvider,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return ""
}
