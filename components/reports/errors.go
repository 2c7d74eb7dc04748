package reports

import "errors"

var (
	// ErrElementNotFound is returned by every canvas mutation that targets an unknown element id.
	ErrElementNotFound = errors.New("reports: element not found")
	// ErrTemplateNotFound is returned by stores when a template id is unknown.
	ErrTemplateNotFound = errors.New("reports: template not found")
	// ErrUnknownKind is returned when an element kind is not part of the palette vocabulary.
	ErrUnknownKind = errors.New("reports: unknown element kind")
	// ErrInvalidGeometry is returned when a position is negative or a size is below 1x1.
	ErrInvalidGeometry = errors.New("reports: invalid element geometry")
	// ErrPaletteEntryNotFound is returned when no palette entry is registered for a kind.
	ErrPaletteEntryNotFound = errors.New("reports: palette entry not found")
	// ErrInvalidSchedule wraps schedule validation failures.
	ErrInvalidSchedule = errors.New("reports: invalid schedule")
	// ErrUnsupportedFormat is returned when no exporter handles the requested format.
	ErrUnsupportedFormat = errors.New("reports: unsupported export format")

	// ErrMissingStore is returned when the service has no template store.
	ErrMissingStore = errors.New("reports: template store not configured")

	errMissingTemplateID  = errors.New("reports: template id is required")
	errMissingElementID   = errors.New("reports: element id is required")
	errDuplicateElementID = errors.New("reports: duplicate element id")
)

// IsNotFound reports whether err signals a missing template, element or palette entry.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrElementNotFound) ||
		errors.Is(err, ErrTemplateNotFound) ||
		errors.Is(err, ErrPaletteEntryNotFound)
}

// IsValidation reports whether err signals bad caller input.
func IsValidation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnknownKind) ||
		errors.Is(err, ErrInvalidGeometry) ||
		errors.Is(err, ErrInvalidSchedule) ||
		errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, errMissingTemplateID) ||
		errors.Is(err, errMissingElementID) ||
		errors.Is(err, errDuplicateElementID) {
		return true
	}
	var verr *ConfigValidationError
	return errors.As(err, &verr)
}
