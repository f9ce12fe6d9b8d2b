package managerapps

import (
	"github.com/google/uuid"

	pkgerrors "github.com/souqline/souqline-backend/pkg/errors"
)

// TargetRef identifies the business a manager is proposed for. Exactly one of
// the two variants is set: a confirmed business, or a business application
// that is itself still pending. The tagged form makes the
// one-pointer-at-a-time rule impossible to violate from calling code.
type TargetRef struct {
	businessID    *uuid.UUID
	applicationID *uuid.UUID
}

// ConfirmedTarget references an existing business.
func ConfirmedTarget(businessID uuid.UUID) TargetRef {
	return TargetRef{businessID: &businessID}
}

// PendingTarget references a still-pending business application.
func PendingTarget(applicationID uuid.UUID) TargetRef {
	return TargetRef{applicationID: &applicationID}
}

// IsConfirmed reports whether the target is an existing business.
func (t TargetRef) IsConfirmed() bool {
	return t.businessID != nil
}

// BusinessID returns the confirmed business id, or uuid.Nil for a pending target.
func (t TargetRef) BusinessID() uuid.UUID {
	if t.businessID == nil {
		return uuid.Nil
	}
	return *t.businessID
}

// ApplicationID returns the linked application id, or uuid.Nil for a confirmed target.
func (t TargetRef) ApplicationID() uuid.UUID {
	if t.applicationID == nil {
		return uuid.Nil
	}
	return *t.applicationID
}

// Validate rejects the zero value, which references nothing.
func (t TargetRef) Validate() error {
	if t.businessID == nil && t.applicationID == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "manager target is required")
	}
	return nil
}

// columns returns the nullable column pair persisted for this target.
func (t TargetRef) columns() (businessID, linkedApplicationID *uuid.UUID) {
	return t.businessID, t.applicationID
}
