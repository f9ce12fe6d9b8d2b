package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateBusinessApplication OutboxAggregateType = "business_application"
	AggregateManagerApplication  OutboxAggregateType = "manager_application"
	AggregateBusiness            OutboxAggregateType = "business"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateBusinessApplication,
	AggregateManagerApplication,
	AggregateBusiness,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventBusinessApproved        OutboxEventType = "business_approved"
	EventBusinessRejected        OutboxEventType = "business_rejected"
	EventBusinessReopened        OutboxEventType = "business_reopened"
	EventManagerApproved         OutboxEventType = "manager_approved"
	EventManagerRejected         OutboxEventType = "manager_rejected"
	EventBusinessLicenseExpired  OutboxEventType = "business_license_expired"
	EventBusinessLicenseExpiring OutboxEventType = "business_license_expiring"
)

var validOutboxEventTypes = []OutboxEventType{
	EventBusinessApproved,
	EventBusinessRejected,
	EventBusinessReopened,
	EventManagerApproved,
	EventManagerRejected,
	EventBusinessLicenseExpired,
	EventBusinessLicenseExpiring,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}

// OutboxDLQErrorReason classifies why an event was parked in the dead-letter table.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)

var validOutboxDLQErrorReasons = []OutboxDLQErrorReason{
	OutboxDLQReasonMaxAttempts,
	OutboxDLQReasonNonRetryable,
}

func (r OutboxDLQErrorReason) IsValid() bool {
	for _, candidate := range validOutboxDLQErrorReasons {
		if candidate == r {
			return true
		}
	}
	return false
}
