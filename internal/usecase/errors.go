package usecase

import "errors"

var (
	ErrLocationNotConfigured     = errors.New("GHL location not configured for user")
	ErrPrimaryProvisioningFailed = errors.New("primary CRM location could not be created")
	ErrNotCRMEligible            = errors.New("plan does not include CRM access")
	ErrSubscriptionInactive      = errors.New("subscription is not active")
	ErrActionRequired            = errors.New("action is required")
	ErrUnknownAction             = errors.New("unknown action")
	ErrActionNotAvailable        = errors.New("action not available")
	ErrMalformedPayload          = errors.New("malformed webhook payload")
)

// DomainError is a business rule violation the caller can correct.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// TechnicalError is an infrastructure failure that is not the caller's fault.
type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}
