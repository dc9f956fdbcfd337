package detail

import "errors"

var (
	// ErrAppointmentNotFound is returned when the schedule service has no
	// appointment with the requested ID.
	ErrAppointmentNotFound = errors.New("detail: appointment not found")

	// ErrNoStaff is returned when GetAppointmentDetail is called without a
	// staff identity.
	ErrNoStaff = errors.New("detail: staff identity required")

	// ErrMultiplePayments is a payment branch failure: a treatment is
	// expected to have at most one payment history.
	ErrMultiplePayments = errors.New("detail: more than one payment history")

	// ErrUnavailable is returned by simulated clients on injected failures.
	ErrUnavailable = errors.New("detail: downstream unavailable")
)
