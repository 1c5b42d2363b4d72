// Package services defines the business logic of the bot: the quota ledger,
// intent classification, generation orchestration, the payment flow, and the
// conversation engine. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// These errors are intended for internal use by the service layer;
// translation into user-facing reply text is performed at the conversation
// engine boundary, and into HTTP status codes at the handler layer. Nothing
// propagates past the engine as an unhandled fault: every failure becomes a
// message to the user.
package services

import "errors"

var (
	// ErrInputUnavailable indicates the user's uploaded image could not be
	// fetched from the platform (surfaced as "please re-upload").
	ErrInputUnavailable = errors.New("input image unavailable")

	// ErrGenerationFailed indicates the generation call failed, timed out,
	// or returned nothing usable (surfaced as "please retry").
	ErrGenerationFailed = errors.New("generation failed")

	// ErrPaymentFailed indicates a reservation or confirmation call failed.
	ErrPaymentFailed = errors.New("payment failed")

	// ErrReservationNotFound indicates a confirmation callback referenced
	// an unknown or already-settled order.
	ErrReservationNotFound = errors.New("reservation not found")
)
