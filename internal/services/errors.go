package services

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

var (
	ErrValidation              = errors.New("validation failed")
	ErrPreconditionFailed      = errors.New("precondition failed")
	ErrForbidden               = errors.New("forbidden")
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")
)

var (
	ErrInvalidPreferences     = fmt.Errorf("%w: invalid preferences", ErrValidation)
	ErrInvalidInput           = fmt.Errorf("%w: invalid input", ErrValidation)
	ErrSessionNotScheduled    = fmt.Errorf("%w: session is not scheduled", ErrValidation)
	ErrDuplicatePending       = fmt.Errorf("%w: session already has a pending reschedule request", ErrValidation)
	ErrNegotiationWindowGone  = fmt.Errorf("%w: response deadline has already passed", ErrValidation)
	ErrActiveAssignmentExists = fmt.Errorf("%w: client already has an active assignment", ErrValidation)
	ErrNoActiveAssignment     = fmt.Errorf("%w: no active assignment with this supporter", ErrValidation)
	ErrNoEligibleSupporter    = fmt.Errorf("%w: no eligible supporter available", ErrValidation)

	ErrInvalidStateTransition = fmt.Errorf("%w: invalid state transition", ErrPreconditionFailed)
	ErrAlreadyResolved        = fmt.Errorf("%w: reschedule request already resolved", ErrPreconditionFailed)
	ErrResponseWindowClosed   = fmt.Errorf("%w: response deadline passed", ErrPreconditionFailed)
)

// storeFailure keeps not-found untouched so handlers can map it, and marks
// everything else as a collaborator outage.
func storeFailure(op string, err error) error {
	if err == nil || errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrCollaboratorUnavailable, err)
}
