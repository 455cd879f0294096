package httpapi

import (
	"errors"

	"city_report_service/internal/apperr"

	"github.com/gofiber/fiber/v2"
)

// ErrorResp is the uniform error envelope.
type ErrorResp struct {
	OK    bool   `json:"ok"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// kindOf names the business error kind for clients.
func kindOf(err error) string {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return "NotFound"
	case errors.Is(err, apperr.ErrForbidden):
		return "Forbidden"
	case errors.Is(err, apperr.ErrTerminalState):
		return "TerminalStateViolation"
	case errors.Is(err, apperr.ErrInvalidTransition):
		return "InvalidTransition"
	case errors.Is(err, apperr.ErrMissingRejectionReason):
		return "MissingRejectionReason"
	case errors.Is(err, apperr.ErrDelegationPrecondition):
		return "DelegationPreconditionFailed"
	case errors.Is(err, apperr.ErrEmptyContent):
		return "EmptyContent"
	case errors.Is(err, apperr.ErrChannelNotAvailable):
		return "ChannelNotAvailable"
	case errors.Is(err, apperr.ErrConcurrentModification):
		return "ConcurrentModification"
	case errors.Is(err, apperr.ErrUnavailable):
		return "Unavailable"
	default:
		return "Internal"
	}
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, apperr.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, apperr.ErrTerminalState),
		errors.Is(err, apperr.ErrInvalidTransition),
		errors.Is(err, apperr.ErrDelegationPrecondition),
		errors.Is(err, apperr.ErrChannelNotAvailable),
		errors.Is(err, apperr.ErrConcurrentModification):
		return fiber.StatusConflict
	case errors.Is(err, apperr.ErrMissingRejectionReason),
		errors.Is(err, apperr.ErrEmptyContent):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// fail renders a business error with its mapped status and kind.
func fail(c *fiber.Ctx, err error) error {
	return c.Status(statusOf(err)).JSON(ErrorResp{OK: false, Kind: kindOf(err), Error: err.Error()})
}

func badReq(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResp{OK: false, Kind: "BadRequest", Error: msg})
}
