package validator

import (
	"fmt"
	"strings"
	"time"

	"reserva/pkg/logger"
	"reserva/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "; ")
}

type ReservationValidator struct {
	validate *validator.Validate
	log      *logger.Logger
}

func NewReservationValidator(log *logger.Logger) *ReservationValidator {
	return &ReservationValidator{
		validate: validator.New(),
		log:      log,
	}
}

// Validate checks an incoming reservation request. Time-range coherence for
// nightly-priced resources lives in the pricing policy; this only covers
// structural rules that hold for every reservation.
func (rv *ReservationValidator) Validate(reservation *model.Reservation) error {
	if err := rv.validate.Struct(reservation); err != nil {
		return rv.translate(err)
	}

	var errs ValidationErrors
	if !reservation.StartAt.IsZero() && !reservation.EndAt.IsZero() && !reservation.EndAt.After(reservation.StartAt) {
		errs = append(errs, ValidationError{
			Field:   "end_at",
			Message: fmt.Sprintf("must be after start_at (%s)", reservation.StartAt.Format(time.RFC3339)),
		})
	}
	if len(errs) > 0 {
		return errs
	}

	return nil
}

func (rv *ReservationValidator) translate(err error) error {
	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return ValidationErrors{{Field: "request", Message: err.Error()}}
	}

	errs := make(ValidationErrors, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		errs = append(errs, ValidationError{
			Field:   strings.ToLower(fe.Field()),
			Message: messageFor(fe),
		})
	}
	return errs
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
