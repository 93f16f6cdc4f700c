package stripegw

import (
	"errors"

	stripe "github.com/stripe/stripe-go"
)

// APIError — ошибка процессора в терминах гейткипера. Declined отличает
// отказ по карте от системной ошибки процессора или транспорта.
type APIError struct {
	Declined bool
	Code     string
	Message  string
}

func (e *APIError) Error() string {
	if e.Declined {
		return "card declined: " + e.Message
	}
	return "payment provider error: " + e.Message
}

// wrapStripeErr переводит ошибку SDK в *APIError. Ошибки транспорта
// (процессор недоступен) считаются системными.
func wrapStripeErr(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return &APIError{
			Declined: stripeErr.Type == stripe.ErrorTypeCard,
			Code:     string(stripeErr.Code),
			Message:  stripeErr.Msg,
		}
	}
	return &APIError{Message: err.Error()}
}
