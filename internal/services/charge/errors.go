package charge

// ValidationError означает некорректный запрос на списание: вызов
// процессора при этом не выполняется.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid charge request: " + e.Reason
}

// GatewayError означает отказ или недоступность процессора. Declined
// позволяет вызывающей стороне отличить отказ по карте от системной
// ошибки и показать пользователю корректную подсказку.
type GatewayError struct {
	Declined bool
	Code     string
	Message  string
}

func (e *GatewayError) Error() string {
	if e.Declined {
		return "card declined: " + e.Message
	}
	return "payment gateway error: " + e.Message
}
