package jwt

// Parser описывает интерфейс для разбора JWT токенов.
type Parser interface {
	// ParseToken возвращает *CustomClaims с идентификатором пользователя
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// ParserImpl реализует Parser с использованием секретного ключа.
type ParserImpl struct {
	secretKey string // Секретный ключ для проверки подписи токенов.
}

// NewParser создаёт новый экземпляр ParserImpl на основе секретного ключа.
func NewParser(secretKey string) *ParserImpl {
	return &ParserImpl{secretKey: secretKey}
}
