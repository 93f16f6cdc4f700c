// Package models содержит доменные структуры биллинга: статус подписки,
// записи об истёкших подписках, запросы и результаты списаний.
package models

// TokenTypeSubscriptionTransaction — тип токена в леджере для транзакций
// по подписке. Значение фиксировано, другие типы токенов ядро не пишет.
const TokenTypeSubscriptionTransaction = "subscription_transaction"

// SubscriptionStatus отражает состояние подписки пользователя.
// Exists=false означает, что пользователя ещё ни разу не биллили;
// Valid имеет смысл только при Exists=true.
type SubscriptionStatus struct {
	Exists bool
	Valid  bool
}

// ExpiredSubscription — запись об истёкшей подписке, готовая к списанию.
// CustomerRef пуст, если у процессора ещё нет customer для пользователя.
type ExpiredSubscription struct {
	UserID      int64
	CustomerRef string
	Email       string
	AmountDue   int64 // в минорных единицах валюты
}

// ChargeRequest описывает одно списание. Пустой CustomerRef выбирает
// путь с созданием customer у процессора (нужны Email и SourceToken),
// непустой — прямое списание по существующему customer.
type ChargeRequest struct {
	UserID      int64  `json:"user_id"`
	CustomerRef string `json:"customer_ref"`
	Email       string `json:"email" validate:"omitempty,email"`
	AmountDue   int64  `json:"amount_due" validate:"required,gt=0"`
	SourceToken string `json:"source_token"`
}

// ChargeResult — квитанция процессора по завершённому списанию.
// SettlementID (balance transaction) используется как токен леджера.
type ChargeResult struct {
	ChargeID     string `json:"charge_id"`
	SettlementID string `json:"settlement_id"`
	CustomerRef  string `json:"customer_ref"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
}

// TransactionRecord — запись в леджере токенов.
type TransactionRecord struct {
	UserID    int64
	TokenType string
	Token     string
}

// HistoryItem — одно списание в истории транзакций.
type HistoryItem struct {
	ID          string `json:"id"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Created     int64  `json:"created"`
}

// HistoryPage — страница истории транзакций в том виде, в котором её
// вернул процессор. Дополнительного оконного усечения ядро не делает.
type HistoryPage struct {
	Items   []HistoryItem `json:"items"`
	HasMore bool          `json:"has_more"`
}
