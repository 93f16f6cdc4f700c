// Package stripegw реализует клиент платёжного процессора Stripe:
// создание customer, списание и постраничный список списаний.
//
// Секретный ключ передаётся при конструировании и живёт в экземпляре
// клиента, глобальное состояние SDK не используется.
package stripegw

import (
	"context"
	"fmt"

	stripe "github.com/stripe/stripe-go"
	"github.com/stripe/stripe-go/client"

	"github.com/membergate/subscription-gatekeeper/internal/models"
)

// Client — клиент Stripe поверх официального SDK.
type Client struct {
	api *client.API
}

// New создаёт клиент Stripe с заданным секретным ключом.
func New(secretKey string) *Client {
	return &Client{api: client.New(secretKey, nil)}
}

// CreateCustomer создаёт customer у процессора по email и одноразовому
// карточному токену, возвращает идентификатор customer.
func (c *Client) CreateCustomer(ctx context.Context, email, sourceToken string) (string, error) {
	const op = "stripegw.CreateCustomer"

	params := &stripe.CustomerParams{
		Email: stripe.String(email),
	}
	params.Context = ctx
	if err := params.SetSource(sourceToken); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	cust, err := c.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, wrapStripeErr(err))
	}
	return cust.ID, nil
}

// CreateCharge списывает amount (в минорных единицах, валюта USD) с customer.
// Ровно один вызов процессора, без повторов.
func (c *Client) CreateCharge(ctx context.Context, amount int64, description, customerID string) (*models.ChargeResult, error) {
	const op = "stripegw.CreateCharge"

	params := &stripe.ChargeParams{
		Amount:      stripe.Int64(amount),
		Currency:    stripe.String(string(stripe.CurrencyUSD)),
		Description: stripe.String(description),
		Customer:    stripe.String(customerID),
	}
	params.Context = ctx

	ch, err := c.api.Charges.New(params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, wrapStripeErr(err))
	}

	result := &models.ChargeResult{
		ChargeID:    ch.ID,
		CustomerRef: customerID,
		Amount:      ch.Amount,
		Currency:    string(ch.Currency),
		Status:      string(ch.Status),
	}
	if ch.BalanceTransaction != nil {
		result.SettlementID = ch.BalanceTransaction.ID
	}
	return result, nil
}

// ListCharges возвращает одну страницу списаний customer размером до limit.
// Непустой startingAfter запрашивает записи строго после указанного id,
// endingBefore — строго до него.
func (c *Client) ListCharges(ctx context.Context, customerID string, limit int64, startingAfter, endingBefore string) (*models.HistoryPage, error) {
	const op = "stripegw.ListCharges"

	params := &stripe.ChargeListParams{
		Customer: stripe.String(customerID),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(limit)
	// Single выключает автоподгрузку следующих страниц итератором.
	params.Single = true
	if startingAfter != "" {
		params.StartingAfter = stripe.String(startingAfter)
	}
	if endingBefore != "" {
		params.EndingBefore = stripe.String(endingBefore)
	}

	iter := c.api.Charges.List(params)
	page := &models.HistoryPage{Items: []models.HistoryItem{}}
	for iter.Next() {
		ch := iter.Charge()
		page.Items = append(page.Items, models.HistoryItem{
			ID:          ch.ID,
			Amount:      ch.Amount,
			Currency:    string(ch.Currency),
			Description: ch.Description,
			Status:      string(ch.Status),
			Created:     ch.Created,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, wrapStripeErr(err))
	}
	page.HasMore = iter.Meta().HasMore
	return page, nil
}
