package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/membergate/subscription-gatekeeper/internal/models"
)

// GetSubscriptionStatus возвращает статус подписки пользователя.
// Отсутствие строки в subscriptions означает, что пользователя ещё
// ни разу не биллили (Exists=false).
func (s *Storage) GetSubscriptionStatus(ctx context.Context, userID int64) (models.SubscriptionStatus, error) {
	const op = "storage.GetSubscriptionStatus"
	select {
	case <-ctx.Done():
		return models.SubscriptionStatus{}, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT paid_through >= CURRENT_DATE
			  FROM subscriptions
			  WHERE user_id = $1`
	var valid bool
	err := s.DB.QueryRowContext(ctx, query, userID).Scan(&valid)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SubscriptionStatus{Exists: false, Valid: false}, nil
	}
	if err != nil {
		return models.SubscriptionStatus{}, fmt.Errorf("%s: %w", op, err)
	}
	return models.SubscriptionStatus{Exists: true, Valid: valid}, nil
}

// GetExpiredSubscription возвращает истёкшую подписку пользователя,
// готовую к списанию. sql.ErrNoRows, если подписка не истекла или её нет.
func (s *Storage) GetExpiredSubscription(ctx context.Context, userID int64) (*models.ExpiredSubscription, error) {
	const op = "storage.GetExpiredSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT s.user_id, COALESCE(u.stripe_customer_ref, ''), u.email, s.amount_due
			  FROM subscriptions s
			  JOIN users u ON u.id = s.user_id
			  WHERE s.user_id = $1
			    AND s.paid_through < CURRENT_DATE`
	var result models.ExpiredSubscription
	row := s.DB.QueryRowContext(ctx, query, userID)
	if err := row.Scan(&result.UserID, &result.CustomerRef, &result.Email, &result.AmountDue); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// GetExpiredSubscriptions возвращает все истёкшие подписки для ежедневной зачистки.
func (s *Storage) GetExpiredSubscriptions(ctx context.Context) ([]*models.ExpiredSubscription, error) {
	const op = "storage.GetExpiredSubscriptions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT s.user_id, COALESCE(u.stripe_customer_ref, ''), u.email, s.amount_due
			  FROM subscriptions s
			  JOIN users u ON u.id = s.user_id
			  WHERE s.paid_through < CURRENT_DATE
			  ORDER BY s.user_id`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.ExpiredSubscription
	for rows.Next() {
		var item models.ExpiredSubscription
		if err := rows.Scan(&item.UserID, &item.CustomerRef, &item.Email, &item.AmountDue); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetCustomerRef возвращает идентификатор customer у процессора.
// Пустая строка означает, что пользователя ещё ни разу не списывали.
func (s *Storage) GetCustomerRef(ctx context.Context, userID int64) (string, error) {
	const op = "storage.GetCustomerRef"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT COALESCE(stripe_customer_ref, '') FROM users WHERE id = $1`
	var ref string
	if err := s.DB.QueryRowContext(ctx, query, userID).Scan(&ref); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return ref, nil
}

// SaveCustomerRef сохраняет идентификатор customer процессора за пользователем.
func (s *Storage) SaveCustomerRef(ctx context.Context, userID int64, customerRef string) error {
	const op = "storage.SaveCustomerRef"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users SET stripe_customer_ref = $1 WHERE id = $2`
	if _, err := s.DB.ExecContext(ctx, query, customerRef, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
