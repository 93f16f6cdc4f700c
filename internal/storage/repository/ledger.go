package repository

import (
	"context"
	"fmt"

	"github.com/membergate/subscription-gatekeeper/internal/models"
)

// RecordTransaction записывает транзакционный токен процессора в леджер.
func (s *Storage) RecordTransaction(ctx context.Context, rec models.TransactionRecord) error {
	const op = "storage.RecordTransaction"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO app_tokens (user_id, token_type, token)
			  VALUES ($1, $2, $3)`
	if _, err := s.DB.ExecContext(ctx, query, rec.UserID, rec.TokenType, rec.Token); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RecordSubscriptionTransaction записывает settlement id списания в леджер
// и в той же транзакции продлевает подписку на месяц вперёд. Продление
// атомарно с записью, чтобы параллельная зачистка не увидела подписку
// истёкшей второй раз.
func (s *Storage) RecordSubscriptionTransaction(ctx context.Context, userID int64, token string) error {
	const op = "storage.RecordSubscriptionTransaction"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	insertQuery := `INSERT INTO app_tokens (user_id, token_type, token)
				    VALUES ($1, $2, $3)`
	if _, err := tx.ExecContext(ctx, insertQuery,
		userID, models.TokenTypeSubscriptionTransaction, token); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	renewQuery := `UPDATE subscriptions
				   SET paid_through = GREATEST(paid_through, CURRENT_DATE) + INTERVAL '1 month'
				   WHERE user_id = $1`
	if _, err := tx.ExecContext(ctx, renewQuery, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListTransactions возвращает токены леджера пользователя по типу.
func (s *Storage) ListTransactions(ctx context.Context, userID int64, tokenType string) ([]*models.TransactionRecord, error) {
	const op = "storage.ListTransactions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT user_id, token_type, token
			  FROM app_tokens
			  WHERE user_id = $1 AND token_type = $2
			  ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, query, userID, tokenType)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.TransactionRecord
	for rows.Next() {
		var rec models.TransactionRecord
		if err := rows.Scan(&rec.UserID, &rec.TokenType, &rec.Token); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
