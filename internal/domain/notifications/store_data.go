package notifications

import "context"

type UserLocale struct {
	UserID string
	Locale string
}

func (s *Store) CreateNotification(ctx context.Context, companyID, userID, ntype, title, body string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO notifications (company_id, user_id, type, title, body)
    VALUES ($1,$2,$3,$4,$5)
  `, companyID, userID, ntype, title, body)
	return err
}

func (s *Store) ListUserLocales(ctx context.Context, companyID string) ([]UserLocale, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, locale FROM users WHERE company_id = $1 AND status = 'active'
  `, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UserLocale
	for rows.Next() {
		var u UserLocale
		if err := rows.Scan(&u.UserID, &u.Locale); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func (s *Store) ListNotifications(ctx context.Context, companyID, userID string, limit, offset int) ([]map[string]any, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, type, title, body, read_at, created_at
    FROM notifications
    WHERE company_id = $1 AND user_id = $2
    ORDER BY created_at DESC
    LIMIT $3 OFFSET $4
  `, companyID, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		var id, ntype, title, body string
		var readAt, createdAt any
		if err := rows.Scan(&id, &ntype, &title, &body, &readAt, &createdAt); err != nil {
			return nil, err
		}
		out = append(out, map[string]any{
			"id":        id,
			"type":      ntype,
			"title":     title,
			"body":      body,
			"readAt":    readAt,
			"createdAt": createdAt,
		})
	}
	return out, nil
}

func (s *Store) CountUnread(ctx context.Context, companyID, userID string) (int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM notifications WHERE company_id = $1 AND user_id = $2 AND read_at IS NULL", companyID, userID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) MarkRead(ctx context.Context, companyID, userID, notificationID string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE notifications SET read_at = now()
    WHERE company_id = $1 AND user_id = $2 AND id = $3
  `, companyID, userID, notificationID)
	return err
}

func (s *Store) UserEmail(ctx context.Context, companyID, userID string) (string, error) {
	var email string
	if err := s.DB.QueryRow(ctx, "SELECT email FROM users WHERE company_id = $1 AND id = $2", companyID, userID).Scan(&email); err != nil {
		return "", err
	}
	return email, nil
}
