package audit

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Service struct {
	DB *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Service {
	return &Service{DB: db}
}

func (s *Service) Record(ctx context.Context, companyID, actorID, action, entity, entityID, requestID, ip string, details any) error {
	var detailsJSON []byte
	if details != nil {
		payload, err := json.Marshal(details)
		if err != nil {
			return err
		}
		detailsJSON = payload
	}

	_, err := s.DB.Exec(ctx, `
    INSERT INTO audit_log (company_id, user_id, action, entity, entity_id, request_id, ip, details_json)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
  `, companyID, nullable(actorID), action, entity, entityID, requestID, ip, detailsJSON)
	return err
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
