package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fieldops/backend/internal/domain/audit"
)

// ActivityService records and queries the audit trail. Recording is
// best-effort: a failed write is logged and swallowed so the business
// operation that triggered it is never aborted.
type ActivityService struct {
	logRepo audit.ActivityLogRepository
	logger  *zap.Logger
}

// NewActivityService creates a new ActivityService
func NewActivityService(logRepo audit.ActivityLogRepository, logger *zap.Logger) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{logRepo: logRepo, logger: logger}
}

// Record writes one audit entry. Snapshots are marshalled here; a snapshot
// that fails to marshal is recorded as null rather than failing the entry.
func (s *ActivityService) Record(ctx context.Context, action audit.Action, entityType string, entityID uuid.UUID, actorID *uuid.UUID, actorName string, before, after interface{}) {
	entry := audit.NewActivityLog(action, entityType, entityID, actorID, actorName, s.marshal(before), s.marshal(after))

	if err := s.logRepo.Append(ctx, entry); err != nil {
		s.logger.Warn("failed to write activity log",
			zap.String("action", string(action)),
			zap.String("entity_type", entityType),
			zap.String("entity_id", entityID.String()),
			zap.Error(err))
	}
}

func (s *ActivityService) marshal(v interface{}) json.RawMessage {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("failed to marshal activity snapshot", zap.Error(err))
		return nil
	}
	return data
}

// ListByEntity returns the audit trail for one entity, newest first
func (s *ActivityService) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]ActivityLogResponse, error) {
	logs, err := s.logRepo.FindByEntity(ctx, entityType, entityID)
	if err != nil {
		return nil, err
	}
	return ToActivityLogResponses(logs), nil
}

// List returns audit entries matching the filter, newest first
func (s *ActivityService) List(ctx context.Context, filter ActivityLogListFilter) ([]ActivityLogResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}

	domainFilter := audit.ActivityLogFilter{
		EntityType: filter.EntityType,
		EntityID:   filter.EntityID,
		ActorID:    filter.ActorID,
		Action:     audit.Action(filter.Action),
		Page:       filter.Page,
		PageSize:   filter.PageSize,
	}

	logs, err := s.logRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.logRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToActivityLogResponses(logs), total, nil
}

// ActivityLogListFilter represents filter options for the audit trail
type ActivityLogListFilter struct {
	EntityType string     `form:"entity_type"`
	EntityID   *uuid.UUID `form:"entity_id"`
	ActorID    *uuid.UUID `form:"actor_id"`
	Action     string     `form:"action"`
	Page       int        `form:"page"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=200"`
}

// ActivityLogResponse represents an audit entry in API responses
type ActivityLogResponse struct {
	ID         uuid.UUID       `json:"id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   uuid.UUID       `json:"entity_id"`
	ActorID    *uuid.UUID      `json:"actor_id,omitempty"`
	ActorName  string          `json:"actor_name,omitempty"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ToActivityLogResponses converts domain audit entries to response DTOs
func ToActivityLogResponses(logs []*audit.ActivityLog) []ActivityLogResponse {
	responses := make([]ActivityLogResponse, len(logs))
	for i, l := range logs {
		responses[i] = ActivityLogResponse{
			ID:         l.ID,
			Action:     string(l.Action),
			EntityType: l.EntityType,
			EntityID:   l.EntityID,
			ActorID:    l.ActorID,
			ActorName:  l.ActorName,
			Before:     l.Before,
			After:      l.After,
			CreatedAt:  l.CreatedAt,
		}
	}
	return responses
}
