package procurement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appcurrency "github.com/fieldops/backend/internal/application/currency"
	"github.com/fieldops/backend/internal/domain/procurement"
	"github.com/fieldops/backend/internal/domain/project"
	"github.com/fieldops/backend/internal/domain/shared"
	"github.com/fieldops/backend/internal/domain/shared/valueobject"
)

// ObjectStorageService abstracts the attachment store (S3-compatible)
type ObjectStorageService interface {
	// GenerateUploadURL generates a presigned URL for uploading a file
	GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error)

	// GenerateDownloadURL generates a presigned URL for downloading a file
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)

	// DeleteObject deletes an object from storage
	DeleteObject(ctx context.Context, storageKey string) error

	// ObjectExists checks if an object exists in storage
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
}

// PurchaseOrderService handles purchase order lifecycle operations
type PurchaseOrderService struct {
	poRepo      procurement.PurchaseOrderRepository
	projectRepo project.Repository
	currencySvc *appcurrency.CurrencyService
	storage     ObjectStorageService
	logger      *zap.Logger
}

// NewPurchaseOrderService creates a new PurchaseOrderService
func NewPurchaseOrderService(poRepo procurement.PurchaseOrderRepository, projectRepo project.Repository, currencySvc *appcurrency.CurrencyService, logger *zap.Logger) *PurchaseOrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PurchaseOrderService{
		poRepo:      poRepo,
		projectRepo: projectRepo,
		currencySvc: currencySvc,
		logger:      logger,
	}
}

// SetStorage sets the attachment storage backend
func (s *PurchaseOrderService) SetStorage(storage ObjectStorageService) {
	s.storage = storage
}

// Create creates the first revision of a new purchase order. The owning
// project must already exist; when it is still in planning this first
// purchase order promotes it to ongoing, and both writes share one
// transaction with the purchase order row.
func (s *PurchaseOrderService) Create(ctx context.Context, actor shared.Actor, req CreatePurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	exists, err := s.poRepo.ExistsByBase(ctx, req.PONumber)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.ErrAlreadyExists
	}

	proj, err := s.projectRepo.FindByCode(ctx, req.ProjectCode)
	if err != nil {
		return nil, err
	}

	receivedDate := time.Now()
	if req.ReceivedDate != nil {
		receivedDate = *req.ReceivedDate
	}

	cur := valueobject.Currency(strings.ToUpper(req.Currency))
	conv, err := s.currencySvc.ConversionFor(ctx, req.Amount, cur, receivedDate, req.ManualRate)
	if err != nil {
		return nil, err
	}

	po, err := procurement.NewPurchaseOrder(req.PONumber, req.ProjectCode, req.Description, req.Amount, cur, conv, receivedDate, req.DueDate, &actor.ID)
	if err != nil {
		return nil, err
	}

	proj.Activate(req.PlannedHours)

	events := append(po.GetDomainEvents(), proj.GetDomainEvents()...)
	po.ClearDomainEvents()
	proj.ClearDomainEvents()

	if err := s.poRepo.CreateWithProject(ctx, po, proj, events); err != nil {
		return nil, err
	}

	response := ToPurchaseOrderResponse(po)
	return &response, nil
}

// CreateRevision supersedes the given revision with a new one. The pair is
// persisted atomically so exactly one revision per chain stays active.
func (s *PurchaseOrderService) CreateRevision(ctx context.Context, actor shared.Actor, id uuid.UUID, req CreateRevisionRequest) (*PurchaseOrderResponse, error) {
	original, err := s.poRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	receivedDate := time.Now()
	if req.ReceivedDate != nil {
		receivedDate = *req.ReceivedDate
	}

	cur := valueobject.Currency(strings.ToUpper(req.Currency))
	conv, err := s.currencySvc.ConversionFor(ctx, req.Amount, cur, receivedDate, req.ManualRate)
	if err != nil {
		return nil, err
	}

	rev, err := original.NewRevision(req.Amount, cur, conv, receivedDate, req.Description, actor.ID)
	if err != nil {
		return nil, err
	}
	original.MarkSuperseded(rev.ID)

	events := append(rev.GetDomainEvents(), original.GetDomainEvents()...)
	rev.ClearDomainEvents()
	original.ClearDomainEvents()

	if err := s.poRepo.SaveRevision(ctx, rev, original, events); err != nil {
		return nil, err
	}

	response := ToPurchaseOrderResponse(rev)
	return &response, nil
}

// AdjustAmount applies a manual MYR override to an active revision
func (s *PurchaseOrderService) AdjustAmount(ctx context.Context, actor shared.Actor, id uuid.UUID, req AdjustAmountRequest) (*PurchaseOrderResponse, error) {
	po, err := s.poRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := po.AdjustMYRAmount(req.AmountMYRAdjusted, req.Reason, actor.ID); err != nil {
		return nil, err
	}

	events := po.GetDomainEvents()
	po.ClearDomainEvents()
	if err := s.poRepo.SaveWithLockAndEvents(ctx, po, events); err != nil {
		return nil, err
	}

	response := ToPurchaseOrderResponse(po)
	return &response, nil
}

// UpdateStatus moves the commercial status of an active revision
func (s *PurchaseOrderService) UpdateStatus(ctx context.Context, id uuid.UUID, req UpdateStatusRequest) (*PurchaseOrderResponse, error) {
	po, err := s.poRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := po.UpdateStatus(procurement.Status(req.Status)); err != nil {
		return nil, err
	}

	events := po.GetDomainEvents()
	po.ClearDomainEvents()
	if err := s.poRepo.SaveWithLockAndEvents(ctx, po, events); err != nil {
		return nil, err
	}

	response := ToPurchaseOrderResponse(po)
	return &response, nil
}

// Update edits the non-financial fields of an active revision
func (s *PurchaseOrderService) Update(ctx context.Context, id uuid.UUID, req UpdatePurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	po, err := s.poRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := po.UpdateDetails(req.Description, req.DueDate); err != nil {
		return nil, err
	}

	if err := s.poRepo.SaveWithLock(ctx, po); err != nil {
		return nil, err
	}

	response := ToPurchaseOrderResponse(po)
	return &response, nil
}

// Delete removes a purchase order chain. When it was the project's last
// purchase order, the project reverts to planning in the same transaction.
// The stored attachment is removed best-effort after the commit.
func (s *PurchaseOrderService) Delete(ctx context.Context, id uuid.UUID) error {
	po, err := s.poRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if po.IsPaid() {
		return shared.NewDomainError("INVALID_STATE", "Paid purchase orders cannot be deleted")
	}

	proj, err := s.projectRepo.FindByCode(ctx, po.ProjectCode)
	if err != nil {
		return err
	}

	chain, err := s.poRepo.FindHistoryByBase(ctx, po.PONumberBase)
	if err != nil {
		return err
	}
	projectTotal, err := s.poRepo.CountByProject(ctx, po.ProjectCode)
	if err != nil {
		return err
	}

	// Last chain of the project: mirror the activation
	reverted := false
	if projectTotal == int64(len(chain)) && proj.Status == project.StatusOngoing {
		if err := proj.RevertToPlanning(); err != nil {
			return err
		}
		reverted = true
	}

	po.AddDomainEvent(procurement.NewPurchaseOrderDeletedEvent(po, reverted))
	events := append(po.GetDomainEvents(), proj.GetDomainEvents()...)
	po.ClearDomainEvents()
	proj.ClearDomainEvents()

	var projToSave *project.Project
	if reverted {
		projToSave = proj
	}
	if err := s.poRepo.DeleteWithProject(ctx, po, projToSave, events); err != nil {
		return err
	}

	if s.storage != nil {
		for i := range chain {
			if key := chain[i].AttachmentKey; key != "" {
				if err := s.storage.DeleteObject(ctx, key); err != nil {
					s.logger.Warn("failed to delete purchase order attachment",
						zap.String("po_number", chain[i].PONumber),
						zap.String("storage_key", key),
						zap.Error(err))
				}
			}
		}
	}

	return nil
}

// GetByID retrieves a purchase order revision by ID
func (s *PurchaseOrderService) GetByID(ctx context.Context, id uuid.UUID) (*PurchaseOrderResponse, error) {
	po, err := s.poRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToPurchaseOrderResponse(po)
	return &response, nil
}

// GetActive retrieves the active revision of a chain by base number
func (s *PurchaseOrderService) GetActive(ctx context.Context, poNumberBase string) (*PurchaseOrderResponse, error) {
	po, err := s.poRepo.FindActiveByBase(ctx, poNumberBase)
	if err != nil {
		return nil, err
	}
	response := ToPurchaseOrderResponse(po)
	return &response, nil
}

// GetHistory retrieves the full revision chain, oldest first
func (s *PurchaseOrderService) GetHistory(ctx context.Context, poNumberBase string) ([]PurchaseOrderResponse, error) {
	chain, err := s.poRepo.FindHistoryByBase(ctx, poNumberBase)
	if err != nil {
		return nil, err
	}
	if len(chain) == 0 {
		return nil, shared.ErrNotFound
	}
	return ToPurchaseOrderResponses(chain), nil
}

// List retrieves purchase orders with filtering and pagination
func (s *PurchaseOrderService) List(ctx context.Context, filter PurchaseOrderListFilter) ([]PurchaseOrderResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "received_date"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.ActiveOnly {
		domainFilter.Filters["is_active"] = true
	}
	if filter.StartDate != nil {
		domainFilter.Filters["received_from"] = *filter.StartDate
	}
	if filter.EndDate != nil {
		domainFilter.Filters["received_to"] = *filter.EndDate
	}

	var pos []procurement.PurchaseOrder
	var err error
	if filter.ProjectCode != "" {
		domainFilter.Filters["project_code"] = filter.ProjectCode
		pos, err = s.poRepo.FindByProject(ctx, filter.ProjectCode, domainFilter)
	} else {
		pos, err = s.poRepo.FindAll(ctx, domainFilter)
	}
	if err != nil {
		return nil, 0, err
	}

	total, err := s.poRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToPurchaseOrderResponses(pos), total, nil
}

// ProjectRevenue rolls up the project's MYR revenue over active revisions
func (s *PurchaseOrderService) ProjectRevenue(ctx context.Context, projectCode string) (*ProjectRevenueResponse, error) {
	proj, err := s.projectRepo.FindByCode(ctx, projectCode)
	if err != nil {
		return nil, err
	}

	total, err := s.poRepo.SumActiveEffectiveMYRByProject(ctx, projectCode)
	if err != nil {
		return nil, err
	}

	activeCount, err := s.poRepo.Count(ctx, shared.Filter{
		Filters: map[string]interface{}{
			"project_code": projectCode,
			"is_active":    true,
		},
	})
	if err != nil {
		return nil, err
	}

	return &ProjectRevenueResponse{
		ProjectCode:     proj.ProjectCode,
		ProjectStatus:   proj.Status.String(),
		TotalRevenueMYR: total,
		ActivePOCount:   activeCount,
	}, nil
}

// AttachmentUploadURL generates a presigned upload URL and records the
// storage key on the revision
func (s *PurchaseOrderService) AttachmentUploadURL(ctx context.Context, id uuid.UUID, fileName, contentType string) (string, time.Time, error) {
	if s.storage == nil {
		return "", time.Time{}, shared.NewDomainError("STORAGE_UNAVAILABLE", "Attachment storage is not configured")
	}
	po, err := s.poRepo.FindByID(ctx, id)
	if err != nil {
		return "", time.Time{}, err
	}
	if !po.IsActive {
		return "", time.Time{}, shared.ErrInactiveRevision
	}

	key := fmt.Sprintf("purchase-orders/%s/%s", po.ID, fileName)
	url, expiresAt, err := s.storage.GenerateUploadURL(ctx, key, contentType, 0)
	if err != nil {
		return "", time.Time{}, err
	}

	po.SetAttachment(key)
	if err := s.poRepo.SaveWithLock(ctx, po); err != nil {
		return "", time.Time{}, err
	}

	return url, expiresAt, nil
}

// AttachmentDownloadURL generates a presigned download URL for the
// revision's attachment
func (s *PurchaseOrderService) AttachmentDownloadURL(ctx context.Context, id uuid.UUID) (string, time.Time, error) {
	if s.storage == nil {
		return "", time.Time{}, shared.NewDomainError("STORAGE_UNAVAILABLE", "Attachment storage is not configured")
	}
	po, err := s.poRepo.FindByID(ctx, id)
	if err != nil {
		return "", time.Time{}, err
	}
	if po.AttachmentKey == "" {
		return "", time.Time{}, shared.ErrNotFound
	}

	return s.storage.GenerateDownloadURL(ctx, po.AttachmentKey, 0)
}
