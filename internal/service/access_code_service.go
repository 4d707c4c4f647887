package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"time"

	"app/internal/model"
	"app/internal/pubsub"
	"app/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ValidationError reports a submission blocked before any network or
// storage call was made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// ReceiptUpload is an incoming receipt attachment.
type ReceiptUpload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// AccessCodeService issues and updates course access codes.
type AccessCodeService interface {
	// Issue validates the draft, stores the receipt, generates a code and
	// persists the record. The receipt is required on the create path.
	Issue(ctx context.Context, draft model.AccessCodeDraft, receipt *ReceiptUpload, issuedBy string) (*model.AccessCodeRecord, error)
	// Update rewrites an existing record from the draft. No attachment is
	// required; a provided one replaces the stored receipt.
	Update(ctx context.Context, accessCodeID string, draft model.AccessCodeDraft, receipt *ReceiptUpload) (*model.AccessCodeRecord, error)
	GetByID(ctx context.Context, accessCodeID string) (*model.AccessCodeRecord, error)
	// GetByCode looks a record up by the human-readable code, the handle
	// students quote at the support desk.
	GetByCode(ctx context.Context, code string) (*model.AccessCodeRecord, error)
	ReceiptURL(ctx context.Context, rec *model.AccessCodeRecord) (string, error)
}

type accessCodeService struct {
	repo        repository.AccessCodeRepository
	receipts    ReceiptStore
	publisher   pubsub.Publisher
	eventsTopic string
	logger      zerolog.Logger
}

// NewAccessCodeService creates a new AccessCodeService
func NewAccessCodeService(
	repo repository.AccessCodeRepository,
	receipts ReceiptStore,
	publisher pubsub.Publisher,
	eventsTopic string,
	logger zerolog.Logger,
) AccessCodeService {
	return &accessCodeService{
		repo:        repo,
		receipts:    receipts,
		publisher:   publisher,
		eventsTopic: eventsTopic,
		logger:      logger,
	}
}

func validateDraft(draft model.AccessCodeDraft) error {
	if draft.LevelID == "" {
		return &ValidationError{Field: "level_id", Reason: "required"}
	}
	if draft.UserID == "" {
		return &ValidationError{Field: "user_id", Reason: "required"}
	}
	if draft.AmountPaid <= 0 {
		return &ValidationError{Field: "amount_paid", Reason: "must be greater than zero"}
	}
	return nil
}

func (s *accessCodeService) Issue(ctx context.Context, draft model.AccessCodeDraft, receipt *ReceiptUpload, issuedBy string) (*model.AccessCodeRecord, error) {
	if err := validateDraft(draft); err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, &ValidationError{Field: "receipt", Reason: "attachment required"}
	}

	receiptPath, err := s.storeReceipt(ctx, receipt)
	if err != nil {
		return nil, err
	}

	rec := &model.AccessCodeRecord{
		Code:             newAccessCode(),
		SpecializationID: draft.SpecializationID,
		CourseID:         draft.CourseID,
		InstructorID:     draft.InstructorID,
		LevelID:          draft.LevelID,
		CouponID:         optionalID(draft.CouponID),
		UserID:           draft.UserID,
		AmountPaid:       draft.AmountPaid,
		ValidityMonths:   draft.ValidityMonths,
		Notes:            draft.Notes,
		ReceiptPath:      receiptPath,
		IssuedBy:         issuedBy,
	}
	if err := s.repo.Insert(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to insert access code: %w", err)
	}

	s.publishEvent(ctx, "access_code.issued", rec)
	s.logger.Info().
		Str("access_code_id", rec.AccessCodeID).
		Str("level_id", rec.LevelID).
		Int64("amount_paid", rec.AmountPaid).
		Msg("access code issued")
	return rec, nil
}

func (s *accessCodeService) Update(ctx context.Context, accessCodeID string, draft model.AccessCodeDraft, receipt *ReceiptUpload) (*model.AccessCodeRecord, error) {
	if err := validateDraft(draft); err != nil {
		return nil, err
	}
	rec, err := s.repo.GetByID(ctx, accessCodeID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("access code %s not found", accessCodeID)
	}

	if receipt != nil {
		receiptPath, err := s.storeReceipt(ctx, receipt)
		if err != nil {
			return nil, err
		}
		rec.ReceiptPath = receiptPath
	}

	rec.SpecializationID = draft.SpecializationID
	rec.CourseID = draft.CourseID
	rec.InstructorID = draft.InstructorID
	rec.LevelID = draft.LevelID
	rec.CouponID = optionalID(draft.CouponID)
	rec.UserID = draft.UserID
	rec.AmountPaid = draft.AmountPaid
	rec.ValidityMonths = draft.ValidityMonths
	rec.Notes = draft.Notes

	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to update access code: %w", err)
	}

	s.publishEvent(ctx, "access_code.updated", rec)
	s.logger.Info().Str("access_code_id", rec.AccessCodeID).Msg("access code updated")
	return rec, nil
}

func (s *accessCodeService) GetByID(ctx context.Context, accessCodeID string) (*model.AccessCodeRecord, error) {
	return s.repo.GetByID(ctx, accessCodeID)
}

func (s *accessCodeService) GetByCode(ctx context.Context, code string) (*model.AccessCodeRecord, error) {
	return s.repo.GetByCode(ctx, code)
}

func (s *accessCodeService) ReceiptURL(ctx context.Context, rec *model.AccessCodeRecord) (string, error) {
	if rec.ReceiptPath == "" {
		return "", nil
	}
	return s.receipts.PresignGet(ctx, rec.ReceiptPath)
}

func (s *accessCodeService) storeReceipt(ctx context.Context, receipt *ReceiptUpload) (string, error) {
	key := fmt.Sprintf("receipts/%s-%s", uuid.New().String(), receipt.Filename)
	if err := s.receipts.Put(ctx, key, receipt.ContentType, receipt.Body); err != nil {
		return "", err
	}
	return key, nil
}

// publishEvent is best effort: a broker hiccup must not fail an issuance
// that is already persisted.
func (s *accessCodeService) publishEvent(ctx context.Context, eventType string, rec *model.AccessCodeRecord) {
	if s.publisher == nil {
		return
	}
	_, err := pubsub.PublishAccessCodeEvent(ctx, s.publisher, s.eventsTopic, pubsub.AccessCodeEvent{
		Type:         eventType,
		AccessCodeID: rec.AccessCodeID,
		Code:         rec.Code,
		LevelID:      rec.LevelID,
		UserID:       rec.UserID,
		AmountPaid:   rec.AmountPaid,
		OccurredAt:   time.Now().UTC(),
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("type", eventType).Msg("failed to publish access code event")
	}
}

func optionalID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

// codeAlphabet omits lookalike characters; codes are read out loud to
// students.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func newAccessCode() string {
	var b [10]byte
	_, _ = rand.Read(b[:])
	for i := range b {
		b[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}
	return string(b[:])
}
