package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"travelwatch/internal/domain"
	"travelwatch/internal/repository"
)

// RecordInput is a validated aggregated record as presented by the
// client; the shape gate guarantees the required fields before the
// handler decodes it.
type RecordInput struct {
	Country   string          `json:"country"`
	Timestamp time.Time       `json:"timestamp"`
	Covid     json.RawMessage `json:"covid"`
	Travel    json.RawMessage `json:"travel"`
	Raw       json.RawMessage `json:"raw,omitempty"`
}

type RecordService struct {
	recordRepo repository.RecordRepository
}

func NewRecordService(recordRepo repository.RecordRepository) *RecordService {
	return &RecordService{recordRepo: recordRepo}
}

func (s *RecordService) Save(ctx context.Context, in *RecordInput) (*domain.Record, error) {
	rec := recordFromInput(in)
	rec.ID = uuid.NewString()
	rec.DateFetched = time.Now().UTC()
	if err := s.recordRepo.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *RecordService) List(ctx context.Context) ([]domain.Record, error) {
	return s.recordRepo.List(ctx)
}

func (s *RecordService) Update(ctx context.Context, id string, in *RecordInput) (*domain.Record, error) {
	rec := recordFromInput(in)
	rec.ID = id
	rec.DateFetched = time.Now().UTC()
	return s.recordRepo.Update(ctx, rec)
}

func (s *RecordService) Delete(ctx context.Context, id string) error {
	return s.recordRepo.Delete(ctx, id)
}

func recordFromInput(in *RecordInput) *domain.Record {
	return &domain.Record{
		Country:   in.Country,
		Timestamp: in.Timestamp,
		Covid:     datatypes.JSON(in.Covid),
		Travel:    datatypes.JSON(in.Travel),
		Raw:       datatypes.JSON(in.Raw),
	}
}
