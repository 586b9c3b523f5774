package inventorysvc

import (
	"context"
	"time"

	"github.com/sabry-awad97/telepharma/internal/dal/interfaces/imedicinerepo"
	"github.com/sabry-awad97/telepharma/internal/service/models/medicine"
	"go.opentelemetry.io/otel"
)

// InventoryService is the read side of the pharmacy catalog.
type InventoryService struct {
	medicineRepo imedicinerepo.IMedicineRepository
}

// option is a function that configures the InventoryService.
type option func(*InventoryService)

// MustNewInventoryService creates a new InventoryService.
func MustNewInventoryService(opts ...option) *InventoryService {
	s := &InventoryService{}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// WithMedicineRepository sets the medicine repository for the InventoryService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithMedicineRepository(medicineRepo imedicinerepo.IMedicineRepository) option {
	return func(s *InventoryService) {
		s.medicineRepo = medicineRepo
	}
}

// ListMedicines returns the whole catalog ordered by name. Expired
// medicines stay visible here, order placement is where they are refused.
func (s *InventoryService) ListMedicines(ctx context.Context) ([]medicine.Medicine, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "InventoryService.ListMedicines")
	defer span.End()

	return s.medicineRepo.List(ctx)
}

// GetMedicine returns a single medicine by id.
func (s *InventoryService) GetMedicine(ctx context.Context, id int64) (*medicine.Medicine, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "InventoryService.GetMedicine")
	defer span.End()

	return s.medicineRepo.Get(ctx, id)
}

// ListExpiring returns medicines expiring within the given window from now.
func (s *InventoryService) ListExpiring(
	ctx context.Context,
	window time.Duration,
) ([]medicine.Medicine, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "InventoryService.ListExpiring")
	defer span.End()

	return s.medicineRepo.ListExpiring(ctx, time.Now().Add(window))
}
