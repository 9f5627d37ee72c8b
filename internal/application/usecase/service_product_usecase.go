package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

// ServiceProductUseCase administra la lista de materiales de los servicios.
type ServiceProductUseCase struct {
	repo     repository.ServiceProductRepository
	products repository.ProductRepository
}

// NewServiceProductUseCase construye el caso de uso.
func NewServiceProductUseCase(repo repository.ServiceProductRepository, products repository.ProductRepository) *ServiceProductUseCase {
	return &ServiceProductUseCase{repo: repo, products: products}
}

// Add agrega un producto a la lista del servicio. ErrDuplicate si ya estaba.
func (uc *ServiceProductUseCase) Add(ctx context.Context, tenantID, serviceID string, in dto.AddServiceProductRequest) (*dto.ServiceProductResponse, error) {
	if serviceID == "" {
		return nil, domain.NewValidationError("service_id", "es requerido")
	}
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	if len(in.Metadata) > 0 && !json.Valid(in.Metadata) {
		return nil, domain.NewValidationError("metadata", "debe ser JSON válido")
	}
	product, err := uc.products.GetByID(ctx, tenantID, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	link := &entity.ServiceProductLink{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		ServiceID: serviceID,
		ProductID: in.ProductID,
		Quantity:  in.Quantity,
		Optional:  in.Optional,
		Metadata:  in.Metadata,
		CreatedAt: time.Now(),
	}
	if err := uc.repo.Create(ctx, link); err != nil {
		return nil, err
	}
	out := toServiceProductResponse(link)
	return &out, nil
}

// List devuelve la lista de materiales del servicio.
func (uc *ServiceProductUseCase) List(ctx context.Context, tenantID, serviceID string) (*dto.ServiceProductListResponse, error) {
	links, err := uc.repo.ListByService(ctx, tenantID, serviceID)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ServiceProductResponse, 0, len(links))
	for _, l := range links {
		items = append(items, toServiceProductResponse(l))
	}
	return &dto.ServiceProductListResponse{ServiceID: serviceID, Items: items}, nil
}

func toServiceProductResponse(l *entity.ServiceProductLink) dto.ServiceProductResponse {
	return dto.ServiceProductResponse{
		ID:        l.ID,
		ServiceID: l.ServiceID,
		ProductID: l.ProductID,
		Quantity:  l.Quantity,
		Optional:  l.Optional,
		Metadata:  l.Metadata,
		CreatedAt: l.CreatedAt,
	}
}
