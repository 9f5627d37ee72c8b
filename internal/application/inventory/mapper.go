package inventory

import (
	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

func toTransactionResponse(t *entity.InventoryTransaction) dto.TransactionResponse {
	return dto.TransactionResponse{
		ID:              t.ID,
		TenantID:        t.TenantID,
		ProductID:       t.ProductID,
		QuantityDelta:   t.QuantityDelta,
		TransactionType: t.TransactionType,
		ReferenceID:     t.ReferenceID,
		LocationID:      t.LocationID,
		UnitCost:        t.UnitCost.StringFixed(4),
		BalanceAfter:    t.BalanceAfter,
		CreatedBy:       t.CreatedBy,
		CreatedAt:       t.CreatedAt,
	}
}

func toMovementResponse(m *entity.InventoryMovement) *dto.MovementResponse {
	out := &dto.MovementResponse{
		ID:            m.ID,
		TenantID:      m.TenantID,
		ProductID:     m.ProductID,
		Quantity:      m.Quantity,
		Type:          m.Type,
		Reason:        m.Reason,
		Notes:         m.Notes,
		ReferenceID:   m.ReferenceID,
		ReferenceType: m.ReferenceType,
		Metadata:      m.Metadata,
		TransactionID: m.TransactionID,
		CreatedBy:     m.CreatedBy,
		CreatedAt:     m.CreatedAt,
	}
	if m.UnitCost.Valid {
		s := m.UnitCost.Decimal.StringFixed(4)
		out.UnitCost = &s
	}
	return out
}

func toTransferResponse(t *entity.InventoryTransfer) *dto.TransferResponse {
	return &dto.TransferResponse{
		ID:             t.ID,
		TenantID:       t.TenantID,
		ProductID:      t.ProductID,
		FromLocationID: t.FromLocationID,
		ToLocationID:   t.ToLocationID,
		Quantity:       t.Quantity,
		Reason:         t.Reason,
		Notes:          t.Notes,
		Status:         t.Status,
		Metadata:       t.Metadata,
		CreatedBy:      t.CreatedBy,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func toAlertResponse(a *entity.InventoryAlert) dto.AlertResponse {
	return dto.AlertResponse{
		ID:                a.ID,
		TenantID:          a.TenantID,
		ProductID:         a.ProductID,
		AlertType:         a.AlertType,
		Message:           a.Message,
		CurrentStock:      a.CurrentStock,
		IsAcknowledged:    a.IsAcknowledged,
		AcknowledgedBy:    a.AcknowledgedBy,
		AcknowledgedNotes: a.AcknowledgedNotes,
		AcknowledgedAt:    a.AcknowledgedAt,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}

func toAlertResponses(list []*entity.InventoryAlert) []dto.AlertResponse {
	out := make([]dto.AlertResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toAlertResponse(a))
	}
	return out
}
