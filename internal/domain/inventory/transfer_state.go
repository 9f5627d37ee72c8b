package inventory

import (
	"fmt"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

// transferTransitions estados alcanzables desde cada estado del traslado.
// completed y cancelled son finales.
var transferTransitions = map[string][]string{
	entity.TransferStatusPending:    {entity.TransferStatusInProgress, entity.TransferStatusCancelled},
	entity.TransferStatusInProgress: {entity.TransferStatusCompleted, entity.TransferStatusCancelled},
}

// IsValidTransferStatus indica si s es un estado de traslado conocido.
func IsValidTransferStatus(s string) bool {
	switch s {
	case entity.TransferStatusPending, entity.TransferStatusInProgress,
		entity.TransferStatusCompleted, entity.TransferStatusCancelled:
		return true
	}
	return false
}

// CanTransition indica si el traslado puede pasar de from a to.
func CanTransition(from, to string) bool {
	for _, s := range transferTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// TransitionTransfer cambia el estado del traslado o devuelve domain.ErrConflict.
func TransitionTransfer(t *entity.InventoryTransfer, to string) error {
	if !CanTransition(t.Status, to) {
		return fmt.Errorf("traslado %s: %s -> %s: %w", t.ID, t.Status, to, domain.ErrConflict)
	}
	t.Status = to
	return nil
}
