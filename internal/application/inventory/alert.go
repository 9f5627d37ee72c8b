package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

// Claves de los mensajes de alerta (formato en inglés; el catálogo agrega español).
const (
	msgOutOfStock   = "Product %s is out of stock"
	msgLowStock     = "Product %s is low on stock: %d units (threshold %d)"
	msgReorderPoint = "Product %s reached its reorder point: %d units (reorder point %d)"
	msgManual       = "Manual alert for product %s: %d units in stock"
)

func init() {
	es := language.Spanish
	_ = message.SetString(es, msgOutOfStock, "Producto %s sin stock")
	_ = message.SetString(es, msgLowStock, "Producto %s con stock bajo: %d unidades (umbral %d)")
	_ = message.SetString(es, msgReorderPoint, "Producto %s alcanzó el punto de reorden: %d unidades (punto de reorden %d)")
	_ = message.SetString(es, msgManual, "Alerta manual del producto %s: %d unidades en stock")
}

// AlertEngine evalúa el stock contra los umbrales del producto y mantiene como máximo una
// alerta sin reconocer por (producto, tipo). Las alertas no se cierran solas: requieren reconocimiento.
type AlertEngine struct {
	runner  TxRunner
	alerts  repository.InventoryAlertRepository
	printer *message.Printer
	log     zerolog.Logger
	now     func() time.Time
}

// NewAlertEngine construye el motor. locale es un tag BCP 47 ("es", "en-US"); vacío = español.
func NewAlertEngine(runner TxRunner, alerts repository.InventoryAlertRepository, locale string, log zerolog.Logger) *AlertEngine {
	tag := language.Spanish
	if locale != "" {
		if t, err := language.Parse(locale); err == nil {
			tag = t
		}
	}
	return &AlertEngine{
		runner:  runner,
		alerts:  alerts,
		printer: message.NewPrinter(tag),
		log:     log.With().Str("component", "alert_engine").Logger(),
		now:     time.Now,
	}
}

// Reevaluate reevalúa el producto en su propia transacción. Devuelve la alerta creada o
// actualizada, o nil si el stock no amerita alerta.
func (e *AlertEngine) Reevaluate(ctx context.Context, tenantID, productID string) (*dto.AlertResponse, error) {
	var alert *entity.InventoryAlert
	err := e.runner.Run(ctx, func(tx Tx) error {
		var err error
		alert, err = e.reevaluateInTx(ctx, tx, tenantID, productID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if alert == nil {
		return nil, nil
	}
	out := toAlertResponse(alert)
	return &out, nil
}

// reevaluateBestEffort reevalúa dentro de la tx del caller bajo un savepoint. Un fallo solo
// deshace el savepoint y se registra; nunca hace fallar la escritura de stock.
func (e *AlertEngine) reevaluateBestEffort(ctx context.Context, tx Tx, tenantID, productID string) *entity.InventoryAlert {
	var alert *entity.InventoryAlert
	err := tx.Savepoint(ctx, func(sp Tx) error {
		var err error
		alert, err = e.reevaluateInTx(ctx, sp, tenantID, productID)
		return err
	})
	if err != nil {
		e.log.Warn().Err(err).
			Str("tenant_id", tenantID).
			Str("product_id", productID).
			Msg("falló la reevaluación de alertas; el movimiento de stock se conserva")
		return nil
	}
	return alert
}

func (e *AlertEngine) reevaluateInTx(ctx context.Context, tx Tx, tenantID, productID string) (*entity.InventoryAlert, error) {
	product, err := tx.Products().GetByID(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	bal, err := tx.Ledger().GetBalance(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	th := inventory.ThresholdsOf(product)
	alertType := inventory.EvaluateAlert(bal.Quantity, th)
	if alertType == "" {
		// Sin alerta: las abiertas quedan para reconocimiento manual.
		return nil, nil
	}
	now := e.now()
	alert := &entity.InventoryAlert{
		TenantID:     tenantID,
		ProductID:    productID,
		AlertType:    alertType,
		Message:      e.message(alertType, product, bal.Quantity, th),
		CurrentStock: bal.Quantity,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := tx.Alerts().Upsert(ctx, alert); err != nil {
		return nil, err
	}
	return alert, nil
}

func (e *AlertEngine) message(alertType string, p *entity.Product, stock int64, th inventory.Thresholds) string {
	label := productLabel(p)
	switch alertType {
	case entity.AlertTypeOutOfStock:
		return e.printer.Sprintf(msgOutOfStock, label)
	case entity.AlertTypeLowStock:
		return e.printer.Sprintf(msgLowStock, label, stock, th.LowStock)
	case entity.AlertTypeReorderPoint:
		return e.printer.Sprintf(msgReorderPoint, label, stock, th.ReorderPoint)
	}
	return e.printer.Sprintf(msgManual, label, stock)
}

func productLabel(p *entity.Product) string {
	switch {
	case p.Name != "":
		return p.Name
	case p.SKU != "":
		return p.SKU
	}
	return p.ID
}

// CreateInventoryAlert crea una alerta manual. Si ya hay una sin reconocer del mismo tipo para
// el producto, actualiza su mensaje y la devuelve con created=false.
func (e *AlertEngine) CreateInventoryAlert(ctx context.Context, tenantID string, in dto.CreateAlertRequest) (*dto.AlertResponse, bool, error) {
	if err := dto.Validate(in); err != nil {
		return nil, false, err
	}
	var (
		alert   *entity.InventoryAlert
		created bool
	)
	err := e.runner.Run(ctx, func(tx Tx) error {
		product, err := tx.Products().GetByID(ctx, tenantID, in.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrNotFound
		}
		bal, err := tx.Ledger().GetBalance(ctx, tenantID, in.ProductID)
		if err != nil {
			return err
		}
		msg := strings.TrimSpace(in.Message)
		if msg == "" {
			msg = e.message("", product, bal.Quantity, inventory.ThresholdsOf(product))
		}
		now := e.now()
		alert = &entity.InventoryAlert{
			TenantID:     tenantID,
			ProductID:    in.ProductID,
			AlertType:    in.AlertType,
			Message:      msg,
			CurrentStock: bal.Quantity,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		created, err = tx.Alerts().Upsert(ctx, alert)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	out := toAlertResponse(alert)
	return &out, created, nil
}

// AcknowledgeInventoryAlert reconoce la alerta. Es idempotente: reconocer de nuevo no falla,
// conserva quién y cuándo reconoció primero y solo reemplaza las notas si vienen nuevas.
func (e *AlertEngine) AcknowledgeInventoryAlert(ctx context.Context, tenantID, alertID string, in dto.AcknowledgeAlertRequest) (*dto.AlertResponse, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	var alert *entity.InventoryAlert
	err := e.runner.Run(ctx, func(tx Tx) error {
		var err error
		alert, err = tx.Alerts().GetByIDForUpdate(ctx, tenantID, alertID)
		if err != nil {
			return err
		}
		if alert == nil {
			return domain.ErrNotFound
		}
		notes := strings.TrimSpace(in.AcknowledgedNotes)
		if !inventory.AcknowledgeAlert(alert, strings.TrimSpace(in.AcknowledgedBy), notes, e.now()) {
			return nil
		}
		return tx.Alerts().Acknowledge(ctx, alert)
	})
	if err != nil {
		return nil, err
	}
	out := toAlertResponse(alert)
	return &out, nil
}

// GetInventoryAlertByID obtiene una alerta del tenant.
func (e *AlertEngine) GetInventoryAlertByID(ctx context.Context, tenantID, id string) (*dto.AlertResponse, error) {
	a, err := e.alerts.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, domain.ErrNotFound
	}
	out := toAlertResponse(a)
	return &out, nil
}

// GetInventoryAlerts lista alertas filtradas, más recientes primero.
func (e *AlertEngine) GetInventoryAlerts(ctx context.Context, tenantID string, filter repository.AlertFilter, limit, offset int) (*dto.AlertListResponse, error) {
	if filter.AlertType != "" && !entity.IsValidAlertType(filter.AlertType) {
		return nil, domain.NewValidationError("alert_type", "debe ser uno de: low_stock out_of_stock reorder_point")
	}
	list, err := e.alerts.List(ctx, tenantID, filter, limit, offset)
	if err != nil {
		return nil, err
	}
	return &dto.AlertListResponse{
		Items: toAlertResponses(list),
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// GetAlertSummary cuenta las alertas sin reconocer por tipo.
func (e *AlertEngine) GetAlertSummary(ctx context.Context, tenantID string) (*dto.AlertSummaryResponse, error) {
	counts, err := e.alerts.CountOpenByType(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := &dto.AlertSummaryResponse{
		OutOfStock:   counts[entity.AlertTypeOutOfStock],
		LowStock:     counts[entity.AlertTypeLowStock],
		ReorderPoint: counts[entity.AlertTypeReorderPoint],
	}
	out.Total = out.OutOfStock + out.LowStock + out.ReorderPoint
	return out, nil
}
