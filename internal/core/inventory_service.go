package core

import (
	"context"

	"github.com/shopspring/decimal"
)

// InventoryService owns stock levels. Every quantity change runs as one store
// transaction that locks the item row, checks the result stays non-negative,
// and writes the new quantity together with its audit row.
type InventoryService interface {
	CreateItem(ctx context.Context, in ItemInput, initialQuantity int) (*InventoryItem, error)
	// UpdateItem changes descriptive fields and cost. It never touches quantity.
	UpdateItem(ctx context.Context, id int, in ItemInput) (*InventoryItem, error)
	GetItem(ctx context.Context, id int) (*InventoryItem, error)
	ListItems(ctx context.Context, f ItemFilter) ([]InventoryItem, error)

	// RecordUsage decrements stock and inserts the usage record atomically.
	RecordUsage(ctx context.Context, in UsageInput) (*UsageRecord, error)
	// AdjustQuantity applies a manual restock (delta > 0) or correction (delta < 0)
	// and returns the new quantity on hand.
	AdjustQuantity(ctx context.Context, itemID, delta int, reason string) (int, error)

	ListUsage(ctx context.Context, f UsageFilter) ([]UsageRecord, error)
	ListAdjustments(ctx context.Context, itemID int) ([]StockAdjustment, error)
}

// ItemInput carries the caller-editable fields of an InventoryItem.
type ItemInput struct {
	SKU              string
	Name             string
	Category         string
	Unit             string
	UnitCost         decimal.Decimal
	ReorderThreshold int
}

// UsageInput describes parts consumed by an appointment, optionally billed
// on an invoice.
type UsageInput struct {
	ItemID        int
	AppointmentID int
	InvoiceID     *int
	Quantity      int
}

type inventoryService struct {
	store Store
}

func NewInventoryService(store Store) InventoryService {
	return &inventoryService{store: store}
}

func (in ItemInput) normalize() (ItemInput, error) {
	var err error
	if in.SKU, err = NormalizeSKU(in.SKU); err != nil {
		return in, err
	}
	if in.Name, err = requireText("name", in.Name); err != nil {
		return in, err
	}
	if in.Category, err = NormalizeCategory(in.Category); err != nil {
		return in, err
	}
	if in.Unit, err = NormalizeUnit(in.Unit); err != nil {
		return in, err
	}
	if err := requireNonNegative("unit cost", in.UnitCost); err != nil {
		return in, err
	}
	if err := checkAmount("unit cost", in.UnitCost); err != nil {
		return in, err
	}
	if in.ReorderThreshold < 0 {
		return in, Validationf("reorder threshold cannot be negative, got %d", in.ReorderThreshold)
	}
	return in, nil
}

func (s *inventoryService) CreateItem(ctx context.Context, in ItemInput, initialQuantity int) (*InventoryItem, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}
	if initialQuantity < 0 {
		return nil, Validationf("initial quantity cannot be negative, got %d", initialQuantity)
	}

	item := &InventoryItem{
		SKU:              in.SKU,
		Name:             in.Name,
		Category:         in.Category,
		Unit:             in.Unit,
		QuantityOnHand:   initialQuantity,
		UnitCost:         in.UnitCost,
		ReorderThreshold: in.ReorderThreshold,
	}
	err = s.store.WithTx(ctx, func(tx Tx) error {
		return tx.InsertItem(ctx, item)
	})
	if err != nil {
		return nil, ensureKind(err, "failed to create inventory item")
	}
	return item, nil
}

func (s *inventoryService) UpdateItem(ctx context.Context, id int, in ItemInput) (*InventoryItem, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}

	var item *InventoryItem
	err = s.store.WithTx(ctx, func(tx Tx) error {
		current, err := tx.LockItem(ctx, id)
		if err != nil {
			return err
		}
		current.SKU = in.SKU
		current.Name = in.Name
		current.Category = in.Category
		current.Unit = in.Unit
		current.UnitCost = in.UnitCost
		current.ReorderThreshold = in.ReorderThreshold
		if err := tx.UpdateItem(ctx, current); err != nil {
			return err
		}
		item = current
		return nil
	})
	if err != nil {
		return nil, ensureKind(err, "failed to update inventory item")
	}
	return item, nil
}

func (s *inventoryService) GetItem(ctx context.Context, id int) (*InventoryItem, error) {
	var item *InventoryItem
	err := s.store.View(ctx, func(tx Tx) error {
		var err error
		item, err = tx.GetItem(ctx, id)
		return err
	})
	if err != nil {
		return nil, ensureKind(err, "failed to fetch inventory item")
	}
	return item, nil
}

func (s *inventoryService) ListItems(ctx context.Context, f ItemFilter) ([]InventoryItem, error) {
	if f.Category != "" {
		c, err := NormalizeCategory(f.Category)
		if err != nil {
			return nil, err
		}
		f.Category = c
	}
	var items []InventoryItem
	err := s.store.View(ctx, func(tx Tx) error {
		var err error
		items, err = tx.ListItems(ctx, f)
		return err
	})
	if err != nil {
		return nil, ensureKind(err, "failed to list inventory items")
	}
	return items, nil
}

// RecordUsage locks the item row first so concurrent usage against the same
// item is linearized by the store; the quantity check and both writes happen
// under that lock.
func (s *inventoryService) RecordUsage(ctx context.Context, in UsageInput) (*UsageRecord, error) {
	if in.Quantity <= 0 {
		return nil, Validationf("usage quantity must be positive, got %d", in.Quantity)
	}

	var rec *UsageRecord
	err := s.store.WithTx(ctx, func(tx Tx) error {
		item, err := tx.LockItem(ctx, in.ItemID)
		if err != nil {
			return err
		}
		if _, err := tx.GetAppointment(ctx, in.AppointmentID); err != nil {
			return err
		}
		if in.InvoiceID != nil {
			if _, err := tx.LockInvoice(ctx, *in.InvoiceID); err != nil {
				return err
			}
		}

		if in.Quantity > item.QuantityOnHand {
			return InsufficientStockf("item %s has %d on hand, usage requires %d",
				item.SKU, item.QuantityOnHand, in.Quantity)
		}

		if err := tx.SetItemQuantity(ctx, item.ID, item.QuantityOnHand-in.Quantity); err != nil {
			return err
		}
		u := &UsageRecord{
			ItemID:        item.ID,
			AppointmentID: in.AppointmentID,
			InvoiceID:     in.InvoiceID,
			Quantity:      in.Quantity,
		}
		if err := tx.InsertUsage(ctx, u); err != nil {
			return err
		}
		rec = u
		return nil
	})
	if err != nil {
		return nil, ensureKind(err, "failed to record usage")
	}
	return rec, nil
}

func (s *inventoryService) AdjustQuantity(ctx context.Context, itemID, delta int, reason string) (int, error) {
	if delta == 0 {
		return 0, Validationf("adjustment delta must be non-zero")
	}

	var newQty int
	err := s.store.WithTx(ctx, func(tx Tx) error {
		item, err := tx.LockItem(ctx, itemID)
		if err != nil {
			return err
		}
		next := item.QuantityOnHand + delta
		if next < 0 {
			return InsufficientStockf("item %s has %d on hand, adjustment of %d would leave %d",
				item.SKU, item.QuantityOnHand, delta, next)
		}
		if err := tx.SetItemQuantity(ctx, item.ID, next); err != nil {
			return err
		}
		if err := tx.InsertAdjustment(ctx, &StockAdjustment{
			ItemID:        item.ID,
			Delta:         delta,
			QuantityAfter: next,
			Reason:        reason,
		}); err != nil {
			return err
		}
		newQty = next
		return nil
	})
	if err != nil {
		return 0, ensureKind(err, "failed to adjust quantity")
	}
	return newQty, nil
}

func (s *inventoryService) ListUsage(ctx context.Context, f UsageFilter) ([]UsageRecord, error) {
	var out []UsageRecord
	err := s.store.View(ctx, func(tx Tx) error {
		var err error
		out, err = tx.ListUsage(ctx, f)
		return err
	})
	if err != nil {
		return nil, ensureKind(err, "failed to list usage")
	}
	return out, nil
}

func (s *inventoryService) ListAdjustments(ctx context.Context, itemID int) ([]StockAdjustment, error) {
	var out []StockAdjustment
	err := s.store.View(ctx, func(tx Tx) error {
		if _, err := tx.GetItem(ctx, itemID); err != nil {
			return err
		}
		var err error
		out, err = tx.ListAdjustments(ctx, itemID)
		return err
	})
	if err != nil {
		return nil, ensureKind(err, "failed to list adjustments")
	}
	return out, nil
}
