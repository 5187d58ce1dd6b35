package core

import "context"

// DeletionGuard is the only delete path for customers and inventory items.
// The dependency check and the delete share one transaction, and the delete
// statement is never issued when the check fails.
type DeletionGuard interface {
	// DeleteCustomer removes a customer without invoices, together with its
	// appointments. Appointments that carry usage records block the delete.
	DeleteCustomer(ctx context.Context, id int) error
	// DeleteItem removes an item that no usage record references.
	DeleteItem(ctx context.Context, id int) error
}

type deletionGuard struct {
	store Store
}

func NewDeletionGuard(store Store) DeletionGuard {
	return &deletionGuard{store: store}
}

func (g *deletionGuard) DeleteCustomer(ctx context.Context, id int) error {
	err := g.store.WithTx(ctx, func(tx Tx) error {
		if _, err := tx.LockCustomer(ctx, id); err != nil {
			return err
		}
		invoices, err := tx.CountInvoicesForCustomer(ctx, id)
		if err != nil {
			return err
		}
		if invoices > 0 {
			return ReferentialIntegrityf("customer %d has %d invoice(s) and cannot be deleted", id, invoices)
		}
		usage, err := tx.CountUsageForCustomer(ctx, id)
		if err != nil {
			return err
		}
		if usage > 0 {
			return ReferentialIntegrityf("customer %d has appointments with %d usage record(s) and cannot be deleted", id, usage)
		}
		return tx.DeleteCustomer(ctx, id)
	})
	return ensureKind(err, "failed to delete customer")
}

func (g *deletionGuard) DeleteItem(ctx context.Context, id int) error {
	err := g.store.WithTx(ctx, func(tx Tx) error {
		if _, err := tx.LockItem(ctx, id); err != nil {
			return err
		}
		usage, err := tx.CountUsageForItem(ctx, id)
		if err != nil {
			return err
		}
		if usage > 0 {
			return ReferentialIntegrityf("item %d is referenced by %d usage record(s) and cannot be deleted", id, usage)
		}
		return tx.DeleteItem(ctx, id)
	})
	return ensureKind(err, "failed to delete inventory item")
}
