package core

import (
	"context"
	"strings"
)

// CustomerService manages customer master data.
// Deletion lives on DeletionGuard.
type CustomerService interface {
	CreateCustomer(ctx context.Context, in CustomerInput) (*Customer, error)
	UpdateCustomer(ctx context.Context, id int, in CustomerInput) (*Customer, error)
	GetCustomer(ctx context.Context, id int) (*Customer, error)
	ListCustomers(ctx context.Context) ([]Customer, error)
	// SearchCustomers matches term against customer names, case-insensitively.
	SearchCustomers(ctx context.Context, term string) ([]Customer, error)
	CountCustomers(ctx context.Context) (int, error)
}

type CustomerInput struct {
	Name    string
	Phone   string
	Email   string
	Address string
}

type customerService struct {
	store Store
}

func NewCustomerService(store Store) CustomerService {
	return &customerService{store: store}
}

func (in CustomerInput) normalize() (CustomerInput, error) {
	var err error
	if in.Name, err = requireText("name", in.Name); err != nil {
		return in, err
	}
	if in.Phone, err = NormalizePhone(in.Phone); err != nil {
		return in, err
	}
	in.Email = strings.TrimSpace(in.Email)
	in.Address = strings.TrimSpace(in.Address)
	return in, nil
}

func (s *customerService) CreateCustomer(ctx context.Context, in CustomerInput) (*Customer, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}
	c := &Customer{Name: in.Name, Phone: in.Phone, Email: in.Email, Address: in.Address}
	err = s.store.WithTx(ctx, func(tx Tx) error {
		return tx.InsertCustomer(ctx, c)
	})
	if err != nil {
		return nil, ensureKind(err, "failed to create customer")
	}
	return c, nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, id int, in CustomerInput) (*Customer, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}
	var c *Customer
	err = s.store.WithTx(ctx, func(tx Tx) error {
		current, err := tx.LockCustomer(ctx, id)
		if err != nil {
			return err
		}
		current.Name = in.Name
		current.Phone = in.Phone
		current.Email = in.Email
		current.Address = in.Address
		if err := tx.UpdateCustomer(ctx, current); err != nil {
			return err
		}
		c = current
		return nil
	})
	if err != nil {
		return nil, ensureKind(err, "failed to update customer")
	}
	return c, nil
}

func (s *customerService) GetCustomer(ctx context.Context, id int) (*Customer, error) {
	var c *Customer
	err := s.store.View(ctx, func(tx Tx) error {
		var err error
		c, err = tx.GetCustomer(ctx, id)
		return err
	})
	if err != nil {
		return nil, ensureKind(err, "failed to fetch customer")
	}
	return c, nil
}

func (s *customerService) ListCustomers(ctx context.Context) ([]Customer, error) {
	return s.list(ctx, CustomerFilter{})
}

func (s *customerService) SearchCustomers(ctx context.Context, term string) ([]Customer, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, Validationf("search term is required")
	}
	return s.list(ctx, CustomerFilter{Search: term})
}

func (s *customerService) list(ctx context.Context, f CustomerFilter) ([]Customer, error) {
	var out []Customer
	err := s.store.View(ctx, func(tx Tx) error {
		var err error
		out, err = tx.ListCustomers(ctx, f)
		return err
	})
	if err != nil {
		return nil, ensureKind(err, "failed to list customers")
	}
	return out, nil
}

func (s *customerService) CountCustomers(ctx context.Context) (int, error) {
	var n int
	err := s.store.View(ctx, func(tx Tx) error {
		var err error
		n, err = tx.CountCustomers(ctx)
		return err
	})
	if err != nil {
		return 0, ensureKind(err, "failed to count customers")
	}
	return n, nil
}
