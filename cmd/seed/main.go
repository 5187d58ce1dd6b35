// seed loads a small demo data set: one customer, a handful of stocked parts,
// a scheduled maintenance visit and a draft invoice for it. It is a no-op when
// the demo SKU already exists.
//
// Usage: go run ./cmd/seed
package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"hvac-ledger/internal/app"
	"hvac-ledger/internal/bootstrap"
	"hvac-ledger/internal/config"
	"hvac-ledger/internal/logger"
)

const demoSKU = "FLT-100"

var demoItems = []app.ItemRequest{
	{SKU: demoSKU, Name: "Furnace filter 16x25x1", Category: "parts", Unit: "ea", UnitCost: decimal.RequireFromString("4.25"), ReorderThreshold: 2, InitialQuantity: 5},
	{SKU: "CAP-45", Name: "Run capacitor 45/5 uF", Category: "parts", Unit: "ea", UnitCost: decimal.RequireFromString("18.90"), ReorderThreshold: 3, InitialQuantity: 8},
	{SKU: "R410A-25", Name: "R-410A refrigerant", Category: "refrigerant", Unit: "lbs", UnitCost: decimal.RequireFromString("12.40"), ReorderThreshold: 10, InitialQuantity: 50},
	{SKU: "TAPE-FOIL", Name: "Foil duct tape", Category: "supplies", Unit: "roll", UnitCost: decimal.RequireFromString("9.75"), ReorderThreshold: 4, InitialQuantity: 3},
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "seed"})
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	ctx := context.Background()
	rt, err := bootstrap.New(ctx, "seed", cfg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap runtime", err)
		os.Exit(1)
	}
	logg = rt.Logger

	if err := seed(ctx, rt.Service, logg); err != nil {
		logg.Error(ctx, "seeding failed", err)
		_ = rt.Close()
		os.Exit(1)
	}
	if err := rt.Close(); err != nil {
		logg.Error(ctx, "error closing runtime", err)
	}
}

func seed(ctx context.Context, svc app.ApplicationService, logg *logger.Logger) error {
	stock, err := svc.ListItems(ctx, "", false)
	if err != nil {
		return err
	}
	for _, it := range stock.Items {
		if it.SKU == demoSKU {
			logg.Info(ctx, "demo data already present, nothing to do")
			return nil
		}
	}

	logg.Info(ctx, "creating customer...")
	cust, err := svc.CreateCustomer(ctx, app.CustomerRequest{
		Name:    "Riverside Dental",
		Phone:   "555-123-4567",
		Email:   "office@riverside-dental.example",
		Address: "12 Mill Rd",
	})
	if err != nil {
		return err
	}

	logg.Info(ctx, "creating inventory...")
	for _, req := range demoItems {
		if _, err := svc.CreateItem(ctx, req); err != nil {
			return err
		}
	}

	logg.Info(ctx, "booking appointment...")
	tomorrow := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, 1).Add(9 * time.Hour)
	appt, err := svc.CreateAppointment(ctx, app.AppointmentRequest{
		CustomerID:  cust.ID,
		Technician:  "Dana Ortiz",
		ServiceType: "Seasonal maintenance",
		ScheduledAt: tomorrow,
	})
	if err != nil {
		return err
	}

	logg.Info(ctx, "drafting invoice...")
	sum, err := svc.CreateInvoice(ctx, app.InvoiceRequest{
		CustomerID:    cust.ID,
		AppointmentID: &appt.ID,
		InvoiceNumber: "INV-1001",
		TaxRate:       decimal.RequireFromString("0.08"),
		Lines: []app.LineRequest{
			{Description: "Labor", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(100)},
			{Description: "Furnace filter 16x25x1", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("12.50")},
		},
	})
	if err != nil {
		return err
	}

	logg.Info(logg.WithFields(ctx, map[string]any{
		"customer_id":    cust.ID,
		"appointment_id": appt.ID,
		"invoice":        sum.InvoiceNumber,
		"grand_total":    sum.Totals.GrandTotal.StringFixed(2),
	}), "seed data loaded")
	return nil
}
