package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"hvac-ledger/internal/app"
)

// ErrUsage marks a malformed command line. Callers exit with status 2.
var ErrUsage = errors.New("usage")

const usage = `commands:
  stock [category]
  low-stock
  value
  adjust <item-id> <delta> [reason...]
  use <item-id> <appointment-id> <qty> [invoice-id]
  transition <appointment|invoice> <id> <from> <to>
  invoice <id>
  workload <technician> [YYYY-MM-DD]`

// Usage returns the command summary printed on a usage error.
func Usage() string { return usage }

// Run executes a one-shot CLI command, writing its report to out.
// args is os.Args[1:]; the first element is the subcommand name.
func Run(ctx context.Context, svc app.ApplicationService, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: no command given", ErrUsage)
	}

	switch strings.ToLower(args[0]) {
	case "stock":
		category := ""
		if len(args) > 1 {
			category = args[1]
		}
		result, err := svc.ListItems(ctx, category, false)
		if err != nil {
			return err
		}
		printStock(out, "STOCK LEVELS", result)

	case "low-stock":
		result, err := svc.ListItems(ctx, "", true)
		if err != nil {
			return err
		}
		printStock(out, "LOW STOCK", result)

	case "value":
		v, err := svc.InventoryValue(ctx)
		if err != nil {
			return err
		}
		printValuation(out, v)

	case "adjust":
		if len(args) < 3 {
			return fmt.Errorf("%w: adjust <item-id> <delta> [reason...]", ErrUsage)
		}
		itemID, err := parseID("item-id", args[1])
		if err != nil {
			return err
		}
		delta, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("%w: delta must be an integer, got %q", ErrUsage, args[2])
		}
		result, err := svc.AdjustStock(ctx, itemID, app.AdjustRequest{Delta: delta, Reason: strings.Join(args[3:], " ")})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Item %d adjusted by %+d; %d on hand.\n", result.ItemID, result.Delta, result.QuantityOnHand)

	case "use":
		if len(args) < 4 {
			return fmt.Errorf("%w: use <item-id> <appointment-id> <qty> [invoice-id]", ErrUsage)
		}
		req := app.UsageRequest{}
		var err error
		if req.ItemID, err = parseID("item-id", args[1]); err != nil {
			return err
		}
		if req.AppointmentID, err = parseID("appointment-id", args[2]); err != nil {
			return err
		}
		if req.Quantity, err = parseID("qty", args[3]); err != nil {
			return err
		}
		if len(args) > 4 {
			invoiceID, err := parseID("invoice-id", args[4])
			if err != nil {
				return err
			}
			req.InvoiceID = &invoiceID
		}
		rec, err := svc.RecordUsage(ctx, req)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Usage %d recorded: %d of item %d on appointment %d.\n",
			rec.ID, rec.Quantity, rec.ItemID, rec.AppointmentID)

	case "transition":
		if len(args) < 5 {
			return fmt.Errorf("%w: transition <appointment|invoice> <id> <from> <to>", ErrUsage)
		}
		id, err := parseID("id", args[2])
		if err != nil {
			return err
		}
		req := app.TransitionRequest{From: args[3], To: args[4]}
		switch strings.ToLower(args[1]) {
		case "appointment":
			tr, err := svc.TransitionAppointment(ctx, id, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Appointment %d: %s → %s\n", tr.ID, tr.From, tr.To)
		case "invoice":
			tr, err := svc.TransitionInvoice(ctx, id, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Invoice %d: %s → %s\n", tr.ID, tr.From, tr.To)
		default:
			return fmt.Errorf("%w: transition target must be appointment or invoice, got %q", ErrUsage, args[1])
		}

	case "invoice":
		if len(args) < 2 {
			return fmt.Errorf("%w: invoice <id>", ErrUsage)
		}
		id, err := parseID("id", args[1])
		if err != nil {
			return err
		}
		sum, err := svc.GetInvoice(ctx, id)
		if err != nil {
			return err
		}
		printInvoice(out, sum)

	case "workload":
		if len(args) < 2 {
			return fmt.Errorf("%w: workload <technician> [YYYY-MM-DD]", ErrUsage)
		}
		var date *time.Time
		if len(args) > 2 {
			d, err := time.Parse("2006-01-02", args[2])
			if err != nil {
				return fmt.Errorf("%w: date must be YYYY-MM-DD, got %q", ErrUsage, args[2])
			}
			date = &d
		}
		result, err := svc.TechnicianWorkload(ctx, args[1], date)
		if err != nil {
			return err
		}
		printWorkload(out, result)

	default:
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}
	return nil
}

func parseID(name, raw string) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %q", ErrUsage, name, raw)
	}
	return v, nil
}
