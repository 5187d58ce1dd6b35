package cli

import (
	"fmt"
	"io"
	"strings"

	"hvac-ledger/internal/app"
	"hvac-ledger/internal/core"
)

func rule(out io.Writer, ch string) {
	fmt.Fprintln(out, strings.Repeat(ch, 72))
}

func printStock(out io.Writer, title string, result *app.StockResult) {
	fmt.Fprintln(out)
	rule(out, "=")
	fmt.Fprintf(out, "  %s (%d low)\n", title, result.LowStockCount)
	rule(out, "=")
	if len(result.Items) == 0 {
		fmt.Fprintln(out, "  No items found.")
		rule(out, "=")
		return
	}
	fmt.Fprintf(out, "  %-12s %-26s %-10s %6s %8s %10s\n", "SKU", "NAME", "CATEGORY", "QTY", "REORDER", "UNIT COST")
	rule(out, "-")
	for _, it := range result.Items {
		flag := ""
		if core.IsLowStock(it) {
			flag = " *"
		}
		fmt.Fprintf(out, "  %-12s %-26s %-10s %6d %8d %10s%s\n",
			it.SKU, truncate(it.Name, 26), it.Category, it.QuantityOnHand, it.ReorderThreshold, it.UnitCost.StringFixed(2), flag)
	}
	rule(out, "=")
}

func printValuation(out io.Writer, v *core.InventoryValuation) {
	fmt.Fprintln(out)
	rule(out, "=")
	fmt.Fprintln(out, "  INVENTORY VALUE")
	rule(out, "=")
	fmt.Fprintf(out, "  Items : %d\n", v.ItemCount)
	fmt.Fprintf(out, "  Value : %s\n", v.TotalValue.StringFixed(2))
	rule(out, "=")
}

func printInvoice(out io.Writer, sum *core.InvoiceSummary) {
	fmt.Fprintln(out)
	rule(out, "=")
	fmt.Fprintf(out, "  INVOICE %s  [%s]\n", sum.InvoiceNumber, sum.Status)
	fmt.Fprintf(out, "  Customer : %s %s (#%d)\n", sum.CustomerName, sum.CustomerPhone, sum.CustomerID)
	fmt.Fprintf(out, "  Issued   : %s\n", sum.IssueDate.Format("2006-01-02"))
	rule(out, "=")
	fmt.Fprintf(out, "  %-4s %-36s %8s %10s %10s\n", "#", "DESCRIPTION", "QTY", "PRICE", "AMOUNT")
	rule(out, "-")
	for _, l := range sum.Lines {
		fmt.Fprintf(out, "  %-4d %-36s %8s %10s %10s\n",
			l.LineNumber, truncate(l.Description, 36), l.Quantity.String(), l.UnitPrice.StringFixed(2),
			l.Quantity.Mul(l.UnitPrice).StringFixed(2))
	}
	rule(out, "-")
	fmt.Fprintf(out, "  %-60s %10s\n", "Subtotal", sum.Totals.Subtotal.StringFixed(2))
	fmt.Fprintf(out, "  %-60s %10s\n", "Tax ("+sum.TaxRate.String()+")", sum.Totals.TaxAmount.StringFixed(2))
	fmt.Fprintf(out, "  %-60s %10s\n", "Total", sum.Totals.GrandTotal.StringFixed(2))
	rule(out, "=")
}

func printWorkload(out io.Writer, result *app.WorkloadResult) {
	fmt.Fprintln(out)
	rule(out, "=")
	if result.Date != nil {
		fmt.Fprintf(out, "  WORKLOAD: %s on %s\n", result.Technician, result.Date.Format("2006-01-02"))
	} else {
		fmt.Fprintf(out, "  WORKLOAD: %s\n", result.Technician)
	}
	rule(out, "=")
	if len(result.Appointments) == 0 {
		fmt.Fprintln(out, "  No appointments.")
		rule(out, "=")
		return
	}
	fmt.Fprintf(out, "  %-6s %-17s %-12s %-10s %s\n", "ID", "WHEN (UTC)", "STATUS", "CUSTOMER", "SERVICE")
	rule(out, "-")
	for _, a := range result.Appointments {
		fmt.Fprintf(out, "  %-6d %-17s %-12s %-10d %s\n",
			a.ID, a.ScheduledAt.UTC().Format("2006-01-02 15:04"), a.Status, a.CustomerID, a.ServiceType)
	}
	rule(out, "=")
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}
