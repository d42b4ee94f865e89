// internal/cli/output.go
package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/price-hounds/farmaprice/internal/optimizer"
	"github.com/price-hounds/farmaprice/pkg/models"
)

func formatPrice(p models.Price) string {
	return fmt.Sprintf("%d.%02d", p.Cents/100, p.Cents%100)
}

// renderOffers prints a ranked result set as a table on stdout.
func renderOffers(rs *models.ResultSet) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Offers for %s", rs.Query.Term)
	t.AppendHeader(table.Row{"#", "Seller", "Pack", "Price", "Unit Price", "Shipping"})

	for i, o := range rs.Offers {
		shipping := formatPrice(o.Shipping)
		if o.Shipping.IsZero() {
			shipping = "free"
		}
		if o.FreeShippingOver != nil {
			shipping += fmt.Sprintf(" (free over %s)", formatPrice(*o.FreeShippingOver))
		}
		t.AppendRow(table.Row{
			i + 1,
			o.Seller,
			o.Pack.String(),
			formatPrice(o.Price),
			fmt.Sprintf("%.3f/%s", o.UnitPriceCents()/100, o.Pack.Unit),
			shipping,
		})
	}

	t.AppendFooter(table.Row{"", "", "", "", "pages", rs.Pages})
	t.Render()
}

// renderOptions prints basket optimization results as a table on stdout.
func renderOptions(options []optimizer.Option) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Best pharmacies for your basket")
	t.AppendHeader(table.Row{"#", "Pharmacy", "Items", "Shipping", "Total", "Coverage"})

	for i, opt := range options {
		coverage := "complete"
		if !opt.FoundAll {
			coverage = fmt.Sprintf("%d missing", opt.MissingCount)
		}
		shipping := formatPrice(opt.ShippingCost)
		if opt.ShippingCost.IsZero() {
			shipping = "free"
		}
		t.AppendRow(table.Row{
			i + 1,
			opt.Seller,
			formatPrice(opt.ItemsCost),
			shipping,
			formatPrice(opt.TotalCost),
			coverage,
		})
	}

	t.Render()
}

// saveResults writes a result set to disk; the format follows the file
// extension (.json or .csv).
func saveResults(rs *models.ResultSet, path string) error {
	switch {
	case strings.HasSuffix(path, ".json"):
		return saveJSON(rs, path)
	case strings.HasSuffix(path, ".csv"):
		return saveCSV(rs, path)
	default:
		return fmt.Errorf("unsupported output format: %s (use .json or .csv)", path)
	}
}

func saveJSON(rs *models.ResultSet, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(rs)
}

func saveCSV(rs *models.ResultSet, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"seller", "product", "pack_quantity", "pack_unit", "price", "currency", "shipping", "url", "fetched_at"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, o := range rs.Offers {
		row := []string{
			o.Seller,
			o.Product,
			strconv.Itoa(o.Pack.Quantity),
			o.Pack.Unit,
			formatPrice(o.Price),
			o.Price.Currency,
			formatPrice(o.Shipping),
			o.URL,
			o.FetchedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	return nil
}
