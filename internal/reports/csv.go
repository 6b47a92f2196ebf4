package reports

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/loomledger/loomledger/internal/ledger"
)

const csvFlushEvery = 200

var inrPrinter = message.NewPrinter(language.MustParse("en-IN"))

// formatINR renders an amount with Indian digit grouping, e.g. 1,23,456.78.
func formatINR(v float64) string {
	return inrPrinter.Sprint(number.Decimal(v,
		number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

func formatDecimal(v float64) string {
	return strconv.FormatFloat(ledger.Round2(v), 'f', 2, 64)
}

// csvStreamer wraps a csv.Writer with buffered output and periodic flushes
// so large exports do not hold the whole file in memory.
type csvStreamer struct {
	buf   *bufio.Writer
	w     *csv.Writer
	count int
}

func newCSVStreamer(w io.Writer) *csvStreamer {
	buf := bufio.NewWriterSize(w, 32*1024)
	cw := csv.NewWriter(buf)
	cw.UseCRLF = true
	return &csvStreamer{buf: buf, w: cw}
}

// writeComment emits a "# " metadata line above the table.
func (s *csvStreamer) writeComment(line string) error {
	if _, err := s.buf.WriteString("# " + line + "\r\n"); err != nil {
		return err
	}
	return nil
}

func (s *csvStreamer) write(record []string) error {
	if err := s.w.Write(record); err != nil {
		return err
	}
	s.count++
	if s.count%csvFlushEvery == 0 {
		s.w.Flush()
		if err := s.w.Error(); err != nil {
			return err
		}
	}
	return nil
}

func (s *csvStreamer) close() error {
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return err
	}
	return s.buf.Flush()
}

// ExportInvoicesCSV streams every invoice, with interest previewed as of asOf.
func (s *Service) ExportInvoicesCSV(ctx context.Context, w io.Writer, asOf time.Time) error {
	if asOf.IsZero() {
		asOf = s.now()
	}
	invoices, err := s.ledger.ListInvoices(ctx, ledger.InvoiceFilter{})
	if err != nil {
		return fmt.Errorf("reports: list invoices: %w", err)
	}

	cs := newCSVStreamer(w)
	if err := cs.writeComment("loomledger invoice export"); err != nil {
		return err
	}
	if err := cs.writeComment("generated " + asOf.Format(time.RFC3339)); err != nil {
		return err
	}
	if err := cs.writeComment(fmt.Sprintf("rows %d", len(invoices))); err != nil {
		return err
	}
	header := []string{"id", "party", "quality", "invoice_ref", "sale_date", "due_date",
		"amount", "amount_inr", "paid", "balance", "interest", "status", "gst", "taxable"}
	if err := cs.write(header); err != nil {
		return err
	}
	for i := range invoices {
		inv := &invoices[i]
		interest := ledger.PreviewInterest(inv, asOf)
		record := []string{
			inv.ID,
			inv.Party,
			inv.Quality,
			inv.InvoiceReference,
			inv.SaleDate.Format("2006-01-02"),
			inv.DueDate.Format("2006-01-02"),
			formatDecimal(inv.Amount),
			formatINR(inv.Amount),
			formatDecimal(inv.PaidAmount),
			formatDecimal(inv.Balance),
			formatDecimal(interest),
			string(inv.Status),
			formatDecimal(inv.GSTAmount),
			formatDecimal(inv.TaxableValue),
		}
		if err := cs.write(record); err != nil {
			return err
		}
	}
	return cs.close()
}

// ExportPaymentsCSV streams every payment, one row per allocation entry.
func (s *Service) ExportPaymentsCSV(ctx context.Context, w io.Writer) error {
	payments, err := s.ledger.ListPayments(ctx, "")
	if err != nil {
		return fmt.Errorf("reports: list payments: %w", err)
	}

	cs := newCSVStreamer(w)
	if err := cs.writeComment("loomledger payment export"); err != nil {
		return err
	}
	if err := cs.writeComment("generated " + s.now().Format(time.RFC3339)); err != nil {
		return err
	}
	header := []string{"payment_id", "party", "date", "mode", "amount", "amount_inr",
		"invoice_id", "principal", "interest"}
	if err := cs.write(header); err != nil {
		return err
	}
	for i := range payments {
		p := &payments[i]
		base := []string{
			p.ID,
			p.Party,
			p.PaymentDate.Format("2006-01-02"),
			p.Mode,
			formatDecimal(p.Amount),
			formatINR(p.Amount),
		}
		if len(p.AppliedTo) == 0 {
			if err := cs.write(append(base, "", "", "")); err != nil {
				return err
			}
			continue
		}
		for _, entry := range p.AppliedTo {
			record := append(append([]string(nil), base...),
				entry.InvoiceID, formatDecimal(entry.Principal), formatDecimal(entry.Interest))
			if err := cs.write(record); err != nil {
				return err
			}
		}
	}
	return cs.close()
}
