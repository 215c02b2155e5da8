package reports

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"

	"github.com/clinicware/medipos-backend/pkg/db/models"
	pkgerrors "github.com/clinicware/medipos-backend/pkg/errors"
)

var exportHeader = []string{"Invoice", "Date", "Name", "Category", "Quantity", "Price", "Subtotal"}

func exportRows(sales []models.Sale) [][]string {
	rows := make([][]string, 0, len(sales))
	for _, sale := range sales {
		for _, item := range sale.Items {
			price := item.PackPrice
			if item.IsPartial {
				price = item.UnitPrice
			}
			rows = append(rows, []string{
				sale.InvoiceNumber,
				sale.CreatedAt.Format("2006-01-02"),
				item.Name,
				item.Category,
				fmt.Sprintf("%d", item.Quantity),
				price.Round(2).String(),
				item.Subtotal.Round(2).String(),
			})
		}
	}
	return rows
}

// WriteCSV streams one row per sale item.
func WriteCSV(w io.Writer, sales []models.Sale) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing csv header")
	}
	for _, row := range exportRows(sales) {
		if err := cw.Write(row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing csv row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "flushing csv")
	}
	return nil
}

// WriteXLSX renders the same table as a spreadsheet.
func WriteXLSX(w io.Writer, sales []models.Sale) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sales"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating sheet")
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "removing default sheet")
	}

	for col, title := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "naming header cell")
		}
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing header cell")
		}
	}
	for i, row := range exportRows(sales) {
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "naming cell")
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing cell")
			}
		}
	}

	if err := f.Write(w); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing workbook")
	}
	return nil
}

// WritePDF renders an equivalent tabular summary.
func WritePDF(w io.Writer, title string, sales []models.Sale) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")
	pdf.Ln(2)

	widths := []float64{34, 24, 48, 24, 18, 20, 22}

	pdf.SetFont("Helvetica", "B", 9)
	for i, header := range exportHeader {
		pdf.CellFormat(widths[i], 7, header, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, row := range exportRows(sales) {
		for i, value := range row {
			pdf.CellFormat(widths[i], 6, value, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing pdf")
	}
	return nil
}
