package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/erazemk/inventario/internal/model"
)

// ContentType is the MIME type of the stock report.
const ContentType = "text/csv; charset=utf-8"

// bom makes spreadsheet applications detect UTF-8.
const bom = "\uFEFF"

// Header is the first row of the stock report.
var Header = []string{"Nombre", "Descripción", "Tipo de Dispositivo", "Cantidad", "N/S", "Ubicación"}

// ErrNothingToExport is returned for an empty item list.
var ErrNothingToExport = errors.New("no items to export")

// FileName returns the report file name for the given day.
func FileName(date time.Time) string {
	return "informe_stock_" + date.Format(time.DateOnly) + ".csv"
}

// WriteCSV writes items as a stock report, one row per item in the given order.
func WriteCSV(w io.Writer, items []model.Item) error {
	if len(items) == 0 {
		return ErrNothingToExport
	}

	if _, err := io.WriteString(w, bom); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing report header: %w", err)
	}
	for _, it := range items {
		row := []string{
			it.Name,
			it.Description,
			it.DeviceType,
			strconv.Itoa(it.Quantity),
			it.SerialNumber,
			it.Location,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing report row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
