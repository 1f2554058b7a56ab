package api

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"github.com/erazemk/inventario/internal/export"
	"github.com/erazemk/inventario/internal/ledger"
)

// ReportHandler serves the CSV stock report.
type ReportHandler struct {
	Ledger *ledger.Ledger
	Now    func() time.Time
}

// Stock handles GET /api/report. The optional q parameter filters items
// the same way as GET /api/items.
func (h *ReportHandler) Stock(w http.ResponseWriter, r *http.Request) {
	items := h.Ledger.Search(r.URL.Query().Get("q"))

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, items); err != nil {
		if errors.Is(err, export.ErrNothingToExport) {
			jsonError(w, http.StatusNotFound, "no items to export")
			return
		}
		jsonError(w, http.StatusInternalServerError, "failed to build report")
		return
	}

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(now())+`"`)
	w.Write(buf.Bytes())
}
