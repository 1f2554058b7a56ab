package api

import (
	"errors"
	"net/http"

	"github.com/erazemk/inventario/internal/imaging"
	"github.com/erazemk/inventario/internal/model"
	"github.com/erazemk/inventario/internal/recognition"
	"github.com/erazemk/inventario/internal/scanner"
)

// MaxUploadSize limits label photo uploads.
const MaxUploadSize = 10 << 20

// ScanHandler recognizes uploaded label photos.
type ScanHandler struct {
	Scanner *scanner.Scanner
}

type scanResponse struct {
	scanner.Result
	Draft *model.Draft `json:"draft,omitempty"`
}

// Scan handles POST /api/scan. The multipart form carries the photo as
// "image", an optional "target" and, for new items, the draft fields typed
// so far, which are returned with the candidate merged in.
func (h *ScanHandler) Scan(w http.ResponseWriter, r *http.Request) {
	if h.Scanner == nil {
		jsonError(w, http.StatusServiceUnavailable, "recognition service not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	photo, err := imaging.PrepareLabel(file)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupportedFormat) {
			jsonError(w, http.StatusUnsupportedMediaType, "image must be JPEG or PNG")
			return
		}
		if errors.Is(err, imaging.ErrImageTooLarge) {
			jsonError(w, http.StatusRequestEntityTooLarge, "image dimensions too large")
			return
		}
		jsonError(w, http.StatusBadRequest, "invalid image")
		return
	}

	target := scanner.Target(r.FormValue("target"))
	res, err := h.Scanner.ScanImage(r.Context(), recognition.Image{Data: photo.Data, MIME: photo.MIME}, target)
	if err != nil {
		var se *scanner.Error
		if errors.As(err, &se) {
			jsonError(w, http.StatusUnprocessableEntity, se.Message)
		}
		// Otherwise the client went away and nobody is listening.
		return
	}

	resp := scanResponse{Result: res}
	if res.Target == scanner.TargetNewItem {
		draft := scanner.ApplyCandidate(model.Draft{
			Name:         r.FormValue("name"),
			Description:  r.FormValue("description"),
			DeviceType:   r.FormValue("deviceType"),
			SerialNumber: r.FormValue("serialNumber"),
			Quantity:     r.FormValue("quantity"),
			Location:     r.FormValue("location"),
		}, res.Candidate)
		resp.Draft = &draft
	}
	jsonResponse(w, http.StatusOK, resp)
}
