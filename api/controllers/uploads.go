package controllers

import (
	"mime/multipart"
	"net/http"

	"github.com/profitlens/profitlens-backend/api/responses"
	"github.com/profitlens/profitlens-backend/internal/importer"
	"github.com/profitlens/profitlens-backend/internal/pricing"
	"github.com/profitlens/profitlens-backend/pkg/config"
	pkgerrors "github.com/profitlens/profitlens-backend/pkg/errors"
	"github.com/profitlens/profitlens-backend/pkg/fileparse"
	"github.com/profitlens/profitlens-backend/pkg/logger"
)

// parseUpload reads the multipart "file" field into a Table, enforcing the
// configured size cap.
func parseUpload(r *http.Request, cfg config.UploadsConfig) (*fileparse.Table, func(), error) {
	r.Body = http.MaxBytesReader(nil, r.Body, cfg.MaxFileBytes)
	if err := r.ParseMultipartForm(cfg.MaxFileBytes); err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart upload")
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "missing file field")
	}
	cleanup := func() { closeQuietly(file) }

	table, err := fileparse.Parse(header.Filename, file)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if len(table.Rows) == 0 {
		cleanup()
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "uploaded file has no data rows")
	}
	return table, cleanup, nil
}

func closeQuietly(f multipart.File) {
	_ = f.Close()
}

func UploadOrders(svc *importer.Service, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		table, cleanup, err := parseUpload(r, cfg.Uploads)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer cleanup()

		result, err := svc.ImportOrders(r.Context(), table)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func UploadShippingCosts(svc *importer.Service, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		table, cleanup, err := parseUpload(r, cfg.Uploads)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer cleanup()

		result, err := svc.ImportShippingCosts(r.Context(), table)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func UploadPriceList(reconciler *pricing.Reconciler, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		table, cleanup, err := parseUpload(r, cfg.Uploads)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer cleanup()

		summary, err := reconciler.ImportRows(r.Context(), table.Rows)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
