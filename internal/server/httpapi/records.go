package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/spendwise/internal/server/models"
)

func (r *Router) handleList(w http.ResponseWriter, req *http.Request) {
	f, err := parseFilter(req.URL.Query())
	if err != nil {
		r.writeServiceError(req.Context(), w, err)
		return
	}

	recs, err := r.records.List(req.Context(), getEmail(req.Context()), getTable(req.Context()), f)
	if err != nil {
		r.writeServiceError(req.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, rowsFromRecords(recs))
}

func (r *Router) handleCreate(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	owner, t := getEmail(ctx), getTable(ctx)

	rows, err := decodeRows(w, req)
	if err != nil {
		r.writeServiceError(ctx, w, err)
		return
	}

	created := make([]models.Record, 0, len(rows))
	for _, row := range rows {
		rec := recordFromRow(t, row)
		if err := r.records.Create(ctx, owner, t, &rec); err != nil {
			r.writeServiceError(ctx, w, err)
			return
		}
		created = append(created, rec)
	}

	if !wantsRepresentation(req) {
		w.WriteHeader(http.StatusCreated)
		return
	}
	writeJSON(w, http.StatusCreated, rowsFromRecords(created))
}

// handleUpdate applies the body to every matching row. With return=
// representation the rows are read back through the same filter.
func (r *Router) handleUpdate(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	owner, t := getEmail(ctx), getTable(ctx)

	f, err := parseFilter(req.URL.Query())
	if err != nil {
		r.writeServiceError(ctx, w, err)
		return
	}
	body, err := readBody(w, req)
	if err != nil {
		r.writeServiceError(ctx, w, err)
		return
	}
	p, err := decodePatch(body, owner)
	if err != nil {
		r.writeServiceError(ctx, w, err)
		return
	}

	n, err := r.records.Update(ctx, owner, t, f, p)
	if err != nil {
		r.writeServiceError(ctx, w, err)
		return
	}
	r.logger.Debug(ctx, "rows updated", "table", t, "count", n)

	if !wantsRepresentation(req) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if n == 0 {
		writeJSON(w, http.StatusOK, rowsFromRecords(nil))
		return
	}
	// the patch may have changed is_deleted, so the read-back ignores it
	f.IsDeleted = nil
	recs, err := r.records.List(ctx, owner, t, f)
	if err != nil {
		r.writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, rowsFromRecords(recs))
}

func (r *Router) handleDelete(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	f, err := parseFilter(req.URL.Query())
	if err != nil {
		r.writeServiceError(ctx, w, err)
		return
	}

	n, err := r.records.Delete(ctx, getEmail(ctx), getTable(ctx), f)
	if err != nil {
		r.writeServiceError(ctx, w, err)
		return
	}
	r.logger.Info(ctx, "rows deleted", "table", getTable(ctx), "count", n)
	w.WriteHeader(http.StatusNoContent)
}
