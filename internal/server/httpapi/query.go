package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/spendwise/internal/common"
	"github.com/dmitrijs2005/spendwise/internal/restapi"
	"github.com/dmitrijs2005/spendwise/internal/server/models"
	"github.com/shopspring/decimal"
)

// parseFilter reads the PostgREST query. Only eq. filters on id,
// user_email and is_deleted are understood, plus the occurred_at ordering.
func parseFilter(q url.Values) (models.Filter, error) {
	var f models.Filter

	for key, vals := range q {
		if len(vals) != 1 {
			return f, fmt.Errorf("%w: %s given more than once", common.ErrValidation, key)
		}
		v := vals[0]

		switch key {
		case restapi.ParamSelect:
			if v != "*" {
				return f, fmt.Errorf("%w: only select=* is supported", common.ErrValidation)
			}
		case restapi.ParamOrder:
			switch v {
			case restapi.OrderOccurredAtDesc:
				f.NewestFirst = true
			default:
				return f, fmt.Errorf("%w: unsupported order %q", common.ErrValidation, v)
			}
		case restapi.ParamID, restapi.ParamUserEmail, restapi.ParamIsDeleted:
			arg, ok := strings.CutPrefix(v, restapi.OpEq)
			if !ok {
				return f, fmt.Errorf("%w: only eq. filters are supported on %s", common.ErrValidation, key)
			}
			switch key {
			case restapi.ParamID:
				f.ID = arg
			case restapi.ParamUserEmail:
				f.UserEmail = arg
			default:
				var b bool
				switch arg {
				case "true":
					b = true
				case "false":
				default:
					return f, fmt.Errorf("%w: is_deleted must be true or false", common.ErrValidation)
				}
				f.IsDeleted = &b
			}
		default:
			return f, fmt.Errorf("%w: unknown parameter %q", common.ErrValidation, key)
		}
	}
	return f, nil
}

func readBody(w http.ResponseWriter, req *http.Request) ([]byte, error) {
	req.Body = http.MaxBytesReader(w, req.Body, maxRequestBytes)
	b, err := io.ReadAll(req.Body)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, fmt.Errorf("%w: request entity too large", common.ErrValidation)
		}
		return nil, fmt.Errorf("%w: read body: %v", common.ErrValidation, err)
	}
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty body", common.ErrValidation)
	}
	return b, nil
}

func decodeBody(w http.ResponseWriter, req *http.Request, v any) error {
	b, err := readBody(w, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("%w: invalid json", common.ErrValidation)
	}
	return nil
}

// decodeRows accepts a single row object or an array of rows.
func decodeRows(w http.ResponseWriter, req *http.Request) ([]restapi.RecordRow, error) {
	b, err := readBody(w, req)
	if err != nil {
		return nil, err
	}
	if b[0] == '[' {
		var rows []restapi.RecordRow
		if err := json.Unmarshal(b, &rows); err != nil {
			return nil, fmt.Errorf("%w: invalid json", common.ErrValidation)
		}
		return rows, nil
	}
	var row restapi.RecordRow
	if err := json.Unmarshal(b, &row); err != nil {
		return nil, fmt.Errorf("%w: invalid json", common.ErrValidation)
	}
	return []restapi.RecordRow{row}, nil
}

// field decodes one patch value; JSON null yields nil.
func field[T any](key string, raw json.RawMessage) (*T, error) {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}
	v := new(T)
	if err := json.Unmarshal(raw, v); err != nil {
		return nil, fmt.Errorf("%w: invalid value for %s", common.ErrValidation, key)
	}
	return v, nil
}

// decodePatch maps the keys present in a PATCH body to a Patch. A null
// note or photo_url clears the column.
func decodePatch(body []byte, owner string) (models.Patch, error) {
	var p models.Patch

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return p, fmt.Errorf("%w: invalid json", common.ErrValidation)
	}

	var err error
	for key, v := range raw {
		switch key {
		case "id", "created_at":
		case "user_email":
			var email *string
			if email, err = field[string](key, v); err == nil && email != nil && !strings.EqualFold(*email, owner) {
				return p, fmt.Errorf("%w: row owner mismatch", common.ErrUnauthorized)
			}
		case "title":
			p.Title, err = field[string](key, v)
		case "occurred_at":
			p.OccurredAt, err = field[time.Time](key, v)
		case "amount":
			p.Amount, err = field[decimal.Decimal](key, v)
		case "currency":
			p.Currency, err = field[string](key, v)
		case "category":
			p.Category, err = field[string](key, v)
		case "type":
			p.Type, err = field[string](key, v)
		case "note":
			p.Note, err = field[string](key, v)
			p.ClearNote = p.Note == nil
		case "photo_url":
			p.PhotoURL, err = field[string](key, v)
			p.ClearPhotoURL = p.PhotoURL == nil
		case "is_deleted":
			p.IsDeleted, err = field[bool](key, v)
		case "deleted_at":
			p.DeletedAt, err = field[time.Time](key, v)
		default:
			return p, fmt.Errorf("%w: unknown column %q", common.ErrValidation, key)
		}
		if err != nil {
			return p, err
		}
	}
	return p, nil
}

func recordFromRow(t models.Table, row restapi.RecordRow) models.Record {
	rec := models.Record{
		ID:         row.ID,
		UserEmail:  row.UserEmail,
		Title:      row.Title,
		OccurredAt: row.OccurredAt,
		Amount:     row.Amount,
		Currency:   row.Currency,
		Category:   row.Category,
		Note:       row.Note,
		PhotoURL:   row.PhotoURL,
		IsDeleted:  row.IsDeleted,
		DeletedAt:  row.DeletedAt,
	}
	if t == models.TableExpenses {
		rec.Type = row.Type
	}
	return rec
}

func rowFromRecord(rec models.Record) restapi.RecordRow {
	return restapi.RecordRow{
		ID:         rec.ID,
		UserEmail:  rec.UserEmail,
		Title:      rec.Title,
		OccurredAt: rec.OccurredAt.UTC(),
		Amount:     rec.Amount,
		Currency:   rec.Currency,
		Category:   rec.Category,
		Type:       rec.Type,
		Note:       rec.Note,
		PhotoURL:   rec.PhotoURL,
		IsDeleted:  rec.IsDeleted,
		DeletedAt:  rec.DeletedAt,
	}
}

func rowsFromRecords(recs []models.Record) []restapi.RecordRow {
	rows := make([]restapi.RecordRow, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, rowFromRecord(rec))
	}
	return rows
}

func wantsRepresentation(req *http.Request) bool {
	return strings.Contains(req.Header.Get(common.PreferHeaderName), restapi.PreferReturnRep)
}
