package interchange

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/nhle/newsletter-manager/internal/model"
	"github.com/nhle/newsletter-manager/internal/record"
)

// ExportCadenceDays is the fixed weekly spacing written as delay_days in
// JSON exports. It is independent of any configured schedule interval.
const ExportCadenceDays = 7

// Email is one element of the "emails" export array.
type Email struct {
	ID        int    `json:"id"`
	Subject   string `json:"subject"`
	EmailBody string `json:"email_body"`
	DelayDays int    `json:"delay_days"`
	Status    string `json:"status"`
}

// Export is the top-level JSON export document.
type Export struct {
	Emails []Email `json:"emails"`
}

// NewExport builds the export document. Delays follow the fixed weekly
// cadence and status is derived from the body, ignoring stored values.
func NewExport(records []model.EmailRecord) Export {
	sorted := record.Sorted(records)
	out := Export{Emails: make([]Email, len(sorted))}
	for i, rec := range sorted {
		out.Emails[i] = Email{
			ID:        rec.Number,
			Subject:   rec.Subject,
			EmailBody: rec.Body,
			DelayDays: (rec.Number - 1) * ExportCadenceDays,
			Status:    string(record.DeriveStatus(rec.Body)),
		}
	}
	return out
}

// ToJSON serializes records as an export document.
func ToJSON(records []model.EmailRecord, pretty bool) ([]byte, error) {
	return encodeJSON(NewExport(records), pretty)
}

func encodeJSON(v any, pretty bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encoding json: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// FromJSON parses either an export document ("emails") or a backup
// document ("data") into normalized records. Elements with unusable numbers
// are reported in the result's diagnostics.
func FromJSON(r io.Reader) (record.Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return record.Result{}, fmt.Errorf("reading json: %w", err)
	}

	var doc struct {
		Emails []map[string]any `json:"emails"`
		Data   []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return record.Result{}, jsonError(data, err)
	}

	var rows []model.Row
	switch {
	case doc.Emails != nil:
		for _, e := range doc.Emails {
			rows = append(rows, model.Row{
				model.ColNumber:  scalar(e["id"]),
				model.ColTitle:   scalar(e["title"]),
				model.ColSubject: scalar(e["subject"]),
				model.ColBody:    scalar(e["email_body"]),
			})
		}
	case doc.Data != nil:
		for _, d := range doc.Data {
			row := make(model.Row, len(d))
			for k, v := range d {
				row[k] = scalar(v)
			}
			rows = append(rows, row)
		}
	default:
		return record.Result{}, &MalformedError{
			Format: "json",
			Field:  "emails",
			Err:    errors.New(`expected a top-level "emails" or "data" array`),
		}
	}

	return record.NormalizeRows(rows), nil
}

// scalar renders a decoded JSON value the way the tabular layer would.
func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

func jsonError(data []byte, err error) error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		return &MalformedError{Format: "json", Line: lineAt(data, syntaxErr.Offset), Err: err}
	case errors.As(err, &typeErr):
		return &MalformedError{Format: "json", Line: lineAt(data, typeErr.Offset), Field: typeErr.Field, Err: err}
	default:
		return &MalformedError{Format: "json", Err: err}
	}
}

func lineAt(data []byte, offset int64) int {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	return bytes.Count(data[:offset], []byte("\n")) + 1
}
