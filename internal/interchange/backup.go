package interchange

import (
	"time"

	"github.com/nhle/newsletter-manager/internal/model"
	"github.com/nhle/newsletter-manager/internal/record"
)

// BackupRow is one record in tabular form inside a backup.
type BackupRow struct {
	Number  int    `json:"Email_Number"`
	Title   string `json:"Title"`
	Subject string `json:"Subject_Line"`
	Body    string `json:"Complete_HTML_Code"`
}

// Backup is a full snapshot of the campaign that FromJSON can restore.
type Backup struct {
	BackupDate       string      `json:"backup_date"`
	TotalNewsletters int         `json:"total_newsletters"`
	Data             []BackupRow `json:"data"`
}

// ToBackup serializes records as an indented backup document stamped with
// now.
func ToBackup(records []model.EmailRecord, now time.Time) ([]byte, error) {
	sorted := record.Sorted(records)
	b := Backup{
		BackupDate:       now.Format(time.RFC3339),
		TotalNewsletters: len(sorted),
		Data:             make([]BackupRow, len(sorted)),
	}
	for i, rec := range sorted {
		b.Data[i] = BackupRow{
			Number:  rec.Number,
			Title:   rec.Title,
			Subject: rec.Subject,
			Body:    rec.Body,
		}
	}
	return encodeJSON(b, true)
}
