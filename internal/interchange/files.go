package interchange

import (
	"archive/zip"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/nhle/newsletter-manager/internal/model"
	"github.com/nhle/newsletter-manager/internal/record"
	"github.com/nhle/newsletter-manager/internal/schedule"
)

// MIME types of the exported documents.
const (
	ContentTypeCSV  = "text/csv"
	ContentTypeJSON = "application/json"
	ContentTypeHTML = "text/html"
	ContentTypeZip  = "application/zip"
	ContentTypeEML  = "message/rfc822"
)

// FileName returns the conventional export name, e.g. "newsletters_52_emails.csv".
func FileName(entity string, count int, ext string) string {
	return fmt.Sprintf("%s_%d_emails.%s", entity, count, ext)
}

// HTMLFileName returns the file name of a single exported email body.
func HTMLFileName(number int) string {
	return fmt.Sprintf("newsletter_week_%d.html", number)
}

// MessageFileName returns the file name of a single exported message.
func MessageFileName(number int) string {
	return fmt.Sprintf("newsletter_week_%d.eml", number)
}

// WriteHTMLArchive writes a zip archive holding one HTML file per authored
// record and returns how many files it contains.
func WriteHTMLArchive(w io.Writer, records []model.EmailRecord, modified time.Time) (int, error) {
	zw := zip.NewWriter(w)
	n := 0
	for _, rec := range record.Sorted(records) {
		if !record.IsComplete(rec) {
			continue
		}
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     HTMLFileName(rec.Number),
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return n, fmt.Errorf("adding week %d to archive: %w", rec.Number, err)
		}
		if _, err := io.WriteString(fw, rec.Body); err != nil {
			return n, fmt.Errorf("writing week %d to archive: %w", rec.Number, err)
		}
		n++
	}
	if err := zw.Close(); err != nil {
		return n, fmt.Errorf("closing archive: %w", err)
	}
	return n, nil
}

// ScheduleColumns is the header of a schedule export.
var ScheduleColumns = []string{"Email_Number", "Subject_Line", "Send_Date", "Day_Of_Week", "Days_From_Anchor"}

// ScheduleCSV serializes a send plan.
func ScheduleCSV(entries []schedule.Entry) ([]byte, error) {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{
			strconv.Itoa(e.Number),
			e.Subject,
			e.Date(),
			e.DayOfWeek,
			strconv.Itoa(e.DaysFromAnchor),
		}
	}
	return EncodeCSV(ScheduleColumns, rows)
}
