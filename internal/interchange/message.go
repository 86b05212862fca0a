package interchange

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/nhle/newsletter-manager/internal/model"
)

// WeekHeader carries the record number on exported messages.
const WeekHeader = "X-Newsletter-Week"

var weekMarkerPattern = regexp.MustCompile(`(?i)(?:\bweek\s*#?\s*|#)(\d{1,2})\b`)

// WeekFromSubject extracts a week number from markers such as "Week 12" or
// "#12" in a subject. It returns "" when no marker is present.
func WeekFromSubject(subject string) string {
	m := weekMarkerPattern.FindStringSubmatch(subject)
	if m == nil {
		return ""
	}
	return m[1]
}

// WriteMessage writes rec as an RFC 5322 HTML message that a mail client can
// open as a draft.
func WriteMessage(w io.Writer, rec model.EmailRecord, from string, date time.Time) error {
	var h mail.Header
	h.SetDate(date)
	h.SetAddressList("From", []*mail.Address{{Address: from}})
	subject := rec.Subject
	if strings.TrimSpace(subject) == "" {
		subject = rec.Title
	}
	h.SetSubject(subject)
	h.Set(WeekHeader, strconv.Itoa(rec.Number))
	h.SetContentType("text/html", map[string]string{"charset": "utf-8"})
	h.Set("Content-Transfer-Encoding", "quoted-printable")

	mw, err := mail.CreateSingleInlineWriter(w, h)
	if err != nil {
		return fmt.Errorf("creating message for week %d: %w", rec.Number, err)
	}
	if _, err := io.WriteString(mw, rec.Body); err != nil {
		_ = mw.Close()
		return fmt.Errorf("writing message body for week %d: %w", rec.Number, err)
	}
	return mw.Close()
}

// ParseMessage reads an RFC 5322 message into a raw row. The number comes
// from the week header when present, otherwise from a marker in the subject.
// The subject fills both Title and Subject_Line; the body is the text/html
// part, falling back to text/plain.
func ParseMessage(r io.Reader) (model.Row, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return nil, &MalformedError{Format: "message", Err: err}
	}
	defer mr.Close()

	subject, err := mr.Header.Subject()
	if err != nil {
		return nil, &MalformedError{Format: "message", Field: "Subject", Err: err}
	}

	number := strings.TrimSpace(mr.Header.Get(WeekHeader))
	if number == "" {
		number = WeekFromSubject(subject)
	}

	var htmlBody, textBody string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &MalformedError{Format: "message", Err: err}
		}
		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := h.ContentType()
		body, err := io.ReadAll(part.Body)
		if err != nil {
			return nil, fmt.Errorf("reading message part: %w", err)
		}
		switch {
		case strings.HasPrefix(contentType, "text/html") && htmlBody == "":
			htmlBody = string(body)
		case strings.HasPrefix(contentType, "text/plain") && textBody == "":
			textBody = string(body)
		}
	}

	body := htmlBody
	if body == "" {
		body = textBody
	}

	return model.Row{
		model.ColNumber:  number,
		model.ColTitle:   subject,
		model.ColSubject: subject,
		model.ColBody:    body,
	}, nil
}
