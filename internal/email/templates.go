package email

import (
	"fmt"
	"strings"
	"time"
)

type Message struct {
	Subject string
	Body    string
}

type ReservationDetails struct {
	FieldName string
	Date      string
	TimeRange string
	Recurring bool
	Count     int
}

type PromotionDetails struct {
	FieldName string
	Date      string
	TimeRange string
	ExpiresAt string
	AcceptURL string
}

// FormatSlotRange renders a slot's start and end for humans.
func FormatSlotRange(start, end time.Time) (string, string) {
	date := start.Format("Monday, Jan 2, 2006")
	timeRange := fmt.Sprintf("%s - %s %s", start.Format("3:04 PM"), end.Format("3:04 PM"), start.Format("MST"))
	return date, timeRange
}

func BuildReservationEmail(details ReservationDetails) Message {
	fieldName := orDefault(details.FieldName, "your field")

	subject := fmt.Sprintf("Reservation Received - %s", fieldName)
	lead := "Your reservation has been received."
	if details.Recurring {
		subject = fmt.Sprintf("Recurring Reservation Received - %s", fieldName)
		lead = fmt.Sprintf("Your recurring reservation has been received (%d sessions).", details.Count)
	}

	lines := []string{
		lead,
		"",
		fmt.Sprintf("Field: %s", fieldName),
		fmt.Sprintf("Date: %s", orDefault(details.Date, "TBD")),
		fmt.Sprintf("Time: %s", orDefault(details.TimeRange, "TBD")),
	}
	if details.Recurring {
		lines[3] = fmt.Sprintf("First session: %s", orDefault(details.Date, "TBD"))
	}

	return Message{
		Subject: subject,
		Body:    strings.Join(lines, "\n"),
	}
}

func BuildPromotionEmail(details PromotionDetails) Message {
	fieldName := orDefault(details.FieldName, "your field")

	lines := []string{
		"A slot you were waiting for is now available.",
		"",
		fmt.Sprintf("Field: %s", fieldName),
		fmt.Sprintf("Date: %s", orDefault(details.Date, "TBD")),
		fmt.Sprintf("Time: %s", orDefault(details.TimeRange, "TBD")),
		fmt.Sprintf("Accept before: %s", orDefault(details.ExpiresAt, "TBD")),
	}
	if url := strings.TrimSpace(details.AcceptURL); url != "" {
		lines = append(lines, "", fmt.Sprintf("Accept the offer: %s", url))
	}

	return Message{
		Subject: fmt.Sprintf("Slot Available - %s", fieldName),
		Body:    strings.Join(lines, "\n"),
	}
}

func orDefault(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}
