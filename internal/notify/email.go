package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/fieldbook/internal/booking"
	dbgen "github.com/codr1/fieldbook/internal/db/generated"
	"github.com/codr1/fieldbook/internal/email"
)

// EmailNotifier emails the affected user. Recipients and field names come
// from the database; slots render in the field's own timezone.
type EmailNotifier struct {
	queries *dbgen.Queries
	sender  email.EmailSender
	baseURL string
	wg      sync.WaitGroup
}

func NewEmailNotifier(queries *dbgen.Queries, sender email.EmailSender, baseURL string) *EmailNotifier {
	return &EmailNotifier{
		queries: queries,
		sender:  sender,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (n *EmailNotifier) ReservationCreated(ctx context.Context, reservations []booking.Reservation) {
	if len(reservations) == 0 {
		return
	}
	first := reservations[0]
	fieldName, loc := n.fieldInfo(ctx, first.FieldID)
	date, timeRange := email.FormatSlotRange(first.Slot.StartTime(loc), first.Slot.EndTime(loc))

	msg := email.BuildReservationEmail(email.ReservationDetails{
		FieldName: fieldName,
		Date:      date,
		TimeRange: timeRange,
		Recurring: first.SeriesID != "",
		Count:     len(reservations),
	})
	n.send(ctx, first.UserID, msg)
}

func (n *EmailNotifier) WaitlistPromoted(ctx context.Context, promotion booking.Promotion) {
	fieldName, loc := n.fieldInfo(ctx, promotion.FieldID)
	date, timeRange := email.FormatSlotRange(promotion.Slot.StartTime(loc), promotion.Slot.EndTime(loc))

	details := email.PromotionDetails{
		FieldName: fieldName,
		Date:      date,
		TimeRange: timeRange,
		ExpiresAt: promotion.ExpiresAt.In(loc).Format("Jan 2, 3:04 PM MST"),
	}
	if n.baseURL != "" {
		details.AcceptURL = fmt.Sprintf("%s/api/v1/waitlist/%d/accept", n.baseURL, promotion.EntryID)
	}
	n.send(ctx, promotion.UserID, email.BuildPromotionEmail(details))
}

// Wait blocks until every send started so far has finished.
func (n *EmailNotifier) Wait() {
	n.wg.Wait()
}

func (n *EmailNotifier) send(ctx context.Context, userID int64, msg email.Message) {
	n.wg.Add(1)
	done := email.SendToUser(ctx, n.queries, n.sender, userID, msg, log.Ctx(ctx))
	go func() {
		defer n.wg.Done()
		<-done
	}()
}

func (n *EmailNotifier) fieldInfo(ctx context.Context, fieldID int64) (string, *time.Location) {
	field, err := n.queries.GetField(ctx, fieldID)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Int64("field_id", fieldID).Msg("Failed to load field for email")
		return "", time.UTC
	}
	loc, err := time.LoadLocation(field.Timezone)
	if err != nil {
		return field.Name, time.UTC
	}
	return field.Name, loc
}
