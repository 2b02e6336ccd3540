package email

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	dbgen "github.com/codr1/fieldbook/internal/db/generated"
)

const sendTimeout = 5 * time.Second

// SendToUser looks up the user's address and sends msg asynchronously.
// Users without an email address are skipped. The returned channel is closed
// once the send finishes, or immediately when nothing is sent.
func SendToUser(ctx context.Context, q *dbgen.Queries, sender EmailSender, userID int64, msg Message, logger *zerolog.Logger) <-chan struct{} {
	done := make(chan struct{})
	if sender == nil || q == nil || msg.Subject == "" || msg.Body == "" {
		close(done)
		return done
	}

	user, err := q.GetUserByID(ctx, userID)
	if err != nil {
		if logger != nil {
			logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to load user for email")
		}
		close(done)
		return done
	}
	recipient := ""
	if user.Email.Valid {
		recipient = strings.TrimSpace(user.Email.String)
	}
	if recipient == "" {
		close(done)
		return done
	}

	go func() {
		defer close(done)
		sendCtx, cancel := newEmailContext(ctx, sendTimeout)
		defer cancel()
		if err := sender.Send(sendCtx, recipient, msg.Subject, msg.Body); err != nil && logger != nil {
			logger.Error().Err(err).Str("recipient", recipient).Msg("Failed to send email")
		}
	}()
	return done
}
