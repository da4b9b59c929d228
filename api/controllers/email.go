package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/pradeepsarraf/sajilomart-backend/api/responses"
	"github.com/pradeepsarraf/sajilomart-backend/api/validators"
	"github.com/pradeepsarraf/sajilomart-backend/internal/notifications"
	pkgerrors "github.com/pradeepsarraf/sajilomart-backend/pkg/errors"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/logger"
)

type bulkMailer interface {
	SendBulk(ctx context.Context, recipients []notifications.Email) error
}

type sendEmailRequest struct {
	Recipients []string `json:"recipients" validate:"required,min=1,dive,email"`
	Subject    string   `json:"subject" validate:"required"`
	Body       string   `json:"body" validate:"required"`
}

// AdminSendEmail delivers a hand-written message to a list of customers. Each
// recipient is a separate provider call; partial failures report which
// addresses missed out while the rest still receive the email.
func AdminSendEmail(mailer bulkMailer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if mailer == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "email delivery is not available right now"))
			return
		}

		var body sendEmailRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		recipients := make([]notifications.Email, 0, len(body.Recipients))
		for _, address := range body.Recipients {
			recipients = append(recipients, notifications.Email{
				ToEmail: address,
				Subject: body.Subject,
				Body:    body.Body,
			})
		}

		if err := mailer.SendBulk(r.Context(), recipients); err != nil {
			if errors.Is(err, notifications.ErrNotConfigured) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "email delivery is not available right now"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send email"))
			return
		}

		responses.WriteSuccess(w, map[string]any{"sent": len(recipients)})
	}
}
