package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pradeepsarraf/sajilomart-backend/internal/notifications"
)

type stubBulkMailer struct {
	sent []notifications.Email
	err  error
}

func (s *stubBulkMailer) SendBulk(ctx context.Context, recipients []notifications.Email) error {
	s.sent = append(s.sent, recipients...)
	return s.err
}

func TestAdminSendEmailFansOutPerRecipient(t *testing.T) {
	mailer := &stubBulkMailer{}
	handler := AdminSendEmail(mailer, nil)

	body := `{"recipients":["a@sajilomart.com","b@sajilomart.com"],"subject":"Dashain Sale","body":"Up to 50% off this week."}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/email", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(mailer.sent) != 2 {
		t.Fatalf("expected 2 emails, got %d", len(mailer.sent))
	}
	if mailer.sent[1].ToEmail != "b@sajilomart.com" || mailer.sent[1].Subject != "Dashain Sale" {
		t.Fatalf("unexpected email payload: %+v", mailer.sent[1])
	}

	var envelope struct {
		Data struct {
			Sent int `json:"sent"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Sent != 2 {
		t.Fatalf("expected sent count 2, got %d", envelope.Data.Sent)
	}
}

func TestAdminSendEmailRejectsInvalidAddresses(t *testing.T) {
	mailer := &stubBulkMailer{}
	handler := AdminSendEmail(mailer, nil)

	body := `{"recipients":["not-an-email"],"subject":"Hi","body":"Hello"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/email", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(mailer.sent) != 0 {
		t.Fatalf("expected no emails, got %d", len(mailer.sent))
	}
}

func TestAdminSendEmailReportsUnconfiguredProvider(t *testing.T) {
	mailer := &stubBulkMailer{err: notifications.ErrNotConfigured}
	handler := AdminSendEmail(mailer, nil)

	body := `{"recipients":["a@sajilomart.com"],"subject":"Hi","body":"Hello"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/email", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
