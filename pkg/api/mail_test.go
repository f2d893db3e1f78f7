package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/creditoya/dashboard-client/internal/testutil"
)

func TestSendContactEmail(t *testing.T) {
	mock := testutil.NewMockDashboard()
	defer mock.Close()

	mock.SetHandler("/api/dash/clients/contact", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm() error: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		fields := map[string]string{
			"email":         "cliente@example.com",
			"subject":       "Actualización de tu crédito",
			"message":       "Hola",
			"recipientName": "Ana Pérez",
			"priority":      "normal",
		}
		for name, want := range fields {
			if got := r.FormValue(name); got != want {
				t.Errorf("Field %s = %q, want %q", name, got, want)
			}
		}

		files := r.MultipartForm.File["files"]
		if len(files) != 1 || files[0].Filename != "estado.pdf" {
			t.Errorf("Attachments = %+v, want one estado.pdf", files)
		} else {
			f, _ := files[0].Open()
			data, _ := io.ReadAll(f)
			f.Close()
			if string(data) != "contenido" {
				t.Errorf("Attachment content = %q", data)
			}
		}

		w.Write([]byte(`{"success": true}`))
	})

	client := newTestClient(t, mock)

	err := client.SendContactEmail(context.Background(), ContactEmail{
		Email:         "cliente@example.com",
		Subject:       "Actualización de tu crédito",
		Message:       "Hola",
		RecipientName: "Ana Pérez",
		Files:         []Attachment{{Name: "estado.pdf", Data: []byte("contenido")}},
	})
	if err != nil {
		t.Fatalf("SendContactEmail() error: %v", err)
	}
}

func TestSendContactEmail_DefaultPriority(t *testing.T) {
	mock := testutil.NewMockDashboard()
	defer mock.Close()

	mock.SetHandler("/api/dash/clients/contact", func(w http.ResponseWriter, r *http.Request) {
		r.ParseMultipartForm(1 << 20)
		if got := r.FormValue("priority"); got != "normal" {
			t.Errorf("priority = %q, want normal", got)
		}
		w.Write([]byte(`{"success": true}`))
	})

	client := newTestClient(t, mock)
	if err := client.SendContactEmail(context.Background(), ContactEmail{Email: "a@b.co"}); err != nil {
		t.Fatalf("SendContactEmail() error: %v", err)
	}
}

func TestSendContactEmail_RequiresRecipient(t *testing.T) {
	mock := testutil.NewMockDashboard()
	defer mock.Close()

	client := newTestClient(t, mock)
	if err := client.SendContactEmail(context.Background(), ContactEmail{}); err == nil {
		t.Error("Expected error for missing recipient email")
	}
	if mock.GetRequestCount() != 0 {
		t.Error("Invalid payload must not reach the server")
	}
}

func TestSendAnnouncementEmail(t *testing.T) {
	mock := testutil.NewMockDashboard()
	defer mock.Close()

	mock.SetHandler("/api/dash/clients/announce", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm() error: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		if got := r.FormValue("title"); got != "Nueva tasa" {
			t.Errorf("title = %q, want Nueva tasa", got)
		}
		if got := r.FormValue("senderName"); got != "CreditoYa" {
			t.Errorf("senderName = %q, want CreditoYa", got)
		}

		var extra []AdditionalMessage
		if err := json.Unmarshal([]byte(r.FormValue("additionalMessages")), &extra); err != nil {
			t.Errorf("additionalMessages not valid JSON: %v", err)
		} else if len(extra) != 1 || extra[0].Title != "Detalles" {
			t.Errorf("additionalMessages = %+v", extra)
		}

		banner := r.MultipartForm.File["bannerImage"]
		if len(banner) != 1 || banner[0].Filename != "banner.png" {
			t.Errorf("bannerImage = %+v, want one banner.png", banner)
		}

		w.Write([]byte(`{"success": true}`))
	})

	client := newTestClient(t, mock)

	err := client.SendAnnouncementEmail(context.Background(), AnnouncementEmail{
		Email:              "cliente@example.com",
		Subject:            "Anuncio",
		Title:              "Nueva tasa",
		Message:            "Desde hoy",
		RecipientName:      "Ana",
		SenderName:         "CreditoYa",
		AdditionalMessages: []AdditionalMessage{{Title: "Detalles", Content: "Aplican condiciones"}},
		BannerImage:        &Attachment{Name: "banner.png", Data: []byte{0x89, 0x50}},
	})
	if err != nil {
		t.Fatalf("SendAnnouncementEmail() error: %v", err)
	}
}

func TestSendMail_EnvelopeFailure(t *testing.T) {
	mock := testutil.NewMockDashboard()
	defer mock.Close()

	mock.SetResponse("/api/dash/clients/contact", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"success": false, "error": "destinatario bloqueado"}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	})

	client := newTestClient(t, mock)

	err := client.SendContactEmail(context.Background(), ContactEmail{Email: "x@y.co"})
	if err == nil {
		t.Fatal("Expected error when envelope reports failure")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "destinatario bloqueado" {
		t.Errorf("Error = %v, want APIError with envelope message", err)
	}
}

func TestListClients(t *testing.T) {
	mock := testutil.NewMockDashboard()
	defer mock.Close()

	mock.SetHandler("/api/dash/clients", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("page"); got != "1" {
			t.Errorf("page param = %q, want 1", got)
		}
		if got := q.Get("pageSize"); got != "100" {
			t.Errorf("pageSize param = %q, want 100", got)
		}
		w.Write([]byte(`{
			"success": true,
			"data": {
				"users": [{"id": "u1", "names": "Ana", "firstLastName": "Pérez", "email": "ana@example.com"}],
				"totalPages": 1,
				"totalCount": 1,
				"count": 1
			}
		}`))
	})

	client := newTestClient(t, mock)

	page, err := client.ListClients(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("ListClients() error: %v", err)
	}
	if len(page.Users) != 1 || page.Users[0].Email != "ana@example.com" {
		t.Errorf("Users = %+v", page.Users)
	}
	if page.TotalPages != 1 || page.TotalCount != 1 {
		t.Errorf("Pagination = %d/%d, want 1/1", page.TotalPages, page.TotalCount)
	}
}

func TestClientRecord_FullName(t *testing.T) {
	tests := []struct {
		name   string
		client ClientRecord
		want   string
	}{
		{
			name:   "two_surnames",
			client: ClientRecord{Names: "Ana María", FirstLastName: "Pérez", SecondLastName: "Gómez"},
			want:   "Ana María Pérez Gómez",
		},
		{
			name:   "one_surname",
			client: ClientRecord{Names: "Carlos", FirstLastName: "Ruiz"},
			want:   "Carlos Ruiz",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.client.FullName(); got != tt.want {
				t.Errorf("FullName() = %q, want %q", got, tt.want)
			}
		})
	}
}
