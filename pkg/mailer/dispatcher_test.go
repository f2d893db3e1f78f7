package mailer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/creditoya/dashboard-client/pkg/api"
)

// fakeMailAPI serves client pages from fixtures and records every send.
type fakeMailAPI struct {
	mu sync.Mutex

	clients       []api.ClientRecord
	reportPages   bool
	reportCount   bool
	listCalls     int
	listErr       error
	contactSends  []api.ContactEmail
	announceSends []api.AnnouncementEmail
	failEmails    map[string]bool
}

func newFakeMailAPI(clients []api.ClientRecord) *fakeMailAPI {
	return &fakeMailAPI{
		clients:     clients,
		reportPages: true,
		reportCount: true,
		failEmails:  make(map[string]bool),
	}
}

func (f *fakeMailAPI) ListClients(ctx context.Context, page, pageSize int) (*api.ClientPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(f.clients) {
		start = len(f.clients)
	}
	if end > len(f.clients) {
		end = len(f.clients)
	}

	result := &api.ClientPage{
		Users: f.clients[start:end],
		Count: end - start,
	}
	if f.reportPages {
		result.TotalPages = (len(f.clients) + pageSize - 1) / pageSize
	}
	if f.reportCount {
		result.TotalCount = len(f.clients)
	}
	return result, nil
}

func (f *fakeMailAPI) SendContactEmail(ctx context.Context, email api.ContactEmail) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failEmails[email.Email] {
		return errors.New("smtp rejected")
	}
	f.contactSends = append(f.contactSends, email)
	return nil
}

func (f *fakeMailAPI) SendAnnouncementEmail(ctx context.Context, email api.AnnouncementEmail) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failEmails[email.Email] {
		return errors.New("smtp rejected")
	}
	f.announceSends = append(f.announceSends, email)
	return nil
}

func makeClients(n int) []api.ClientRecord {
	clients := make([]api.ClientRecord, n)
	for i := range clients {
		clients[i] = api.ClientRecord{
			ID:            fmt.Sprintf("client-%d", i),
			Names:         fmt.Sprintf("Cliente %d", i),
			FirstLastName: "Pérez",
			Email:         fmt.Sprintf("cliente%d@example.com", i),
		}
	}
	return clients
}

func newTestDispatcher(t *testing.T, fake *fakeMailAPI) *Dispatcher {
	t.Helper()

	d, err := New(Config{API: fake})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return d
}

func TestNew_RequiresAPI(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("New() without API should fail")
	}
}

func TestEnableBulkPagesThroughCollection(t *testing.T) {
	fake := newFakeMailAPI(makeClients(250))
	d := newTestDispatcher(t, fake)

	if err := d.EnableBulk(context.Background()); err != nil {
		t.Fatalf("EnableBulk() error: %v", err)
	}

	// 250 clients at 100 per page is exactly three requests.
	if fake.listCalls != 3 {
		t.Errorf("ListClients called %d times, want 3", fake.listCalls)
	}

	st := d.Snapshot()
	if !st.BulkEnabled {
		t.Error("BulkEnabled = false after EnableBulk")
	}
	if len(st.BulkClients) != 250 {
		t.Errorf("BulkClients = %d, want 250", len(st.BulkClients))
	}
}

func TestEnableBulkTotalCountOnly(t *testing.T) {
	fake := newFakeMailAPI(makeClients(150))
	fake.reportPages = false
	d := newTestDispatcher(t, fake)

	if err := d.EnableBulk(context.Background()); err != nil {
		t.Fatalf("EnableBulk() error: %v", err)
	}
	if got := len(d.Snapshot().BulkClients); got != 150 {
		t.Errorf("BulkClients = %d, want 150", got)
	}
}

func TestEnableBulkNoContract(t *testing.T) {
	fake := newFakeMailAPI(makeClients(50))
	fake.reportPages = false
	fake.reportCount = false
	d := newTestDispatcher(t, fake)

	err := d.EnableBulk(context.Background())
	if !errors.Is(err, ErrNoPaginationContract) {
		t.Errorf("EnableBulk() error = %v, want ErrNoPaginationContract", err)
	}

	st := d.Snapshot()
	if !st.BulkEnabled {
		t.Error("Toggle should flip on even when the load fails")
	}
	if st.BulkClients != nil {
		t.Errorf("BulkClients = %v, want nil after failed load", st.BulkClients)
	}
}

func TestEnableBulkEmptyCollection(t *testing.T) {
	fake := newFakeMailAPI(nil)
	fake.reportPages = false
	fake.reportCount = false
	d := newTestDispatcher(t, fake)

	// An empty page one with no totals is a legitimately empty collection.
	if err := d.EnableBulk(context.Background()); err != nil {
		t.Fatalf("EnableBulk() error: %v", err)
	}
	if got := len(d.Snapshot().BulkClients); got != 0 {
		t.Errorf("BulkClients = %d, want 0", got)
	}
}

func TestDisableBulkClearsExclusions(t *testing.T) {
	fake := newFakeMailAPI(makeClients(3))
	d := newTestDispatcher(t, fake)

	if err := d.EnableBulk(context.Background()); err != nil {
		t.Fatalf("EnableBulk() error: %v", err)
	}
	d.ExcludeClient("client-1")
	d.DisableBulk()

	st := d.Snapshot()
	if st.BulkEnabled || st.BulkClients != nil || st.ExcludedClientIDs != nil {
		t.Errorf("State after DisableBulk = %+v, want cleared bulk fields", st)
	}
}

func TestExcludeClientIdempotent(t *testing.T) {
	d := newTestDispatcher(t, newFakeMailAPI(nil))

	d.ExcludeClient("client-1")
	d.ExcludeClient("client-1")

	if got := d.Snapshot().ExcludedClientIDs; len(got) != 1 {
		t.Errorf("ExcludedClientIDs = %v, want one entry", got)
	}
}

func TestAddIndividualRecipient(t *testing.T) {
	tests := []struct {
		name    string
		recName string
		email   string
		wantErr string
	}{
		{"valid", "Ana Gómez", "ana@example.com", ""},
		{"trimmed", "  Ana Gómez  ", "  ana2@example.com  ", ""},
		{"missing name", "", "ana@example.com", errRecipientIncomplete},
		{"missing email", "Ana", "", errRecipientIncomplete},
		{"bad shape", "Ana", "not-an-email", errInvalidEmail},
		{"no domain dot", "Ana", "ana@example", errInvalidEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDispatcher(t, newFakeMailAPI(nil))

			err := d.AddIndividualRecipient(tt.recName, tt.email)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("AddIndividualRecipient() error: %v", err)
				}
				if got := len(d.Snapshot().Individuals); got != 1 {
					t.Errorf("Individuals = %d, want 1", got)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr {
				t.Errorf("AddIndividualRecipient() error = %v, want %q", err, tt.wantErr)
			}
			if got := len(d.Snapshot().Individuals); got != 0 {
				t.Errorf("Rejected recipient still staged: %d entries", got)
			}
		})
	}
}

func TestAddIndividualRecipientDuplicate(t *testing.T) {
	d := newTestDispatcher(t, newFakeMailAPI(nil))

	if err := d.AddIndividualRecipient("Ana", "ana@example.com"); err != nil {
		t.Fatalf("First add error: %v", err)
	}
	err := d.AddIndividualRecipient("Otra Ana", "ana@example.com")
	if err == nil || err.Error() != errDuplicateEmail {
		t.Errorf("Duplicate add error = %v, want %q", err, errDuplicateEmail)
	}
	if got := len(d.Snapshot().Individuals); got != 1 {
		t.Errorf("Individuals = %d, want 1 after rejected duplicate", got)
	}
}

func TestRemoveIndividualRecipient(t *testing.T) {
	d := newTestDispatcher(t, newFakeMailAPI(nil))

	if err := d.AddIndividualRecipient("Ana", "ana@example.com"); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	id := d.Snapshot().Individuals[0].ID

	d.RemoveIndividualRecipient(id)
	if got := len(d.Snapshot().Individuals); got != 0 {
		t.Errorf("Individuals = %d, want 0 after removal", got)
	}
}

func TestAssembleRecipients(t *testing.T) {
	fake := newFakeMailAPI(makeClients(3))
	d := newTestDispatcher(t, fake)

	if err := d.EnableBulk(context.Background()); err != nil {
		t.Fatalf("EnableBulk() error: %v", err)
	}
	d.ExcludeClient("client-1")
	if err := d.AddIndividualRecipient("Ana", "ana@example.com"); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	// Individual who duplicates a bulk client's address.
	if err := d.AddIndividualRecipient("Cliente Cero", "cliente0@example.com"); err != nil {
		t.Fatalf("Add error: %v", err)
	}

	recipients := d.AssembleRecipients()

	// 3 bulk clients minus 1 excluded, plus 1 new individual; the
	// duplicated address collapses into the bulk entry.
	if len(recipients) != 3 {
		t.Fatalf("Recipients = %d, want 3", len(recipients))
	}
	emails := make(map[string]bool)
	for _, r := range recipients {
		if emails[r.Email] {
			t.Errorf("Duplicate recipient email %q", r.Email)
		}
		emails[r.Email] = true
	}
	if emails["cliente1@example.com"] {
		t.Error("Excluded client still assembled")
	}
	if !emails["ana@example.com"] {
		t.Error("Individual recipient missing")
	}
}

func TestAssembleRecipientsBulkDisabled(t *testing.T) {
	fake := newFakeMailAPI(makeClients(3))
	d := newTestDispatcher(t, fake)

	if err := d.EnableBulk(context.Background()); err != nil {
		t.Fatalf("EnableBulk() error: %v", err)
	}
	d.DisableBulk()
	if err := d.AddIndividualRecipient("Ana", "ana@example.com"); err != nil {
		t.Fatalf("Add error: %v", err)
	}

	recipients := d.AssembleRecipients()
	if len(recipients) != 1 || recipients[0].Email != "ana@example.com" {
		t.Errorf("Recipients = %+v, want only the individual", recipients)
	}
}

func TestSendNoRecipients(t *testing.T) {
	d := newTestDispatcher(t, newFakeMailAPI(nil))

	_, err := d.Send(context.Background())
	if err == nil || err.Error() != errNoRecipients {
		t.Errorf("Send() error = %v, want %q", err, errNoRecipients)
	}
}

func TestSendPartialFailure(t *testing.T) {
	fake := newFakeMailAPI(nil)
	fake.failEmails["b@example.com"] = true
	d := newTestDispatcher(t, fake)

	for _, r := range []struct{ name, email string }{
		{"A", "a@example.com"},
		{"B", "b@example.com"},
		{"C", "c@example.com"},
	} {
		if err := d.AddIndividualRecipient(r.name, r.email); err != nil {
			t.Fatalf("Add %s error: %v", r.email, err)
		}
	}
	d.SetSubject("Aviso")
	d.SetMessage("Contenido")

	summary, err := d.Send(context.Background())
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	if summary.Total != 3 || summary.Successful != 2 || summary.Failed != 1 {
		t.Errorf("Summary = %+v", summary)
	}
	if len(summary.FailedEmails) != 1 || summary.FailedEmails[0] != "b@example.com" {
		t.Errorf("FailedEmails = %v, want [b@example.com]", summary.FailedEmails)
	}

	// A partial failure keeps the form intact for retry.
	st := d.Snapshot()
	if st.Subject != "Aviso" || st.Message != "Contenido" || len(st.Individuals) != 3 {
		t.Errorf("Form cleared after partial failure: %+v", st)
	}
	if st.Sending {
		t.Error("Sending still set after dispatch")
	}
}

func TestSendSuccessClearsForm(t *testing.T) {
	fake := newFakeMailAPI(nil)
	d := newTestDispatcher(t, fake)

	if err := d.AddIndividualRecipient("Ana", "ana@example.com"); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	d.SetSubject("Aviso")
	d.SetMessage("Contenido")
	d.AddAttachment("contrato.pdf", []byte("%PDF"))
	d.SetSenderName("Equipo CreditoYa")

	summary, err := d.Send(context.Background())
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if summary.Failed != 0 {
		t.Fatalf("Summary = %+v, want no failures", summary)
	}

	st := d.Snapshot()
	if st.Subject != "" || st.Message != "" || len(st.Attachments) != 0 || len(st.Individuals) != 0 {
		t.Errorf("Form not cleared after full success: %+v", st)
	}
	if st.SenderName != DefaultSenderName {
		t.Errorf("SenderName = %q, want the default restored", st.SenderName)
	}
}

func TestSendContactPayload(t *testing.T) {
	fake := newFakeMailAPI(nil)
	d := newTestDispatcher(t, fake)

	if err := d.AddIndividualRecipient("Ana Gómez", "ana@example.com"); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	d.SetSubject("Aviso")
	d.SetMessage("Contenido")
	d.AddAttachment("contrato.pdf", []byte("%PDF"))

	if _, err := d.Send(context.Background()); err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	if len(fake.contactSends) != 1 {
		t.Fatalf("Contact sends = %d, want 1", len(fake.contactSends))
	}
	sent := fake.contactSends[0]
	if sent.Email != "ana@example.com" || sent.RecipientName != "Ana Gómez" {
		t.Errorf("Recipient = %q <%s>", sent.RecipientName, sent.Email)
	}
	if sent.Subject != "Aviso" || sent.Message != "Contenido" {
		t.Errorf("Payload = %+v", sent)
	}
	if sent.Priority != "normal" {
		t.Errorf("Priority = %q, want normal", sent.Priority)
	}
	if len(sent.Files) != 1 || sent.Files[0].Name != "contrato.pdf" {
		t.Errorf("Files = %+v", sent.Files)
	}
}

func TestSendAnnouncementPayload(t *testing.T) {
	fake := newFakeMailAPI(nil)
	d := newTestDispatcher(t, fake)

	if err := d.AddIndividualRecipient("Ana", "ana@example.com"); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	d.SetAnnouncementMode(true)
	d.SetSubject("Nueva tasa")
	d.SetAnnouncement("Tasa preferencial", "Desde septiembre aplica la nueva tasa.")
	d.SetSenderName("Equipo CreditoYa")
	d.SetBannerImage("banner.png", []byte{0x89, 0x50})
	if err := d.AddAdditionalMessage("Requisitos", "Cuenta activa y al día."); err != nil {
		t.Fatalf("AddAdditionalMessage error: %v", err)
	}

	if _, err := d.Send(context.Background()); err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	if len(fake.announceSends) != 1 {
		t.Fatalf("Announcement sends = %d, want 1", len(fake.announceSends))
	}
	sent := fake.announceSends[0]
	if sent.Title != "Tasa preferencial" || sent.Subject != "Nueva tasa" {
		t.Errorf("Payload = %+v", sent)
	}
	if sent.SenderName != "Equipo CreditoYa" {
		t.Errorf("SenderName = %q", sent.SenderName)
	}
	if sent.BannerImage == nil || sent.BannerImage.Name != "banner.png" {
		t.Errorf("BannerImage = %+v", sent.BannerImage)
	}
	if len(sent.AdditionalMessages) != 1 || sent.AdditionalMessages[0].Title != "Requisitos" {
		t.Errorf("AdditionalMessages = %+v", sent.AdditionalMessages)
	}
	if len(fake.contactSends) != 0 {
		t.Error("Announcement mode still sent a contact email")
	}
}

func TestAddAdditionalMessageValidation(t *testing.T) {
	d := newTestDispatcher(t, newFakeMailAPI(nil))

	err := d.AddAdditionalMessage("Título", "   ")
	if err == nil || err.Error() != errMessageIncomplete {
		t.Errorf("AddAdditionalMessage() error = %v, want %q", err, errMessageIncomplete)
	}
}

func TestRemoveAdditionalMessage(t *testing.T) {
	d := newTestDispatcher(t, newFakeMailAPI(nil))

	if err := d.AddAdditionalMessage("Uno", "a"); err != nil {
		t.Fatal(err)
	}
	if err := d.AddAdditionalMessage("Dos", "b"); err != nil {
		t.Fatal(err)
	}

	d.RemoveAdditionalMessage(0)
	d.RemoveAdditionalMessage(5) // out of range, no-op

	got := d.Snapshot().AdditionalMessages
	if len(got) != 1 || got[0].Title != "Dos" {
		t.Errorf("AdditionalMessages = %+v, want only the second block", got)
	}
}

func TestRemoveAttachment(t *testing.T) {
	d := newTestDispatcher(t, newFakeMailAPI(nil))

	keep := d.AddAttachment("keep.pdf", []byte("a"))
	drop := d.AddAttachment("drop.pdf", []byte("b"))

	d.RemoveAttachment(drop)

	got := d.Snapshot().Attachments
	if len(got) != 1 || got[0].ID != keep {
		t.Errorf("Attachments = %+v, want only keep.pdf", got)
	}
}
