// Package mailer implements the bulk email dispatch controller: it owns a
// recipient list assembled from the full client base minus exclusions plus
// manually added individuals, and sends one email per recipient, collecting
// per-recipient outcomes so partial failures never look like total ones.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/creditoya/dashboard-client/pkg/api"
	"github.com/creditoya/dashboard-client/pkg/batch"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// User-facing validation messages.
const (
	errNoRecipients        = "No hay destinatarios para enviar el correo"
	errRecipientIncomplete = "Por favor, completa el nombre y email del destinatario"
	errInvalidEmail        = "Por favor, ingresa un email válido"
	errDuplicateEmail      = "Este email ya está agregado"
	errMessageIncomplete   = "Por favor, completa el título y contenido del mensaje adicional"
)

// ErrNoPaginationContract is returned when the client listing reports
// neither total pages nor a total count, which bulk loading requires to
// know where the collection ends.
var ErrNoPaginationContract = errors.New("client listing reported no total pages or total count")

// Bulk-loading bounds.
const (
	// bulkPageSize keeps the number of client-page requests low.
	bulkPageSize = 100

	// maxBulkPages is a defensive ceiling against a misbehaving API;
	// reaching it aborts the loop and proceeds with what was accumulated.
	maxBulkPages = 1000
)

// emailPattern is the simple email-shape gate applied to manual recipients.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// DefaultSenderName is the announcement sender the dashboard uses.
const DefaultSenderName = "CreditoYa"

// MailAPI is the slice of the API client the dispatcher depends on.
type MailAPI interface {
	ListClients(ctx context.Context, page, pageSize int) (*api.ClientPage, error)
	SendContactEmail(ctx context.Context, email api.ContactEmail) error
	SendAnnouncementEmail(ctx context.Context, email api.AnnouncementEmail) error
}

// Config holds dispatcher configuration.
type Config struct {
	// API performs the client listing and sends.
	API MailAPI

	// Concurrency bounds how many recipient sends run at once.
	// 1 (the default) sends strictly sequentially.
	Concurrency int
}

// ClientEntry is one bulk-loaded client reduced to what a send needs.
type ClientEntry struct {
	ID       string
	Email    string
	FullName string
}

// Recipient is one manually curated recipient.
type Recipient struct {
	ID    string
	Name  string
	Email string
}

// AttachmentFile is one staged contact-email attachment.
type AttachmentFile struct {
	ID   string
	Name string
	Size int
	Data []byte
}

// Summary aggregates the per-recipient outcomes of one dispatch.
type Summary struct {
	Total        int
	Successful   int
	Failed       int
	FailedEmails []string
	Results      []batch.Result
}

// State is a snapshot of the dispatcher's form and recipient state.
type State struct {
	BulkEnabled       bool
	BulkClients       []ClientEntry
	ExcludedClientIDs []string
	Individuals       []Recipient
	Subject           string
	Message           string
	Attachments       []AttachmentFile

	AnnouncementMode    bool
	AnnouncementTitle   string
	AnnouncementMessage string
	SenderName          string
	BannerImage         *AttachmentFile
	AdditionalMessages  []api.AdditionalMessage

	Sending bool
}

// Dispatcher owns the bulk email form state and performs batch sends.
type Dispatcher struct {
	config Config
	logger zerolog.Logger

	mu    sync.Mutex
	state State
}

// New creates a dispatcher.
func New(cfg Config) (*Dispatcher, error) {
	if cfg.API == nil {
		return nil, fmt.Errorf("mail API is required")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}

	return &Dispatcher{
		config: cfg,
		logger: log.With().Str("component", "mail-dispatcher").Logger(),
		state: State{
			SenderName: DefaultSenderName,
		},
	}, nil
}

// Snapshot returns a copy of the current state record.
func (d *Dispatcher) Snapshot() State {
	d.mu.Lock()
	defer d.mu.Unlock()

	st := d.state
	st.BulkClients = append([]ClientEntry(nil), d.state.BulkClients...)
	st.ExcludedClientIDs = append([]string(nil), d.state.ExcludedClientIDs...)
	st.Individuals = append([]Recipient(nil), d.state.Individuals...)
	st.Attachments = append([]AttachmentFile(nil), d.state.Attachments...)
	st.AdditionalMessages = append([]api.AdditionalMessage(nil), d.state.AdditionalMessages...)
	return st
}

// update is the single mutation entry point for the state record.
func (d *Dispatcher) update(fn func(*State)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(&d.state)
}

// EnableBulk toggles "send to all clients" on and pages through the client
// collection, accumulating pages until the server-reported total is
// satisfied. A listing without a total-pages or total-count contract is a
// hard error rather than an inferred end-of-data.
func (d *Dispatcher) EnableBulk(ctx context.Context) error {
	clients, err := d.loadAllClients(ctx)
	if err != nil {
		d.update(func(st *State) {
			st.BulkEnabled = true
			st.BulkClients = nil
		})
		d.logger.Error().Err(err).Msg("Bulk client load failed")
		return err
	}

	d.update(func(st *State) {
		st.BulkEnabled = true
		st.BulkClients = clients
	})

	d.logger.Info().Int("clients", len(clients)).Msg("Bulk clients loaded")
	return nil
}

// DisableBulk toggles "send to all clients" off and clears the exclusion
// list along with the loaded client set.
func (d *Dispatcher) DisableBulk() {
	d.update(func(st *State) {
		st.BulkEnabled = false
		st.BulkClients = nil
		st.ExcludedClientIDs = nil
	})
}

// loadAllClients pages through the client listing at bulkPageSize.
func (d *Dispatcher) loadAllClients(ctx context.Context) ([]ClientEntry, error) {
	var accumulated []ClientEntry

	for page := 1; ; page++ {
		if page > maxBulkPages {
			d.logger.Warn().
				Int("max_pages", maxBulkPages).
				Int("accumulated", len(accumulated)).
				Msg("Client page ceiling reached, proceeding with accumulated clients")
			break
		}

		result, err := d.config.API.ListClients(ctx, page, bulkPageSize)
		if err != nil {
			return nil, fmt.Errorf("list clients page %d: %w", page, err)
		}

		for _, user := range result.Users {
			accumulated = append(accumulated, ClientEntry{
				ID:       user.ID,
				Email:    user.Email,
				FullName: user.FullName(),
			})
		}

		var hasMore bool
		switch {
		case result.TotalPages > 0:
			hasMore = page < result.TotalPages
		case result.TotalCount > 0:
			hasMore = len(accumulated) < result.TotalCount
		case len(result.Users) == 0 && page == 1:
			// An empty collection is legitimately contract-less.
			return nil, nil
		default:
			return nil, fmt.Errorf("list clients page %d: %w", page, ErrNoPaginationContract)
		}

		if !hasMore {
			break
		}
	}

	return accumulated, nil
}

// ExcludeClient removes a bulk-loaded client from the dispatch without
// unloading the client set.
func (d *Dispatcher) ExcludeClient(clientID string) {
	d.update(func(st *State) {
		for _, id := range st.ExcludedClientIDs {
			if id == clientID {
				return
			}
		}
		st.ExcludedClientIDs = append(st.ExcludedClientIDs, clientID)
	})
}

// AddIndividualRecipient validates and stages one manual recipient. A bad
// email shape or a duplicate address rejects with a user-facing message and
// leaves the recipient list untouched.
func (d *Dispatcher) AddIndividualRecipient(name, email string) error {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name == "" || email == "" {
		return errors.New(errRecipientIncomplete)
	}
	if !emailPattern.MatchString(email) {
		return errors.New(errInvalidEmail)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, r := range d.state.Individuals {
		if r.Email == email {
			return errors.New(errDuplicateEmail)
		}
	}

	d.state.Individuals = append(d.state.Individuals, Recipient{
		ID:    uuid.NewString(),
		Name:  name,
		Email: email,
	})
	return nil
}

// RemoveIndividualRecipient drops one manual recipient by ID.
func (d *Dispatcher) RemoveIndividualRecipient(id string) {
	d.update(func(st *State) {
		for i, r := range st.Individuals {
			if r.ID == id {
				st.Individuals = append(st.Individuals[:i], st.Individuals[i+1:]...)
				return
			}
		}
	})
}

// SetSubject sets the email subject.
func (d *Dispatcher) SetSubject(subject string) {
	d.update(func(st *State) { st.Subject = subject })
}

// SetMessage sets the plain contact message body.
func (d *Dispatcher) SetMessage(message string) {
	d.update(func(st *State) { st.Message = message })
}

// AddAttachment stages one contact-email attachment.
func (d *Dispatcher) AddAttachment(name string, data []byte) string {
	id := uuid.NewString()
	d.update(func(st *State) {
		st.Attachments = append(st.Attachments, AttachmentFile{
			ID:   id,
			Name: name,
			Size: len(data),
			Data: data,
		})
	})
	return id
}

// RemoveAttachment drops one staged attachment by ID.
func (d *Dispatcher) RemoveAttachment(id string) {
	d.update(func(st *State) {
		for i, a := range st.Attachments {
			if a.ID == id {
				st.Attachments = append(st.Attachments[:i], st.Attachments[i+1:]...)
				return
			}
		}
	})
}

// SetAnnouncementMode switches between plain contact and structured
// announcement payloads.
func (d *Dispatcher) SetAnnouncementMode(enabled bool) {
	d.update(func(st *State) { st.AnnouncementMode = enabled })
}

// SetAnnouncement sets the structured announcement's title and message.
func (d *Dispatcher) SetAnnouncement(title, message string) {
	d.update(func(st *State) {
		st.AnnouncementTitle = title
		st.AnnouncementMessage = message
	})
}

// SetSenderName overrides the announcement sender name.
func (d *Dispatcher) SetSenderName(name string) {
	d.update(func(st *State) { st.SenderName = name })
}

// SetBannerImage stages the announcement banner image.
func (d *Dispatcher) SetBannerImage(name string, data []byte) {
	d.update(func(st *State) {
		st.BannerImage = &AttachmentFile{
			ID:   uuid.NewString(),
			Name: name,
			Size: len(data),
			Data: data,
		}
	})
}

// RemoveBannerImage drops the staged banner image.
func (d *Dispatcher) RemoveBannerImage() {
	d.update(func(st *State) { st.BannerImage = nil })
}

// AddAdditionalMessage stages one supplementary announcement block. Both
// title and content are required.
func (d *Dispatcher) AddAdditionalMessage(title, content string) error {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" || content == "" {
		return errors.New(errMessageIncomplete)
	}

	d.update(func(st *State) {
		st.AdditionalMessages = append(st.AdditionalMessages, api.AdditionalMessage{
			Title:   title,
			Content: content,
		})
	})
	return nil
}

// RemoveAdditionalMessage drops the i-th supplementary block.
func (d *Dispatcher) RemoveAdditionalMessage(i int) {
	d.update(func(st *State) {
		if i < 0 || i >= len(st.AdditionalMessages) {
			return
		}
		st.AdditionalMessages = append(st.AdditionalMessages[:i], st.AdditionalMessages[i+1:]...)
	})
}

// AssembleRecipients merges the bulk client set minus exclusions with the
// manual recipients, deduplicated by email.
func (d *Dispatcher) AssembleRecipients() []Recipient {
	d.mu.Lock()
	defer d.mu.Unlock()

	excluded := make(map[string]bool, len(d.state.ExcludedClientIDs))
	for _, id := range d.state.ExcludedClientIDs {
		excluded[id] = true
	}

	seen := make(map[string]bool)
	var recipients []Recipient

	if d.state.BulkEnabled {
		for _, client := range d.state.BulkClients {
			if excluded[client.ID] || seen[client.Email] {
				continue
			}
			seen[client.Email] = true
			recipients = append(recipients, Recipient{
				ID:    client.ID,
				Name:  client.FullName,
				Email: client.Email,
			})
		}
	}

	for _, r := range d.state.Individuals {
		if seen[r.Email] {
			continue
		}
		seen[r.Email] = true
		recipients = append(recipients, r)
	}

	return recipients
}

// Send dispatches one email per assembled recipient. Each send is caught
// independently so one recipient's failure never aborts the rest. On
// completion the form clears only when every recipient succeeded; a total
// failure keeps the form intact for retry.
func (d *Dispatcher) Send(ctx context.Context) (*Summary, error) {
	recipients := d.AssembleRecipients()
	if len(recipients) == 0 {
		return nil, errors.New(errNoRecipients)
	}

	d.mu.Lock()
	st := d.state
	d.state.Sending = true
	d.mu.Unlock()

	defer d.update(func(st *State) { st.Sending = false })

	d.logger.Info().
		Int("recipients", len(recipients)).
		Bool("announcement", st.AnnouncementMode).
		Msg("Dispatching emails")

	units := make([]batch.Unit, len(recipients))
	for i, recipient := range recipients {
		recipient := recipient
		units[i] = batch.Unit{
			SubjectID: recipient.Email,
			Do: func(ctx context.Context) error {
				return d.sendOne(ctx, st, recipient)
			},
		}
	}

	dispatcher := batch.NewDispatcher(batch.Config{
		Operation:   "mail_send",
		Concurrency: d.config.Concurrency,
	})
	results := dispatcher.Dispatch(ctx, units)

	successful, failed, failedEmails := batch.Summarize(results)
	summary := &Summary{
		Total:        len(recipients),
		Successful:   successful,
		Failed:       failed,
		FailedEmails: failedEmails,
		Results:      results,
	}

	if successful > 0 {
		d.logger.Info().
			Int("successful", successful).
			Int("total", len(recipients)).
			Msg("Emails sent")
	}
	if failed > 0 {
		d.logger.Warn().
			Strs("failed_emails", failedEmails).
			Msg("Some emails failed")
	}

	// The form survives any failure so the user can retry without
	// re-entering data.
	if failed == 0 {
		d.clearForm()
	}

	return summary, nil
}

// sendOne builds and sends the payload for a single recipient.
func (d *Dispatcher) sendOne(ctx context.Context, st State, recipient Recipient) error {
	if st.AnnouncementMode {
		announcement := api.AnnouncementEmail{
			Email:              recipient.Email,
			Subject:            st.Subject,
			Title:              st.AnnouncementTitle,
			Message:            st.AnnouncementMessage,
			RecipientName:      recipient.Name,
			Priority:           "normal",
			SenderName:         st.SenderName,
			AdditionalMessages: st.AdditionalMessages,
		}
		if st.BannerImage != nil {
			announcement.BannerImage = &api.Attachment{
				Name: st.BannerImage.Name,
				Data: st.BannerImage.Data,
			}
		}
		return d.config.API.SendAnnouncementEmail(ctx, announcement)
	}

	contact := api.ContactEmail{
		Email:         recipient.Email,
		Subject:       st.Subject,
		Message:       st.Message,
		RecipientName: recipient.Name,
		Priority:      "normal",
	}
	for _, a := range st.Attachments {
		contact.Files = append(contact.Files, api.Attachment{Name: a.Name, Data: a.Data})
	}
	return d.config.API.SendContactEmail(ctx, contact)
}

// clearForm resets every form field after a fully successful dispatch.
func (d *Dispatcher) clearForm() {
	d.update(func(st *State) {
		st.Subject = ""
		st.Message = ""
		st.Attachments = nil
		st.Individuals = nil
		st.AnnouncementTitle = ""
		st.AnnouncementMessage = ""
		st.SenderName = DefaultSenderName
		st.BannerImage = nil
		st.AdditionalMessages = nil
	})
}
