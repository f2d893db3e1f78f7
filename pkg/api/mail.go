package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
)

// Endpoint paths for email dispatch.
const (
	endpointContact  = "/api/dash/clients/contact"
	endpointAnnounce = "/api/dash/clients/announce"
)

// SendContactEmail sends one plain contact email to one recipient as a
// multipart request with optional file attachments.
func (c *Client) SendContactEmail(ctx context.Context, email ContactEmail) error {
	if email.Email == "" {
		return fmt.Errorf("recipient email is required")
	}
	if email.Priority == "" {
		email.Priority = "normal"
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"email":         email.Email,
		"subject":       email.Subject,
		"message":       email.Message,
		"recipientName": email.RecipientName,
		"priority":      email.Priority,
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return fmt.Errorf("write field %s: %w", name, err)
		}
	}

	for _, file := range email.Files {
		part, err := w.CreateFormFile("files", file.Name)
		if err != nil {
			return fmt.Errorf("create attachment %s: %w", file.Name, err)
		}
		if _, err := part.Write(file.Data); err != nil {
			return fmt.Errorf("write attachment %s: %w", file.Name, err)
		}
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize multipart body: %w", err)
	}

	return c.sendMail(ctx, endpointContact, buf.Bytes(), w.FormDataContentType())
}

// SendAnnouncementEmail sends one structured announcement email to one
// recipient, with an optional banner image and supplementary message blocks.
func (c *Client) SendAnnouncementEmail(ctx context.Context, email AnnouncementEmail) error {
	if email.Email == "" {
		return fmt.Errorf("recipient email is required")
	}
	if email.Priority == "" {
		email.Priority = "normal"
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"email":         email.Email,
		"subject":       email.Subject,
		"title":         email.Title,
		"message":       email.Message,
		"recipientName": email.RecipientName,
		"priority":      email.Priority,
	}
	if email.SenderName != "" {
		fields["senderName"] = email.SenderName
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return fmt.Errorf("write field %s: %w", name, err)
		}
	}

	if len(email.AdditionalMessages) > 0 {
		encoded, err := json.Marshal(email.AdditionalMessages)
		if err != nil {
			return fmt.Errorf("encode additional messages: %w", err)
		}
		if err := w.WriteField("additionalMessages", string(encoded)); err != nil {
			return fmt.Errorf("write additional messages: %w", err)
		}
	}

	if email.BannerImage != nil {
		part, err := w.CreateFormFile("bannerImage", email.BannerImage.Name)
		if err != nil {
			return fmt.Errorf("create banner image: %w", err)
		}
		if _, err := part.Write(email.BannerImage.Data); err != nil {
			return fmt.Errorf("write banner image: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize multipart body: %w", err)
	}

	return c.sendMail(ctx, endpointAnnounce, buf.Bytes(), w.FormDataContentType())
}

// sendMail posts one multipart email request and surfaces envelope-level
// failures as errors.
func (c *Client) sendMail(ctx context.Context, endpoint string, body []byte, contentType string) error {
	resp, err := c.do(ctx, request{
		method:      http.MethodPost,
		endpoint:    endpoint,
		contentType: contentType,
		body:        body,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope[json.RawMessage]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	if !env.Success {
		message := env.Error
		if message == "" {
			message = "send rejected"
		}
		return &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassServer,
			Message:    message,
		}
	}
	return nil
}
