package api

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
)

// Endpoint paths for the document collection views and binary fetch.
const (
	endpointAllDocuments    = "/api/dash/pdfs/all-documents"
	endpointDownloaded      = "/api/dash/pdfs/downloaded"
	endpointNeverDownloaded = "/api/dash/pdfs/never-downloaded"
	endpointDocumentBinary  = "/api/dash/pdfs/document"
)

// documentFilterQuery encodes the optional scoping filters of a view fetch.
func documentFilterQuery(filter DocumentFilter) url.Values {
	query := url.Values{}
	if filter.UserID != "" {
		query.Set("userId", filter.UserID)
	}
	if filter.LoanID != "" {
		query.Set("loanId", filter.LoanID)
	}
	return query
}

// AllDocuments fetches the full document collection view.
func (c *Client) AllDocuments(ctx context.Context, filter DocumentFilter) ([]DocumentWithLoan, error) {
	return c.documentView(ctx, endpointAllDocuments, filter)
}

// DownloadedDocuments fetches the view of documents downloaded at least once.
func (c *Client) DownloadedDocuments(ctx context.Context, filter DocumentFilter) ([]DocumentWithLoan, error) {
	return c.documentView(ctx, endpointDownloaded, filter)
}

// NeverDownloadedDocuments fetches the view of documents never downloaded.
func (c *Client) NeverDownloadedDocuments(ctx context.Context, filter DocumentFilter) ([]DocumentWithLoan, error) {
	return c.documentView(ctx, endpointNeverDownloaded, filter)
}

func (c *Client) documentView(ctx context.Context, endpoint string, filter DocumentFilter) ([]DocumentWithLoan, error) {
	var env envelope[[]DocumentWithLoan]
	if err := c.getJSON(ctx, endpoint, documentFilterQuery(filter), true, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// FetchDocument retrieves one document's binary payload and its filename.
// The filename comes from the Content-Disposition header; an absent or
// malformed header falls back to a deterministic default name. Fetching a
// document counts as a download server-side, so callers must re-fetch the
// document views afterwards; the cached views are invalidated here.
func (c *Client) FetchDocument(ctx context.Context, documentID string) ([]byte, string, error) {
	if documentID == "" {
		return nil, "", fmt.Errorf("document ID is required")
	}

	query := url.Values{}
	query.Set("document_id", documentID)

	resp, err := c.do(ctx, request{
		method:   http.MethodGet,
		endpoint: endpointDocumentBinary,
		query:    query,
	})
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read document payload: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("empty document payload for %s", documentID)
	}

	c.invalidate(ctx, documentViewsPrefix)

	return data, documentFilename(resp.Header, documentID), nil
}

// documentFilename extracts the download filename from the
// Content-Disposition header, falling back to document_<id>.pdf.
func documentFilename(header http.Header, documentID string) string {
	fallback := fmt.Sprintf("document_%s.pdf", documentID)

	disposition := header.Get("Content-Disposition")
	if disposition == "" {
		return fallback
	}

	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return fallback
	}
	if name := params["filename"]; name != "" {
		return name
	}
	return fallback
}
