package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Endpoint paths for loan and document operations.
const (
	endpointLoanSearch       = "/api/dash/status"
	endpointLoansWithDocs    = "/api/dash/pdfs/loans-with-documents"
	endpointPendingDocuments = "/api/dash/pdfs/pending-documents"
	endpointLoanDocuments    = "/api/dash/pdfs/loan-documents"
	endpointGenerate         = "/api/dash/pdfs/generate"
	endpointGenerateAll      = "/api/dash/pdfs/generate-all-pending"
)

// documentViewsPrefix covers every cached document view for invalidation.
const documentViewsPrefix = "/api/dash/pdfs"

// SearchLoans fetches one page of the filtered, searchable loan collection.
// The returned metadata is the server's authoritative pagination state.
func (c *Client) SearchLoans(ctx context.Context, q LoanSearchQuery) (*LoanSearchResult, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = 10
	}
	if q.Status == "" {
		q.Status = StatusApproved
	}

	query := url.Values{}
	query.Set("status", q.Status)
	query.Set("page", strconv.Itoa(q.Page))
	query.Set("pageSize", strconv.Itoa(q.PageSize))
	if q.Search != "" {
		query.Set("search", q.Search)
	}

	var result LoanSearchResult
	if err := c.getJSON(ctx, endpointLoanSearch, query, true, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// LoansWithDocuments lists loans of the given status joined with their
// generated documents.
func (c *Client) LoansWithDocuments(ctx context.Context, status string) ([]LoanWithDocuments, error) {
	query := url.Values{}
	query.Set("status", status)

	var env envelope[[]LoanWithDocuments]
	if err := c.getJSON(ctx, endpointLoansWithDocs, query, true, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// PendingDocumentLoans lists the loans that still lack a generated proof
// document.
func (c *Client) PendingDocumentLoans(ctx context.Context) (*PendingDocuments, error) {
	var env envelope[PendingDocuments]
	if err := c.getJSON(ctx, endpointPendingDocuments, nil, true, &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// LoanDocuments lists the documents generated for a single loan.
func (c *Client) LoanDocuments(ctx context.Context, loanID string) ([]DocumentRecord, error) {
	if loanID == "" {
		return nil, fmt.Errorf("loan ID is required")
	}

	query := url.Values{}
	query.Set("loanId", loanID)

	var env envelope[[]DocumentRecord]
	if err := c.getJSON(ctx, endpointLoanDocuments, query, true, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// GenerateDocuments submits one or more document-type generation requests
// for a single loan and returns the server-issued document metadata.
func (c *Client) GenerateDocuments(ctx context.Context, params []DocumentParams, userID, loanID string) ([]DocumentRecord, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("at least one document params entry is required")
	}
	if userID == "" || loanID == "" {
		return nil, fmt.Errorf("user ID and loan ID are required")
	}

	payload := struct {
		DocumentsParams []DocumentParams `json:"documentsParams"`
		UserID          string           `json:"userId"`
		LoanID          string           `json:"loanId"`
	}{params, userID, loanID}

	var env envelope[[]DocumentRecord]
	if err := c.postJSON(ctx, endpointGenerate, payload, &env); err != nil {
		return nil, err
	}

	c.invalidate(ctx, documentViewsPrefix)
	return env.Data, nil
}

// GenerateAllPending asks the server to generate documents for every
// pending loan in one server-driven batch and returns its summary.
func (c *Client) GenerateAllPending(ctx context.Context) (*BatchGenerationSummary, error) {
	var summary BatchGenerationSummary
	if err := c.postJSON(ctx, endpointGenerateAll, struct{}{}, &summary); err != nil {
		return nil, err
	}
	if !summary.Success && summary.Error != "" {
		return nil, &APIError{
			StatusCode: http.StatusOK,
			ErrorClass: ErrorClassServer,
			Message:    summary.Error,
		}
	}

	c.invalidate(ctx, documentViewsPrefix)
	return &summary, nil
}
