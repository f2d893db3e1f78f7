// Package documents implements the proof-document lifecycle orchestrator:
// it owns the derived views over the remote document collection, drives
// single and batch document generation, and drives single and bulk
// downloads with the mandatory post-operation refresh of every view.
package documents

import (
	"context"
	"fmt"
	"sync"

	"github.com/creditoya/dashboard-client/pkg/api"
	"github.com/creditoya/dashboard-client/pkg/batch"
	"github.com/creditoya/dashboard-client/pkg/paging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// User-facing error messages, one per failing operation.
const (
	errFetchLoans      = "Error al obtener préstamos"
	errFetchPending    = "Error al obtener documentos pendientes"
	errFetchLoanDocs   = "Error al obtener documentos del préstamo"
	errGenerate        = "Error al generar documentos"
	errGenerateAll     = "Error al generar documentos pendientes"
	errFetchAll        = "Error al obtener todos los documentos"
	errFetchDownloaded = "Error al obtener documentos descargados"
	errFetchNever      = "Error al obtener documentos no descargados"
	errDownload        = "Error al descargar documento"
	errDownloadAll     = "Error al descargar los documentos"
)

// itemsPerPage is the fixed client-side page size over eligible documents.
const itemsPerPage = 10

// DocumentAPI is the slice of the API client the orchestrator depends on.
type DocumentAPI interface {
	LoansWithDocuments(ctx context.Context, status string) ([]api.LoanWithDocuments, error)
	PendingDocumentLoans(ctx context.Context) (*api.PendingDocuments, error)
	LoanDocuments(ctx context.Context, loanID string) ([]api.DocumentRecord, error)
	GenerateDocuments(ctx context.Context, params []api.DocumentParams, userID, loanID string) ([]api.DocumentRecord, error)
	GenerateAllPending(ctx context.Context) (*api.BatchGenerationSummary, error)
	AllDocuments(ctx context.Context, filter api.DocumentFilter) ([]api.DocumentWithLoan, error)
	DownloadedDocuments(ctx context.Context, filter api.DocumentFilter) ([]api.DocumentWithLoan, error)
	NeverDownloadedDocuments(ctx context.Context, filter api.DocumentFilter) ([]api.DocumentWithLoan, error)
	FetchDocument(ctx context.Context, documentID string) ([]byte, string, error)
}

// Config holds orchestrator configuration.
type Config struct {
	// API performs the document and loan fetches.
	API DocumentAPI

	// Saver persists downloaded document payloads.
	Saver Saver

	// DownloadConcurrency bounds how many downloads of a bulk action run
	// at once. 1 (the default) downloads strictly sequentially.
	DownloadConcurrency int
}

// BatchGenerationStatus tracks the long-running generate-all operation.
// Results stays nil while the batch is in flight and after a failure;
// generation is server-atomic per call, so no partial results exist.
type BatchGenerationStatus struct {
	InProgress bool
	Results    *api.BatchGenerationSummary
}

// State is a snapshot of the orchestrator's state record.
type State struct {
	SelectedStatus      string
	ApprovedLoans       []api.LoanWithDocuments
	PostponedLoans      []api.LoanWithDocuments
	QuantityChangeLoans []api.LoanWithDocuments
	PendingLoans        api.PendingDocuments
	AllDocuments        []api.DocumentWithLoan
	DownloadedDocuments []api.DocumentWithLoan
	NeverDownloaded     []api.DocumentWithLoan
	Selected            []string
	CurrentPage         int
	Loading             bool
	Generating          bool
	DownloadingAll      bool
	BatchGeneration     BatchGenerationStatus
	Err                 string
}

// Orchestrator owns the document lifecycle state. Every fetch or mutation
// is wrapped so a failure populates the shared error string and resets only
// that operation's loading flag; errors never escape the orchestrator and
// nothing auto-retries.
type Orchestrator struct {
	config Config
	logger zerolog.Logger

	mu    sync.Mutex
	state State
}

// New creates an orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.API == nil {
		return nil, fmt.Errorf("document API is required")
	}
	if cfg.Saver == nil {
		cfg.Saver = DirSaver{Dir: "."}
	}
	if cfg.DownloadConcurrency <= 0 {
		cfg.DownloadConcurrency = 1
	}

	return &Orchestrator{
		config: cfg,
		logger: log.With().Str("component", "document-orchestrator").Logger(),
		state: State{
			SelectedStatus: api.StatusApproved,
			CurrentPage:    1,
		},
	}, nil
}

// Snapshot returns a copy of the current state record.
func (o *Orchestrator) Snapshot() State {
	o.mu.Lock()
	defer o.mu.Unlock()

	st := o.state
	st.Selected = append([]string(nil), o.state.Selected...)
	return st
}

// update is the single mutation entry point for the state record.
func (o *Orchestrator) update(fn func(*State)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fn(&o.state)
}

// SetStatus switches the selected loan status and fetches that status's
// bucket, replacing its prior contents.
func (o *Orchestrator) SetStatus(ctx context.Context, status string) {
	o.update(func(st *State) {
		st.SelectedStatus = status
	})
	o.FetchLoans(ctx, status)
}

// FetchLoans loads loans of the given status into the matching bucket,
// replacing (not merging) what was there.
func (o *Orchestrator) FetchLoans(ctx context.Context, status string) {
	o.update(func(st *State) {
		st.Loading = true
	})

	loans, err := o.config.API.LoansWithDocuments(ctx, status)

	o.update(func(st *State) {
		st.Loading = false
		if err != nil {
			st.Err = errFetchLoans
			return
		}
		switch status {
		case api.StatusPostponed:
			st.PostponedLoans = loans
		case api.StatusQuantityChange:
			st.QuantityChangeLoans = loans
		default:
			st.ApprovedLoans = loans
		}
	})

	if err != nil {
		o.logger.Error().Err(err).Str("status", status).Msg("Loan fetch failed")
	}
}

// FetchPendingLoans loads the set of loans lacking a generated document.
// Callable independently as the manual refresh action.
func (o *Orchestrator) FetchPendingLoans(ctx context.Context) {
	o.update(func(st *State) {
		st.Loading = true
	})

	pending, err := o.config.API.PendingDocumentLoans(ctx)

	o.update(func(st *State) {
		st.Loading = false
		if err != nil {
			st.Err = errFetchPending
			return
		}
		st.PendingLoans = *pending
	})

	if err != nil {
		o.logger.Error().Err(err).Msg("Pending-documents fetch failed")
	}
}

// LoanDocuments lists the documents of a single loan. Failures surface
// through the shared error string and yield an empty list.
func (o *Orchestrator) LoanDocuments(ctx context.Context, loanID string) []api.DocumentRecord {
	o.update(func(st *State) {
		st.Loading = true
	})

	docs, err := o.config.API.LoanDocuments(ctx, loanID)

	o.update(func(st *State) {
		st.Loading = false
		if err != nil {
			st.Err = errFetchLoanDocs
		}
	})

	if err != nil {
		o.logger.Error().Err(err).Str("loan_id", loanID).Msg("Loan-documents fetch failed")
		return nil
	}
	return docs
}

// GenerateDocuments submits generation requests for one loan. On success
// the current status bucket and the full document view are refreshed so the
// new documents are visible without a reload. Returns nil on failure.
func (o *Orchestrator) GenerateDocuments(ctx context.Context, params []api.DocumentParams, userID, loanID string) []api.DocumentRecord {
	o.update(func(st *State) {
		st.Generating = true
	})

	docs, err := o.config.API.GenerateDocuments(ctx, params, userID, loanID)
	if err == nil {
		o.FetchLoans(ctx, o.selectedStatus())
		o.FetchAllDocuments(ctx, api.DocumentFilter{})
	}

	o.update(func(st *State) {
		st.Generating = false
		if err != nil {
			st.Err = errGenerate
		}
	})

	if err != nil {
		o.logger.Error().Err(err).Str("loan_id", loanID).Msg("Document generation failed")
		return nil
	}

	o.logger.Info().
		Str("loan_id", loanID).
		Int("documents", len(docs)).
		Msg("Documents generated")
	return docs
}

// GenerateAllPending runs the server-driven batch generation over every
// pending loan. While in flight the status reads {InProgress:true,
// Results:nil}; on success the pending set, the status bucket, and the
// document view are refreshed and the server summary retained. A failure
// clears Results and ends the in-progress flag.
func (o *Orchestrator) GenerateAllPending(ctx context.Context) *api.BatchGenerationSummary {
	o.update(func(st *State) {
		st.BatchGeneration = BatchGenerationStatus{InProgress: true, Results: nil}
	})

	summary, err := o.config.API.GenerateAllPending(ctx)
	if err != nil {
		o.update(func(st *State) {
			st.BatchGeneration = BatchGenerationStatus{}
			st.Err = errGenerateAll
		})
		o.logger.Error().Err(err).Msg("Batch generation failed")
		return nil
	}

	o.FetchPendingLoans(ctx)
	o.FetchLoans(ctx, o.selectedStatus())
	o.FetchAllDocuments(ctx, api.DocumentFilter{})

	o.update(func(st *State) {
		st.BatchGeneration = BatchGenerationStatus{Results: summary}
	})

	o.logger.Info().
		Int("generated", summary.Generated).
		Int("failed", summary.Failed).
		Msg("Batch generation complete")
	return summary
}

// FetchAllDocuments replaces the full document view bucket.
func (o *Orchestrator) FetchAllDocuments(ctx context.Context, filter api.DocumentFilter) []api.DocumentWithLoan {
	return o.fetchView(ctx, filter, o.config.API.AllDocuments, errFetchAll, func(st *State, docs []api.DocumentWithLoan) {
		st.AllDocuments = docs
	})
}

// FetchDownloadedDocuments replaces the downloaded view bucket.
func (o *Orchestrator) FetchDownloadedDocuments(ctx context.Context, filter api.DocumentFilter) []api.DocumentWithLoan {
	return o.fetchView(ctx, filter, o.config.API.DownloadedDocuments, errFetchDownloaded, func(st *State, docs []api.DocumentWithLoan) {
		st.DownloadedDocuments = docs
	})
}

// FetchNeverDownloadedDocuments replaces the never-downloaded view bucket.
func (o *Orchestrator) FetchNeverDownloadedDocuments(ctx context.Context, filter api.DocumentFilter) []api.DocumentWithLoan {
	return o.fetchView(ctx, filter, o.config.API.NeverDownloadedDocuments, errFetchNever, func(st *State, docs []api.DocumentWithLoan) {
		st.NeverDownloaded = docs
	})
}

// fetchView runs one document view fetch; each call replaces only its own
// bucket.
func (o *Orchestrator) fetchView(
	ctx context.Context,
	filter api.DocumentFilter,
	fetch func(context.Context, api.DocumentFilter) ([]api.DocumentWithLoan, error),
	errMessage string,
	assign func(*State, []api.DocumentWithLoan),
) []api.DocumentWithLoan {
	o.update(func(st *State) {
		st.Loading = true
	})

	docs, err := fetch(ctx, filter)

	o.update(func(st *State) {
		st.Loading = false
		if err != nil {
			st.Err = errMessage
			return
		}
		assign(st, docs)
	})

	if err != nil {
		o.logger.Error().Err(err).Msg("Document view fetch failed")
		return nil
	}
	return docs
}

// refreshViews re-runs all three document view fetches so download-count
// changes are reflected everywhere.
func (o *Orchestrator) refreshViews(ctx context.Context) {
	o.FetchAllDocuments(ctx, api.DocumentFilter{})
	o.FetchDownloadedDocuments(ctx, api.DocumentFilter{})
	o.FetchNeverDownloadedDocuments(ctx, api.DocumentFilter{})
}

// downloadByID fetches one document's binary, saves it, and always re-runs
// all three view fetches afterwards.
func (o *Orchestrator) downloadByID(ctx context.Context, documentID string) error {
	data, filename, err := o.config.API.FetchDocument(ctx, documentID)
	if err != nil {
		return err
	}

	if err := o.config.Saver.Save(filename, data); err != nil {
		return err
	}

	o.refreshViews(ctx)

	o.logger.Info().
		Str("document_id", documentID).
		Str("filename", filename).
		Int("bytes", len(data)).
		Msg("Document downloaded")
	return nil
}

// DownloadDocument downloads a single document. It reports success as a
// boolean and never panics past its own boundary; failures populate the
// shared error string.
func (o *Orchestrator) DownloadDocument(ctx context.Context, documentID string) bool {
	if err := o.downloadByID(ctx, documentID); err != nil {
		o.update(func(st *State) {
			st.Err = errDownload
		})
		o.logger.Error().Err(err).Str("document_id", documentID).Msg("Document download failed")
		return false
	}
	return true
}

// ToggleSelection toggles a document's membership in the selection set.
// Membership is independent of pagination.
func (o *Orchestrator) ToggleSelection(documentID string) {
	o.update(func(st *State) {
		for i, id := range st.Selected {
			if id == documentID {
				st.Selected = append(st.Selected[:i], st.Selected[i+1:]...)
				return
			}
		}
		st.Selected = append(st.Selected, documentID)
	})
}

// DownloadSelected downloads every selected document, one request resolving
// before the next begins. The selection clears only after the whole
// sequence completes, regardless of individual failures.
func (o *Orchestrator) DownloadSelected(ctx context.Context) []batch.Result {
	o.mu.Lock()
	selected := append([]string(nil), o.state.Selected...)
	o.mu.Unlock()

	if len(selected) == 0 {
		return nil
	}

	units := make([]batch.Unit, len(selected))
	for i, id := range selected {
		id := id
		units[i] = batch.Unit{
			SubjectID: id,
			Do: func(ctx context.Context) error {
				return o.downloadByID(ctx, id)
			},
		}
	}

	dispatcher := batch.NewDispatcher(batch.Config{
		Operation:   "doc_download_selected",
		Concurrency: o.config.DownloadConcurrency,
	})
	results := dispatcher.Dispatch(ctx, units)

	o.update(func(st *State) {
		st.Selected = nil
	})

	return results
}

// DownloadAll downloads every document in the full view, then refreshes all
// three views. The first failure becomes the controller error state, but
// the remaining downloads still run.
func (o *Orchestrator) DownloadAll(ctx context.Context) []batch.Result {
	o.mu.Lock()
	docs := append([]api.DocumentWithLoan(nil), o.state.AllDocuments...)
	o.state.DownloadingAll = true
	o.mu.Unlock()

	units := make([]batch.Unit, len(docs))
	for i, doc := range docs {
		id := doc.Document.ID
		units[i] = batch.Unit{
			SubjectID: id,
			Do: func(ctx context.Context) error {
				return o.downloadByID(ctx, id)
			},
		}
	}

	dispatcher := batch.NewDispatcher(batch.Config{
		Operation:   "doc_download_all",
		Concurrency: o.config.DownloadConcurrency,
	})
	results := dispatcher.Dispatch(ctx, units)

	o.refreshViews(ctx)

	o.update(func(st *State) {
		st.DownloadingAll = false
		for _, r := range results {
			if !r.Success {
				st.Err = errDownloadAll
				break
			}
		}
	})

	return results
}

// EligibleDocuments is the derived view of documents never yet downloaded.
// It is recomputed from the full view on every call and never stored, so it
// cannot drift from its source.
func (o *Orchestrator) EligibleDocuments() []api.DocumentWithLoan {
	o.mu.Lock()
	defer o.mu.Unlock()

	var eligible []api.DocumentWithLoan
	for _, doc := range o.state.AllDocuments {
		if doc.DownloadCount == 0 {
			eligible = append(eligible, doc)
		}
	}
	return eligible
}

// PaginatedEligible is the fixed-size slice of the eligible view at the
// current client-side page. Changing page never refetches.
func (o *Orchestrator) PaginatedEligible() []api.DocumentWithLoan {
	eligible := o.EligibleDocuments()

	o.mu.Lock()
	page := o.state.CurrentPage
	o.mu.Unlock()

	return paging.Slice(eligible, page, itemsPerPage)
}

// SetPage moves the client-side page over the eligible view.
func (o *Orchestrator) SetPage(page int) {
	if page < 1 {
		return
	}
	o.update(func(st *State) {
		st.CurrentPage = page
	})
}

// selectedStatus reads the current status under lock.
func (o *Orchestrator) selectedStatus() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.SelectedStatus
}
