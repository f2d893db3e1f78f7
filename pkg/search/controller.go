// Package search implements the debounced, server-backed search and
// pagination controller over the loan collection.
//
// The controller owns one explicit state record mutated through a single
// entry point, so pagination invariants hold at one boundary. Each outbound
// fetch carries a sequence token; by default only the freshest token's
// response is applied, closing the stale-response race where a slow older
// fetch could overwrite a newer one.
package search

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/creditoya/dashboard-client/pkg/api"
	"github.com/creditoya/dashboard-client/pkg/debounce"
	"github.com/creditoya/dashboard-client/pkg/paging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Tab identifies the active loan filter category.
type Tab string

const (
	// TabApproved filters approved loans.
	TabApproved Tab = "aprobados"

	// TabPostponed filters postponed loans.
	TabPostponed Tab = "aplazados"

	// TabQuantityChange filters loans with an open quantity-change request.
	TabQuantityChange Tab = "cambio"
)

// status maps a tab to the status value the API expects.
func (t Tab) status() string {
	switch t {
	case TabPostponed:
		return api.StatusPostponed
	case TabQuantityChange:
		return api.StatusQuantityChange
	default:
		return api.StatusApproved
	}
}

// minQueryLength is the minimum-signal gate: committed queries of 1 to 3
// characters never reach the server.
const minQueryLength = 3

// errLoadMessage is the user-facing message for a failed fetch.
const errLoadMessage = "Error al cargar los datos. Por favor, intente de nuevo más tarde."

// LoanSearcher is the slice of the API client the controller depends on.
type LoanSearcher interface {
	SearchLoans(ctx context.Context, q api.LoanSearchQuery) (*api.LoanSearchResult, error)
}

// Config holds controller configuration.
type Config struct {
	// Searcher performs the actual loan fetches.
	Searcher LoanSearcher

	// PageSize of the server-backed pagination.
	PageSize int

	// DebounceDelay is the coalescing window for query input.
	DebounceDelay time.Duration

	// ClockInterval is how often the "time since last update" text is
	// recomputed. No refetch happens on the tick.
	ClockInterval time.Duration

	// AllowStaleResponses preserves the original latest-response-wins
	// behavior instead of discarding responses of superseded fetches.
	AllowStaleResponses bool
}

// DefaultConfig returns the controller defaults used by the dashboard.
func DefaultConfig(searcher LoanSearcher) Config {
	return Config{
		Searcher:      searcher,
		PageSize:      10,
		DebounceDelay: 500 * time.Millisecond,
		ClockInterval: 60 * time.Second,
	}
}

// State is a snapshot of the controller's state record.
type State struct {
	ActiveTab       Tab
	PendingQuery    string
	CommittedQuery  string
	Loans           []api.LoanData
	CurrentPage     int
	PageSize        int
	TotalItems      int
	TotalPages      int
	IsLoading       bool
	Err             string
	LastUpdated     time.Time
	LastUpdatedText string
}

// Controller owns the search, filter-tab, and page state of the loan
// collection and issues one canonical fetch per committed
// (tab, query, page) tuple.
type Controller struct {
	config Config
	logger zerolog.Logger

	ctx context.Context

	mu    sync.Mutex
	state State
	seq   uint64

	debouncer *debounce.Debouncer

	clockDone chan struct{}
	closeOnce sync.Once
}

// New creates a controller and starts its update clock. ctx bounds the
// fetches the controller initiates itself (debounced commits). Close must
// be called to stop the clock.
func New(ctx context.Context, cfg Config) (*Controller, error) {
	if cfg.Searcher == nil {
		return nil, fmt.Errorf("searcher is required")
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 10
	}
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 500 * time.Millisecond
	}
	if cfg.ClockInterval <= 0 {
		cfg.ClockInterval = 60 * time.Second
	}

	c := &Controller{
		config:    cfg,
		logger:    log.With().Str("component", "search-controller").Logger(),
		ctx:       ctx,
		clockDone: make(chan struct{}),
		state: State{
			ActiveTab:   TabApproved,
			CurrentPage: 1,
			PageSize:    cfg.PageSize,
			TotalPages:  1,
			LastUpdated: time.Now(),
		},
	}
	c.debouncer = debounce.New(cfg.DebounceDelay, c.commitQuery)

	go c.runClock()

	return c, nil
}

// Snapshot returns a copy of the current state record.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.state
	st.Loans = append([]api.LoanData(nil), c.state.Loans...)
	st.LastUpdatedText = timeSinceText(st.LastUpdated)
	return st
}

// update is the single mutation entry point for the state record.
func (c *Controller) update(fn func(*State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.state)
}

// SetTab switches the active filter category: page resets to 1, pending and
// committed search text clear, and a fetch for the first unfiltered page is
// issued immediately.
func (c *Controller) SetTab(ctx context.Context, tab Tab) {
	c.update(func(st *State) {
		st.ActiveTab = tab
		st.CurrentPage = 1
		st.PendingQuery = ""
		st.CommittedQuery = ""
	})

	c.logger.Debug().Str("tab", string(tab)).Msg("Tab switched")
	c.fetch(ctx, 1, "")
}

// SetQueryInput updates the pending query text and schedules a debounced
// commit. Only the most recent input within the coalescing window commits.
func (c *Controller) SetQueryInput(text string) {
	c.update(func(st *State) {
		st.PendingQuery = text
	})
	c.debouncer.Schedule(text)
}

// commitQuery runs when the debounce window elapses. A committed query is
// acted on only when it is empty or longer than the minimum-signal gate.
func (c *Controller) commitQuery(value string) {
	c.mu.Lock()
	if value == c.state.CommittedQuery {
		c.mu.Unlock()
		return
	}
	c.state.CommittedQuery = value
	c.mu.Unlock()

	if value != "" && utf8.RuneCountInString(value) <= minQueryLength {
		c.logger.Debug().Str("query", value).Msg("Committed query below minimum signal, not fetching")
		return
	}

	c.fetch(c.ctx, 1, value)
}

// ClearSearch drops both pending and committed query text and re-fetches
// the first unfiltered page.
func (c *Controller) ClearSearch(ctx context.Context) {
	c.update(func(st *State) {
		st.PendingQuery = ""
		st.CommittedQuery = ""
	})
	c.fetch(ctx, 1, "")
}

// GoToPage fetches page n with the current committed query. Out-of-range
// pages are a no-op; CurrentPage is updated only from the server response.
func (c *Controller) GoToPage(ctx context.Context, n int) {
	c.mu.Lock()
	totalPages := c.state.TotalPages
	query := c.state.CommittedQuery
	c.mu.Unlock()

	if n < 1 || n > totalPages {
		return
	}
	c.fetch(ctx, n, query)
}

// Refresh re-issues the last fetch with unchanged parameters.
func (c *Controller) Refresh(ctx context.Context) {
	c.mu.Lock()
	page := c.state.CurrentPage
	query := c.state.CommittedQuery
	c.mu.Unlock()

	c.fetch(ctx, page, query)
}

// PageTokens returns the current page-number strip.
func (c *Controller) PageTokens() []paging.Token {
	c.mu.Lock()
	current, total := c.state.CurrentPage, c.state.TotalPages
	c.mu.Unlock()

	return paging.Plan(current, total)
}

// fetch issues one canonical loan fetch and applies the response through
// the sequence-token policy.
func (c *Controller) fetch(ctx context.Context, page int, searchQuery string) {
	c.mu.Lock()
	c.seq++
	token := c.seq
	c.state.IsLoading = true
	c.state.Err = ""
	status := c.state.ActiveTab.status()
	pageSize := c.state.PageSize
	c.mu.Unlock()

	result, err := c.config.Searcher.SearchLoans(ctx, api.LoanSearchQuery{
		Status:   status,
		Page:     page,
		PageSize: pageSize,
		Search:   searchQuery,
	})

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.config.AllowStaleResponses && token != c.seq {
		// Superseded: a fresher fetch owns the state record now.
		c.logger.Debug().
			Uint64("token", token).
			Uint64("latest", c.seq).
			Msg("Discarding stale response")
		return
	}

	c.state.IsLoading = false

	if err != nil || result == nil || !result.Success {
		if err != nil {
			c.logger.Error().Err(err).Int("page", page).Msg("Loan fetch failed")
		} else {
			c.logger.Warn().Int("page", page).Msg("Loan fetch returned no data")
		}
		c.state.Loans = nil
		c.state.TotalItems = 0
		c.state.TotalPages = 1
		c.state.Err = errLoadMessage
		return
	}

	c.state.Loans = result.Data
	c.state.CurrentPage = pageOrDefault(result.Page, page)
	if result.PageSize > 0 {
		c.state.PageSize = result.PageSize
	}
	c.state.TotalItems = result.Total
	c.state.TotalPages = totalPagesOrDefault(result.TotalPages)
	c.state.LastUpdated = time.Now()

	c.logger.Debug().
		Int("page", c.state.CurrentPage).
		Int("total_pages", c.state.TotalPages).
		Int("items", len(result.Data)).
		Msg("Loan fetch applied")
}

func pageOrDefault(page, fallback int) int {
	if page >= 1 {
		return page
	}
	return fallback
}

func totalPagesOrDefault(totalPages int) int {
	if totalPages >= 1 {
		return totalPages
	}
	return 1
}

// TimeSinceUpdate returns the human-readable age of the last successful
// update.
func (c *Controller) TimeSinceUpdate() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return timeSinceText(c.state.LastUpdated)
}

// timeSinceText renders the age of the last update the way the dashboard
// displays it.
func timeSinceText(lastUpdated time.Time) string {
	minutes := int(time.Since(lastUpdated).Minutes())
	switch {
	case minutes < 1:
		return "Actualizado hace unos segundos"
	case minutes == 1:
		return "Actualizado hace 1 minuto"
	default:
		return fmt.Sprintf("Actualizado hace %d minutos", minutes)
	}
}

// runClock recomputes the last-updated text every ClockInterval without
// triggering a refetch.
func (c *Controller) runClock() {
	ticker := time.NewTicker(c.config.ClockInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.update(func(st *State) {
				st.LastUpdatedText = timeSinceText(st.LastUpdated)
			})
		case <-c.clockDone:
			return
		case <-c.ctx.Done():
			return
		}
	}
}

// Close stops the update clock and discards any pending debounced commit.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.debouncer.Stop()
		close(c.clockDone)
	})
}
