package listing

import (
	"context"
	"sync"
	"time"

	"bookingcrm/internal/domain"

	"github.com/sirupsen/logrus"
)

// DefaultSearchDelay is how long search input must settle before refetching.
const DefaultSearchDelay = 500 * time.Millisecond

// Query is what the controller asks its fetcher for.
type Query struct {
	Page       int
	PageSize   int
	Criteria   Criteria
	SearchText string
}

// Result is either Success or Failure.
type Result interface {
	isResult()
}

// Success carries one page of rows and the size of the filtered set.
// Page, when set, is the page actually served (after clamping).
type Success struct {
	Records    []Record
	TotalCount int
	Page       int
}

// Failure carries a message suitable for a toast or banner.
type Failure struct {
	Message string
}

func (Success) isResult() {}
func (Failure) isResult() {}

// Fetcher loads one page for a query. Implementations map transport and
// backend errors to Failure instead of returning them.
type Fetcher interface {
	Fetch(ctx context.Context, q Query) Result
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, q Query) Result

func (f FetcherFunc) Fetch(ctx context.Context, q Query) Result { return f(ctx, q) }

// ReferenceItem is one entry of a reference list (agents, statuses).
type ReferenceItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ReferenceSource supplies the lists bulk actions are validated against.
type ReferenceSource interface {
	Agents(ctx context.Context) ([]ReferenceItem, error)
	Statuses(ctx context.Context) ([]ReferenceItem, error)
}

// BulkUpdate reassigns the selected rows. At least one field must be set.
type BulkUpdate struct {
	AgentID  string `json:"agent_id,omitempty"`
	StatusID string `json:"status_id,omitempty"`
}

// BulkEditor applies bulk actions to the backing store.
type BulkEditor interface {
	BulkUpdate(ctx context.Context, ids []string, u BulkUpdate) error
	BulkDelete(ctx context.Context, ids []string) error
}

// View is what presentation layers render.
type View struct {
	Rows       []Record `json:"rows"`
	Page       Page     `json:"pagination"`
	Loading    bool     `json:"loading"`
	Err        string   `json:"error,omitempty"`
	SearchText string   `json:"search"`
	Criteria   Criteria `json:"-"`
}

// Fetch outcomes reported to Options.Observe.
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeDiscarded = "discarded"
)

type Options struct {
	Fetcher     Fetcher
	PageSize    int
	SearchDelay time.Duration
	Clock       Clock
	Logger      logrus.FieldLogger
	Reference   ReferenceSource
	Editor      BulkEditor
	// Observe, when set, is told the outcome of every fetch.
	Observe func(outcome string)
}

// searchInput is typed search text tagged with the epoch it was typed in.
// ResetFilters and Close start a new epoch so text from before them is dropped
// even if its timer already fired.
type searchInput struct {
	text  string
	epoch uint64
}

// Controller owns the state of one list view: search text, advanced filters,
// pagination and the rows of the current page. Every state change that
// affects the rows triggers a fetch; a response is applied only if no newer
// fetch was started after it.
type Controller struct {
	fetcher   Fetcher
	log       logrus.FieldLogger
	reference ReferenceSource
	editor    BulkEditor
	observe   func(string)
	search    *Debouncer[searchInput]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu            sync.Mutex
	seq           uint64
	inflight      context.CancelFunc
	rows          []Record
	page          Page
	criteria      Criteria
	searchText    string
	appliedSearch string
	searchEpoch   uint64
	closed        bool
	loading       bool
	err           string
	subscribers   []func(View)
}

func NewController(opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	delay := opts.SearchDelay
	if delay == 0 {
		delay = DefaultSearchDelay
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		fetcher:   opts.Fetcher,
		log:       opts.Logger,
		reference: opts.Reference,
		editor:    opts.Editor,
		observe:   opts.Observe,
		ctx:       ctx,
		cancel:    cancel,
		page:      NewPage(opts.PageSize),
		criteria:  Criteria{},
	}
	c.search = Debounce(opts.Clock, delay, c.applySearch)
	return c
}

// OnChange registers fn to be called after every state change.
func (c *Controller) OnChange(fn func(View)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, fn)
}

// Refresh refetches with the current parameters.
func (c *Controller) Refresh() {
	c.mu.Lock()
	c.startFetchLocked()
	c.mu.Unlock()
	c.notify()
}

// SetSearchText shows text immediately and refetches once typing settles.
func (c *Controller) SetSearchText(text string) {
	c.mu.Lock()
	c.searchText = text
	in := searchInput{text: text, epoch: c.searchEpoch}
	c.mu.Unlock()
	c.notify()
	c.search.Call(in)
}

// FlushSearch applies the pending search text now, as when the user
// presses enter instead of waiting for typing to settle.
func (c *Controller) FlushSearch() {
	c.search.Flush()
}

func (c *Controller) applySearch(in searchInput) {
	c.mu.Lock()
	if in.epoch != c.searchEpoch || in.text == c.appliedSearch {
		c.mu.Unlock()
		return
	}
	c.appliedSearch = in.text
	c.page.Current = 1
	c.startFetchLocked()
	c.mu.Unlock()
	c.notify()
}

// SetAdvancedFilters replaces the criteria wholesale and goes back to page 1.
// Invalid criteria are rejected before any state changes.
func (c *Controller) SetAdvancedFilters(criteria Criteria) error {
	if err := criteria.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	c.criteria = criteria.Clone()
	c.page.Current = 1
	c.startFetchLocked()
	c.mu.Unlock()
	c.notify()
	return nil
}

// ResetFilters clears criteria and search text and goes back to page 1.
func (c *Controller) ResetFilters() {
	c.search.Cancel()
	c.mu.Lock()
	c.searchEpoch++
	c.criteria = Criteria{}
	c.searchText = ""
	c.appliedSearch = ""
	c.page.Current = 1
	c.startFetchLocked()
	c.mu.Unlock()
	c.notify()
}

// SetPage moves to page n. Pages outside the valid range are ignored.
func (c *Controller) SetPage(n int) bool {
	c.mu.Lock()
	if !c.page.SetPage(n) {
		c.mu.Unlock()
		return false
	}
	c.startFetchLocked()
	c.mu.Unlock()
	c.notify()
	return true
}

// SetPageSize changes the page size and rewinds to page 1.
func (c *Controller) SetPageSize(n int) error {
	c.mu.Lock()
	if n == c.page.Size && c.page.Current == 1 {
		c.mu.Unlock()
		return nil
	}
	if err := c.page.SetPageSize(n); err != nil {
		c.mu.Unlock()
		return err
	}
	c.startFetchLocked()
	c.mu.Unlock()
	c.notify()
	return nil
}

// Snapshot returns a copy of the current view state.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// VisiblePage returns the rows of the current page.
func (c *Controller) VisiblePage() []Record {
	return c.Snapshot().Rows
}

// Pagination returns the current page state.
func (c *Controller) Pagination() Page {
	return c.Snapshot().Page
}

// SearchText returns the text as typed, before debouncing.
func (c *Controller) SearchText() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.searchText
}

// IsLoading reports whether the latest fetch is still outstanding.
func (c *Controller) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// BulkUpdate validates a bulk reassignment against the reference lists,
// forwards it to the editor and refreshes the view.
func (c *Controller) BulkUpdate(ctx context.Context, ids []string, u BulkUpdate) error {
	if err := checkBulkSelection(ids, u); err != nil {
		return err
	}
	if c.editor == nil {
		return domain.InternalError{Msg: "bulk editing is not configured"}
	}
	if err := CheckReference(ctx, c.reference, u); err != nil {
		return err
	}
	if err := c.editor.BulkUpdate(ctx, ids, u); err != nil {
		return err
	}
	c.Refresh()
	return nil
}

// ValidateBulkUpdate applies the bulk reassignment rules without an editor:
// agent or status must be set, at least one id must be selected, and the
// chosen agent/status must exist in ref (skipped when ref is nil).
func ValidateBulkUpdate(ctx context.Context, ref ReferenceSource, ids []string, u BulkUpdate) error {
	if err := checkBulkSelection(ids, u); err != nil {
		return err
	}
	return CheckReference(ctx, ref, u)
}

func checkBulkSelection(ids []string, u BulkUpdate) error {
	if u.AgentID == "" && u.StatusID == "" {
		return domain.ValidationError{Msg: "select either status or agent"}
	}
	if len(ids) == 0 {
		return domain.ValidationError{Field: "ids", Msg: "select at least one row"}
	}
	return nil
}

// CheckReference fails with a ValidationError when the agent or status set in u
// is missing from ref. A nil ref accepts anything.
func CheckReference(ctx context.Context, ref ReferenceSource, u BulkUpdate) error {
	if ref == nil {
		return nil
	}
	if u.AgentID != "" {
		agents, err := ref.Agents(ctx)
		if err != nil {
			return domain.InternalError{Msg: "load agents", Err: err}
		}
		if !containsItem(agents, u.AgentID) {
			return domain.ValidationError{Field: "agent_id", Msg: "unknown agent " + u.AgentID}
		}
	}
	if u.StatusID != "" {
		statuses, err := ref.Statuses(ctx)
		if err != nil {
			return domain.InternalError{Msg: "load statuses", Err: err}
		}
		if !containsItem(statuses, u.StatusID) {
			return domain.ValidationError{Field: "status_id", Msg: "unknown status " + u.StatusID}
		}
	}
	return nil
}

// BulkDelete removes the selected rows and refreshes the view.
func (c *Controller) BulkDelete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return domain.ValidationError{Field: "ids", Msg: "select at least one row"}
	}
	if c.editor == nil {
		return domain.InternalError{Msg: "bulk editing is not configured"}
	}
	if err := c.editor.BulkDelete(ctx, ids); err != nil {
		return err
	}
	c.Refresh()
	return nil
}

// Wait blocks until no fetch is running.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close drops the pending search and cancels the running fetch. No fetch
// starts after Close.
func (c *Controller) Close() {
	c.search.Cancel()
	c.mu.Lock()
	c.closed = true
	c.searchEpoch++
	c.mu.Unlock()
	c.cancel()
	c.wg.Wait()
}

func (c *Controller) startFetchLocked() {
	if c.fetcher == nil || c.closed {
		return
	}
	c.seq++
	seq := c.seq
	q := Query{
		Page:       c.page.Current,
		PageSize:   c.page.Size,
		Criteria:   c.criteria.Clone(),
		SearchText: c.appliedSearch,
	}
	if c.inflight != nil {
		c.inflight()
	}
	ctx, cancel := context.WithCancel(c.ctx)
	c.inflight = cancel
	c.loading = true

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		res := c.fetcher.Fetch(ctx, q)
		c.apply(seq, q, res)
	}()
}

func (c *Controller) apply(seq uint64, q Query, res Result) {
	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		c.log.WithFields(logrus.Fields{"seq": seq, "latest": c.latest()}).Debug("listing: discarded stale response")
		c.report(OutcomeDiscarded)
		return
	}
	c.loading = false
	c.inflight = nil
	outcome := OutcomeSuccess

	switch r := res.(type) {
	case Success:
		served := q.Page
		if r.Page > 0 {
			served = r.Page
		}
		c.rows = r.Records
		c.err = ""
		c.page = Recompute(r.TotalCount, served, q.PageSize)
		if c.page.Current != served {
			// the requested page no longer exists; load the clamped one
			c.startFetchLocked()
		}
	case Failure:
		c.err = r.Message
		outcome = OutcomeFailure
	default:
		c.err = "unexpected fetch result"
		outcome = OutcomeFailure
	}
	errMsg := c.err
	c.mu.Unlock()

	if outcome == OutcomeFailure {
		c.log.WithField("seq", seq).Warnf("listing: fetch failed: %s", errMsg)
	}
	c.report(outcome)
	c.notify()
}

func (c *Controller) latest() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

func (c *Controller) report(outcome string) {
	if c.observe != nil {
		c.observe(outcome)
	}
}

func (c *Controller) notify() {
	c.mu.Lock()
	subs := make([]func(View), len(c.subscribers))
	copy(subs, c.subscribers)
	view := c.viewLocked()
	c.mu.Unlock()
	for _, fn := range subs {
		fn(view)
	}
}

func (c *Controller) viewLocked() View {
	rows := make([]Record, len(c.rows))
	copy(rows, c.rows)
	return View{
		Rows:       rows,
		Page:       c.page,
		Loading:    c.loading,
		Err:        c.err,
		SearchText: c.searchText,
		Criteria:   c.criteria.Clone(),
	}
}

func containsItem(items []ReferenceItem, id string) bool {
	for _, it := range items {
		if it.ID == id {
			return true
		}
	}
	return false
}

// LocalFetcher serves queries from an in-memory snapshot.
type LocalFetcher struct {
	Records      []Record
	SearchFields []string
}

func (f LocalFetcher) Fetch(ctx context.Context, q Query) Result {
	if err := ctx.Err(); err != nil {
		return Failure{Message: err.Error()}
	}
	if err := q.Criteria.Validate(); err != nil {
		return Failure{Message: err.Error()}
	}
	rows, page := Run(f.Records, q, f.SearchFields)
	return Success{Records: rows, TotalCount: page.Total, Page: page.Current}
}

// Run filters records for q and returns the requested (clamped) page.
func Run(records []Record, q Query, searchFields []string) ([]Record, Page) {
	filtered := Filter(records, q.Criteria, q.SearchText, searchFields)
	page := Recompute(len(filtered), q.Page, q.PageSize)
	return page.Slice(filtered), page
}
