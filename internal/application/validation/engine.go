// Package validation checks claim submissions before they are persisted.
package validation

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/claims-workflow/internal/application/port"
	"github.com/garyjia/claims-workflow/internal/domain/entity"
	"github.com/garyjia/claims-workflow/internal/domain/workflow"
)

// Config holds the tunable validation rules
type Config struct {
	BackdateLimit    int
	DefaultStartTime string
	DefaultEndTime   string
}

// DefaultConfig returns the standard rule set
func DefaultConfig() Config {
	return Config{
		BackdateLimit:    2,
		DefaultStartTime: "00:00",
		DefaultEndTime:   "23:59",
	}
}

// Engine runs the validation phases over a submission batch
type Engine struct {
	claims   port.ClaimRepository
	items    port.ItemRepository
	staff    port.StaffDirectory
	cfg      Config
	defStart time.Duration
	defEnd   time.Duration
	now      func() time.Time
}

// Option configures the engine
type Option func(*Engine)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates a validation engine
func NewEngine(claims port.ClaimRepository, items port.ItemRepository, staff port.StaffDirectory, cfg Config, opts ...Option) (*Engine, error) {
	defStart, err := parseClock(cfg.DefaultStartTime)
	if err != nil {
		return nil, fmt.Errorf("invalid default start time %q: %w", cfg.DefaultStartTime, err)
	}
	defEnd, err := parseClock(cfg.DefaultEndTime)
	if err != nil {
		return nil, fmt.Errorf("invalid default end time %q: %w", cfg.DefaultEndTime, err)
	}

	e := &Engine{
		claims:   claims,
		items:    items,
		staff:    staff,
		cfg:      cfg,
		defStart: defStart,
		defEnd:   defEnd,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// run is the state of one Validate call
type run struct {
	ctx     context.Context
	role    workflow.Role
	group   workflow.Group
	actor   string
	results []entity.ValidationResult
	staff   map[string]*entity.StaffRecord
}

func (r *run) add(claimIndex, displayIndex int, field, format string, args ...interface{}) {
	r.results = append(r.results, entity.ValidationResult{
		Field:        field,
		Message:      fmt.Sprintf(format, args...),
		Severity:     entity.SeverityError,
		DisplayIndex: displayIndex,
		ClaimIndex:   claimIndex,
	})
}

// header is the parsed claim header with per-field validity
type header struct {
	sub        *entity.ClaimSubmission
	index      int
	action     workflow.Action
	month      time.Time
	monthOK    bool
	scopeOK    bool
	lookupOK   bool
	candidates []candidate
}

// Validate runs every phase over the batch and returns all findings. An empty
// result means the batch is valid. The error is reserved for failed lookups.
// The role and actor gate the claimant ownership check and the requestor
// group gates the originator-only monthly checks.
func (e *Engine) Validate(ctx context.Context, batch []entity.ClaimSubmission, role workflow.Role, group workflow.Group, actor string) ([]entity.ValidationResult, error) {
	r := &run{
		ctx:   ctx,
		role:  role,
		group: group,
		actor: actor,
		staff: make(map[string]*entity.StaffRecord),
	}

	headers := make([]*header, len(batch))
	for i := range batch {
		h := e.checkStructure(r, i, &batch[i])
		headers[i] = h

		if err := e.checkMonthlyDuplicate(r, h); err != nil {
			return nil, err
		}
		if err := e.checkBackdating(r, h); err != nil {
			return nil, err
		}
		if err := e.checkReportingManager(r, h); err != nil {
			return nil, err
		}
		e.checkItems(r, h)
	}

	e.checkBatchOverlap(r, headers)

	for _, h := range headers {
		e.checkWBS(r, h)
		if err := e.checkHistory(r, h); err != nil {
			return nil, err
		}
		if err := e.checkEligibility(r, h); err != nil {
			return nil, err
		}
	}

	return r.results, nil
}

func (e *Engine) lookupStaff(r *run, staffID string) (*entity.StaffRecord, error) {
	if s, ok := r.staff[staffID]; ok {
		return s, nil
	}
	s, err := e.staff.GetStaff(r.ctx, staffID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up staff %s: %w", staffID, err)
	}
	r.staff[staffID] = s
	return s, nil
}

// activeItems returns the submission items not flagged as deleted with their
// 1-based display index
func activeItems(sub *entity.ClaimSubmission) ([]entity.SubmissionItem, []int) {
	var items []entity.SubmissionItem
	var idx []int
	for i, it := range sub.Items {
		if it.IsDeleted {
			continue
		}
		items = append(items, it)
		idx = append(idx, i+1)
	}
	return items, idx
}

// isMonthlyPeriod reports a PERIOD claim whose items are all monthly rated
func isMonthlyPeriod(sub *entity.ClaimSubmission) bool {
	if sub.ClaimRequestType != entity.ClaimRequestTypePeriod {
		return false
	}
	items, _ := activeItems(sub)
	if len(items) == 0 {
		return false
	}
	for _, it := range items {
		if entity.ParseRateType(it.RateType) != entity.RateTypeMonthly {
			return false
		}
	}
	return true
}
