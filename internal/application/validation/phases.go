package validation

import (
	"time"

	"github.com/garyjia/claims-workflow/internal/application/port"
	"github.com/garyjia/claims-workflow/internal/domain/entity"
	"github.com/garyjia/claims-workflow/internal/domain/workflow"
)

// checkStructure verifies the required header fields and item presence
func (e *Engine) checkStructure(r *run, i int, sub *entity.ClaimSubmission) *header {
	h := &header{sub: sub, index: i, action: workflow.ParseAction(sub.Action)}
	before := len(r.results)

	required := []struct {
		field string
		value string
	}{
		{"CLAIM_TYPE", sub.ClaimType},
		{"STAFF_ID", sub.StaffID},
		{"ULU", sub.ULU},
		{"FDLU", sub.FDLU},
	}
	for _, f := range required {
		if f.value == "" {
			r.add(i, 0, f.field, "%s is required", f.field)
		}
	}
	scopeBad := len(r.results) > before

	if sub.Action == "" {
		r.add(i, 0, "ACTION", "ACTION is required")
	}
	if sub.Role == "" {
		r.add(i, 0, "ROLE", "ROLE is required")
	}

	switch {
	case sub.ClaimMonth == "":
		r.add(i, 0, "CLAIM_MONTH", "CLAIM_MONTH is required")
	default:
		m, err := parseMonth(sub.ClaimMonth)
		if err != nil {
			r.add(i, 0, "CLAIM_MONTH", "CLAIM_MONTH %q must be MM-YYYY", sub.ClaimMonth)
		} else {
			h.month = m
			h.monthOK = true
		}
	}

	if sub.ClaimRequestType != entity.ClaimRequestTypePeriod && sub.ClaimRequestType != entity.ClaimRequestTypeDaily {
		r.add(i, 0, "CLAIM_REQUEST_TYPE", "CLAIM_REQUEST_TYPE must be %s or %s", entity.ClaimRequestTypePeriod, entity.ClaimRequestTypeDaily)
		scopeBad = true
	}

	if sub.RequestStatus == "" {
		if sub.DraftID != "" {
			r.add(i, 0, "REQUEST_STATUS", "REQUEST_STATUS is required for draft %s", sub.DraftID)
		}
	} else if !workflow.State(sub.RequestStatus).IsValid() {
		r.add(i, 0, "REQUEST_STATUS", "unknown REQUEST_STATUS %q", sub.RequestStatus)
	}

	if h.action.RequiresItems() {
		if items, _ := activeItems(sub); len(items) == 0 {
			r.add(i, 0, "ITEMS", "at least one claim item is required to %s", h.action)
		}
	}

	h.scopeOK = !scopeBad
	h.lookupOK = h.scopeOK && h.monthOK
	return h
}

func (h *header) originating(group workflow.Group) bool {
	return h.action == workflow.ActionSubmit && (group == workflow.GroupClaimant || group == workflow.GroupClaimAssistant)
}

// checkMonthlyDuplicate rejects a second live claim for the same staff,
// claim type and month
func (e *Engine) checkMonthlyDuplicate(r *run, h *header) error {
	if !h.lookupOK || !h.originating(r.group) {
		return nil
	}
	if h.sub.ClaimRequestType == entity.ClaimRequestTypePeriod && !isMonthlyPeriod(h.sub) {
		return nil
	}

	n, err := e.claims.CountActiveForMonth(r.ctx, port.MonthlyClaimQuery{
		StaffID:        h.sub.StaffID,
		ClaimType:      h.sub.ClaimType,
		ClaimMonth:     h.sub.ClaimMonth,
		ExcludeDraftID: h.sub.DraftID,
	})
	if err != nil {
		return err
	}
	if n > 0 {
		r.add(h.index, 0, "CLAIM_MONTH", "a %s claim already exists for staff %s in %s", h.sub.ClaimType, h.sub.StaffID, h.sub.ClaimMonth)
	}
	return nil
}

// checkBackdating caps the number of daily claims for past months submitted
// in the current calendar month
func (e *Engine) checkBackdating(r *run, h *header) error {
	if !h.lookupOK || !h.originating(r.group) || h.sub.ClaimRequestType != entity.ClaimRequestTypeDaily {
		return nil
	}

	now := e.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	if !h.month.Before(monthStart) {
		return nil
	}

	n, err := e.claims.CountBackdatedSubmissions(r.ctx, port.BackdateQuery{
		StaffID:        h.sub.StaffID,
		ClaimType:      h.sub.ClaimType,
		WindowStart:    monthStart,
		WindowEnd:      monthStart.AddDate(0, 1, 0),
		ExcludeDraftID: h.sub.DraftID,
	})
	if err != nil {
		return err
	}
	if n >= e.cfg.BackdateLimit {
		r.add(h.index, 0, "CLAIM_MONTH", "no more than %d backdated claims may be submitted in %s", e.cfg.BackdateLimit, monthStart.Format(monthLayout))
	}
	return nil
}

// checkReportingManager requires a manager-gated claimant to have a
// reporting manager on record
func (e *Engine) checkReportingManager(r *run, h *header) error {
	if h.sub.ClaimType != entity.ClaimTypeCompensation || h.sub.StaffID == "" {
		return nil
	}

	staff, err := e.lookupStaff(r, h.sub.StaffID)
	if err != nil || staff == nil {
		// an unknown staff id is reported by the eligibility phase
		return err
	}

	if staff.ReportingManagerID != "" {
		mgr, err := e.lookupStaff(r, staff.ReportingManagerID)
		if err != nil {
			return err
		}
		if mgr != nil {
			return nil
		}
	}
	r.add(h.index, 0, "STAFF_ID", "reporting manager not found for staff %s", h.sub.StaffID)
	return nil
}

// checkItems runs the per-item date, time and rate type checks and collects
// the items that passed as overlap candidates
func (e *Engine) checkItems(r *run, h *header) {
	items, idx := activeItems(h.sub)
	for k, it := range items {
		di := idx[k]
		ok := true

		start, startErr := parseDate(it.ClaimStartDate)
		switch {
		case it.ClaimStartDate == "":
			r.add(h.index, di, "CLAIM_START_DATE", "start date is required")
			ok = false
		case startErr != nil:
			r.add(h.index, di, "CLAIM_START_DATE", "start date %q must be YYYY-MM-DD", it.ClaimStartDate)
			ok = false
		}

		end, endErr := parseDate(it.ClaimEndDate)
		switch {
		case it.ClaimEndDate == "":
			r.add(h.index, di, "CLAIM_END_DATE", "end date is required")
			ok = false
		case endErr != nil:
			r.add(h.index, di, "CLAIM_END_DATE", "end date %q must be YYYY-MM-DD", it.ClaimEndDate)
			ok = false
		}

		if ok && start.After(end) {
			r.add(h.index, di, "CLAIM_END_DATE", "end date %s is before start date %s", it.ClaimEndDate, it.ClaimStartDate)
			ok = false
		}

		rt := entity.ParseRateType(it.RateType)
		if rt == entity.RateTypeUnknown && (it.RateType != "" || h.sub.ClaimType == entity.ClaimTypeOvertime) {
			r.add(h.index, di, "RATE_TYPE", "a valid rate type is required")
			ok = false
		}

		st, et, timesOK := e.checkTimes(r, h, di, it, rt)
		if !timesOK {
			ok = false
		}
		// the time window applies to every day of the item, so it may not wrap midnight
		if ok && timesOK && et <= st {
			r.add(h.index, di, "END_TIME", "end time %s must be after start time %s", it.EndTime, it.StartTime)
			ok = false
		}

		if !ok {
			continue
		}
		h.candidates = append(h.candidates, candidate{
			claimIndex:   h.index,
			displayIndex: di,
			draftID:      h.sub.DraftID,
			staffID:      h.sub.StaffID,
			requestType:  h.sub.ClaimRequestType,
			rateType:     rt,
			startDate:    start,
			endDate:      end,
			startTime:    st,
			endTime:      et,
			wbs:          it.WBS,
			amount:       it.Amount,
		})
	}
}

func (e *Engine) checkTimes(r *run, h *header, di int, it entity.SubmissionItem, rt entity.RateType) (time.Duration, time.Duration, bool) {
	if it.StartTime == "" && it.EndTime == "" {
		if rt.RequiresTime() {
			r.add(h.index, di, "START_TIME", "start and end time are required for %s items", rt)
			return 0, 0, false
		}
		return e.defStart, e.defEnd, true
	}

	ok := true
	if it.StartTime == "" || it.EndTime == "" {
		r.add(h.index, di, "START_TIME", "start and end time must be given together")
		return 0, 0, false
	}
	st, err := parseClock(it.StartTime)
	if err != nil {
		r.add(h.index, di, "START_TIME", "start time %q must be HH:MM", it.StartTime)
		ok = false
	}
	et, err := parseClock(it.EndTime)
	if err != nil {
		r.add(h.index, di, "END_TIME", "end time %q must be HH:MM", it.EndTime)
		ok = false
	}
	return st, et, ok
}

// checkBatchOverlap reports each colliding pair of the same staff once, on the later item
func (e *Engine) checkBatchOverlap(r *run, headers []*header) {
	var all []candidate
	for _, h := range headers {
		all = append(all, h.candidates...)
	}

	for j := 1; j < len(all); j++ {
		for i := 0; i < j; i++ {
			a, b := all[i], all[j]
			if a.staffID != b.staffID || !a.collides(b) {
				continue
			}
			if a.claimIndex == b.claimIndex {
				r.add(b.claimIndex, b.displayIndex, "CLAIM_START_DATE", "item %d overlaps with item %d", b.displayIndex, a.displayIndex)
			} else {
				r.add(b.claimIndex, b.displayIndex, "CLAIM_START_DATE", "item %d overlaps with item %d of claim %d", b.displayIndex, a.displayIndex, a.claimIndex+1)
			}
		}
	}
}

// checkWBS requires one WBS per week for weekly-bucketed claims
func (e *Engine) checkWBS(r *run, h *header) {
	if h.sub.ClaimType != entity.ClaimTypeTeachingAssistance {
		return
	}

	weeks := make(map[int]string)
	for _, c := range h.candidates {
		year, week := c.startDate.ISOWeek()
		key := year*100 + week
		wbs, seen := weeks[key]
		if !seen {
			weeks[key] = c.wbs
			continue
		}
		if wbs != c.wbs {
			r.add(h.index, c.displayIndex, "WBS", "all items in week %d of %d must use the same WBS", week, year)
			return
		}
	}
}

// checkHistory compares each candidate with persisted items of live claims
func (e *Engine) checkHistory(r *run, h *header) error {
	if !h.scopeOK {
		return nil
	}

	for _, c := range h.candidates {
		persisted, err := e.items.FindIntersecting(r.ctx, port.HistoryQuery{
			StaffID:        h.sub.StaffID,
			ULUCode:        h.sub.ULU,
			FDLUCode:       h.sub.FDLU,
			From:           c.startDate,
			To:             c.endDate,
			ExcludeDraftID: h.sub.DraftID,
		})
		if err != nil {
			return err
		}

		for _, p := range persisted {
			if p.IsDeleted || !p.RequestStatus.IsActive() {
				continue
			}
			prev := fromPersisted(p, e.defStart, e.defEnd)
			if !c.rateType.Comparable(prev.rateType) {
				continue
			}

			if c.isDaily() || c.rateType.RequiresTime() {
				if datesIntersect(c.startDate, c.endDate, prev.startDate, prev.endDate) && Overlaps(c.window(), prev.window()) {
					r.add(h.index, c.displayIndex, "CLAIM_START_DATE", "claim already exists with overlapping time for %s in draft %s", c.label(), prev.draftID)
					break
				}
				continue
			}

			if !Overlaps(c.span(), prev.span()) {
				continue
			}
			if c.rateType == prev.rateType && c.amount.Equal(prev.amount) {
				r.add(h.index, c.displayIndex, "CLAIM_START_DATE", "claim already exists for %s with the same rate type and amount in draft %s", c.label(), prev.draftID)
			} else {
				r.add(h.index, c.displayIndex, "CLAIM_START_DATE", "claim already exists for an overlapping period %s in draft %s", c.label(), prev.draftID)
			}
			break
		}
	}
	return nil
}

// checkEligibility confirms the staff member is active and engaged for the
// org unit over each item's date range
func (e *Engine) checkEligibility(r *run, h *header) error {
	if !h.scopeOK {
		return nil
	}

	staff, err := e.lookupStaff(r, h.sub.StaffID)
	if err != nil {
		return err
	}
	if staff == nil {
		r.add(h.index, 0, "STAFF_ID", "staff %s not found", h.sub.StaffID)
		return nil
	}
	if !staff.IsActive {
		r.add(h.index, 0, "STAFF_ID", "staff %s is not active", h.sub.StaffID)
		return nil
	}
	if r.role == workflow.RoleClaimant && staff.UserID != r.actor {
		r.add(h.index, 0, "STAFF_ID", "claimant %s may only submit claims for themselves", r.actor)
	}

	for _, c := range h.candidates {
		q := entity.EligibilityQuery{
			StaffID:   h.sub.StaffID,
			ULUCode:   h.sub.ULU,
			FDLUCode:  h.sub.FDLU,
			ClaimType: h.sub.ClaimType,
			From:      c.startDate,
			To:        c.endDate,
		}

		var eligible bool
		if c.rateType == entity.RateTypeHourly {
			eligible, err = e.staff.HasHourlyEngagement(r.ctx, q)
		} else {
			eligible, err = e.staff.HasActiveAppointment(r.ctx, q)
		}
		if err != nil {
			return err
		}
		if !eligible {
			r.add(h.index, c.displayIndex, "STAFF_ID", "staff %s is not eligible for %s/%s from %s", h.sub.StaffID, h.sub.ULU, h.sub.FDLU, c.label())
		}
	}
	return nil
}
