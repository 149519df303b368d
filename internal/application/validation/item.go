package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/claims-workflow/internal/domain/entity"
)

const (
	dateLayout  = "2006-01-02"
	timeLayout  = "15:04"
	monthLayout = "01-2006"
)

var clockBase = time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC)

// candidate is an item that passed the per-item checks and takes part in
// the overlap and history phases
type candidate struct {
	claimIndex   int
	displayIndex int
	draftID      string
	staffID      string
	requestType  string
	rateType     entity.RateType
	startDate    time.Time
	endDate      time.Time
	startTime    time.Duration
	endTime      time.Duration
	wbs          string
	amount       decimal.Decimal
}

// span is the interval the item covers. Hourly items are bounded by their
// times; other items cover whole days, so the end is the day after endDate.
func (c candidate) span() Interval {
	if c.rateType.RequiresTime() {
		return Interval{Start: c.startDate.Add(c.startTime), End: c.endDate.Add(c.endTime)}
	}
	return Interval{Start: c.startDate, End: c.endDate.AddDate(0, 0, 1)}
}

// window is the time-of-day interval of the item
func (c candidate) window() Interval {
	return Interval{Start: clockBase.Add(c.startTime), End: clockBase.Add(c.endTime)}
}

func (c candidate) isDaily() bool {
	return c.requestType == entity.ClaimRequestTypeDaily
}

// collides applies the daily algorithm when both items belong to daily
// claims and the period algorithm otherwise
func (c candidate) collides(o candidate) bool {
	if !c.rateType.Comparable(o.rateType) {
		return false
	}
	if c.isDaily() && o.isDaily() {
		return datesIntersect(c.startDate, c.endDate, o.startDate, o.endDate) && Overlaps(c.window(), o.window())
	}
	return Overlaps(c.span(), o.span())
}

func (c candidate) label() string {
	return fmt.Sprintf("%s to %s", c.startDate.Format(dateLayout), c.endDate.Format(dateLayout))
}

func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, strings.TrimSpace(s), time.UTC)
}

func parseClock(s string) (time.Duration, error) {
	t, err := time.ParseInLocation(timeLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func parseMonth(s string) (time.Time, error) {
	return time.ParseInLocation(monthLayout, strings.TrimSpace(s), time.UTC)
}

// fromPersisted converts a stored item, filling blank times with the defaults
func fromPersisted(p *entity.PersistedItem, defStart, defEnd time.Duration) candidate {
	c := candidate{
		draftID:     p.DraftID,
		staffID:     p.StaffID,
		requestType: p.ClaimRequestType,
		rateType:    p.RateType,
		startDate:   p.ClaimStartDate,
		endDate:     p.ClaimEndDate,
		startTime:   defStart,
		endTime:     defEnd,
		wbs:         p.WBS,
		amount:      p.Amount,
	}
	if st, err := parseClock(p.StartTime); err == nil {
		c.startTime = st
	}
	if et, err := parseClock(p.EndTime); err == nil {
		c.endTime = et
	}
	return c
}
