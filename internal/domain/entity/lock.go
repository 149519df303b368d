package entity

import "time"

// RequestLock is one row of a draft's lock. A lock taken for a group yields a
// row per group member, all sharing LockedByUserID.
type RequestLock struct {
	LockInstID     string    `json:"lock_inst_id"`
	ReferenceID    string    `json:"reference_id"`
	UserID         string    `json:"user_id"`
	LockedByUserID string    `json:"locked_by_user_id"`
	IsLocked       string    `json:"is_locked"`
	StaffUserGroup string    `json:"staff_user_grp"`
	RequestStatus  string    `json:"request_status"`
	ModifiedOn     time.Time `json:"modified_on"`
}

// Held returns true when the row records an active lock
func (l *RequestLock) Held() bool {
	return l.IsLocked == LockMarker && l.LockedByUserID != ""
}
