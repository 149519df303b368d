package entity

import "time"

// ProcessInstance is one run of a process definition for a draft
type ProcessInstance struct {
	ProcessInstID string    `json:"process_inst_id"`
	ReferenceID   string    `json:"reference_id"`
	ProcessCode   string    `json:"process_code"`
	ProcessStatus string    `json:"process_status"`
	CreatedBy     string    `json:"created_by"`
	CreatedOn     time.Time `json:"created_on"`
	ModifiedBy    string    `json:"modified_by"`
	ModifiedOn    time.Time `json:"modified_on"`
	IsDeleted     bool      `json:"-"`
}

// TaskInstance is an actionable step of a process instance
type TaskInstance struct {
	TaskInstID        string    `json:"task_inst_id"`
	ProcessInstID     string    `json:"process_inst_id"`
	TaskSequence      int       `json:"task_sequence"`
	ToBeTaskSequence  int       `json:"to_be_task_sequence"`
	TaskName          string    `json:"task_name"`
	TaskAssignedGroup string    `json:"task_assigned_group"`
	TaskAssignedTo    string    `json:"task_assigned_to"`
	TaskStatus        string    `json:"task_status"`
	ActionBy          string    `json:"action_by,omitempty"`
	CreatedOn         time.Time `json:"created_on"`
	ModifiedOn        time.Time `json:"modified_on"`
}

// AssignedToGroup returns true when any member of the assigned group may act
func (t *TaskInstance) AssignedToGroup() bool {
	return t.TaskAssignedTo == AssigneeAll
}
