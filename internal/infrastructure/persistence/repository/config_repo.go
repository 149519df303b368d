package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garyjia/claims-workflow/internal/domain/workflow"
	"github.com/garyjia/claims-workflow/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// ConfigRepository loads the workflow configuration tables
type ConfigRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewConfigRepository creates a new workflow configuration repository
func NewConfigRepository(db *sql.DB, logger *zap.Logger) *ConfigRepository {
	return &ConfigRepository{
		db:     db,
		logger: logger,
	}
}

// LoadTable reads process definitions, task definitions and task action rules
// into an immutable lookup table
func (r *ConfigRepository) LoadTable(ctx context.Context) (*workflow.Table, error) {
	exec := sqlite.ExecutorFrom(ctx, r.db)
	b := workflow.NewBuilder()

	var processes, tasks, rules int

	err := r.each(ctx, exec, `SELECT process_code, process_name, is_active FROM process_definition`, func(rows *sql.Rows) error {
		var def workflow.ProcessDefinition
		if err := rows.Scan(&def.Code, &def.Name, &def.Active); err != nil {
			return err
		}
		b.Process(def)
		processes++
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load process definitions: %w", err)
	}

	err = r.each(ctx, exec, `
		SELECT process_code, requestor_group, task_sequence, task_name, assigned_group, next_task_sequence
		FROM task_definition`, func(rows *sql.Rows) error {
		var (
			def             workflow.TaskDefinition
			group, assigned string
		)
		if err := rows.Scan(&def.ProcessCode, &group, &def.Sequence, &def.Name, &assigned, &def.NextSequence); err != nil {
			return err
		}
		def.RequestorGroup = workflow.Group(group)
		def.AssignedGroup = workflow.Group(assigned)
		b.Task(def)
		tasks++
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load task definitions: %w", err)
	}

	err = r.each(ctx, exec, `
		SELECT requestor_group, process_code, current_task_sequence, target_task_sequence, to_be_request_status
		FROM task_action_rule`, func(rows *sql.Rows) error {
		var (
			key          workflow.RuleKey
			group, state string
		)
		if err := rows.Scan(&group, &key.ProcessCode, &key.CurrentSequence, &key.TargetSequence, &state); err != nil {
			return err
		}
		key.RequestorGroup = workflow.Group(group)
		b.Rule(key, workflow.State(state))
		rules++
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load task action rules: %w", err)
	}

	table, err := b.Build()
	if err != nil {
		return nil, err
	}

	r.logger.Info("Workflow configuration loaded",
		zap.Int("processes", processes),
		zap.Int("tasks", tasks),
		zap.Int("rules", rules))
	return table, nil
}

func (r *ConfigRepository) each(ctx context.Context, exec sqlite.Executor, query string, fn func(*sql.Rows) error) error {
	rows, err := exec.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
