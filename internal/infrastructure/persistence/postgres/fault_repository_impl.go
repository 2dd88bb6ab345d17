package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dreschagin/selfheal-core/internal/domain/entity"
	"github.com/dreschagin/selfheal-core/internal/domain/valueobject"
	"github.com/lib/pq"
)

const faultColumns = `
	id, fault_type, service_id, severity, status, description,
	detected_at, recovered_at, affected_components, metrics,
	retry_count, estimated_downtime_ms
`

const actionColumns = `
	id, fault_id, action_type, status, start_time, end_time,
	success, retry_count, max_retries, parameters, error_message,
	rollback_action, position
`

// PostgresFaultRepository реализует repository.FaultRepository для PostgreSQL
type PostgresFaultRepository struct {
	db *sql.DB
}

// NewPostgresFaultRepository создает новый PostgreSQL repository
func NewPostgresFaultRepository(db *sql.DB) *PostgresFaultRepository {
	return &PostgresFaultRepository{
		db: db,
	}
}

// Save сохраняет сбой вместе с действиями восстановления одной транзакцией.
// Повторное сохранение перезаписывает запись (upsert по id).
func (r *PostgresFaultRepository) Save(ctx context.Context, fault *entity.Fault) error {
	model, err := ToFaultDBModel(fault)
	if err != nil {
		return fmt.Errorf("failed to convert to DB model: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO faults (` + faultColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			severity = EXCLUDED.severity,
			status = EXCLUDED.status,
			description = EXCLUDED.description,
			detected_at = EXCLUDED.detected_at,
			recovered_at = EXCLUDED.recovered_at,
			affected_components = EXCLUDED.affected_components,
			metrics = EXCLUDED.metrics,
			retry_count = EXCLUDED.retry_count,
			estimated_downtime_ms = EXCLUDED.estimated_downtime_ms
	`

	_, err = tx.ExecContext(ctx, query,
		model.ID,
		model.FaultType,
		model.ServiceID,
		model.Severity,
		model.Status,
		model.Description,
		model.DetectedAt,
		model.RecoveredAt,
		pq.Array(model.AffectedComponents),
		model.Metrics,
		model.RetryCount,
		model.EstimatedDowntimeMs,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert fault: %w", err)
	}

	// Действия полностью заменяются: их немного и они принадлежат только сбою
	if _, err := tx.ExecContext(ctx, `DELETE FROM fault_actions WHERE fault_id = $1`, model.ID); err != nil {
		return fmt.Errorf("failed to clear fault actions: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO fault_actions (`+actionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, action := range fault.Actions() {
		actionModel, err := ToActionDBModel(model.ID, i, action)
		if err != nil {
			return fmt.Errorf("failed to convert action to DB model: %w", err)
		}

		_, err = stmt.ExecContext(ctx,
			actionModel.ID,
			actionModel.FaultID,
			actionModel.ActionType,
			actionModel.Status,
			actionModel.StartTime,
			actionModel.EndTime,
			actionModel.Success,
			actionModel.RetryCount,
			actionModel.MaxRetries,
			actionModel.Parameters,
			actionModel.ErrorMessage,
			actionModel.RollbackAction,
			actionModel.Position,
		)
		if err != nil {
			return fmt.Errorf("failed to insert fault action: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// FindByID находит сбой по идентификатору вместе с действиями
func (r *PostgresFaultRepository) FindByID(ctx context.Context, id string) (*entity.Fault, error) {
	query := `
		SELECT ` + faultColumns + `
		FROM faults
		WHERE id = $1
	`

	row := r.db.QueryRowContext(ctx, query, id)
	model, err := ScanFaultRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("fault not found: %s", id)
		}
		return nil, fmt.Errorf("failed to scan fault: %w", err)
	}

	actions, err := r.loadActions(ctx, []string{id})
	if err != nil {
		return nil, err
	}

	return ToFaultEntity(model, actions[id])
}

// FindByTimeRange находит сбои, обнаруженные в указанном диапазоне
func (r *PostgresFaultRepository) FindByTimeRange(
	ctx context.Context,
	timeRange valueobject.TimeRange,
) ([]*entity.Fault, error) {
	query := `
		SELECT ` + faultColumns + `
		FROM faults
		WHERE detected_at BETWEEN $1 AND $2
		ORDER BY detected_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, timeRange.Start(), timeRange.End())
	if err != nil {
		return nil, fmt.Errorf("failed to query faults: %w", err)
	}
	defer rows.Close()

	return r.scanFaults(ctx, rows)
}

// FindByStatus находит сбои в указанном статусе с ограничением количества
func (r *PostgresFaultRepository) FindByStatus(
	ctx context.Context,
	status valueobject.FaultStatus,
	limit int,
) ([]*entity.Fault, error) {
	query := `
		SELECT ` + faultColumns + `
		FROM faults
		WHERE status = $1
		ORDER BY detected_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, status.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query faults: %w", err)
	}
	defer rows.Close()

	return r.scanFaults(ctx, rows)
}

// DeleteOlderThan удаляет терминальные сбои, обнаруженные раньше указанного времени.
// Активные сбои хранятся независимо от возраста. Действия каскадируются по FK.
func (r *PostgresFaultRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM faults
		WHERE detected_at < $1
		  AND status IN ('recovered', 'failed', 'cancelled')
	`

	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old faults: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return rowsAffected, nil
}

// CountByStatus возвращает количество сбоев по каждому статусу
func (r *PostgresFaultRepository) CountByStatus(ctx context.Context) (map[valueobject.FaultStatus]int64, error) {
	query := `
		SELECT status, COUNT(*)
		FROM faults
		GROUP BY status
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count faults: %w", err)
	}
	defer rows.Close()

	result := make(map[valueobject.FaultStatus]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count row: %w", err)
		}
		result[valueobject.FaultStatus(status)] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// scanFaults сканирует строки сбоев и дозагружает их действия
func (r *PostgresFaultRepository) scanFaults(ctx context.Context, rows *sql.Rows) ([]*entity.Fault, error) {
	var models []*FaultDBModel
	var ids []string

	for rows.Next() {
		model, err := ScanFaultRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fault row: %w", err)
		}
		models = append(models, model)
		ids = append(ids, model.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	if len(models) == 0 {
		return nil, nil
	}

	actionsByFault, err := r.loadActions(ctx, ids)
	if err != nil {
		return nil, err
	}

	faults := make([]*entity.Fault, 0, len(models))
	for _, model := range models {
		fault, err := ToFaultEntity(model, actionsByFault[model.ID])
		if err != nil {
			return nil, fmt.Errorf("failed to convert to entity: %w", err)
		}
		faults = append(faults, fault)
	}

	return faults, nil
}

// loadActions загружает действия восстановления для набора сбоев одним запросом
func (r *PostgresFaultRepository) loadActions(ctx context.Context, faultIDs []string) (map[string][]*ActionDBModel, error) {
	query := `
		SELECT ` + actionColumns + `
		FROM fault_actions
		WHERE fault_id = ANY($1)
		ORDER BY fault_id, position
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(faultIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query fault actions: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]*ActionDBModel)
	for rows.Next() {
		model, err := ScanActionRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan action row: %w", err)
		}
		result[model.FaultID] = append(result[model.FaultID], model)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}
