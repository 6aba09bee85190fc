package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"transit/pkg/database"
	"transit/pkg/telemetry"
)

// PostgresPlanRepository PostgreSQL реализация
type PostgresPlanRepository struct {
	db database.DB
}

// NewPostgresPlanRepository создаёт новый репозиторий
func NewPostgresPlanRepository(db database.DB) *PostgresPlanRepository {
	return &PostgresPlanRepository{db: db}
}

func (r *PostgresPlanRepository) Create(ctx context.Context, rec *PlanRecord) error {
	ctx, span := telemetry.StartSpan(ctx, "PostgresPlanRepository.Create")
	defer span.End()

	query := `
		INSERT INTO plan_history (
			network_id, operation, from_station, to_station,
			result_value, iterations, computation_time_ms,
			station_count, track_count, request_data, result_data
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		rec.NetworkID,
		rec.Operation,
		rec.FromStation,
		rec.ToStation,
		rec.ResultValue,
		rec.Iterations,
		rec.ComputationTimeMs,
		rec.StationCount,
		rec.TrackCount,
		rec.RequestData,
		rec.ResultData,
	).Scan(&rec.ID, &rec.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create plan record: %w", err)
	}

	return nil
}

func (r *PostgresPlanRepository) GetByID(ctx context.Context, id string) (*PlanRecord, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresPlanRepository.GetByID")
	defer span.End()

	query := `
		SELECT
			id, network_id, operation, from_station, to_station,
			result_value, iterations, computation_time_ms,
			station_count, track_count, request_data, result_data, created_at
		FROM plan_history
		WHERE id = $1
	`

	rec := &PlanRecord{}

	err := r.db.QueryRow(ctx, query, id).Scan(
		&rec.ID,
		&rec.NetworkID,
		&rec.Operation,
		&rec.FromStation,
		&rec.ToStation,
		&rec.ResultValue,
		&rec.Iterations,
		&rec.ComputationTimeMs,
		&rec.StationCount,
		&rec.TrackCount,
		&rec.RequestData,
		&rec.ResultData,
		&rec.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to get plan record: %w", err)
	}

	return rec, nil
}

func (r *PostgresPlanRepository) Delete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "PostgresPlanRepository.Delete")
	defer span.End()

	query := `DELETE FROM plan_history WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete plan record: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrPlanNotFound
	}

	return nil
}

func (r *PostgresPlanRepository) List(
	ctx context.Context,
	networkID string,
	opts *ListOptions,
) ([]*PlanSummary, int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresPlanRepository.List")
	defer span.End()

	if opts == nil {
		opts = &ListOptions{Limit: 20, Offset: 0, Sort: SortByCreatedDesc}
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}

	where, args := r.buildWhereClause(networkID, opts.Operation)

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM plan_history WHERE %s`, where)

	orderBy := r.buildOrderBy(opts.Sort)

	selectQuery := fmt.Sprintf(`
		SELECT
			id, network_id, operation, result_value,
			computation_time_ms, station_count, track_count, created_at
		FROM plan_history
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, where, orderBy, len(args)+1, len(args)+2)

	// Обе выборки в одной транзакции, чтобы total соответствовал странице
	var total int64
	results, err := database.WithTransactionResult(ctx, r.db, func(tx pgx.Tx) ([]*PlanSummary, error) {
		if err := tx.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
			return nil, fmt.Errorf("failed to count plan records: %w", err)
		}

		pageArgs := append(args, opts.Limit, opts.Offset)

		rows, err := tx.Query(ctx, selectQuery, pageArgs...)
		if err != nil {
			return nil, fmt.Errorf("failed to list plan records: %w", err)
		}
		defer rows.Close()

		var page []*PlanSummary
		for rows.Next() {
			summary := &PlanSummary{}

			err := rows.Scan(
				&summary.ID,
				&summary.NetworkID,
				&summary.Operation,
				&summary.ResultValue,
				&summary.ComputationTimeMs,
				&summary.StationCount,
				&summary.TrackCount,
				&summary.CreatedAt,
			)
			if err != nil {
				return nil, fmt.Errorf("failed to scan plan record: %w", err)
			}

			page = append(page, summary)
		}

		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("rows iteration error: %w", err)
		}

		return page, nil
	})
	if err != nil {
		return nil, 0, err
	}

	return results, total, nil
}

func (r *PostgresPlanRepository) buildWhereClause(networkID, operation string) (string, []any) {
	conditions := []string{"network_id = $1"}
	args := []any{networkID}

	if operation != "" {
		conditions = append(conditions, fmt.Sprintf("operation = $%d", len(args)+1))
		args = append(args, operation)
	}

	return strings.Join(conditions, " AND "), args
}

func (r *PostgresPlanRepository) buildOrderBy(sort SortOrder) string {
	switch sort {
	case SortByCreatedAsc:
		return "created_at ASC"
	case SortByResultDesc:
		return "result_value DESC"
	default:
		return "created_at DESC"
	}
}

// DeleteByNetworkID удаляет всю историю операций сети
func (r *PostgresPlanRepository) DeleteByNetworkID(ctx context.Context, networkID string) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresPlanRepository.DeleteByNetworkID")
	defer span.End()

	query := `DELETE FROM plan_history WHERE network_id = $1`

	result, err := r.db.Exec(ctx, query, networkID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete network history: %w", err)
	}

	return result.RowsAffected(), nil
}

func (r *PostgresPlanRepository) GetNetworkStatistics(
	ctx context.Context,
	networkID string,
) (*NetworkStatistics, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresPlanRepository.GetNetworkStatistics")
	defer span.End()

	stats := &NetworkStatistics{
		OperationsByType: make(map[string]int),
	}

	statsQuery := `
		SELECT COUNT(*), COALESCE(AVG(computation_time_ms), 0)
		FROM plan_history
		WHERE network_id = $1
	`

	err := r.db.QueryRow(ctx, statsQuery, networkID).Scan(
		&stats.TotalOperations,
		&stats.AverageComputationTimeMs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get network stats: %w", err)
	}

	opQuery := `
		SELECT operation, COUNT(*)
		FROM plan_history
		WHERE network_id = $1
		GROUP BY operation
	`

	rows, err := r.db.Query(ctx, opQuery, networkID)
	if err != nil {
		return nil, fmt.Errorf("failed to get operation stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var operation string
		var count int
		if err := rows.Scan(&operation, &count); err != nil {
			return nil, fmt.Errorf("failed to scan operation stats: %w", err)
		}
		stats.OperationsByType[operation] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return stats, nil
}
