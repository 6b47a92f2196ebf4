package production

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// UpsertMachine inserts or updates a machine by id.
func (r *Repository) UpsertMachine(ctx context.Context, m *Machine) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO machines (id, name, loom_type, reed_width_inch, rpm_target, shift_pattern, remarks)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
name = EXCLUDED.name, loom_type = EXCLUDED.loom_type, reed_width_inch = EXCLUDED.reed_width_inch,
rpm_target = EXCLUDED.rpm_target, shift_pattern = EXCLUDED.shift_pattern, remarks = EXCLUDED.remarks`,
		m.ID, m.Name, m.LoomType, m.ReedWidthInch, m.RPMTarget, m.ShiftPattern, m.Remarks)
	if err != nil {
		return fmt.Errorf("production: upsert machine: %w", err)
	}
	return nil
}

// ListMachines returns machines sorted by name.
func (r *Repository) ListMachines(ctx context.Context) ([]Machine, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, loom_type, reed_width_inch, rpm_target, shift_pattern, remarks
FROM machines ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var machines []Machine
	for rows.Next() {
		var m Machine
		if err := rows.Scan(&m.ID, &m.Name, &m.LoomType, &m.ReedWidthInch, &m.RPMTarget, &m.ShiftPattern, &m.Remarks); err != nil {
			return nil, err
		}
		machines = append(machines, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return machines, nil
}

// UpsertWorker inserts or updates a worker by id.
func (r *Repository) UpsertWorker(ctx context.Context, w *Worker) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO workers (id, name, skill_level, contact)
VALUES ($1,$2,$3,$4)
ON CONFLICT (id) DO UPDATE SET
name = EXCLUDED.name, skill_level = EXCLUDED.skill_level, contact = EXCLUDED.contact`,
		w.ID, w.Name, w.SkillLevel, w.Contact)
	if err != nil {
		return fmt.Errorf("production: upsert worker: %w", err)
	}
	return nil
}

// ListWorkers returns workers sorted by name.
func (r *Repository) ListWorkers(ctx context.Context) ([]Worker, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, skill_level, contact FROM workers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workers []Worker
	for rows.Next() {
		var w Worker
		if err := rows.Scan(&w.ID, &w.Name, &w.SkillLevel, &w.Contact); err != nil {
			return nil, err
		}
		workers = append(workers, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return workers, nil
}

// CreateRun inserts a machine run.
func (r *Repository) CreateRun(ctx context.Context, run *MachineRun) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO machine_runs
(id, machine_id, worker_id, quality, shift_date, shift_type, meters_produced, efficiency, accuracy,
 defects_per_million, yarn_brand, yarn_supplier, yarn_rate, notes, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		run.ID, run.MachineID, run.WorkerID, run.Quality, run.ShiftDate, run.ShiftType,
		run.MetersProduced, run.Efficiency, run.Accuracy, run.DefectsPerMillion,
		run.YarnBrand, run.YarnSupplier, run.YarnRate, run.Notes, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("production: insert run: %w", err)
	}
	return nil
}

// ListRuns returns runs newest first, optionally for one machine.
func (r *Repository) ListRuns(ctx context.Context, machineID string) ([]MachineRun, error) {
	query := `SELECT id, machine_id, worker_id, quality, shift_date, shift_type, meters_produced, efficiency,
accuracy, defects_per_million, yarn_brand, yarn_supplier, yarn_rate, notes, created_at
FROM machine_runs`
	var args []any
	if machineID != "" {
		query += ` WHERE machine_id = $1`
		args = append(args, machineID)
	}
	query += ` ORDER BY shift_date DESC, created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []MachineRun
	for rows.Next() {
		var run MachineRun
		if err := rows.Scan(&run.ID, &run.MachineID, &run.WorkerID, &run.Quality, &run.ShiftDate,
			&run.ShiftType, &run.MetersProduced, &run.Efficiency, &run.Accuracy, &run.DefectsPerMillion,
			&run.YarnBrand, &run.YarnSupplier, &run.YarnRate, &run.Notes, &run.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}
