package production

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// RepositoryPort defines data access methods for production.
type RepositoryPort interface {
	UpsertMachine(ctx context.Context, machine *Machine) error
	ListMachines(ctx context.Context) ([]Machine, error)
	UpsertWorker(ctx context.Context, worker *Worker) error
	ListWorkers(ctx context.Context) ([]Worker, error)
	CreateRun(ctx context.Context, run *MachineRun) error
	ListRuns(ctx context.Context, machineID string) ([]MachineRun, error)
}

// Service handles production business logic.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// WithClock overrides the service clock. Intended for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// UpsertMachine creates or updates a loom. Defaults: airjet loom, 12h shifts.
func (s *Service) UpsertMachine(ctx context.Context, input MachineInput) (*Machine, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	machine := &Machine{
		ID:            input.ID,
		Name:          input.Name,
		LoomType:      input.LoomType,
		ReedWidthInch: input.ReedWidthInch,
		RPMTarget:     input.RPMTarget,
		ShiftPattern:  input.ShiftPattern,
		Remarks:       input.Remarks,
	}
	if machine.ID == "" {
		machine.ID = uuid.NewString()
	}
	if machine.LoomType == "" {
		machine.LoomType = "airjet"
	}
	if machine.ShiftPattern == "" {
		machine.ShiftPattern = "12h"
	}
	if err := s.repo.UpsertMachine(ctx, machine); err != nil {
		return nil, fmt.Errorf("production: upsert machine: %w", err)
	}
	return machine, nil
}

// ListMachines returns machines sorted by name.
func (s *Service) ListMachines(ctx context.Context) ([]Machine, error) {
	return s.repo.ListMachines(ctx)
}

// UpsertWorker creates or updates a worker.
func (s *Service) UpsertWorker(ctx context.Context, input WorkerInput) (*Worker, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	worker := &Worker{
		ID:         input.ID,
		Name:       input.Name,
		SkillLevel: input.SkillLevel,
		Contact:    input.Contact,
	}
	if worker.ID == "" {
		worker.ID = uuid.NewString()
	}
	if err := s.repo.UpsertWorker(ctx, worker); err != nil {
		return nil, fmt.Errorf("production: upsert worker: %w", err)
	}
	return worker, nil
}

// ListWorkers returns workers sorted by name.
func (s *Service) ListWorkers(ctx context.Context) ([]Worker, error) {
	return s.repo.ListWorkers(ctx)
}

// LogRun records one shift's output.
func (s *Service) LogRun(ctx context.Context, input RunInput) (*MachineRun, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	run := &MachineRun{
		ID:                uuid.NewString(),
		MachineID:         input.MachineID,
		WorkerID:          input.WorkerID,
		Quality:           input.Quality,
		ShiftDate:         input.ShiftDate,
		ShiftType:         input.ShiftType,
		MetersProduced:    input.MetersProduced,
		Efficiency:        input.Efficiency,
		Accuracy:          input.Accuracy,
		DefectsPerMillion: input.DefectsPerMillion,
		YarnBrand:         input.YarnBrand,
		YarnSupplier:      input.YarnSupplier,
		YarnRate:          input.YarnRate,
		Notes:             input.Notes,
		CreatedAt:         s.now(),
	}
	if run.ShiftType == "" {
		run.ShiftType = "12h"
	}
	if err := s.repo.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("production: log run: %w", err)
	}
	s.logger.Info("machine run logged",
		slog.String("id", run.ID),
		slog.String("machine", run.MachineID),
		slog.Float64("meters", run.MetersProduced))
	return run, nil
}

// ListRuns returns runs newest first, optionally for one machine.
func (s *Service) ListRuns(ctx context.Context, machineID string) ([]MachineRun, error) {
	return s.repo.ListRuns(ctx, machineID)
}

// Summary aggregates runs, optionally for one machine.
func (s *Service) Summary(ctx context.Context, machineID string) (Summary, error) {
	runs, err := s.repo.ListRuns(ctx, machineID)
	if err != nil {
		return Summary{}, err
	}
	return Summarise(runs), nil
}
