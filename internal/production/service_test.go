package production

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryProductionRepo struct {
	machines []Machine
	workers  []Worker
	runs     []MachineRun
}

func (m *memoryProductionRepo) UpsertMachine(_ context.Context, machine *Machine) error {
	for i := range m.machines {
		if m.machines[i].ID == machine.ID {
			m.machines[i] = *machine
			return nil
		}
	}
	m.machines = append(m.machines, *machine)
	sort.Slice(m.machines, func(i, j int) bool { return m.machines[i].Name < m.machines[j].Name })
	return nil
}

func (m *memoryProductionRepo) ListMachines(_ context.Context) ([]Machine, error) {
	return append([]Machine(nil), m.machines...), nil
}

func (m *memoryProductionRepo) UpsertWorker(_ context.Context, worker *Worker) error {
	for i := range m.workers {
		if m.workers[i].ID == worker.ID {
			m.workers[i] = *worker
			return nil
		}
	}
	m.workers = append(m.workers, *worker)
	sort.Slice(m.workers, func(i, j int) bool { return m.workers[i].Name < m.workers[j].Name })
	return nil
}

func (m *memoryProductionRepo) ListWorkers(_ context.Context) ([]Worker, error) {
	return append([]Worker(nil), m.workers...), nil
}

func (m *memoryProductionRepo) CreateRun(_ context.Context, run *MachineRun) error {
	m.runs = append(m.runs, *run)
	return nil
}

func (m *memoryProductionRepo) ListRuns(_ context.Context, machineID string) ([]MachineRun, error) {
	var out []MachineRun
	for i := len(m.runs) - 1; i >= 0; i-- {
		if machineID != "" && m.runs[i].MachineID != machineID {
			continue
		}
		out = append(out, m.runs[i])
	}
	return out, nil
}

func newTestService(repo *memoryProductionRepo) *Service {
	svc := NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return svc.WithClock(func() time.Time {
		return time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	})
}

func TestUpsertMachineDefaults(t *testing.T) {
	repo := &memoryProductionRepo{}
	svc := newTestService(repo)

	machine, err := svc.UpsertMachine(context.Background(), MachineInput{Name: "Loom 4"})
	require.NoError(t, err)
	require.NotEmpty(t, machine.ID)
	require.Equal(t, "airjet", machine.LoomType)
	require.Equal(t, "12h", machine.ShiftPattern)
}

func TestUpsertMachineUpdatesExisting(t *testing.T) {
	repo := &memoryProductionRepo{}
	svc := newTestService(repo)
	ctx := context.Background()

	machine, err := svc.UpsertMachine(ctx, MachineInput{Name: "Loom 4"})
	require.NoError(t, err)

	updated, err := svc.UpsertMachine(ctx, MachineInput{ID: machine.ID, Name: "Loom 4", RPMTarget: 750})
	require.NoError(t, err)
	require.Equal(t, machine.ID, updated.ID)

	machines, err := svc.ListMachines(ctx)
	require.NoError(t, err)
	require.Len(t, machines, 1)
	require.InDelta(t, 750.0, machines[0].RPMTarget, 0.001)
}

func TestUpsertValidation(t *testing.T) {
	repo := &memoryProductionRepo{}
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.UpsertMachine(ctx, MachineInput{})
	require.Error(t, err)

	_, err = svc.UpsertWorker(ctx, WorkerInput{})
	require.Error(t, err)
}

func TestLogRunAndSummary(t *testing.T) {
	repo := &memoryProductionRepo{}
	svc := newTestService(repo)
	ctx := context.Background()

	machine, err := svc.UpsertMachine(ctx, MachineInput{Name: "Loom 1"})
	require.NoError(t, err)

	_, err = svc.LogRun(ctx, RunInput{
		MachineID:         machine.ID,
		ShiftDate:         time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),
		MetersProduced:    400,
		Efficiency:        90,
		Accuracy:          98,
		DefectsPerMillion: 120,
	})
	require.NoError(t, err)
	_, err = svc.LogRun(ctx, RunInput{
		MachineID:         machine.ID,
		ShiftDate:         time.Date(2024, time.April, 2, 0, 0, 0, 0, time.UTC),
		MetersProduced:    600,
		Efficiency:        80,
		Accuracy:          96,
		DefectsPerMillion: 80,
	})
	require.NoError(t, err)

	summary, err := svc.Summary(ctx, machine.ID)
	require.NoError(t, err)
	require.InDelta(t, 1000.0, summary.TotalMeters, 0.001)
	require.InDelta(t, 85.0, summary.AvgEfficiency, 0.001)
	require.InDelta(t, 97.0, summary.AvgAccuracy, 0.001)
	require.InDelta(t, 100.0, summary.DefectsPerMillion, 0.001)
}

func TestSummaryEmpty(t *testing.T) {
	repo := &memoryProductionRepo{}
	svc := newTestService(repo)

	summary, err := svc.Summary(context.Background(), "")
	require.NoError(t, err)
	require.Zero(t, summary.TotalMeters)
	require.Zero(t, summary.AvgEfficiency)
}

func TestLogRunValidation(t *testing.T) {
	repo := &memoryProductionRepo{}
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.LogRun(ctx, RunInput{ShiftDate: time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)})
	require.Error(t, err)

	_, err = svc.LogRun(ctx, RunInput{MachineID: "m-1"})
	require.Error(t, err)
}
