// Package production tracks looms, weavers and per-shift machine runs.
package production

import (
	"fmt"
	"strings"
	"time"

	"github.com/loomledger/loomledger/internal/platform/httpx"
)

// Machine is one loom on the shop floor.
type Machine struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	LoomType      string  `json:"loomType"`
	ReedWidthInch float64 `json:"reedWidthInch"`
	RPMTarget     float64 `json:"rpmTarget"`
	ShiftPattern  string  `json:"shiftPattern"`
	Remarks       string  `json:"remarks"`
}

// Worker is a weaver or operator.
type Worker struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	SkillLevel string `json:"skillLevel"`
	Contact    string `json:"contact"`
}

// MachineRun logs one shift on one machine.
type MachineRun struct {
	ID                string    `json:"id"`
	MachineID         string    `json:"machineId"`
	WorkerID          string    `json:"workerId"`
	Quality           string    `json:"quality"`
	ShiftDate         time.Time `json:"shiftDate"`
	ShiftType         string    `json:"shiftType"`
	MetersProduced    float64   `json:"metersProduced"`
	Efficiency        float64   `json:"efficiency"`
	Accuracy          float64   `json:"accuracy"`
	DefectsPerMillion float64   `json:"defectsPerMillion"`
	YarnBrand         string    `json:"yarnBrand"`
	YarnSupplier      string    `json:"yarnSupplier"`
	YarnRate          float64   `json:"yarnRate"`
	Notes             string    `json:"notes"`
	CreatedAt         time.Time `json:"createdAt"`
}

// Summary aggregates machine runs.
type Summary struct {
	TotalMeters       float64 `json:"totalMeters"`
	AvgEfficiency     float64 `json:"avgEfficiency"`
	AvgAccuracy       float64 `json:"avgAccuracy"`
	DefectsPerMillion float64 `json:"defectsPerMillion"`
}

// MachineInput carries a machine create or update.
type MachineInput struct {
	ID            string
	Name          string
	LoomType      string
	ReedWidthInch float64
	RPMTarget     float64
	ShiftPattern  string
	Remarks       string
}

func (in MachineInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: machine name is required", httpx.ErrValidation)
	}
	return nil
}

// WorkerInput carries a worker create or update.
type WorkerInput struct {
	ID         string
	Name       string
	SkillLevel string
	Contact    string
}

func (in WorkerInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: worker name is required", httpx.ErrValidation)
	}
	return nil
}

// RunInput carries the fields needed to log a machine run.
type RunInput struct {
	MachineID         string
	WorkerID          string
	Quality           string
	ShiftDate         time.Time
	ShiftType         string
	MetersProduced    float64
	Efficiency        float64
	Accuracy          float64
	DefectsPerMillion float64
	YarnBrand         string
	YarnSupplier      string
	YarnRate          float64
	Notes             string
}

func (in RunInput) validate() error {
	if in.MachineID == "" {
		return fmt.Errorf("%w: machine is required", httpx.ErrValidation)
	}
	if in.ShiftDate.IsZero() {
		return fmt.Errorf("%w: shift date is required", httpx.ErrValidation)
	}
	return nil
}

// Summarise computes totals and averages across runs.
func Summarise(runs []MachineRun) Summary {
	if len(runs) == 0 {
		return Summary{}
	}
	var totalMeters, totalEfficiency, totalAccuracy, totalDpm float64
	for _, run := range runs {
		totalMeters += run.MetersProduced
		totalEfficiency += run.Efficiency
		totalAccuracy += run.Accuracy
		totalDpm += run.DefectsPerMillion
	}
	n := float64(len(runs))
	return Summary{
		TotalMeters:       totalMeters,
		AvgEfficiency:     totalEfficiency / n,
		AvgAccuracy:       totalAccuracy / n,
		DefectsPerMillion: totalDpm / n,
	}
}
