package domain

import (
	"errors"
	"time"
)

// MachineStatus is WORKING or BROKEN. Broken machines are never selected.
type MachineStatus string

const (
	MachineWorking MachineStatus = "WORKING"
	MachineBroken  MachineStatus = "BROKEN"
)

var ErrUnknownMachineStatus = errors.New("unknown machine status")

// ParseMachineStatus maps a stored name back to a MachineStatus.
func ParseMachineStatus(s string) (MachineStatus, error) {
	switch MachineStatus(s) {
	case MachineWorking, MachineBroken:
		return MachineStatus(s), nil
	}
	return "", ErrUnknownMachineStatus
}

// Machine executes procedures sequentially, one step at a time.
// OccupiedUntil is the earliest point it can start new work; it never moves
// backwards except through a transaction rollback.
type Machine struct {
	ID            int
	Name          string
	Procedures    []Procedure
	OccupiedUntil time.Time
	Status        MachineStatus
}

// CanExecute reports whether the machine's capability set contains the
// procedure. Duplicate capabilities collapse.
func (m *Machine) CanExecute(p Procedure) bool {
	for _, candidate := range m.Procedures {
		if candidate == p {
			return true
		}
	}
	return false
}

// DistinctProcedures collapses duplicate capabilities for reporting.
func (m *Machine) DistinctProcedures() []Procedure {
	seen := make(map[Procedure]bool, len(m.Procedures))
	var out []Procedure
	for _, p := range m.Procedures {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
