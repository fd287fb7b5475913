package cluster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/inference-sim/gasched/sim"
)

// ErrDuplicateBinding is returned when a task is bound twice.
var ErrDuplicateBinding = errors.New("task already bound")

// ErrUnknownMachine is returned when a binding names a machine outside the pool.
var ErrUnknownMachine = errors.New("unknown machine")

// Binder is the execution environment's "bind task to machine" call.
// The scheduler never reads anything back from it.
type Binder interface {
	BindTask(taskID, machineID int) error
}

// Binding is one task → machine assignment.
type Binding struct {
	TaskID    int
	MachineID int
}

// Broker is an in-memory Binder that records bindings and checks them against
// the machine pool. Not safe for concurrent use; the BatchScheduler binds from
// a single goroutine.
type Broker struct {
	pool  *sim.MachinePool
	bound map[int]int
}

// NewBroker creates a Broker for the given pool.
func NewBroker(pool *sim.MachinePool) *Broker {
	return &Broker{
		pool:  pool,
		bound: make(map[int]int),
	}
}

// BindTask records taskID → machineID.
func (b *Broker) BindTask(taskID, machineID int) error {
	if machineID < 0 || machineID >= b.pool.TotalMachines() {
		return fmt.Errorf("%w: task %d → machine %d (pool has %d)", ErrUnknownMachine, taskID, machineID, b.pool.TotalMachines())
	}
	if prev, ok := b.bound[taskID]; ok {
		return fmt.Errorf("%w: task %d → machine %d (already on %d)", ErrDuplicateBinding, taskID, machineID, prev)
	}
	b.bound[taskID] = machineID
	return nil
}

// MachineOf returns the machine a task is bound to.
func (b *Broker) MachineOf(taskID int) (int, bool) {
	m, ok := b.bound[taskID]
	return m, ok
}

// Len returns the number of bound tasks.
func (b *Broker) Len() int {
	return len(b.bound)
}

// Bindings returns all bindings sorted by task id.
func (b *Broker) Bindings() []Binding {
	out := make([]Binding, 0, len(b.bound))
	for task, machine := range b.bound {
		out = append(out, Binding{TaskID: task, MachineID: machine})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TaskID < out[j].TaskID })
	return out
}

// MachineLoad returns the number of tasks bound to each machine.
func (b *Broker) MachineLoad() map[int]int {
	load := make(map[int]int)
	for _, machine := range b.bound {
		load[machine]++
	}
	return load
}

// WriteCSV writes "task_id,machine_id" rows sorted by task id.
func (b *Broker) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"task_id", "machine_id"}); err != nil {
		return err
	}
	for _, binding := range b.Bindings() {
		if err := cw.Write([]string{strconv.Itoa(binding.TaskID), strconv.Itoa(binding.MachineID)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
