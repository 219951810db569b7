package aggregates

import "slices"

// WriteTxOwnership defines who owns write transaction boundaries.
type WriteTxOwnership string

// WriteTxOwnedByAggregate means write methods open and commit their own transaction.
const WriteTxOwnedByAggregate WriteTxOwnership = "aggregate_owned"

// Contract names the tables an aggregate guards and the only operations
// allowed to write them. Services must not call GuardedWrites on GuardedRepos
// directly; scripts/aggregate_write_audit.go enforces this.
type Contract struct {
	Name             string
	WriteTxOwnership WriteTxOwnership
	// GuardedRepos are repo interface names, e.g. "EditHistoryRepo".
	GuardedRepos []string
	// GuardedWrites are repo methods that mutate or lock guarded rows.
	GuardedWrites []string
	// WriteOps are the aggregate methods that own those writes.
	WriteOps []string
	Notes    string
}

// Aggregate is the common marker for all aggregates.
type Aggregate interface {
	Contract() Contract
}

func (c Contract) Guards(repoType string) bool { return slices.Contains(c.GuardedRepos, repoType) }

func (c Contract) IsGuardedWrite(method string) bool { return slices.Contains(c.GuardedWrites, method) }

func (c Contract) IsWriteOp(method string) bool { return slices.Contains(c.WriteOps, method) }
