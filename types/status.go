package types

// OperationHashStatus is the registry status of a single command hash.
type OperationHashStatus uint8

const (
	// StatusAbsent means the hash was never registered or has already been consumed.
	StatusAbsent OperationHashStatus = iota
	// StatusNotLocked means the hash passed quorum verification and awaits execution.
	StatusNotLocked
	// StatusLocked means the hash is being executed.
	StatusLocked
)

func (s OperationHashStatus) String() string {
	switch s {
	case StatusNotLocked:
		return "NotLocked"
	case StatusLocked:
		return "Locked"
	default:
		return "Absent"
	}
}
