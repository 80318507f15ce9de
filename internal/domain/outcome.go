package domain

// WriteOutcome tells the caller of a durable write what happened.
type WriteOutcome string

const (
	// WriteOutcomeWritten means every segment went to the already open day file.
	WriteOutcomeWritten WriteOutcome = "written"

	// WriteOutcomeWrittenAndRolledOver means a previous day file was closed
	// and a new one opened while writing.
	WriteOutcomeWrittenAndRolledOver WriteOutcome = "written_and_rolled_over"
)

// RolledOver reports whether the write switched day files.
func (o WriteOutcome) RolledOver() bool {
	return o == WriteOutcomeWrittenAndRolledOver
}
