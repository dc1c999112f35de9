package enums

// OutboxTerminalReason explains why the publisher stopped retrying an event.
type OutboxTerminalReason string

const (
	OutboxTerminalMaxAttempts  OutboxTerminalReason = "max_attempts"
	OutboxTerminalNonRetryable OutboxTerminalReason = "non_retryable"
)

func (r OutboxTerminalReason) IsValid() bool {
	return r == OutboxTerminalMaxAttempts || r == OutboxTerminalNonRetryable
}
