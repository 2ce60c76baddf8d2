package leave

type RequestedEvent struct {
	UserID    string
	RequestID string
	Request   Request
	Days      int
}
