package bulkupload

type BatchPreviewedEvent struct {
	BatchID string
	OwnerID string
	Rows    int
	Errors  int
}

type BatchCommittedEvent struct {
	BatchID string
	OwnerID string
	Result  CommitResult
}

type BatchDiscardedEvent struct {
	BatchID string
	OwnerID string
	// cancelled, expired or evicted
	Reason string
}
