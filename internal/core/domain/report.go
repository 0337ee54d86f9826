package domain

// BatchReport summarizes one directory ingestion run. A failure on one
// file never aborts the batch.
type BatchReport struct {
	Processed []string          `json:"processed"`
	Skipped   []string          `json:"skipped"`
	Failed    map[string]string `json:"failed"`
}

func NewBatchReport() *BatchReport {
	return &BatchReport{Failed: make(map[string]string)}
}
