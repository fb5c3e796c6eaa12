package entity

// ProgressStatus tracks where a single query is in the batch.
type ProgressStatus string

const (
	ProgressPending ProgressStatus = "pending"
	ProgressDone    ProgressStatus = "done"
	ProgressFailed  ProgressStatus = "failed"
)

// SearchProgress is the per-query bookkeeping entry exposed to the UI while a batch runs.
// Results is always empty; the UI only renders the query and whether it finished.
type SearchProgress struct {
	Query   string         `json:"query"`
	Results []Place        `json:"results"`
	Done    bool           `json:"done"`
	Status  ProgressStatus `json:"status"`
}

// NewSearchProgress returns a pending entry for query.
func NewSearchProgress(query string) SearchProgress {
	return SearchProgress{
		Query:   query,
		Results: []Place{},
		Status:  ProgressPending,
	}
}

// Complete marks the entry finished with the given terminal status.
func (p *SearchProgress) Complete(status ProgressStatus) {
	p.Status = status
	p.Done = status != ProgressPending
}
