package dto

// CreateSourceRequest registers a new content source.
type CreateSourceRequest struct {
	AdapterType string                 `json:"adapter_type" binding:"required"`
	Name        string                 `json:"name" binding:"required"`
	Config      map[string]interface{} `json:"config" binding:"required"`
	Credentials string                 `json:"credentials"`
}

// UpdateSourceRequest changes a source's configuration.
type UpdateSourceRequest struct {
	Name        string                 `json:"name" binding:"required"`
	Config      map[string]interface{} `json:"config" binding:"required"`
	Credentials string                 `json:"credentials"`
}

// SourceDTO is the API representation of a source and its health.
type SourceDTO struct {
	SourceID            string                 `json:"source_id"`
	AdapterType         string                 `json:"adapter_type"`
	Name                string                 `json:"name"`
	Config              map[string]interface{} `json:"config"`
	IsActive            bool                   `json:"is_active"`
	IsHealthy           bool                   `json:"is_healthy"`
	ConsecutiveFailures int                    `json:"consecutive_failures"`
	SuccessRate         float64                `json:"success_rate"`
	TotalJobs           int                    `json:"total_jobs"`
	Version             int                    `json:"version"`
	CreatedAt           string                 `json:"created_at"`
	UpdatedAt           string                 `json:"updated_at"`
}

// ScheduleJobRequest asks for an immediate ingestion run of one source.
type ScheduleJobRequest struct {
	SourceID string `json:"source_id" binding:"required"`
}

// ListJobsRequest carries job listing filters.
type ListJobsRequest struct {
	SourceID string `form:"source_id"`
	Status   string `form:"status"`
	PageSize int    `form:"page_size"`
	Cursor   string `form:"cursor"`
}

// ListJobsResponse is a page of jobs.
type ListJobsResponse struct {
	Jobs       []JobDTO `json:"jobs"`
	NextCursor string   `json:"next_cursor,omitempty"`
}

// JobDTO is the API representation of a job.
type JobDTO struct {
	JobID       string        `json:"job_id"`
	SourceID    string        `json:"source_id"`
	Status      string        `json:"status"`
	ScheduledAt string        `json:"scheduled_at"`
	ExecutedAt  string        `json:"executed_at,omitempty"`
	CompletedAt string        `json:"completed_at,omitempty"`
	Metrics     JobMetricsDTO `json:"metrics"`
	Errors      []JobErrorDTO `json:"errors,omitempty"`
	Version     int           `json:"version"`
	CreatedAt   string        `json:"created_at"`
	UpdatedAt   string        `json:"updated_at"`
}

// JobMetricsDTO mirrors the per-job counters.
type JobMetricsDTO struct {
	ItemsCollected     int   `json:"items_collected"`
	DuplicatesDetected int   `json:"duplicates_detected"`
	ErrorsEncountered  int   `json:"errors_encountered"`
	BytesProcessed     int64 `json:"bytes_processed"`
	DurationMs         int64 `json:"duration_ms"`
}

// JobErrorDTO mirrors a recorded job error.
type JobErrorDTO struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
	RetryCount int    `json:"retry_count"`
}

// ListContentRequest carries content listing filters.
type ListContentRequest struct {
	SourceID string `form:"source_id"`
	PageSize int    `form:"page_size"`
	Cursor   string `form:"cursor"`
}

// ListContentResponse is a page of content records.
type ListContentResponse struct {
	Content    []ContentDTO `json:"content"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// ContentDTO is the API representation of an ingested record. Raw content is
// omitted from list views and only returned on single-record reads.
type ContentDTO struct {
	ContentID         string        `json:"content_id"`
	SourceID          string        `json:"source_id"`
	ContentHash       string        `json:"content_hash"`
	NormalizedContent string        `json:"normalized_content,omitempty"`
	RawContent        string        `json:"raw_content,omitempty"`
	Metadata          MetadataDTO   `json:"metadata"`
	AssetTags         []AssetTagDTO `json:"asset_tags,omitempty"`
	CollectedAt       string        `json:"collected_at"`
	CreatedAt         string        `json:"created_at"`
}

// MetadataDTO mirrors content metadata.
type MetadataDTO struct {
	Title       string `json:"title,omitempty"`
	Author      string `json:"author,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
	Language    string `json:"language,omitempty"`
	SourceURL   string `json:"source_url,omitempty"`
}

// AssetTagDTO mirrors a detected asset reference.
type AssetTagDTO struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}
