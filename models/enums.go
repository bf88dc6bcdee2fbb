package models

// UploadJobStatus is the lifecycle state of a FinancialUploadJob.
// pending -> processing -> completed; failed is reachable from pending or
// processing on unrecoverable errors only.
type UploadJobStatus string

const (
	JobStatusPending    UploadJobStatus = "pending"
	JobStatusProcessing UploadJobStatus = "processing"
	JobStatusCompleted  UploadJobStatus = "completed"
	JobStatusFailed     UploadJobStatus = "failed"
)

// JobChunkStatus mirrors the job lifecycle at chunk granularity.
type JobChunkStatus string

const (
	ChunkStatusPending    JobChunkStatus = "pending"
	ChunkStatusProcessing JobChunkStatus = "processing"
	ChunkStatusCompleted  JobChunkStatus = "completed"
	ChunkStatusFailed     JobChunkStatus = "failed"
)

// ReportStatus marks whether a report row was linked to a known release.
// pending rows await manual reconciliation and carry no user/release ids.
type ReportStatus string

const (
	ReportStatusMatched ReportStatus = "matched"
	ReportStatusPending ReportStatus = "pending"
)

// UserRole: A admin, M manager, U artist.
type UserRole string

const (
	UserRoleAdmin   UserRole = "A"
	UserRoleManager UserRole = "M"
	UserRoleArtist  UserRole = "U"
)
