package ipc

// StartRequest asks the daemon to start the monitor loop.
type StartRequest struct{}

// StartResponse reports monitor loop start state.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message,omitempty"`
}

// StopRequest asks the daemon to stop the monitor loop.
type StopRequest struct{}

// StopResponse acknowledges a monitor stop.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest asks for daemon status.
type StatusRequest struct{}

// StageHealth reports one pipeline stage's readiness.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// ItemSummary is the wire form of a concluded pipeline item.
type ItemSummary struct {
	Identifier  string `json:"identifier"`
	ArchiveName string `json:"archive_name"`
	DateToken   string `json:"date_token,omitempty"`
	Attempts    int    `json:"attempts"`
	Completed   bool   `json:"completed"`
	Aborted     bool   `json:"aborted,omitempty"`
	FailedStage string `json:"failed_stage,omitempty"`
	Error       string `json:"error,omitempty"`
	OutputPath  string `json:"output_path,omitempty"`
	StartedAt   string `json:"started_at,omitempty"`
	FinishedAt  string `json:"finished_at,omitempty"`
}

// HistoryCounts aggregates ledger totals for status output.
type HistoryCounts struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// StatusResponse describes daemon and monitor state.
type StatusResponse struct {
	Running       bool           `json:"running"`
	Phase         string         `json:"phase,omitempty"`
	PID           int            `json:"pid,omitempty"`
	LastError     string         `json:"last_error,omitempty"`
	LastItem      *ItemSummary   `json:"last_item,omitempty"`
	StageHealth   []StageHealth  `json:"stage_health,omitempty"`
	History       *HistoryCounts `json:"history,omitempty"`
	LockPath      string         `json:"lock_path,omitempty"`
	HistoryDBPath string         `json:"history_db_path,omitempty"`
}

// HistoryRequest asks for recent ledger records.
type HistoryRequest struct {
	Limit int `json:"limit,omitempty"`
}

// HistoryRecord is the wire form of one ledger row.
type HistoryRecord struct {
	ID          int64  `json:"id"`
	Identifier  string `json:"identifier"`
	ArchiveName string `json:"archive_name"`
	DateToken   string `json:"date_token,omitempty"`
	Attempts    int    `json:"attempts"`
	Outcome     string `json:"outcome"`
	ErrorDetail string `json:"error_detail,omitempty"`
	OutputPath  string `json:"output_path,omitempty"`
	FinishedAt  string `json:"finished_at,omitempty"`
}

// HistoryResponse carries recent ledger records, newest first.
type HistoryResponse struct {
	Records []HistoryRecord `json:"records"`
}

// LogTailRequest asks for log lines starting at a byte offset. A negative
// offset requests the last Limit lines.
type LogTailRequest struct {
	Offset     int64 `json:"offset"`
	Limit      int   `json:"limit,omitempty"`
	Follow     bool  `json:"follow,omitempty"`
	WaitMillis int64 `json:"wait_millis,omitempty"`
}

// LogTailResponse carries log lines and the next read offset.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// PingRequest checks daemon liveness.
type PingRequest struct{}

// PingResponse reports the daemon process ID.
type PingResponse struct {
	PID int `json:"pid"`
}

// ShutdownRequest asks the daemon process to exit.
type ShutdownRequest struct{}

// ShutdownResponse acknowledges a shutdown request.
type ShutdownResponse struct {
	ShuttingDown bool `json:"shutting_down"`
}
