package clanbattlequeue

// QueueName is the dedicated River queue for clan battle jobs.
const QueueName = "clanbattle"

// DailyStatusJob posts a fresh daily status panel in ChannelID.
type DailyStatusJob struct {
	ChannelID string `json:"channel_id"`
}

// Kind returns the job type identifier for River
func (DailyStatusJob) Kind() string { return "clanbattle_daily_status" }

// JobInfo represents information about a scheduled job (for debugging/monitoring)
type JobInfo struct {
	ID          int64  `json:"id"`
	Kind        string `json:"kind"`
	ChannelID   string `json:"channel_id"`
	State       string `json:"state"`
	ScheduledAt string `json:"scheduled_at"`
	Attempt     int    `json:"attempt"`
	MaxAttempts int    `json:"max_attempts"`
}
