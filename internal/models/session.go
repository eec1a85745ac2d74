package models

import "time"

// Session is the per-user page-session state: who the active customer is,
// whether the actor is staff, and the draft being assembled by a front end.
// It is the only mutable state shared across a flow.
type Session struct {
	UserID      int64                  `json:"user_id"`
	CustomerID  int64                  `json:"customer_id"`
	EmployeeID  int64                  `json:"employee_id"`
	IsStaff     bool                   `json:"is_staff"`
	CurrentStep string                 `json:"current_step"`
	TempData    map[string]interface{} `json:"temp_data,omitempty"`
}

func (s *Session) GetInt64(key string) int64 {
	if s.TempData == nil {
		return 0
	}
	val, ok := s.TempData[key]
	if !ok {
		return 0
	}
	switch v := val.(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	case int:
		return int64(v)
	default:
		return 0
	}
}

func (s *Session) GetString(key string) string {
	if s.TempData == nil {
		return ""
	}
	if str, ok := s.TempData[key].(string); ok {
		return str
	}
	return ""
}

func (s *Session) GetDate(key string) DateOnly {
	raw := s.GetString(key)
	if raw == "" {
		return DateOnly{}
	}
	d, err := ParseDate(raw)
	if err != nil {
		return DateOnly{}
	}
	return d
}

func (s *Session) Set(key string, val interface{}) {
	if s.TempData == nil {
		s.TempData = make(map[string]interface{})
	}
	s.TempData[key] = val
}

// MirrorTask is a queued job for the Sheets mirror worker.
type MirrorTask struct {
	ID          int64      `json:"id"`
	TaskType    string     `json:"task_type"`
	RecordID    int64      `json:"record_id"`
	Payload     string     `json:"payload"`
	Status      string     `json:"status"`
	RetryCount  int        `json:"retry_count"`
	LastError   *string    `json:"last_error"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at"`
	NextRetryAt *time.Time `json:"next_retry_at"`
}
