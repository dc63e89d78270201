package sqlite

import (
	"fmt"
	"time"

	"github.com/mandalnilabja/grokway/internal/storage/models"
)

// LogRequest stores a request log entry. ID and CreatedAt are filled in
// when empty.
func (s *Storage) LogRequest(log *models.RequestLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	if log.ID == "" {
		log.ID = generateID("log")
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(`
		INSERT INTO request_logs (id, request_id, client_ip, model, system_prompt,
			prompt_tokens, completion_tokens, total_tokens, frames, parse_errors,
			is_streaming, status_code, error_message, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, log.ID, log.RequestID, nullString(log.ClientIP), log.Model, log.SystemPrompt,
		log.PromptTokens, log.CompletionTokens, log.TotalTokens, log.Frames, log.ParseErrors,
		boolToInt(log.IsStreaming), log.StatusCode, nullString(log.ErrorMessage), log.DurationMs, log.CreatedAt.UTC())

	return err
}

// GetRequestLogs retrieves request logs with filtering
func (s *Storage) GetRequestLogs(filter models.LogFilter) ([]*models.RequestLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}

	query := `SELECT id, request_id, COALESCE(client_ip, ''), model, system_prompt,
		prompt_tokens, completion_tokens, total_tokens, frames, parse_errors,
		is_streaming, status_code, COALESCE(error_message, ''), duration_ms, created_at
		FROM request_logs WHERE 1=1`

	var args []any

	if filter.ClientIP != "" {
		query += " AND client_ip = ?"
		args = append(args, filter.ClientIP)
	}
	if filter.Model != "" {
		query += " AND model = ?"
		args = append(args, filter.Model)
	}
	if filter.StatusCode != nil {
		query += " AND status_code = ?"
		args = append(args, *filter.StatusCode)
	}
	if filter.StartDate != nil {
		query += " AND created_at >= ?"
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		query += " AND created_at <= ?"
		args = append(args, *filter.EndDate)
	}

	query += " ORDER BY created_at DESC"

	// SQLite only accepts OFFSET after LIMIT; -1 means no limit.
	switch {
	case filter.Limit > 0:
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	case filter.Offset > 0:
		query += " LIMIT -1"
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.RequestLog
	for rows.Next() {
		var log models.RequestLog
		var isStreaming int

		err := rows.Scan(&log.ID, &log.RequestID, &log.ClientIP, &log.Model, &log.SystemPrompt,
			&log.PromptTokens, &log.CompletionTokens, &log.TotalTokens, &log.Frames, &log.ParseErrors,
			&isStreaming, &log.StatusCode, &log.ErrorMessage, &log.DurationMs, &log.CreatedAt)
		if err != nil {
			return nil, err
		}

		log.IsStreaming = isStreaming == 1
		logs = append(logs, &log)
	}

	return logs, rows.Err()
}

// DeleteRequestLogs removes logs created before the given UTC day (YYYY-MM-DD).
func (s *Storage) DeleteRequestLogs(olderThan string) (int64, error) {
	if _, err := time.Parse("2006-01-02", olderThan); err != nil {
		return 0, fmt.Errorf("%w: before date %q", ErrInvalidInput, olderThan)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStorageClosed
	}

	result, err := s.db.Exec("DELETE FROM request_logs WHERE DATE(created_at) < ?", olderThan)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
