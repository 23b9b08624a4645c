package jobs

import (
	"database/sql"
	"errors"
	"time"
)

const jobColumns = "id, job_id, label, bucket, output_path, request_json, status, status_message, error_message, prompt_key, chunks_total, chunks_aggregated, created_at, updated_at, last_heartbeat"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id               int64
		jobID            string
		label            sql.NullString
		bucket           sql.NullString
		outputPath       sql.NullString
		requestJSON      sql.NullString
		statusStr        string
		statusMessage    sql.NullString
		errorMessage     sql.NullString
		promptKey        sql.NullString
		chunksTotal      sql.NullInt64
		chunksAggregated sql.NullInt64
		createdRaw       sql.NullString
		updatedRaw       sql.NullString
		lastHeartbeatRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&jobID,
		&label,
		&bucket,
		&outputPath,
		&requestJSON,
		&statusStr,
		&statusMessage,
		&errorMessage,
		&promptKey,
		&chunksTotal,
		&chunksAggregated,
		&createdRaw,
		&updatedRaw,
		&lastHeartbeatRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:               id,
		JobID:            jobID,
		Label:            label.String,
		Bucket:           bucket.String,
		OutputPath:       outputPath.String,
		RequestJSON:      requestJSON.String,
		Status:           Status(statusStr),
		StatusMessage:    statusMessage.String,
		ErrorMessage:     errorMessage.String,
		PromptKey:        promptKey.String,
		ChunksTotal:      int(chunksTotal.Int64),
		ChunksAggregated: int(chunksAggregated.Int64),
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		job.UpdatedAt = updated
	}
	if lastHeartbeatRaw.Valid {
		if heartbeat, err := parseTimeString(lastHeartbeatRaw.String); err == nil {
			job.LastHeartbeat = &heartbeat
		}
	}
	return job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
