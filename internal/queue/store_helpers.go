package queue

import (
	"database/sql"
	"errors"
	"time"
)

const runColumns = "id, source_path, deck_title, status, slides_json, total_slides, options_json, error_message, output_dir, created_at, updated_at, progress_stage, progress_percent, progress_message, last_heartbeat"

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		id               string
		sourcePath       sql.NullString
		deckTitle        sql.NullString
		statusStr        string
		slidesJSON       sql.NullString
		totalSlides      sql.NullInt64
		optionsJSON      sql.NullString
		errorMessage     sql.NullString
		outputDir        sql.NullString
		createdRaw       sql.NullString
		updatedRaw       sql.NullString
		progressStage    sql.NullString
		progressPercent  sql.NullFloat64
		progressMessage  sql.NullString
		lastHeartbeatRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&sourcePath,
		&deckTitle,
		&statusStr,
		&slidesJSON,
		&totalSlides,
		&optionsJSON,
		&errorMessage,
		&outputDir,
		&createdRaw,
		&updatedRaw,
		&progressStage,
		&progressPercent,
		&progressMessage,
		&lastHeartbeatRaw,
	); err != nil {
		return nil, err
	}

	run := &Run{
		ID:              id,
		SourcePath:      sourcePath.String,
		DeckTitle:       deckTitle.String,
		Status:          Status(statusStr),
		SlidesJSON:      slidesJSON.String,
		TotalSlides:     int(totalSlides.Int64),
		OptionsJSON:     optionsJSON.String,
		ErrorMessage:    errorMessage.String,
		OutputDir:       outputDir.String,
		ProgressStage:   progressStage.String,
		ProgressPercent: progressPercent.Float64,
		ProgressMessage: progressMessage.String,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		run.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		run.UpdatedAt = updated
	}
	if lastHeartbeatRaw.Valid {
		if heartbeat, err := parseTimeString(lastHeartbeatRaw.String); err == nil {
			run.LastHeartbeat = &heartbeat
		}
	}
	return run, nil
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
	v := value.UTC().Format(time.RFC3339Nano)
	return v
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
