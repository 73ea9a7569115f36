package handler

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/cuongbtq/content-ingest/internal/storage"
)

func decodeCursorParts(cursorStr string) (time.Time, string, error) {
	decoded, err := base64.StdEncoding.DecodeString(cursorStr)
	if err != nil {
		return time.Time{}, "", err
	}

	parts := strings.Split(string(decoded), "|")
	if len(parts) != 2 {
		return time.Time{}, "", fmt.Errorf("invalid cursor format")
	}

	var nanos int64
	if _, err := fmt.Sscanf(parts[0], "%d", &nanos); err != nil {
		return time.Time{}, "", fmt.Errorf("invalid timestamp in cursor: %w", err)
	}

	return time.Unix(0, nanos), parts[1], nil
}

func encodeCursorParts(ts time.Time, id string) string {
	cs := fmt.Sprintf("%d|%s", ts.UnixNano(), id)
	return base64.StdEncoding.EncodeToString([]byte(cs))
}

func DecodeJobCursor(cursorStr string) (*storage.JobCursor, error) {
	if cursorStr == "" {
		return nil, nil
	}

	ts, id, err := decodeCursorParts(cursorStr)
	if err != nil {
		return nil, err
	}

	return &storage.JobCursor{CreatedAt: ts, JobID: id}, nil
}

func EncodeJobCursor(cursor *storage.JobCursor) string {
	return encodeCursorParts(cursor.CreatedAt, cursor.JobID)
}

func DecodeContentCursor(cursorStr string) (*storage.ContentCursor, error) {
	if cursorStr == "" {
		return nil, nil
	}

	ts, id, err := decodeCursorParts(cursorStr)
	if err != nil {
		return nil, err
	}

	return &storage.ContentCursor{CollectedAt: ts, ContentID: id}, nil
}

func EncodeContentCursor(cursor *storage.ContentCursor) string {
	return encodeCursorParts(cursor.CollectedAt, cursor.ContentID)
}
