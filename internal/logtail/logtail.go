package logtail

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/five82/lookout/internal/logging"
)

// Read returns at most maxLines from the end of the file at path. A
// missing file yields no lines.
func Read(path string, maxLines int) ([]string, error) {
	if maxLines <= 0 {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	ring := make([]string, maxLines)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// ReadRecords reads the tail of a JSON log file and decodes each line
// into a logging.Record. Lines that are not JSON objects are skipped.
func ReadRecords(path string, maxLines int) ([]logging.Record, error) {
	lines, err := Read(path, maxLines)
	if err != nil {
		return nil, err
	}
	records := make([]logging.Record, 0, len(lines))
	for _, line := range lines {
		if record, ok := ParseRecord(line); ok {
			records = append(records, record)
		}
	}
	return records, nil
}

// ParseRecord decodes a single JSON log line. Attributes come back sorted
// by key since JSON objects carry no order.
func ParseRecord(line string) (logging.Record, bool) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(line), &fields); err != nil {
		return logging.Record{}, false
	}

	record := logging.Record{Level: slog.LevelInfo}
	if raw, ok := fields[slog.TimeKey].(string); ok {
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			record.Time = ts
		}
	}
	if raw, ok := fields[slog.LevelKey].(string); ok {
		if level, err := logging.ParseLevel(raw); err == nil {
			record.Level = level
		}
	}
	record.Message, _ = fields[slog.MessageKey].(string)

	keys := make([]string, 0, len(fields))
	for key := range fields {
		switch key {
		case slog.TimeKey, slog.LevelKey, slog.MessageKey:
			continue
		}
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		record.Attrs = append(record.Attrs, slog.Any(key, fields[key]))
	}
	return record, true
}
