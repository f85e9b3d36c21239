// Package logtail reads the tail of the lookout log file.
//
// Read extracts the last N lines of a file in a single pass using a ring
// buffer, so memory stays proportional to N rather than the file size.
// ReadRecords goes one step further and decodes the JSON lines written by
// the file sink back into logging.Record values, which is how the
// dashboard seeds its log pane with history from earlier runs.
//
// A missing file is not an error: both functions return nothing.
package logtail
