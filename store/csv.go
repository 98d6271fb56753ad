package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"sync"
)

// CSVSink appends rows to a CSV file, flushing after every row
type CSVSink struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
	path   string
}

// NewCSVSink opens path for appending and writes the header if the file is empty
func NewCSVSink(path string) (*CSVSink, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat output file: %w", err)
	}

	sink := &CSVSink{
		file:   file,
		writer: csv.NewWriter(file),
		path:   path,
	}

	if info.Size() == 0 {
		if err := sink.write(Header); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	return sink, nil
}

// WriteRow appends one row
func (s *CSVSink) WriteRow(_ context.Context, row Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(row.Fields()); err != nil {
		return fmt.Errorf("failed to append row to %s: %w", s.path, err)
	}
	return nil
}

func (s *CSVSink) write(fields []string) error {
	if err := s.writer.Write(fields); err != nil {
		return err
	}
	s.writer.Flush()
	return s.writer.Error()
}

// Close flushes and closes the file
func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}
