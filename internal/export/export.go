// Package export writes News records to an output stream.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/IshaanNene/NewsGoat/internal/types"
)

// Encoder writes batches of records to an output stream.
type Encoder interface {
	// Encode writes a batch of records.
	Encode(news []types.News) error

	// Close flushes pending output. It does not close the underlying writer.
	Close() error

	// Name returns the output format identifier.
	Name() string
}

// Formats lists the accepted output formats.
var Formats = []string{"json", "jsonl", "csv", "yaml"}

// NewEncoder returns the Encoder for format.
func NewEncoder(format string, w io.Writer, logger *slog.Logger) (Encoder, error) {
	switch format {
	case "json", "":
		return NewJSONEncoder(w, logger), nil
	case "jsonl":
		return NewJSONLEncoder(w, logger), nil
	case "csv":
		return NewCSVEncoder(w, logger), nil
	case "yaml":
		return NewYAMLEncoder(w, logger), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want one of %v)", format, Formats)
	}
}

// --- JSON ---

// JSONEncoder buffers records and writes them as one JSON array on Close.
type JSONEncoder struct {
	w      io.Writer
	news   []types.News
	mu     sync.Mutex
	logger *slog.Logger
}

func NewJSONEncoder(w io.Writer, logger *slog.Logger) *JSONEncoder {
	return &JSONEncoder{
		w:      w,
		news:   make([]types.News, 0),
		logger: logger.With("component", "json_export"),
	}
}

func (e *JSONEncoder) Name() string { return "json" }

func (e *JSONEncoder) Encode(news []types.News) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.news = append(e.news, news...)
	e.logger.Debug("records buffered", "count", len(news), "total", len(e.news))
	return nil
}

func (e *JSONEncoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	enc := json.NewEncoder(e.w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(e.news); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	e.logger.Debug("JSON written", "records", len(e.news))
	return nil
}

// --- JSONL ---

// JSONLEncoder writes one JSON object per line as records arrive.
type JSONLEncoder struct {
	enc    *json.Encoder
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

func NewJSONLEncoder(w io.Writer, logger *slog.Logger) *JSONLEncoder {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONLEncoder{
		enc:    enc,
		logger: logger.With("component", "jsonl_export"),
	}
}

func (e *JSONLEncoder) Name() string { return "jsonl" }

func (e *JSONLEncoder) Encode(news []types.News) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, n := range news {
		if err := e.enc.Encode(n); err != nil {
			return fmt.Errorf("encode JSONL: %w", err)
		}
		e.count++
	}
	return nil
}

func (e *JSONLEncoder) Close() error {
	e.logger.Debug("JSONL written", "records", e.count)
	return nil
}

// --- CSV ---

// CSVEncoder writes a header row followed by one row per record.
type CSVEncoder struct {
	writer *csv.Writer
	header bool
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

func NewCSVEncoder(w io.Writer, logger *slog.Logger) *CSVEncoder {
	return &CSVEncoder{
		writer: csv.NewWriter(w),
		logger: logger.With("component", "csv_export"),
	}
}

func (e *CSVEncoder) Name() string { return "csv" }

func (e *CSVEncoder) Encode(news []types.News) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.writeHeader(); err != nil {
		return err
	}
	for _, n := range news {
		flat := n.ToFlatMap()
		row := make([]string, len(types.NewsColumns))
		for i, col := range types.NewsColumns {
			row[i] = flat[col]
		}
		if err := e.writer.Write(row); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
		e.count++
	}
	e.writer.Flush()
	return e.writer.Error()
}

func (e *CSVEncoder) writeHeader() error {
	if e.header {
		return nil
	}
	e.header = true
	if err := e.writer.Write(types.NewsColumns); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	return nil
}

func (e *CSVEncoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.writeHeader(); err != nil {
		return err
	}
	e.writer.Flush()
	e.logger.Debug("CSV written", "records", e.count)
	return e.writer.Error()
}

// --- YAML ---

// YAMLEncoder writes each record as its own YAML document.
type YAMLEncoder struct {
	enc    *yaml.Encoder
	mu     sync.Mutex
	logger *slog.Logger
}

func NewYAMLEncoder(w io.Writer, logger *slog.Logger) *YAMLEncoder {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	return &YAMLEncoder{
		enc:    enc,
		logger: logger.With("component", "yaml_export"),
	}
}

func (e *YAMLEncoder) Name() string { return "yaml" }

func (e *YAMLEncoder) Encode(news []types.News) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, n := range news {
		if err := e.enc.Encode(n); err != nil {
			return fmt.Errorf("encode YAML: %w", err)
		}
	}
	return nil
}

func (e *YAMLEncoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enc.Close()
}
