package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event
type EventType string

const (
	EventScan        EventType = "scan"
	EventGroup       EventType = "group"
	EventClassify    EventType = "classify"
	EventConsolidate EventType = "consolidate"
	EventProbe       EventType = "probe"
	EventLink        EventType = "link"
	EventSkip        EventType = "skip"
	EventError       EventType = "error"
)

// EventLevel represents the severity level
type EventLevel string

const (
	LevelDebug   EventLevel = "debug"
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

// levelPriority maps event levels to numeric priorities for comparison
var levelPriority = map[EventLevel]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// Event represents a single event in the pipeline
type Event struct {
	Timestamp time.Time         `json:"ts"`
	RunID     string            `json:"run_id"`
	Level     EventLevel        `json:"level"`
	Event     EventType         `json:"event"`
	SrcPath   string            `json:"src_path,omitempty"`
	DestPath  string            `json:"dest_path,omitempty"`
	Title     string            `json:"title,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	Error     string            `json:"error,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// EventLogger writes events to a JSONL file
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	runID    string
	minLevel EventLevel
}

// NewEventLogger creates a new event logger with a minimum log level.
// Every event written by the logger carries the same run ID so one
// sync run can be isolated inside a directory of event logs.
func NewEventLogger(outputDir string, minLevel EventLevel) (*EventLogger, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("events-%s.jsonl", timestamp)
	path := filepath.Join(outputDir, filename)

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	return &EventLogger{
		file:     file,
		encoder:  json.NewEncoder(file),
		path:     path,
		runID:    uuid.NewString(),
		minLevel: minLevel,
	}, nil
}

// NullLogger returns a logger that silently drops all events
func NullLogger() *EventLogger {
	return &EventLogger{}
}

// Path returns the path of the event log file, or "" for a null logger
func (l *EventLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// RunID returns the run identifier stamped on every event
func (l *EventLogger) RunID() string {
	if l == nil {
		return ""
	}
	return l.runID
}

// Close closes the underlying file
func (l *EventLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Log writes an event to the JSONL file
func (l *EventLogger) Log(event *Event) error {
	if l == nil || l.file == nil {
		return nil // Silently ignore if logger not initialized
	}

	if levelPriority[event.Level] < levelPriority[l.minLevel] {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	event.RunID = l.runID

	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	return nil
}

// LogClassify logs a classification outcome for a primary file
func (l *EventLogger) LogClassify(srcPath, title, mediaType string, err error) error {
	level := LevelInfo
	errMsg := ""
	if err != nil {
		level = LevelWarning
		errMsg = err.Error()
	}

	return l.Log(&Event{
		Level:   level,
		Event:   EventClassify,
		SrcPath: srcPath,
		Title:   title,
		Error:   errMsg,
		Extra: map[string]string{
			"media_type": mediaType,
		},
	})
}

// LogGroup logs a primary/sidecar group discovered in a directory
func (l *EventLogger) LogGroup(primaryPath string, sidecarCount int) error {
	return l.Log(&Event{
		Level:   LevelDebug,
		Event:   EventGroup,
		SrcPath: primaryPath,
		Extra: map[string]string{
			"sidecar_count": fmt.Sprintf("%d", sidecarCount),
		},
	})
}

// LogConsolidate logs a raw-title to canonical-title merge
func (l *EventLogger) LogConsolidate(rawTitle, canonicalTitle string, itemCount int) error {
	return l.Log(&Event{
		Level: LevelInfo,
		Event: EventConsolidate,
		Title: canonicalTitle,
		Extra: map[string]string{
			"raw_title":  rawTitle,
			"item_count": fmt.Sprintf("%d", itemCount),
		},
	})
}

// LogProbe logs an identity discovered in the existing target tree
func (l *EventLogger) LogProbe(identity, destPath string) error {
	return l.Log(&Event{
		Level:    LevelDebug,
		Event:    EventProbe,
		DestPath: destPath,
		Extra: map[string]string{
			"identity": identity,
		},
	})
}

// LogLink logs a link creation (or the tolerated already-exists case)
func (l *EventLogger) LogLink(srcPath, destPath, linkType string, existed bool, err error) error {
	level := LevelInfo
	errMsg := ""
	if err != nil {
		level = LevelError
		errMsg = err.Error()
	}

	return l.Log(&Event{
		Level:    level,
		Event:    EventLink,
		SrcPath:  srcPath,
		DestPath: destPath,
		Error:    errMsg,
		Extra: map[string]string{
			"link_type": linkType,
			"existed":   fmt.Sprintf("%t", existed),
		},
	})
}

// LogSkip logs a skipped item or link with a reason
func (l *EventLogger) LogSkip(srcPath, reason string) error {
	return l.Log(&Event{
		Level:   LevelDebug,
		Event:   EventSkip,
		SrcPath: srcPath,
		Reason:  reason,
	})
}

// LogError logs a pipeline error that did not abort the run
func (l *EventLogger) LogError(srcPath string, err error) error {
	if err == nil {
		return nil
	}
	return l.Log(&Event{
		Level:   LevelError,
		Event:   EventError,
		SrcPath: srcPath,
		Error:   err.Error(),
	})
}
