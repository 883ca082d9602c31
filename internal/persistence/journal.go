package persistence

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gearstra/vtt-potion-toxicity-5e/internal/world"
	"github.com/google/uuid"
)

// EventWrapper facilitates serialization of polymorphic events
type EventWrapper struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"ts"`
	Event     json.RawMessage `json:"data"`
}

// Journal handles append-only storing of the session event log.
type Journal struct {
	mu   sync.Mutex
	file *os.File
}

// NewJournal opens or creates the file at path for appending lines
func NewJournal(path string) (*Journal, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal file: %w", err)
	}
	return &Journal{file: file}, nil
}

// Append marshals the event to a jsonl line tagged with a fresh id.
func (j *Journal) Append(evt world.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	wrapperData, err := json.Marshal(EventWrapper{
		ID:        uuid.NewString(),
		Type:      evt.Type(),
		Timestamp: time.Now().UTC(),
		Event:     data,
	})
	if err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.file.Write(append(wrapperData, '\n')); err != nil {
		return err
	}
	return j.file.Sync()
}

// Load replays all jsonl lines and unpacks them to an Event slice.
func (j *Journal) Load() ([]world.Event, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if _, err := j.file.Seek(0, 0); err != nil {
		return nil, err
	}

	var events []world.Event
	scanner := bufio.NewScanner(j.file)
	for scanner.Scan() {
		var wrapper EventWrapper
		if err := json.Unmarshal(scanner.Bytes(), &wrapper); err != nil {
			return nil, fmt.Errorf("failed to decode wrapper: %w", err)
		}

		evt, err := newEvent(wrapper.Type)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(wrapper.Event, evt); err != nil {
			return nil, fmt.Errorf("failed to parse event data into specific type: %w", err)
		}
		events = append(events, evt)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func newEvent(kind string) (world.Event, error) {
	switch kind {
	case "EntityAddedEvent":
		return &world.EntityAddedEvent{}, nil
	case "EffectsAppliedEvent":
		return &world.EffectsAppliedEvent{}, nil
	case "HPChangedEvent":
		return &world.HPChangedEvent{}, nil
	case "NarrationEvent":
		return &world.NarrationEvent{}, nil
	case "ToxicityChangedEvent":
		return &world.ToxicityChangedEvent{}, nil
	case "OverflowResolvedEvent":
		return &world.OverflowResolvedEvent{}, nil
	case "RestCompletedEvent":
		return &world.RestCompletedEvent{}, nil
	}
	return nil, fmt.Errorf("unknown event type in log: %s", kind)
}

// Close handles safe shutdown.
func (j *Journal) Close() error {
	return j.file.Close()
}
