package tasks

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
)

// Backend persists a whole calendar document.
type Backend interface {
	// Load returns the stored calendar. Missing storage is an empty calendar,
	// undecodable content is ErrMalformedStorage.
	Load() (*Calendar, error)

	// Save replaces the stored calendar.
	Save(cal *Calendar) error
}

// Store is the single owner of the date to task mapping. Every mutation
// loads the backend, applies the change to a fresh copy and saves it before
// returning, all under one lock.
type Store struct {
	mu      sync.Mutex
	backend Backend
	logger  *log.Logger
}

// NewStore creates a store over backend. A nil logger discards output.
func NewStore(backend Backend, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Store{backend: backend, logger: logger}
}

// Load returns the current calendar. Missing, unreadable or malformed
// storage yields an empty calendar.
func (s *Store) Load() *Calendar {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Save replaces the stored calendar with cal.
func (s *Store) Save(cal *Calendar) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(cal)
}

// AddTask appends a pending task to date and returns its index.
func (s *Store) AddTask(date, description string) (int, error) {
	if _, err := ParseDate(date); err != nil {
		return 0, err
	}

	var index int
	err := s.update(func(cal *Calendar) error {
		list, _ := cal.Get(date)
		index = len(list)
		cal.Set(date, append(list, Task{Description: description}))
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Debug("task added", "date", date, "index", index)
	return index, nil
}

// ToggleOrSetStatus sets the done flag of the task at index.
func (s *Store) ToggleOrSetStatus(date string, index int, done bool) error {
	return s.update(func(cal *Calendar) error {
		list, err := lookup(cal, date, index)
		if err != nil {
			return err
		}
		list[index].Done = done
		return nil
	})
}

// Toggle flips the done flag of the task at index and returns the new value.
func (s *Store) Toggle(date string, index int) (bool, error) {
	var done bool
	err := s.update(func(cal *Calendar) error {
		list, err := lookup(cal, date, index)
		if err != nil {
			return err
		}
		list[index].Done = !list[index].Done
		done = list[index].Done
		return nil
	})
	return done, err
}

// EditDescription replaces the description of the task at index.
func (s *Store) EditDescription(date string, index int, text string) error {
	return s.update(func(cal *Calendar) error {
		list, err := lookup(cal, date, index)
		if err != nil {
			return err
		}
		list[index].Description = text
		return nil
	})
}

// DeleteTask removes the task at index. Later tasks of the date move down by
// one, and the date disappears with its last task.
func (s *Store) DeleteTask(date string, index int) error {
	return s.update(func(cal *Calendar) error {
		list, err := lookup(cal, date, index)
		if err != nil {
			return err
		}
		rest := make([]Task, 0, len(list)-1)
		rest = append(rest, list[:index]...)
		rest = append(rest, list[index+1:]...)
		cal.Set(date, rest)
		return nil
	})
}

// TasksForMonth returns the dates of the given month with their tasks.
func (s *Store) TasksForMonth(year, month int) (*Calendar, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}
	return FilterMonth(s.Load(), year, month), nil
}

func (s *Store) update(apply func(cal *Calendar) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cal := s.load()
	if err := apply(cal); err != nil {
		return err
	}
	return s.save(cal)
}

func (s *Store) load() *Calendar {
	cal, err := s.backend.Load()
	if err != nil {
		s.logger.Warn("starting from an empty task list", "err", err)
		return NewCalendar()
	}
	if cal == nil {
		return NewCalendar()
	}
	return cal
}

func (s *Store) save(cal *Calendar) error {
	if err := s.backend.Save(cal); err != nil {
		s.logger.Error("saving tasks failed", "err", err)
		if errors.Is(err, ErrStorageUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func lookup(cal *Calendar, date string, index int) ([]Task, error) {
	list, ok := cal.Get(date)
	if !ok {
		return nil, fmt.Errorf("%w: no tasks on %s", ErrNotFound, date)
	}
	if index < 0 || index >= len(list) {
		return nil, fmt.Errorf("%w: %s has no task %d", ErrNotFound, date, index)
	}
	return list, nil
}
