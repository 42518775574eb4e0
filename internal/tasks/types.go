package tasks

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Task is a single to-do entry for a calendar day.
type Task struct {
	Description string `json:"task"`
	Done        bool   `json:"done"`
}

// Day holds the tasks of one date key in display order.
type Day struct {
	Date  string
	Tasks []Task
}

// Calendar maps date keys to their tasks and keeps the insertion order of
// both dates and tasks. The zero value is an empty calendar.
type Calendar struct {
	days  []Day
	index map[string]int
}

// NewCalendar returns an empty calendar.
func NewCalendar() *Calendar {
	return &Calendar{index: make(map[string]int)}
}

// Len returns the number of dates.
func (c *Calendar) Len() int {
	if c == nil {
		return 0
	}
	return len(c.days)
}

// TaskCount returns the number of tasks across all dates.
func (c *Calendar) TaskCount() int {
	n := 0
	for _, d := range c.Days() {
		n += len(d.Tasks)
	}
	return n
}

// Days returns the dates in order. The slice must not be modified.
func (c *Calendar) Days() []Day {
	if c == nil {
		return nil
	}
	return c.days
}

// Dates returns the date keys in order.
func (c *Calendar) Dates() []string {
	dates := make([]string, 0, c.Len())
	for _, d := range c.Days() {
		dates = append(dates, d.Date)
	}
	return dates
}

// Get returns the tasks stored for date.
func (c *Calendar) Get(date string) ([]Task, bool) {
	if c == nil || c.index == nil {
		return nil, false
	}
	i, ok := c.index[date]
	if !ok {
		return nil, false
	}
	return c.days[i].Tasks, true
}

// Set replaces the tasks of date, appending the date if it is new.
// Setting an empty list removes the date.
func (c *Calendar) Set(date string, list []Task) {
	if len(list) == 0 {
		c.Remove(date)
		return
	}
	if c.index == nil {
		c.index = make(map[string]int)
	}
	if i, ok := c.index[date]; ok {
		c.days[i].Tasks = list
		return
	}
	c.index[date] = len(c.days)
	c.days = append(c.days, Day{Date: date, Tasks: list})
}

// Remove deletes date and its tasks.
func (c *Calendar) Remove(date string) {
	i, ok := c.index[date]
	if !ok {
		return
	}
	c.days = append(c.days[:i], c.days[i+1:]...)
	delete(c.index, date)
	for j := i; j < len(c.days); j++ {
		c.index[c.days[j].Date] = j
	}
}

// Clone returns a deep copy.
func (c *Calendar) Clone() *Calendar {
	out := NewCalendar()
	for _, d := range c.Days() {
		list := make([]Task, len(d.Tasks))
		copy(list, d.Tasks)
		out.Set(d.Date, list)
	}
	return out
}

// MarshalJSON encodes the calendar as a JSON object in insertion order.
func (c *Calendar) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, d := range c.Days() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(d.Date)
		if err != nil {
			return nil, err
		}
		list := d.Tasks
		if list == nil {
			list = []Task{}
		}
		val, err := json.Marshal(list)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object of date keys, keeping the document
// order. A repeated key keeps its first position and its last value.
func (c *Calendar) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}

	out := NewCalendar()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		date, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected date key, got %v", tok)
		}
		var list []Task
		if err := dec.Decode(&list); err != nil {
			return fmt.Errorf("date %s: %w", date, err)
		}
		out.Set(date, list)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*c = *out
	return nil
}
