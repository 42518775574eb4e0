package storage

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // pure-Go SQLite driver, no CGO required

	"github.com/klabast/wb-services/task-calendar/internal/tasks"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS tasks (
	date_pos INTEGER NOT NULL,
	date     TEXT    NOT NULL,
	position INTEGER NOT NULL,
	task     TEXT    NOT NULL,
	done     INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (date, position)
);`

// SQLiteBackend stores one row per task. Date order and task order are kept
// in date_pos and position.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend opens (or creates) a SQLite database at path.
func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

func (b *SQLiteBackend) Load() (*tasks.Calendar, error) {
	rows, err := b.db.Query(
		`SELECT date, task, done FROM tasks ORDER BY date_pos ASC, position ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	cal := tasks.NewCalendar()
	for rows.Next() {
		var date, text string
		var done int
		if err := rows.Scan(&date, &text, &done); err != nil {
			return nil, fmt.Errorf("%w: %v", tasks.ErrMalformedStorage, err)
		}
		list, _ := cal.Get(date)
		cal.Set(date, append(list, tasks.Task{Description: text, Done: done != 0}))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cal, nil
}

func (b *SQLiteBackend) Save(cal *tasks.Calendar) (err error) {
	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: begin: %v", tasks.ErrStorageUnavailable, err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.Exec(`DELETE FROM tasks`); err != nil {
		return fmt.Errorf("%w: clear: %v", tasks.ErrStorageUnavailable, err)
	}
	stmt, err := tx.Prepare(
		`INSERT INTO tasks (date_pos, date, position, task, done) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("%w: prepare: %v", tasks.ErrStorageUnavailable, err)
	}
	defer stmt.Close()

	for i, day := range cal.Days() {
		for j, t := range day.Tasks {
			if _, err = stmt.Exec(i, day.Date, j, t.Description, boolToInt(t.Done)); err != nil {
				return fmt.Errorf("%w: insert: %v", tasks.ErrStorageUnavailable, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", tasks.ErrStorageUnavailable, err)
	}
	return nil
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
