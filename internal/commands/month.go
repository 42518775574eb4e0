package commands

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/klabast/wb-services/task-calendar/internal/tasks"
)

const weekdayHeader = "Su Mo Tu We Th Fr Sa"

// Month handles the month subcommand.
func Month(args []string) {
	exit(runMonth(args, os.Stdout, time.Now()))
}

func runMonth(args []string, out io.Writer, now time.Time) error {
	fs := flag.NewFlagSet("month", flag.ContinueOnError)
	fs.Usage = usage(fs, "month [OPTIONS] [year month]", "Prints a month calendar and the tasks of that month.")
	cfg, err := parse(fs, args)
	if err != nil {
		return err
	}

	year, month := now.Year(), int(now.Month())
	switch fs.NArg() {
	case 0:
	case 2:
		if year, err = strconv.Atoi(fs.Arg(0)); err != nil {
			return fmt.Errorf("invalid year %q", fs.Arg(0))
		}
		if month, err = strconv.Atoi(fs.Arg(1)); err != nil {
			return fmt.Errorf("invalid month %q", fs.Arg(1))
		}
	default:
		fs.Usage()
		return fmt.Errorf("month takes either no arguments or a year and a month")
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	cal, err := store.TasksForMonth(year, month)
	if err != nil {
		return err
	}
	return RenderMonth(out, cal, year, time.Month(month), now)
}

// monthStyles styles the calendar for the renderer of one writer.
type monthStyles struct {
	title   lipgloss.Style
	header  lipgloss.Style
	today   lipgloss.Style
	busy    lipgloss.Style
	date    lipgloss.Style
	done    lipgloss.Style
	pending lipgloss.Style
}

func newMonthStyles(w io.Writer) monthStyles {
	r := lipgloss.NewRenderer(w)
	return monthStyles{
		title:   r.NewStyle().Bold(true),
		header:  r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#B0B7C3"}),
		today:   r.NewStyle().Reverse(true).Bold(true),
		busy:    r.NewStyle().Underline(true),
		date:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		done:    r.NewStyle().Faint(true).Strikethrough(true),
		pending: r.NewStyle(),
	}
}

// RenderMonth writes a Sunday-first calendar of the month followed by the
// tasks of cal sorted by date. Today is highlighted and days with tasks
// are underlined.
func RenderMonth(w io.Writer, cal *tasks.Calendar, year int, month time.Month, today time.Time) error {
	st := newMonthStyles(w)
	var b strings.Builder

	title := fmt.Sprintf("%s %d", month, year)
	pad := (len(weekdayHeader) - len(title)) / 2
	b.WriteString(strings.Repeat(" ", max(pad, 0)) + st.title.Render(title) + "\n")
	b.WriteString(st.header.Render(weekdayHeader) + "\n")

	for _, week := range tasks.MonthGrid(year, month) {
		cells := make([]string, len(week))
		for i, day := range week {
			if day == 0 {
				cells[i] = "  "
				continue
			}
			cell := fmt.Sprintf("%2d", day)
			date := tasks.FormatDate(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
			switch {
			case today.Year() == year && today.Month() == month && today.Day() == day:
				cell = st.today.Render(cell)
			case hasTasks(cal, date):
				cell = st.busy.Render(cell)
			}
			cells[i] = cell
		}
		b.WriteString(strings.TrimRight(strings.Join(cells, " "), " ") + "\n")
	}
	b.WriteString("\n")

	days := tasks.SortedDays(cal)
	if len(days) == 0 {
		b.WriteString("No tasks for this month.\n")
	}
	for _, day := range days {
		b.WriteString(st.date.Render(day.Date) + "\n")
		for i, task := range day.Tasks {
			if task.Done {
				fmt.Fprintf(&b, "  %d. [x] %s\n", i+1, st.done.Render(task.Description))
			} else {
				fmt.Fprintf(&b, "  %d. [ ] %s\n", i+1, st.pending.Render(task.Description))
			}
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func hasTasks(cal *tasks.Calendar, date string) bool {
	list, ok := cal.Get(date)
	return ok && len(list) > 0
}
