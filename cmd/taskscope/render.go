package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hylla/taskscope/internal/app"
	"github.com/hylla/taskscope/internal/config"
	"github.com/hylla/taskscope/internal/domain"
	"github.com/hylla/taskscope/internal/projection"
	"github.com/hylla/taskscope/internal/table"
	"github.com/hylla/taskscope/internal/tui"
)

// renderViews lists the projections the render command can print.
var renderViews = []string{"list", "kanban", "calendar", "gantt", "table"}

// errUnknownView reports a render target outside the five projections.
var errUnknownView = errors.New("unknown view")

// renderOptions holds render command flags.
type renderOptions struct {
	query       string
	statuses    []string
	priorities  []string
	assignees   []string
	month       string
	granularity string
	page        int
	sort        string
	width       int
	expandAll   bool
}

// newRenderCommand prints one projection of the filtered collection.
func newRenderCommand(opts *rootOptions, stderr io.Writer) *cobra.Command {
	var ro renderOptions
	cmd := &cobra.Command{
		Use:       "render <" + strings.Join(renderViews, "|") + ">",
		Short:     "Print one view of the task collection",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: renderViews,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts, stderr, "render", true)
			if err != nil {
				return err
			}
			defer s.close(stderr)

			s.logger.Info("command flow start", "command", "render", "view", args[0])
			out, err := renderView(args[0], s.svc, s.cfg, ro)
			if err != nil {
				s.logger.Error("command flow failed", "command", "render", "view", args[0], "err", err)
				return fmt.Errorf("render %s: %w", args[0], err)
			}
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), out); err != nil {
				return fmt.Errorf("write render output: %w", err)
			}
			s.logger.Info("command flow complete", "command", "render", "view", args[0])
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&ro.query, "query", "", "case-insensitive search over title, description, assignee and tags")
	flags.StringSliceVar(&ro.statuses, "status", nil, "only these statuses (repeatable or comma separated)")
	flags.StringSliceVar(&ro.priorities, "priority", nil, "only these priorities")
	flags.StringSliceVar(&ro.assignees, "assignee", nil, "only these assignee ids")
	flags.StringVar(&ro.month, "month", "", "calendar month as YYYY-MM (current month when empty)")
	flags.StringVar(&ro.granularity, "granularity", "", "gantt scale: day, week or month (config value when empty)")
	flags.IntVar(&ro.page, "page", 1, "table page, 1-indexed")
	flags.StringVar(&ro.sort, "sort", "", "table sort column; prefix with '-' for descending")
	flags.IntVar(&ro.width, "width", 120, "board width in columns")
	flags.BoolVar(&ro.expandAll, "expand", false, "show every subtask in the list view")
	return cmd
}

// renderFilter turns the filter flags into a projection filter, rejecting unknown values.
func renderFilter(ro renderOptions) (projection.Filter, error) {
	f := projection.Filter{Query: strings.TrimSpace(ro.query)}
	for _, raw := range ro.statuses {
		status := domain.NormalizeStatus(raw)
		if !status.IsValid() {
			return projection.Filter{}, fmt.Errorf("%w: status %q", domain.ErrInvalidStatus, raw)
		}
		f.Statuses = append(f.Statuses, status)
	}
	for _, raw := range ro.priorities {
		priority := domain.NormalizePriority(raw)
		if !priority.IsValid() {
			return projection.Filter{}, fmt.Errorf("%w: priority %q", domain.ErrInvalidPriority, raw)
		}
		f.Priorities = append(f.Priorities, priority)
	}
	for _, raw := range ro.assignees {
		if id := strings.TrimSpace(raw); id != "" {
			f.AssigneeIDs = append(f.AssigneeIDs, id)
		}
	}
	return f, nil
}

// renderView renders one projection as plain terminal text.
func renderView(view string, svc *app.Service, cfg config.Config, ro renderOptions) (string, error) {
	filter, err := renderFilter(ro)
	if err != nil {
		return "", err
	}
	tasks := svc.Filtered(filter)
	now := svc.Now()

	switch view {
	case "list":
		var expanded map[string]bool
		if ro.expandAll {
			expanded = make(map[string]bool, len(tasks))
			for _, task := range tasks {
				expanded[task.ID] = true
			}
		}
		return tui.RenderList(projection.BuildList(tasks, svc.CustomFields(), expanded, nil, now), -1), nil

	case "kanban":
		cursor := tui.KanbanCursor{Column: -1, Card: -1, DropColumn: -1}
		return tui.RenderKanban(projection.BuildKanban(tasks, now), cursor, ro.width), nil

	case "calendar":
		month := projection.MonthStart(now)
		if raw := strings.TrimSpace(ro.month); raw != "" {
			parsed, err := time.Parse("2006-01", raw)
			if err != nil {
				return "", fmt.Errorf("invalid --month %q: want YYYY-MM", raw)
			}
			month = parsed
		}
		return tui.RenderCalendar(projection.BuildMonth(tasks, month, now, cfg.Calendar.MaxPerCell), time.Time{}), nil

	case "gantt":
		gcfg := ganttConfig(cfg.Gantt)
		if raw := strings.TrimSpace(ro.granularity); raw != "" {
			g, ok := projection.ParseGranularity(raw)
			if !ok {
				return "", fmt.Errorf("invalid --granularity %q", raw)
			}
			gcfg.Granularity = g
		}
		return tui.RenderGantt(projection.BuildGantt(tasks, gcfg, now), cfg.Gantt.CellWidth, tui.GanttCursor{Row: -1}), nil

	case "table":
		tbl := projection.NewTaskTable(tasks, cfg.Table.PageSize, now)
		if raw := strings.TrimSpace(ro.sort); raw != "" {
			key, desc := strings.CutPrefix(raw, "-")
			state := table.SortState{Key: key, Direction: table.Ascending}
			if desc {
				state.Direction = table.Descending
			}
			if !tbl.SetSort(state) {
				return "", fmt.Errorf("cannot sort by %q", key)
			}
		}
		tbl.SetPage(ro.page)
		return table.RenderText(tbl.View()), nil
	}
	return "", fmt.Errorf("%w: %q", errUnknownView, view)
}
