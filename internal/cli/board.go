package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/spec-kit/helpdesk-console/internal/analytics"
	"github.com/spec-kit/helpdesk-console/internal/board"
	"github.com/spec-kit/helpdesk-console/internal/output"
	"github.com/spec-kit/helpdesk-console/internal/search"
	"github.com/spec-kit/helpdesk-console/internal/service"
)

var (
	boardAssignee string
	boardNotes    string

	timelineWeek string

	analyticsQueue string
	analyticsFrom  string
	analyticsTo    string
)

var boardCmd = &cobra.Command{
	Use:   "board <queue-id>",
	Short: "Show the queue board",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return boardShowRun(args[0])
	},
}

var boardMoveCmd = &cobra.Command{
	Use:   "move <queue-id> <ticket-id> <column>",
	Short: "Move a card to another column",
	Long:  "Move a card to opened, in-progress or resolved. The source column is read from the current board.",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return boardMoveRun(args[0], args[1], args[2])
	},
}

var timelineCmd = &cobra.Command{
	Use:   "timeline <queue-id>",
	Short: "Show the weekly timeline of a queue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return timelineRun(args[0])
	},
}

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Show the analytics dashboard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return analyticsRun()
	},
}

func init() {
	boardMoveCmd.Flags().StringVar(&boardAssignee, "assignee", "", "Assignee when moving to in-progress")
	boardMoveCmd.Flags().StringVar(&boardNotes, "notes", "", "Closing notes when moving to resolved")
	boardCmd.AddCommand(boardMoveCmd)

	timelineCmd.Flags().StringVar(&timelineWeek, "week", "", "Any day of the week to show, YYYY-MM-DD (default this week)")

	analyticsCmd.Flags().StringVar(&analyticsQueue, "queue", "", "Limit to one queue")
	analyticsCmd.Flags().StringVar(&analyticsFrom, "from", "", "First creation day, YYYY-MM-DD")
	analyticsCmd.Flags().StringVar(&analyticsTo, "to", "", "Last creation day, YYYY-MM-DD")

	rootCmd.AddCommand(boardCmd, timelineCmd, analyticsCmd)
}

func boardShowRun(queueID string) error {
	c, err := getConsole()
	if err != nil {
		return err
	}
	defer c.flushNotices()

	b, err := c.boards.Board(context.Background(), c.sess, queueID)
	if err != nil {
		return err
	}
	for i, col := range b.Columns {
		if i > 0 {
			fmt.Fprintln(ui.Out)
		}
		fmt.Fprintf(ui.Out, "%s (%d)\n", output.Bold(col.Title), len(col.Tickets))
		if len(col.Tickets) == 0 {
			continue
		}
		table := ui.Table([]string{"ID", "PRIORITY", "ASSIGNEE", "TITLE"})
		for _, t := range col.Tickets {
			_ = table.Append([]string{t.ID, output.PriorityColor(t.Priority), assignee(t), t.Title})
		}
		_ = table.Render()
	}
	return nil
}

func boardMoveRun(queueID, ticketID, column string) error {
	destination, err := board.ParseColumn(column)
	if err != nil {
		return err
	}
	c, err := getConsole()
	if err != nil {
		return err
	}
	defer c.flushNotices()

	ctx := context.Background()
	b, err := c.boards.Board(ctx, c.sess, queueID)
	if err != nil {
		return err
	}
	source, ok := b.Locate(ticketID)
	if !ok {
		return fmt.Errorf("ticket %s is not on the %s board", ticketID, queueID)
	}
	result, err := c.boards.Move(ctx, c.sess, queueID,
		board.MoveEvent{TicketID: ticketID, Source: source, Destination: destination},
		board.Answers{AssigneeID: boardAssignee, ClosingNotes: boardNotes})
	if err != nil {
		return explain(err)
	}
	if result.Prompt != nil {
		return explain(service.PromptError(result.Prompt, nil))
	}
	ui.VerboseLog("%s moved %s -> %s", ticketID, source, destination)
	return nil
}

func timelineRun(queueID string) error {
	var week time.Time
	if timelineWeek != "" {
		parsed, err := time.Parse(search.DateLayout, timelineWeek)
		if err != nil {
			return fmt.Errorf("invalid --week %q: want YYYY-MM-DD", timelineWeek)
		}
		week = parsed
	}
	c, err := getConsole()
	if err != nil {
		return err
	}
	defer c.flushNotices()

	grid, err := c.timelines.Timeline(context.Background(), c.sess, queueID, week)
	if err != nil {
		return err
	}
	fmt.Fprintf(ui.Out, "%s %s - %s\n", output.Bold("Week"), grid.Days[0].Format("Mon 02 Jan"), grid.Days[len(grid.Days)-1].Format("Mon 02 Jan 2006"))
	if len(grid.Placements) == 0 {
		ui.Info("No tickets this week")
		return nil
	}
	table := ui.Table([]string{"ROW", "ID", "STATUS", "FROM", "TO", "TITLE"})
	for _, p := range grid.Placements {
		from := grid.Days[p.StartCol].Format("Mon")
		if p.Started {
			from = "<" + from
		}
		to := grid.Days[p.EndCol].Format("Mon")
		if p.Continues {
			to += ">"
		}
		_ = table.Append([]string{fmt.Sprint(p.Row + 1), p.Ticket.ID, output.StatusColor(p.Ticket.Status), from, to, p.Ticket.Title})
	}
	_ = table.Render()
	return nil
}

func analyticsRun() error {
	var r analytics.Range
	for _, d := range []struct {
		flag string
		raw  string
		dst  *time.Time
	}{{"--from", analyticsFrom, &r.From}, {"--to", analyticsTo, &r.To}} {
		if d.raw == "" {
			continue
		}
		parsed, err := time.Parse(search.DateLayout, d.raw)
		if err != nil {
			return fmt.Errorf("invalid %s %q: want YYYY-MM-DD", d.flag, d.raw)
		}
		*d.dst = parsed
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return fmt.Errorf("--to is before --from")
	}
	c, err := getConsole()
	if err != nil {
		return err
	}
	defer c.flushNotices()

	dash, err := c.analytics.Dashboard(context.Background(), c.sess, service.AnalyticsFilter{QueueID: analyticsQueue, Range: r})
	if err != nil {
		return err
	}
	s := dash.Summary
	fmt.Fprintf(ui.Out, "Total %d  Backlog %d  Resolved %d  MTTR %.1fh\n", s.Total, s.Backlog, s.Resolved, s.MTTRHours)
	for _, series := range dash.Charts {
		if len(series.Points) == 0 {
			continue
		}
		fmt.Fprintf(ui.Out, "\n%s\n", output.Cyan(strings.ToUpper(series.Name)))
		table := ui.Table([]string{"LABEL", "COUNT", "%"})
		for _, p := range series.Points {
			_ = table.Append([]string{p.Label, fmt.Sprint(p.Value), p.Percent})
		}
		_ = table.Render()
	}
	return nil
}
