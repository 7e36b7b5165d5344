package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spec-kit/helpdesk-console/internal/apiclient"
	"github.com/spec-kit/helpdesk-console/internal/debounce"
	"github.com/spec-kit/helpdesk-console/internal/domain"
	"github.com/spec-kit/helpdesk-console/internal/output"
	"github.com/spec-kit/helpdesk-console/internal/search"
	"github.com/spec-kit/helpdesk-console/internal/service"
	"github.com/spec-kit/helpdesk-console/internal/workflow"
)

var (
	ticketQueue      string
	ticketCategory   string
	ticketStatus     string
	ticketPriority   string
	ticketSearch     string
	ticketAssignee   string
	ticketUnassigned bool
	ticketLimit      int
	ticketAll        bool

	ticketTitle   string
	ticketDetails string
	ticketNotes   string
	ticketClear   bool
	ticketKeep    bool
)

var ticketsCmd = &cobra.Command{
	Use:     "tickets",
	Aliases: []string{"t"},
	Short:   "Work with tickets",
	RunE: func(cmd *cobra.Command, args []string) error {
		return ticketsListRun()
	},
}

var ticketsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tickets",
	Long:    "List tickets matching the filter flags. --all keeps loading pages until the list is complete.",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return ticketsListRun()
	},
}

var ticketsFindCmd = &cobra.Command{
	Use:   "find",
	Short: "Search tickets as you type",
	Long:  "Read search text line by line from stdin. Lines typed in quick succession are debounced; the last one is searched.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return ticketsFindRun(cmd.InOrStdin())
	},
}

var ticketsShowCmd = &cobra.Command{
	Use:   "show <ticket-id>",
	Short: "Show ticket details, history and documents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return ticketsShowRun(args[0])
	},
}

var ticketsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a ticket",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return ticketsCreateRun()
	},
}

var ticketsEditCmd = &cobra.Command{
	Use:   "edit <ticket-id>",
	Short: "Edit title, details or priority",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return ticketsEditRun(args[0], cmd.Flags().Changed)
	},
}

var ticketsDeleteCmd = &cobra.Command{
	Use:   "delete <ticket-id>",
	Short: "Delete a ticket",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return ticketsDeleteRun(args[0])
	},
}

var ticketsAssignCmd = &cobra.Command{
	Use:   "assign <ticket-id> <user-id>",
	Short: "Assign a ticket",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return ticketsAssignRun(args[0], args[1])
	},
}

var ticketsUnassignCmd = &cobra.Command{
	Use:   "unassign <ticket-id>",
	Short: "Remove the assignee",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return ticketsUnassignRun(args[0])
	},
}

var ticketsMoveCmd = &cobra.Command{
	Use:   "move <ticket-id> <status>",
	Short: "Move a ticket to another status",
	Long:  "Move a ticket to opened, in-progress, resolved or closed. Missing assignee or closing notes are reported with what to pass.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return ticketsMoveRun(args[0], domain.TicketStatus(args[1]))
	},
}

var ticketsResolveCmd = &cobra.Command{
	Use:   "resolve <ticket-id>",
	Short: "Resolve a ticket",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return ticketsFinishRun(args[0], domain.TicketStatusResolved)
	},
}

var ticketsCloseCmd = &cobra.Command{
	Use:   "close <ticket-id>",
	Short: "Close a ticket",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return ticketsFinishRun(args[0], domain.TicketStatusClosed)
	},
}

var ticketsReopenCmd = &cobra.Command{
	Use:   "reopen <ticket-id>",
	Short: "Reopen a finished ticket",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return ticketsReopenRun(args[0])
	},
}

var ticketsCommentCmd = &cobra.Command{
	Use:   "comment <ticket-id> <text>",
	Short: "Add a comment",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return ticketsCommentRun(args[0], strings.Join(args[1:], " "))
	},
}

var ticketsAttachCmd = &cobra.Command{
	Use:   "attach <ticket-id> <file>",
	Short: "Attach a file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return ticketsAttachRun(args[0], args[1])
	},
}

var ticketsDetachCmd = &cobra.Command{
	Use:   "detach <ticket-id> <document-id>",
	Short: "Remove an attached document",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return ticketsDetachRun(args[0], args[1])
	},
}

func init() {
	for _, c := range []*cobra.Command{ticketsListCmd, ticketsFindCmd} {
		c.Flags().StringVar(&ticketQueue, "queue", "", "Filter by queue id")
		c.Flags().StringVar(&ticketCategory, "category", "", "Filter by category id")
		c.Flags().StringVar(&ticketStatus, "status", "", "Filter by status, comma separated")
		c.Flags().StringVar(&ticketPriority, "priority", "", "Filter by priority, comma separated")
		c.Flags().StringVar(&ticketAssignee, "assignee", "", "Filter by assignee id")
		c.Flags().BoolVar(&ticketUnassigned, "unassigned", false, "Only unassigned tickets")
		c.Flags().IntVar(&ticketLimit, "limit", 0, "Page size (default from search.page_size)")
	}
	ticketsListCmd.Flags().StringVarP(&ticketSearch, "search", "s", "", "Free-text search")
	ticketsListCmd.Flags().BoolVar(&ticketAll, "all", false, "Load every page")

	ticketsCreateCmd.Flags().StringVar(&ticketQueue, "queue", "", "Queue id (required)")
	ticketsCreateCmd.Flags().StringVar(&ticketCategory, "category", "", "Category id (required)")
	ticketsCreateCmd.Flags().StringVar(&ticketTitle, "title", "", "Title (required)")
	ticketsCreateCmd.Flags().StringVar(&ticketDetails, "details", "", "Details")
	ticketsCreateCmd.Flags().StringVar(&ticketPriority, "priority", string(domain.TicketPriorityMedium), "Priority: high, medium, low")
	_ = ticketsCreateCmd.MarkFlagRequired("queue")
	_ = ticketsCreateCmd.MarkFlagRequired("category")
	_ = ticketsCreateCmd.MarkFlagRequired("title")

	ticketsEditCmd.Flags().StringVar(&ticketTitle, "title", "", "New title")
	ticketsEditCmd.Flags().StringVar(&ticketDetails, "details", "", "New details")
	ticketsEditCmd.Flags().StringVar(&ticketPriority, "priority", "", "New priority")

	ticketsMoveCmd.Flags().StringVar(&ticketAssignee, "assignee", "", "Assignee to set with the move")
	ticketsMoveCmd.Flags().StringVar(&ticketNotes, "notes", "", "Closing notes")
	ticketsMoveCmd.Flags().BoolVar(&ticketClear, "clear-assignment", false, "Clear the assignee when moving to opened")
	ticketsResolveCmd.Flags().StringVar(&ticketNotes, "notes", "", "Closing notes")
	ticketsCloseCmd.Flags().StringVar(&ticketNotes, "notes", "", "Closing notes")
	ticketsReopenCmd.Flags().BoolVar(&ticketKeep, "keep-assignee", false, "Keep the current assignee")

	ticketsCmd.AddCommand(ticketsListCmd, ticketsFindCmd, ticketsShowCmd, ticketsCreateCmd, ticketsEditCmd,
		ticketsDeleteCmd, ticketsAssignCmd, ticketsUnassignCmd, ticketsMoveCmd, ticketsResolveCmd,
		ticketsCloseCmd, ticketsReopenCmd, ticketsCommentCmd, ticketsAttachCmd, ticketsDetachCmd)
	rootCmd.AddCommand(ticketsCmd)
}

// ticketFilter builds the filter from the list flags.
func ticketFilter() (search.Filter, error) {
	v := url.Values{}
	set := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}
	set("queueId", ticketQueue)
	set("categoryId", ticketCategory)
	set("status", ticketStatus)
	set("priority", ticketPriority)
	set("assignedToId", ticketAssignee)
	if ticketUnassigned {
		v.Set("unassigned", "true")
	}
	return search.ParseFilter(v)
}

func (c *console) searcher() *search.Searcher {
	limit := ticketLimit
	if limit <= 0 {
		limit = c.pageSize()
	}
	return search.NewSearcher(
		search.NewPager(c.tickets.Fetcher(c.sess), limit),
		debounce.New(c.search.Debounce()),
		c.logger,
	)
}

func ticketsListRun() error {
	c, err := getConsole()
	if err != nil {
		return err
	}
	defer c.flushNotices()

	f, err := ticketFilter()
	if err != nil {
		return err
	}
	ctx := context.Background()
	s := c.searcher()
	s.SetSearch(ctx, ticketSearch)
	if err := s.SetFilter(ctx, f); err != nil {
		return err
	}
	for ticketAll && s.Pager().HasMore() {
		ui.VerboseLog("loading page %d", s.Pager().Page()+1)
		if err := s.LoadMore(ctx); err != nil {
			return err
		}
	}
	printTickets(s.Pager())
	return nil
}

func ticketsFindRun(in io.Reader) error {
	c, err := getConsole()
	if err != nil {
		return err
	}
	defer c.flushNotices()

	f, err := ticketFilter()
	if err != nil {
		return err
	}
	ctx := context.Background()
	s := c.searcher()
	if err := s.SetFilter(ctx, f); err != nil {
		return err
	}
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		s.SetSearch(ctx, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if err := s.ExecuteNow(ctx); err != nil {
		return err
	}
	printTickets(s.Pager())
	return nil
}

func printTickets(p *search.Pager) {
	items := p.Items()
	if len(items) == 0 {
		ui.Info("No tickets match")
		return
	}
	table := ui.Table([]string{"ID", "STATUS", "PRIORITY", "ASSIGNEE", "QUEUE", "TITLE"})
	for _, t := range items {
		_ = table.Append([]string{
			t.ID,
			output.StatusColor(t.Status),
			output.PriorityColor(t.Priority),
			assignee(t),
			t.QueueID,
			t.Title,
		})
	}
	_ = table.Render()
	if p.HasMore() {
		ui.Info("Showing %d of %d; pass --all to load the rest", len(items), p.Total())
	}
}

func assignee(t domain.Ticket) string {
	if t.IsAssigned() {
		return *t.AssignedToID
	}
	return "-"
}

func ticketsShowRun(id string) error {
	c, err := getConsole()
	if err != nil {
		return err
	}
	defer c.flushNotices()

	ctx := context.Background()
	t, err := c.tickets.Get(ctx, c.sess, id)
	if err != nil {
		return err
	}
	history, err := c.tickets.History(ctx, c.sess, id)
	if err != nil {
		return err
	}
	docs, err := c.tickets.Documents(ctx, c.sess, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(ui.Out, "%s  %s\n", output.Bold(t.ID), output.Bold(t.Title))
	fmt.Fprintf(ui.Out, "  Status:    %s\n", output.StatusColor(t.Status))
	fmt.Fprintf(ui.Out, "  Priority:  %s\n", output.PriorityColor(t.Priority))
	fmt.Fprintf(ui.Out, "  Queue:     %s / %s\n", t.QueueID, t.CategoryID)
	fmt.Fprintf(ui.Out, "  Assignee:  %s\n", assignee(*t))
	fmt.Fprintf(ui.Out, "  Created:   %s by %s\n", t.CreatedAt.Format("2006-01-02 15:04"), t.CreatedByID)
	if t.ClosedAt != nil {
		fmt.Fprintf(ui.Out, "  Closed:    %s\n", t.ClosedAt.Format("2006-01-02 15:04"))
	}
	if t.ClosingNotes != nil && *t.ClosingNotes != "" {
		fmt.Fprintf(ui.Out, "  Notes:     %s\n", *t.ClosingNotes)
	}
	if t.Details != "" {
		fmt.Fprintf(ui.Out, "\n%s\n", t.Details)
	}

	if len(docs) > 0 {
		fmt.Fprintf(ui.Out, "\n%s\n", output.Cyan("Documents"))
		table := ui.Table([]string{"ID", "FILE", "SIZE"})
		for _, d := range docs {
			_ = table.Append([]string{d.ID, d.FileName, strconv.FormatInt(d.Size, 10)})
		}
		_ = table.Render()
	}
	if len(history) > 0 {
		fmt.Fprintf(ui.Out, "\n%s\n", output.Cyan("History"))
		table := ui.Table([]string{"WHEN", "TYPE", "BY", "CONTENT"})
		for _, h := range history {
			by := "-"
			if h.UserID != nil {
				by = *h.UserID
			}
			_ = table.Append([]string{h.CreatedAt.Format("2006-01-02 15:04"), string(h.Type), by, h.Content})
		}
		_ = table.Render()
	}
	return nil
}

func ticketsCreateRun() error {
	c, err := getConsole()
	if err != nil {
		return err
	}
	defer c.flushNotices()

	t, err := c.tickets.Create(context.Background(), c.sess, apiclient.CreateTicketRequest{
		QueueID:    ticketQueue,
		CategoryID: ticketCategory,
		Title:      ticketTitle,
		Details:    ticketDetails,
		Priority:   domain.TicketPriority(ticketPriority),
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(ui.Out, t.ID)
	return nil
}

// ticketsEditRun patches the fields whose flags were set.
func ticketsEditRun(id string, changed func(flag string) bool) error {
	c, err := getConsole()
	if err != nil {
		return err
	}
	defer c.flushNotices()

	var patch apiclient.UpdateTicketRequest
	if changed("title") {
		patch.Title = &ticketTitle
	}
	if changed("details") {
		patch.Details = &ticketDetails
	}
	if changed("priority") {
		priority := domain.TicketPriority(ticketPriority)
		patch.Priority = &priority
	}
	_, err = c.tickets.Update(context.Background(), c.sess, id, patch)
	return err
}

func ticketsDeleteRun(id string) error {
	c, err := getConsole()
	if err != nil {
		return err
	}
	defer c.flushNotices()
	return c.tickets.Delete(context.Background(), c.sess, id)
}

func ticketsAssignRun(id, userID string) error {
	c, err := getConsole()
	if err != nil {
		return err
	}
	defer c.flushNotices()
	_, err = c.tickets.Assign(context.Background(), c.sess, id, userID)
	return err
}

func ticketsUnassignRun(id string) error {
	c, err := getConsole()
	if err != nil {
		return err
	}
	defer c.flushNotices()
	_, err = c.tickets.Unassign(context.Background(), c.sess, id)
	return err
}

func ticketsMoveRun(id string, target domain.TicketStatus) error {
	if !target.Valid() {
		return fmt.Errorf("unknown status %q", target)
	}
	c, err := getConsole()
	if err != nil {
		return err
	}
	defer c.flushNotices()

	t, err := c.tickets.Transition(context.Background(), c.sess, id, workflow.Request{
		Target:          target,
		AssigneeID:      ticketAssignee,
		ClosingNotes:    ticketNotes,
		ClearAssignment: ticketClear,
	})
	if err != nil {
		return explain(err)
	}
	ui.VerboseLog("%s is now %s", t.ID, t.Status)
	return nil
}

func ticketsFinishRun(id string, target domain.TicketStatus) error {
	c, err := getConsole()
	if err != nil {
		return err
	}
	defer c.flushNotices()

	ctx := context.Background()
	if target == domain.TicketStatusClosed {
		_, err = c.tickets.Close(ctx, c.sess, id, ticketNotes)
	} else {
		_, err = c.tickets.Resolve(ctx, c.sess, id, ticketNotes)
	}
	return explain(err)
}

func ticketsReopenRun(id string) error {
	c, err := getConsole()
	if err != nil {
		return err
	}
	defer c.flushNotices()
	_, err = c.tickets.Reopen(context.Background(), c.sess, id, !ticketKeep)
	return explain(err)
}

func ticketsCommentRun(id, body string) error {
	c, err := getConsole()
	if err != nil {
		return err
	}
	defer c.flushNotices()
	_, err = c.tickets.AddComment(context.Background(), c.sess, id, service.CommentInput{Body: body})
	return err
}

func ticketsAttachRun(id, path string) error {
	c, err := getConsole()
	if err != nil {
		return err
	}
	defer c.flushNotices()

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	doc, err := c.tickets.AddDocument(context.Background(), c.sess, id, filepath.Base(path), f)
	if err != nil {
		return err
	}
	fmt.Fprintln(ui.Out, doc.ID)
	return nil
}

func ticketsDetachRun(id, documentID string) error {
	c, err := getConsole()
	if err != nil {
		return err
	}
	defer c.flushNotices()
	return c.tickets.RemoveDocument(context.Background(), c.sess, id, documentID)
}
