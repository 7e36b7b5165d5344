package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spec-kit/helpdesk-console/internal/apiclient"
	"github.com/spec-kit/helpdesk-console/internal/domain"
	"github.com/spec-kit/helpdesk-console/internal/service"
)

var (
	notifyTitle   string
	notifyMessage string
	notifyUsers   string
	notifyPage    int

	prefsUser  string
	prefsEmail bool
	prefsInApp bool

	usersSearch string
)

var queuesCmd = &cobra.Command{
	Use:   "queues",
	Short: "List queues",
	RunE: func(cmd *cobra.Command, args []string) error {
		return queuesListRun()
	},
}

var queuesListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List queues",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return queuesListRun()
	},
}

var queuesUsersCmd = &cobra.Command{
	Use:   "users <queue-id>",
	Short: "List the users who can handle a queue's tickets",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return queuesUsersRun(args[0])
	},
}

var queuesCategoriesCmd = &cobra.Command{
	Use:   "categories <queue-id>",
	Short: "List a queue's categories",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return queuesCategoriesRun(args[0])
	},
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List users",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return usersListRun()
	},
}

var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"inbox"},
	Short:   "Show your notifications",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return notificationsListRun()
	},
}

var notificationsReadCmd = &cobra.Command{
	Use:   "read [notification-id]",
	Short: "Mark one notification, or all of them, as read",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var id string
		if len(args) > 0 {
			id = args[0]
		}
		return notificationsReadRun(id)
	},
}

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Send notifications (admin)",
}

var notifyBroadcastCmd = &cobra.Command{
	Use:   "broadcast",
	Short: "Notify every user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return notifyBroadcastRun()
	},
}

var notifySendCmd = &cobra.Command{
	Use:   "send",
	Short: "Notify specific users",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return notifySendRun()
	},
}

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show notification preferences",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return prefsShowRun()
	},
}

var prefsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show notification preferences",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return prefsShowRun()
	},
}

var prefsSetCmd = &cobra.Command{
	Use:   "set <event-type>",
	Short: "Change the channels of one event type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var email, inApp *bool
		if cmd.Flags().Changed("email") {
			email = &prefsEmail
		}
		if cmd.Flags().Changed("in-app") {
			inApp = &prefsInApp
		}
		return prefsSetRun(domain.NotificationEventType(args[0]), email, inApp)
	},
}

func init() {
	queuesCmd.AddCommand(queuesListCmd, queuesUsersCmd, queuesCategoriesCmd)

	usersCmd.Flags().StringVarP(&usersSearch, "search", "s", "", "Search by name or email")

	notificationsCmd.Flags().IntVar(&notifyPage, "page", 1, "Page to show")
	notificationsCmd.AddCommand(notificationsReadCmd)

	for _, c := range []*cobra.Command{notifyBroadcastCmd, notifySendCmd} {
		c.Flags().StringVar(&notifyTitle, "title", "", "Title (required)")
		c.Flags().StringVar(&notifyMessage, "message", "", "Message (required)")
		_ = c.MarkFlagRequired("title")
		_ = c.MarkFlagRequired("message")
	}
	notifySendCmd.Flags().StringVar(&notifyUsers, "users", "", "Recipient user ids, comma separated (required)")
	_ = notifySendCmd.MarkFlagRequired("users")
	notifyCmd.AddCommand(notifyBroadcastCmd, notifySendCmd)

	prefsCmd.PersistentFlags().StringVar(&prefsUser, "user", "", "User id (default yourself; admins may pick anyone)")
	prefsSetCmd.Flags().BoolVar(&prefsEmail, "email", true, "Deliver by email")
	prefsSetCmd.Flags().BoolVar(&prefsInApp, "in-app", true, "Deliver in the app")
	prefsCmd.AddCommand(prefsShowCmd, prefsSetCmd)

	rootCmd.AddCommand(queuesCmd, usersCmd, notificationsCmd, notifyCmd, prefsCmd)
}

func queuesListRun() error {
	c, err := getConsole()
	if err != nil {
		return err
	}
	defer c.flushNotices()

	queues, err := c.queues.List(context.Background(), c.sess)
	if err != nil {
		return err
	}
	table := ui.Table([]string{"ID", "NAME", "USERS", "DESCRIPTION"})
	for _, q := range queues {
		_ = table.Append([]string{q.ID, q.Name, fmt.Sprint(len(q.UserIDs)), q.Description})
	}
	_ = table.Render()
	return nil
}

func queuesUsersRun(queueID string) error {
	c, err := getConsole()
	if err != nil {
		return err
	}
	defer c.flushNotices()

	users, err := c.queues.Users(context.Background(), c.sess, queueID)
	if err != nil {
		return err
	}
	printUsers(users)
	return nil
}

func queuesCategoriesRun(queueID string) error {
	c, err := getConsole()
	if err != nil {
		return err
	}
	defer c.flushNotices()

	cats, err := c.categories.List(context.Background(), c.sess, queueID)
	if err != nil {
		return err
	}
	table := ui.Table([]string{"ID", "NAME"})
	for _, cat := range cats {
		_ = table.Append([]string{cat.ID, cat.Name})
	}
	_ = table.Render()
	return nil
}

func usersListRun() error {
	c, err := getConsole()
	if err != nil {
		return err
	}
	defer c.flushNotices()

	page, err := c.users.List(context.Background(), c.sess, service.UserQuery{Search: usersSearch, Limit: c.pageSize()})
	if err != nil {
		return err
	}
	printUsers(page.Items)
	if page.HasMore() {
		ui.Info("Showing %d of %d users", len(page.Items), page.Total)
	}
	return nil
}

func printUsers(users []domain.User) {
	table := ui.Table([]string{"ID", "NAME", "EMAIL", "ROLE"})
	for _, u := range users {
		_ = table.Append([]string{u.ID, u.Name, u.Email, string(u.Role)})
	}
	_ = table.Render()
}

func notificationsListRun() error {
	c, err := getConsole()
	if err != nil {
		return err
	}
	defer c.flushNotices()

	page, err := c.notifications.List(context.Background(), c.sess, notifyPage, c.pageSize())
	if err != nil {
		return err
	}
	if len(page.Items) == 0 {
		ui.Info("No notifications")
		return nil
	}
	table := ui.Table([]string{"ID", "", "WHEN", "TITLE", "MESSAGE"})
	for _, n := range page.Items {
		mark := "*"
		if n.Read {
			mark = ""
		}
		_ = table.Append([]string{n.ID, mark, n.CreatedAt.Format("2006-01-02 15:04"), n.Title, n.Message})
	}
	_ = table.Render()
	return nil
}

func notificationsReadRun(id string) error {
	c, err := getConsole()
	if err != nil {
		return err
	}
	defer c.flushNotices()

	ctx := context.Background()
	if id == "" {
		return c.notifications.MarkAllRead(ctx, c.sess)
	}
	return c.notifications.MarkRead(ctx, c.sess, id)
}

func notifyBroadcastRun() error {
	c, err := getConsole()
	if err != nil {
		return err
	}
	defer c.flushNotices()

	return c.notifications.Broadcast(context.Background(), c.sess, apiclient.BroadcastRequest{Title: notifyTitle, Message: notifyMessage})
}

func notifySendRun() error {
	c, err := getConsole()
	if err != nil {
		return err
	}
	defer c.flushNotices()

	var ids []string
	for _, id := range strings.Split(notifyUsers, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	ui.VerboseLog("sending to %s", strings.Join(ids, ", "))
	return c.notifications.SendToUsers(context.Background(), c.sess, apiclient.SendToUsersRequest{UserIDs: ids, Title: notifyTitle, Message: notifyMessage})
}

func (c *console) prefsTarget() string {
	if prefsUser != "" {
		return prefsUser
	}
	return c.sess.UserID
}

func prefsShowRun() error {
	c, err := getConsole()
	if err != nil {
		return err
	}
	defer c.flushNotices()

	prefs, err := c.users.Preferences(context.Background(), c.sess, c.prefsTarget())
	if err != nil {
		return err
	}
	printPreferences(prefs)
	return nil
}

// prefsSetRun changes one row; a nil toggle keeps its current value.
func prefsSetRun(event domain.NotificationEventType, email, inApp *bool) error {
	c, err := getConsole()
	if err != nil {
		return err
	}
	defer c.flushNotices()

	ctx := context.Background()
	target := c.prefsTarget()
	current, err := c.users.Preferences(ctx, c.sess, target)
	if err != nil {
		return err
	}
	row := current.Get(event)
	if email != nil {
		row.Email = *email
	}
	if inApp != nil {
		row.InApp = *inApp
	}
	updated, err := c.users.UpdatePreferences(ctx, c.sess, target, domain.NotificationPreferences{event: row})
	if err != nil {
		return err
	}
	printPreferences(updated)
	return nil
}

func printPreferences(prefs domain.NotificationPreferences) {
	table := ui.Table([]string{"EVENT", "EMAIL", "IN-APP"})
	for _, event := range domain.NotificationEventTypes {
		row := prefs.Get(event)
		_ = table.Append([]string{string(event), onOff(row.Email), onOff(row.InApp)})
	}
	_ = table.Render()
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
