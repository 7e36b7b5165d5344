package output

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/helpdesk-console/internal/domain"
	"github.com/spec-kit/helpdesk-console/internal/events"
)

func newTestUI() (*UI, *bytes.Buffer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &UI{Out: out, ErrOut: errOut}, out, errOut
}

func TestMessagesGoToTheRightWriter(t *testing.T) {
	u, out, errOut := newTestUI()
	u.Info("hello %s", "world")
	u.Success("done %d", 42)
	u.Warning("careful %s", "now")
	u.Error("failed %s", "badly")

	assert.Contains(t, out.String(), "hello world")
	assert.Contains(t, out.String(), "done 42")
	assert.Contains(t, errOut.String(), "careful now")
	assert.Contains(t, errOut.String(), "failed badly")
}

func TestVerboseLog(t *testing.T) {
	u, out, _ := newTestUI()
	u.VerboseLog("hidden")
	assert.Empty(t, out.String())

	u.Verbose = true
	u.VerboseLog("detail %d", 1)
	assert.Contains(t, out.String(), "detail 1")
}

func TestNoticeSkipsErrors(t *testing.T) {
	u, out, errOut := newTestUI()
	u.Notice(events.Notice{Level: events.NoticeSuccess, Message: "Ticket assigned"})
	u.Notice(events.Notice{Level: events.NoticeWarning, Message: "history not recorded"})
	u.Notice(events.Notice{Level: events.NoticeError, Message: "boom"})

	assert.Contains(t, out.String(), "Ticket assigned")
	assert.Contains(t, errOut.String(), "history not recorded")
	assert.NotContains(t, errOut.String(), "boom")
}

func TestColorsKeepText(t *testing.T) {
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	assert.Equal(t, "in-progress", StatusColor(domain.TicketStatusInProgress))
	assert.Equal(t, "high", PriorityColor(domain.TicketPriorityHigh))
	assert.Equal(t, "weird", StatusColor("weird"))
}

func TestTable(t *testing.T) {
	u, out, _ := newTestUI()
	table := u.Table([]string{"ID", "Title"})
	_ = table.Append([]string{"T1", "VPN down"})
	_ = table.Render()

	assert.Contains(t, out.String(), "VPN down")
	assert.Contains(t, out.String(), "T1")
}
