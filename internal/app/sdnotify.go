package app

import (
	"fmt"

	"github.com/coreos/go-systemd/v22/daemon"

	"github.com/DD477/homework-bot/internal/eventbus"
	logx "github.com/DD477/homework-bot/pkg/logx"
)

// sdNotify is daemon.SdNotify; tests swap it out.
var sdNotify = daemon.SdNotify

// notifySystemd sends one sd_notify state. Outside systemd it does nothing.
func (a *App) notifySystemd(state string) {
	sent, err := sdNotify(false, state)
	if err != nil {
		a.log.Warn("sd_notify failed", logx.String("state", state), logx.Err(err))
		return
	}
	if sent {
		a.log.Debug("sd_notify sent", logx.String("state", state))
	}
}

// statusLine renders a poll event as a systemd STATUS= line; ok is false for
// events that do not change the status.
func statusLine(e eventbus.Event) (string, bool) {
	switch e.Type {
	case eventbus.TypePollOK:
		r, _ := e.Data.(eventbus.PollResult)
		return fmt.Sprintf("STATUS=last poll ok at %s, %d submission(s), cursor %d",
			e.Time.Format("15:04:05"), r.Submissions, r.Cursor), true
	case eventbus.TypePollFailed:
		r, _ := e.Data.(eventbus.PollResult)
		return fmt.Sprintf("STATUS=last poll failed at %s: %s", e.Time.Format("15:04:05"), r.Error), true
	case eventbus.TypeStatusChanged:
		c, _ := e.Data.(eventbus.StatusChange)
		return fmt.Sprintf("STATUS=%s is %s", c.Name, c.Status), true
	default:
		return "", false
	}
}
