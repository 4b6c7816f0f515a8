package source

import tea "github.com/charmbracelet/bubbletea"

// Closed reports that a subscription's stream has ended. Err carries a
// setup or finalization failure, nil on a clean close.
type Closed[M any] struct {
	Err error
}

// Listen returns a command that waits for the subscription's next
// message and yields it into the update loop. Re-issue the command
// after handling each message to keep receiving, the same way a
// continuous pub/sub listener is re-armed. When the stream ends the
// command yields Closed[M].
func Listen[M any](sub *Subscription[M]) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-sub.Msgs()
		if !ok {
			return Closed[M]{Err: sub.Err()}
		}
		return msg
	}
}
