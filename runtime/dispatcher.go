package runtime

import (
	"fmt"

	"nasagent/runtime/notify"
)

// MultiDispatcher implements Publisher by routing each publish call to the
// named dove instance it addresses. An agent manifest may declare more
// than one `dove`-typed agent, each with its own channel set; server
// selects among them.
type MultiDispatcher struct {
	doves map[string]*notify.Dispatcher
}

func NewMultiDispatcher(doves map[string]*notify.Dispatcher) *MultiDispatcher {
	return &MultiDispatcher{doves: doves}
}

func (m *MultiDispatcher) Publish(server string, message map[string]any, names []string) error {
	d, ok := m.doves[server]
	if !ok {
		return fmt.Errorf("dove %q not found", server)
	}
	return d.Publish(message, names)
}
