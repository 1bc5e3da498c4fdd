package runtime

import "context"

// publishProcessor returns a processor that expands arg's string fields and
// hands the resulting message to pub, addressed by arg.server and, when
// present, arg.names.
//
// arg is deep-copied before expansion so one pipeline's `publish` step
// stays reusable across events instead of rewriting its own arg map in
// place.
func publishProcessor(pub Publisher) Processor {
	return func(_ context.Context, c *Context, arg any) error {
		raw, ok := arg.(map[string]any)
		if !ok {
			c.SetOK(false)
			return newProcessorError(c.Name(), "publish", "arg is not a map", nil)
		}
		copied := deepCopyValue(raw).(map[string]any)

		server, _ := copied["server"].(string)
		if server == "" {
			c.SetOK(false)
			return newProcessorError(c.Name(), "publish", "missing server", nil)
		}
		delete(copied, "server")

		var names []string
		if rawNames, ok := copied["names"]; ok {
			names = namesFromArg(rawNames)
		}
		delete(copied, "names")

		fields := c.All()
		message := make(map[string]any, len(copied))
		for k, v := range copied {
			if s, ok := v.(string); ok {
				message[k] = ExpandTemplate(s, fields)
			} else {
				message[k] = v
			}
		}

		if err := pub.Publish(server, message, names); err != nil {
			c.SetOK(false)
			return newProcessorError(c.Name(), "publish", "dispatch", err)
		}
		return nil
	}
}
