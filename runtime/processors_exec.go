package runtime

import (
	"bufio"
	"context"
	"log/slog"
	"os/exec"
	"time"
)

// executeProcessor returns a processor that expands each argv element with
// context fields and spawns a subprocess with the resulting vector, no
// shell involved. It captures one line of stdout for logging and sets _ok
// from the exit code.
func executeProcessor(l *slog.Logger) Processor {
	return func(ctx context.Context, c *Context, arg any) error {
		raw, ok := arg.([]any)
		if !ok || len(raw) == 0 {
			c.SetOK(false)
			return nil
		}

		fields := c.All()
		argv := make([]string, 0, len(raw))
		for _, e := range raw {
			s, ok := e.(string)
			if !ok {
				c.SetOK(false)
				return newProcessorError(c.Name(), "execute", "argv element is not a string", nil)
			}
			argv = append(argv, ExpandTemplate(s, fields))
		}

		cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			c.SetOK(false)
			return newProcessorError(c.Name(), "execute", "attach stdout", err)
		}

		start := time.Now()
		if err := cmd.Start(); err != nil {
			c.SetOK(false)
			return newProcessorError(c.Name(), "execute", "start", err)
		}

		var firstLine string
		scanner := bufio.NewScanner(stdout)
		if scanner.Scan() {
			firstLine = scanner.Text()
		}

		err = cmd.Wait()
		elapsed := time.Since(start)
		exitCode := 0
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else if err != nil {
			exitCode = -1
		}

		l.Info("execute", "argv", argv, "exit_code", exitCode, "elapsed", elapsed, "stdout", firstLine)
		c.SetOK(exitCode == 0)
		return nil
	}
}
