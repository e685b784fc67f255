/*
Package runner implements the session loop of the metta shell.

It is the bridge between the user and the Engine Adapter: it reads raw lines
through a ports.LineReader, accumulates them into complete input units,
dispatches each unit under the cancellation controller, renders the outcome
and records the unit in the history log.

# Key Components

  - Runner: the session loop (interactive Run, or RunBatch for scripts).
  - LinerReader: line editing for terminals, Ctrl-C aborts the current line.
  - PumpReader: reads pipes and files on a background goroutine so that a
    pending read can be abandoned when the token is cancelled.
  - TextRenderer and JSONRenderer: how outcomes are printed.

# Usage

	r := runner.NewRunner(
		runner.WithEngine(engine),
		runner.WithReader(runner.NewPumpReader(os.Stdin, os.Stdout)),
		runner.WithController(controller),
		runner.WithHistory(log),
	)

	if err := r.Run(ctx); err != nil {
		os.Exit(domain.ExitCode(err))
	}
*/
package runner
