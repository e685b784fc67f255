/*
Package metta is an interactive shell for the MeTTa symbolic language.

The shell reads expressions, accumulates multi-line input until parentheses
balance, evaluates each complete unit on an Engine Adapter and prints the
results. A Ctrl-C while an evaluation runs cancels that evaluation and keeps
the session; a Ctrl-C at the prompt discards the pending input.

Two mutually exclusive adapters exist and exactly one is compiled in:

  - native (default): the engine runs in-process.
  - hosted (build tag "hosted"): the engine runs inside an embedded
    JavaScript runtime through a bundled, versioned library.

# Usage

The shell is normally used through the metta command. The root package gives
programs the compiled-in adapter:

	engine, err := metta.New()
	if err != nil {
		log.Fatal(err)
	}
	defer engine.Close()

	out := engine.Evaluate(ctx, domain.NewInputUnit("!(+ 1 2)"))
	fmt.Println(out.Results) // [[3]]
*/
package metta
