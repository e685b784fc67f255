/*
Package domain contains the core models shared by the metta shell components.

It is kept free of I/O, terminal and engine dependencies so that the session
loop, the engine adapters and the persistence adapters can all speak the same
vocabulary.

# Key Entities

  - InputUnit: one complete, balanced expression ready for evaluation.
  - Outcome: the tagged result of evaluating one InputUnit (values, engine
    error, cancellation, abandonment or a fatal adapter failure).
  - EngineError: a structured engine failure with an optional source location.
  - ExitError: carries a process exit code from bootstrap to main.
*/
package domain
