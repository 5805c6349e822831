/*
Package runner implements the interactive reading loop of a story.

It is the bridge between a stateless player and a reader: it renders the
current node through a pluggable IOHandler, reads the reader's choice,
navigates and, when sessions are configured, persists every step so a
reading can be resumed later.

# Key Components

  - Runner: the render, choose, navigate loop.
  - IOHandler: decouples how content is shown and choices are read.
  - TextHandler: interactive terminal usage.
  - JSONHandler: JSON-Lines for automation and tests.

# Usage

	r := runner.NewRunner(
		runner.WithSessions(session.NewManager(store)),
		runner.WithSessionID("reader-1"),
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)

	if _, err := r.Run(ctx, player); err != nil {
		log.Fatal(err)
	}
*/
package runner
