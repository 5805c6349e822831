/*
Package storytree evaluates branching narratives written in a small story
DSL and plays them.

A script declares one or more stories. Each story is a tree of nodes
(narrative beats) connected by options (the reader's choices). Evaluation
happens through an explicitly created Host and yields fully materialized
story.Story values; runtime code (node text, conditions, actions) is kept
as a syntax tree and evaluated by a Player as the reader moves through the
story.

# Scripts

	story "cave" {
		title = "The Cave"
		var torch = false

		node "entrance" "You stand at the mouth of a cave." {
			option "Take the torch" visible !torch { torch = true }
			option "Enter" -> "inside" if torch
		}

		node "inside" "It is warm inside."
	}

Plain text stories (.story.txt) are supported too, see package txtstory.

# Usage

	host := storytree.New(storytree.WithLogger(logger))
	defer host.Close()

	stories, err := host.EvaluateFile(ctx, "cave.story")
	if err != nil {
		var evalErr *story.EvaluationError
		if errors.As(err, &evalErr) {
			fmt.Println(evalErr.Report())
		}
		return err
	}

	player, _ := host.NewPlayer(stories[0])
	state, _ := player.Start(ctx, "session-1")
	for {
		actions, terminal, err := player.Render(ctx, state)
		// show actions ...
		if terminal {
			break
		}
		state, err = player.Navigate(ctx, state, 1)
	}

The library has no dependency on terminals or HTTP; those live in the
adapters and in cmd/storytree.
*/
package storytree
