package storytree_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/storytree"
	"github.com/aretw0/storytree/pkg/domain"
)

func ExampleHost_Evaluate() {
	host := storytree.New()
	defer host.Close()

	ctx := context.Background()
	stories, err := host.Evaluate(ctx, "door.story", `
story "door" {
	node "hall" "A closed door." {
		option "Open it" -> "room"
	}
	node "room" "An empty room."
}
`)
	if err != nil {
		log.Fatal(err)
	}

	player, err := host.NewPlayer(stories[0])
	if err != nil {
		log.Fatal(err)
	}
	state, err := player.Start(ctx, "example")
	if err != nil {
		log.Fatal(err)
	}

	actions, _, err := player.Render(ctx, state)
	if err != nil {
		log.Fatal(err)
	}
	for _, action := range actions {
		fmt.Printf("Action: %s\n", action.Type)
	}

	state, err = player.Navigate(ctx, state, "Open it")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Current Node: %s\n", state.CurrentNodeID)
	fmt.Printf("Done: %v\n", state.Status == domain.StatusTerminated)
	// Output:
	// Action: RENDER_CONTENT
	// Action: REQUEST_CHOICE
	// Current Node: room
	// Done: true
}
