/*
Package dsl implements the storytree scripting language: tokens, lexer,
parser (producing the syntax tree of package ast) and a fluent Go Builder
for constructing stories programmatically.

A script declares one or more stories:

	story "cave" {
		title = "The Cave"
		var torch = false

		node "1" """
			You stand at the mouth of a cave.
			""" {
			option "Pick up the torch" visible !torch { torch = true }
			option "Enter" -> "inside" if torch
		}

		node "inside" "It is warm in here, {{ name }}."
	}

The same story can be built in code:

	b := dsl.New()
	b.Story("cave").Title("The Cave").Var("torch", false).
		Node("1").Text("You stand at the mouth of a cave.").
		Option("Pick up the torch").Visible("!torch").Do("torch = true").
		Option("Enter").To("inside").If("torch").
		Node("inside").Text("It is warm in here.")
	stories, err := b.Build()

Parsing only checks syntax; names and targets are resolved when the script
is evaluated by a storytree.Host.
*/
package dsl
