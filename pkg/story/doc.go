/*
Package story is the core API of storytree.

It defines the story tree produced by an evaluation (Story, Node, Option,
Edge), the capability interfaces a reader application implements to let
scripts interact with the reader (BaseEngine, ResourceEngine, CommonEngine),
the shared Environment and the error taxonomy (EvaluationError and friends).

The package has no dependency on any presentation layer: terminal, HTTP and
MCP front-ends consume it, never the other way round.
*/
package story
