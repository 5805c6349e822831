// Command storytree reads, checks and serves branching stories.
package main

func main() {
	Execute()
}
