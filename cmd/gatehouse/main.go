// Command gatehouse runs the Gatehouse PDP/PIP server and its admin CLI.
package main

import "github.com/gatehousehq/gatehouse/cmd/gatehouse/cmd"

func main() {
	cmd.Execute()
}
