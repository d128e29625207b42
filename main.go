/*
Copyright © 2026 James Lawson (jpl-au) <hello@caelisco.net>
*/
package main

import (
	"github.com/jpl-au/dock/cmd"

	// Import docks - each registers itself via init()
	_ "github.com/jpl-au/dock/extension/all"
)

func main() {
	cmd.Execute()
}
