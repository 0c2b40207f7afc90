package main

import (
	"context"

	"robotorder/cmd/robotorder/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
