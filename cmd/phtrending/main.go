package main

import (
	"phtrending/cmd/phtrending/commands"
	"phtrending/lib/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
