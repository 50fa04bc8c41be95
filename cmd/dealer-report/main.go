package main

import (
	"spidervision-report/cmd/dealer-report/commands"
	"spidervision-report/lib/serviceutil"
)

func main() {
	ctx, cancel := serviceutil.SignalContext()
	defer cancel()
	commands.ExecuteContext(ctx)
}
