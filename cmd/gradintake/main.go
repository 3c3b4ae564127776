package main

import (
	"gradintake/cmd/gradintake/commands"
	"gradintake/lib/serviceutil"
	"gradintake/lib/telemetry"
)

func main() {
	ctx := serviceutil.SignalContext()
	telemetry.InitSlog(false)
	tel, err := telemetry.SetupFromEnv(ctx, "gradintake")
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	defer tel.Shutdown(ctx)

	commands.ExecuteContext(ctx)
}
