package tap

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/datazip-inc/tap-toast/drivers/abstract"
	"github.com/datazip-inc/tap-toast/protocol"
	"github.com/datazip-inc/tap-toast/utils/logger"
	"github.com/datazip-inc/tap-toast/utils/safego"
	_ "github.com/datazip-inc/tap-toast/writers/singer" // registering singer stdout writer
)

func RegisterDriver(driver abstract.DriverInterface) {
	defer safego.Recovery(true)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	safego.Go(func() {
		<-ctx.Done()
		logger.Warn("Received shutdown signal, stopping after the current request")
	})

	// Execute the root command
	err := protocol.CreateRootCommand(true, driver).ExecuteContext(ctx)
	if err != nil {
		logger.Fatal(err)
	}

	os.Exit(0)
}
