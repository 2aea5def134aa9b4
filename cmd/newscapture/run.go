package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pevans/newscapture/capture"
	"github.com/spf13/cobra"
)

// shutdownTimeout bounds how long watch waits for the current round after
// a termination signal.
const shutdownTimeout = 60 * time.Second

var runCmd = &cobra.Command{
	Use:   "run [site...]",
	Short: "Capture every article on each site's homepage once",
	Long: `Run one capture session per site. With no arguments the sites listed in the
config (or every supported site) are captured.`,
	RunE: runCapture,
}

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [site...]",
	Short: "Capture the sites now and then again at every interval",
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "Time between rounds (default from config, 6h)")
}

func runCapture(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config, err := a.serviceConfig(ctx, args)
	if err != nil {
		return err
	}

	reports, err := capture.NewService(config).RunOnce(ctx)
	for _, report := range reports {
		printReport(os.Stdout, report)
	}
	return err
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	config, err := a.serviceConfig(ctx, args)
	if err != nil {
		return err
	}
	if watchInterval > 0 {
		config.Interval = watchInterval
	}
	service := capture.NewService(config)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- service.Run(ctx)
	}()

	select {
	case sig := <-sigChan:
		a.logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()
		service.Stop()

		shutdownTimer := time.NewTimer(shutdownTimeout)
		defer shutdownTimer.Stop()
		select {
		case <-errChan:
			a.logger.Info("service stopped")
		case <-shutdownTimer.C:
			return fmt.Errorf("shutdown timeout exceeded")
		}
		return nil
	case err := <-errChan:
		return err
	}
}
