package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/ethereum/go-ethereum/log"
	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	testengine "github.com/ethereum-optimism/infra/op-testengine"
	"github.com/ethereum-optimism/infra/op-testengine/exitcodes"
	"github.com/ethereum-optimism/infra/op-testengine/flags"
	"github.com/ethereum-optimism/infra/op-testengine/service"
	"github.com/ethereum-optimism/optimism/devnet-sdk/telemetry"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
	"github.com/ethereum-optimism/optimism/op-service/ctxinterrupt"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := newApp()

	// Start telemetry
	ctx, shutdown, err := telemetry.SetupOpenTelemetry(
		context.Background(),
		otelconfig.WithServiceName(app.Name),
		otelconfig.WithServiceVersion(app.Version),
	)
	if err != nil {
		log.Crit("Failed to setup open telemetry", "message", err)
	}
	defer shutdown()

	// Start CLI
	ctx = ctxinterrupt.WithSignalWaiterMain(ctx)
	err = app.RunContext(ctx, os.Args)
	if err != nil {
		log.Crit("Application failed", "message", err)
	}
}

func newApp() *cli.App {
	var svc *service.Service

	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "op-testengine"
	app.Usage = "Test Execution Engine Service"
	app.Description = "op-testengine runs planned go test trees and reports their outcomes"
	app.Flags = cliapp.ProtectFlags(flags.Flags)
	app.Before = func(ctx *cli.Context) error {
		svc = service.New(serviceConfig(ctx))
		svc.Start(ctx.Context)
		return nil
	}
	app.After = func(*cli.Context) error {
		if svc != nil {
			svc.Shutdown()
		}
		return nil
	}
	app.Action = cliapp.LifecycleCmd(run)
	app.ExitErrHandler = func(c *cli.Context, err error) {
		if err == nil {
			return
		}
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			cli.HandleExitCoder(exitErr)
			return
		}
		cli.HandleExitCoder(cli.Exit(err.Error(), exitCode(err)))
	}
	return app
}

// exitCode maps typed errors to process exit codes. Unknown errors count
// as test failures.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitcodes.Success
	case testengine.IsRuntimeError(err):
		return exitcodes.RuntimeErr
	default:
		return exitcodes.TestFailure
	}
}

// serviceConfig places the metrics server on the address given by the
// standard metrics flags.
func serviceConfig(ctx *cli.Context) service.Config {
	metricsCfg := opmetrics.ReadCLIConfig(ctx)
	return service.Config{
		MetricsAddr:    net.JoinHostPort(metricsCfg.ListenAddr, strconv.Itoa(metricsCfg.ListenPort)),
		MetricsEnabled: metricsCfg.Enabled,
	}
}

func run(ctx *cli.Context, closeApp context.CancelCauseFunc) (cliapp.Lifecycle, error) {
	logCfg := oplog.ReadCLIConfig(ctx)
	log := oplog.NewLogger(oplog.AppOut(ctx), logCfg)
	oplog.SetGlobalLogHandler(log.Handler())
	oplog.SetupDefaults()

	cfg, err := testengine.NewConfig(
		ctx,
		log,
		ctx.String(flags.TestDir.Name),
		ctx.String(flags.Plan.Name),
		ctx.String(flags.Gate.Name),
	)
	if err != nil {
		// Wrap in RuntimeError to signal this should exit with code 2
		return nil, testengine.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}

	cfg.Log.Debug("Config", "config", cfg)

	engine, err := testengine.New(ctx.Context, cfg, Version, closeApp)
	if err != nil {
		return nil, testengine.NewRuntimeError(fmt.Errorf("failed to create test engine: %w", err))
	}

	return engine, nil
}
