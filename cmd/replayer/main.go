package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/valyala/fasthttp"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/vehicle-tracker/internal/adapters/httpclient"
	natsadapter "github.com/samirrijal/vehicle-tracker/internal/adapters/nats"
	"github.com/samirrijal/vehicle-tracker/internal/core/playback"
	"github.com/samirrijal/vehicle-tracker/internal/core/ports"
	"github.com/samirrijal/vehicle-tracker/internal/pkg/config"
	"github.com/samirrijal/vehicle-tracker/internal/pkg/logging"
	"github.com/samirrijal/vehicle-tracker/internal/workflows"
)

func main() {
	cmd := "worker"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	cfg, err := config.Load("vehicle-tracker-replayer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    slog.Default(),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	switch cmd {
	case "worker":
		runWorker(c, cfg)
	case "start":
		startReplay(c, cfg)
	default:
		log.Fatalf("usage: replayer <worker|start>")
	}
}

func runWorker(c client.Client, cfg *config.Config) {
	provider := httpclient.New(cfg.Playback.SourceURL, &fasthttp.Client{Name: "vehicle-tracker-replayer"})

	var publisher ports.FramePublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, frames will only be logged", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.ReplayWorkflow)
	w.RegisterActivity(&workflows.ReplayActivities{
		Provider:  provider,
		Publisher: publisher,
	})

	slog.Info("replayer worker started", "task_queue", cfg.Temporal.TaskQueue, "source", cfg.Playback.SourceURL)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

func startReplay(c client.Client, cfg *config.Config) {
	opts := client.StartWorkflowOptions{
		ID:        fmt.Sprintf("replay-%s", cfg.Playback.VehicleID),
		TaskQueue: cfg.Temporal.TaskQueue,
	}
	input := workflows.ReplayInput{
		VehicleID: cfg.Playback.VehicleID,
		Interval:  cfg.Playback.Interval,
		Pattern:   playback.Pattern{Offset: cfg.Render.ArrowOffset, Repeat: cfg.Render.ArrowRepeat},
	}

	run, err := c.ExecuteWorkflow(context.Background(), opts, workflows.ReplayWorkflow, input)
	if err != nil {
		log.Fatalf("start workflow: %v", err)
	}
	slog.Info("replay started", "workflow_id", run.GetID(), "run_id", run.GetRunID())

	var res workflows.ReplayResult
	if err := run.Get(context.Background(), &res); err != nil {
		log.Fatalf("replay failed: %v", err)
	}
	slog.Info("replay finished", "records", res.Records, "cursor", res.Cursor, "phase", res.Phase, "published", res.Published)
}
