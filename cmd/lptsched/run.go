package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"k8s.io/klog/v2"

	"github.com/g-uva/makespan-scheduler/pkg/benchmark"
	"github.com/g-uva/makespan-scheduler/pkg/config"
	"github.com/g-uva/makespan-scheduler/pkg/core"
	"github.com/g-uva/makespan-scheduler/pkg/generator"
	"github.com/g-uva/makespan-scheduler/pkg/loader"
	"github.com/g-uva/makespan-scheduler/pkg/metrics"
)

func run(ctx context.Context, cfg *config.Config) error {
	reg := prometheus.NewRegistry()
	rec := metrics.NewRecorder(reg)
	if cfg.Metrics.Addr != "" {
		srv := metrics.StartPrometheusServer(cfg.Metrics.Addr, reg)
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(sctx)
		}()
	}

	out, closeOut, err := openReport(cfg.Output.ReportPath)
	if err != nil {
		return err
	}
	defer closeOut()

	r, err := newRunner(cfg, rec, out)
	if err != nil {
		return err
	}

	if cfg.Rounds.Cron == "" {
		if err := r.round(ctx); err != nil {
			return err
		}
		return r.benchmark(ctx)
	}

	c := cron.New(cron.WithLogger(cronLogger{}))
	if _, err := c.AddJob(cfg.Rounds.Cron, roundJob(func() {
		if err := r.round(ctx); err != nil {
			klog.ErrorS(err, "Scheduling round failed")
		}
	})); err != nil {
		return errors.Wrapf(err, "schedule rounds %q", cfg.Rounds.Cron)
	}
	klog.InfoS("Running scheduling rounds", "cron", cfg.Rounds.Cron, "continueLoad", cfg.Rounds.ContinueLoad)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// roundJob skips a tick while the previous round is still dispatching, so
// batches of two rounds never share a Dispatch.
func roundJob(fn func()) cron.Job {
	return cron.NewChain(cron.SkipIfStillRunning(cronLogger{})).Then(cron.FuncJob(fn))
}

// cronLogger routes cron's logging through klog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	klog.V(2).InfoS(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	klog.ErrorS(err, msg, keysAndValues...)
}

func openReport(path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "create report")
	}
	return f, func() { f.Close() }, nil
}

// runner owns one CentralUnit per configured strategy.
type runner struct {
	cfg   *config.Config
	rec   core.Recorder
	out   io.Writer
	units []*core.CentralUnit

	// rng feeds generated batches; seeded once so rounds differ.
	rng *rand.Rand
	// last batch dispatched, reused by benchmark
	jobs  []core.Workload
	nodes []core.Node
}

func newRunner(cfg *config.Config, rec core.Recorder, out io.Writer) (*runner, error) {
	r := &runner{cfg: cfg, rec: rec, out: out, rng: cfg.Generate.Rand()}
	for _, name := range cfg.Strategies {
		s, err := newStrategy(name, rec)
		if err != nil {
			return nil, err
		}
		cu := core.NewCentralUnit(s)
		cu.ContinueLoad = cfg.Rounds.ContinueLoad
		r.units = append(r.units, cu)
	}
	return r, nil
}

func newStrategy(name string, rec core.Recorder) (core.Strategy, error) {
	switch name {
	case core.LPTName:
		return core.NewScheduler(core.WithRecorder(rec)), nil
	case core.RoundRobinName:
		rr := core.NewRoundRobin()
		rr.Recorder = rec
		return rr, nil
	}
	return nil, errors.Errorf("unknown strategy %q", name)
}

// round loads a fresh batch and dispatches it through every unit.
func (r *runner) round(ctx context.Context) error {
	jobs, nodes, err := loadBatch(ctx, r.cfg, r.rng)
	if err != nil {
		return err
	}
	r.jobs, r.nodes = jobs, nodes
	for _, cu := range r.units {
		cu.SetResources(core.Nodes(nodes)...)
		cu.SubmitJobs(core.Workloads(jobs)...)
		plan, err := cu.Dispatch()
		if err != nil {
			return errors.WithMessagef(err, "strategy %s", cu.Strategy.Name())
		}
		if len(r.units) > 1 {
			fmt.Fprintf(r.out, "# %s makespan=%.6f\n", plan.Strategy, plan.Makespan())
		}
		if err := core.WriteReport(r.out, plan); err != nil {
			return errors.Wrap(err, "write report")
		}
		if klog.V(1).Enabled() {
			cu.WriteDecisionTable(os.Stderr)
		}
	}
	return nil
}

// benchmark compares the strategies side by side when more than one is
// configured.
func (r *runner) benchmark(ctx context.Context) error {
	if len(r.units) < 2 || r.cfg.Output.ResultsDir == "" {
		return nil
	}
	jobs, nodes := r.jobs, r.nodes
	if nodes == nil {
		var err error
		if jobs, nodes, err = loadBatch(ctx, r.cfg, r.rng); err != nil {
			return err
		}
	}
	strategies := make([]core.Strategy, 0, len(r.cfg.Strategies))
	for _, name := range r.cfg.Strategies {
		s, err := newStrategy(name, nil)
		if err != nil {
			return err
		}
		strategies = append(strategies, s)
	}
	ba := benchmark.NewAdapter(strategies...)
	if err := ba.Run(core.Workloads(jobs), core.Nodes(nodes)); err != nil {
		return err
	}
	ba.WriteSummary(os.Stderr)
	_, err := ba.ExportToCSV(r.cfg.Output.ResultsDir)
	return err
}

// loadBatch reads jobs and resources from CSV or GCS, generating whichever
// side has no source configured by drawing from rng.
func loadBatch(ctx context.Context, cfg *config.Config, rng *rand.Rand) ([]core.Workload, []core.Node, error) {
	var (
		jobs  []core.Workload
		nodes []core.Node
		err   error
	)
	switch {
	case cfg.Input.GCSBucket != "":
		jobs, err = loader.FetchJobsFromGCS(ctx, cfg.Input.GCSBucket, cfg.Input.JobsCSV)
	case cfg.Input.JobsCSV != "":
		jobs, err = loader.LoadJobsFromCSV(cfg.Input.JobsCSV)
	default:
		jobs = generator.RandomJobs(rng, cfg.Generate.Jobs, cfg.Generate.MaxLength)
	}
	if err != nil {
		return nil, nil, err
	}

	if cfg.Input.ResourcesCSV != "" {
		nodes, err = loader.LoadResourcesFromCSV(cfg.Input.ResourcesCSV)
	} else {
		nodes = generator.RandomResources(rng, cfg.Generate.Resources)
	}
	if err != nil {
		return nil, nil, err
	}
	klog.V(1).InfoS("Loaded batch", "jobs", len(jobs), "resources", len(nodes))
	return jobs, nodes, nil
}
