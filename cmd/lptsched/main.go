package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"k8s.io/klog/v2"

	"github.com/g-uva/makespan-scheduler/pkg/config"
)

func main() {
	klog.InitFlags(nil)

	var (
		configPath   = flag.String("config", "", "path to a JSON config file")
		jobsCSV      = flag.String("jobs-csv", "", "job CSV (id,length[,tag[,vm]]); generated when empty")
		resourcesCSV = flag.String("resources-csv", "", "resource CSV (id,pes,mips); generated when empty")
		gcsBucket    = flag.String("gcs-bucket", "", "read -jobs-csv as an object in this GCS bucket")
		strategies   = flag.String("strategies", "", "comma-separated strategies: lpt, round-robin")
		report       = flag.String("report", "", `assignment report path, "-" for stdout`)
		resultsDir   = flag.String("results-dir", "", "directory for benchmark CSVs")
		metricsAddr  = flag.String("metrics-addr", "", "serve prometheus metrics on this address")
		cronSpec     = flag.String("cron", "", `repeat rounds on this schedule, e.g. "@every 30s"`)
		continueLoad = flag.Bool("continue-load", false, "carry committed load from one round into the next")
	)
	flag.Parse()
	defer klog.Flush()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			klog.ErrorS(err, "Failed to load config")
			klog.FlushAndExit(klog.ExitFlushTimeout, 1)
		}
	}

	// explicitly set flags win over the file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "jobs-csv":
			cfg.Input.JobsCSV = *jobsCSV
		case "resources-csv":
			cfg.Input.ResourcesCSV = *resourcesCSV
		case "gcs-bucket":
			cfg.Input.GCSBucket = *gcsBucket
		case "strategies":
			cfg.Strategies = strings.Split(*strategies, ",")
		case "report":
			cfg.Output.ReportPath = *report
		case "results-dir":
			cfg.Output.ResultsDir = *resultsDir
		case "metrics-addr":
			cfg.Metrics.Addr = *metricsAddr
		case "cron":
			cfg.Rounds.Cron = *cronSpec
		case "continue-load":
			cfg.Rounds.ContinueLoad = *continueLoad
		}
	})
	if err := cfg.Validate(); err != nil {
		klog.ErrorS(err, "Invalid configuration")
		klog.FlushAndExit(klog.ExitFlushTimeout, 1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		klog.ErrorS(err, "Scheduler run failed")
		klog.FlushAndExit(klog.ExitFlushTimeout, 1)
	}
}
