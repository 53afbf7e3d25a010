// Package main provides the entry point for the AetherScript resource
// verifier. It reads compiled scope files, verifies every function's
// resource lifecycle and reports leaks, release errors, contract
// violations and optimization opportunities.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/google/gops/agent"
	"github.com/viant/gmetric"

	"github.com/aether-lang/aether/internal/config"
	"github.com/aether-lang/aether/internal/diagnostics"
	"github.com/aether-lang/aether/internal/resource"
	"github.com/aether-lang/aether/internal/scopefile"
	"github.com/aether-lang/aether/internal/watch"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

const metricsURI = "/v1/metrics"

func main() {
	var (
		showVersion = flag.Bool("version", false, "show version information")
		showHelp    = flag.Bool("help", false, "show help information")
		configPath  = flag.String("config", "", "configuration file (default: discover "+config.DefaultPath+")")
		jsonOut     = flag.Bool("json", false, "emit the report as JSON")
		sexpOut     = flag.Bool("sexp", false, "emit the report as an S-expression")
		strict      = flag.Bool("strict", false, "treat warnings as failures")
		verbose     = flag.Bool("verbose", false, "print derived cleanup plans")
		noColor     = flag.Bool("no-color", false, "disable colored output")
		watchMode   = flag.Bool("watch", false, "re-verify scope files whenever they change")
		metricsAddr = flag.String("metrics", "", "serve verification metrics over HTTP on this address")
		debugAgent  = flag.Bool("debug", false, "start a gops diagnostics agent")
	)

	flag.Parse()

	if *showVersion {
		fmt.Printf("Aether Resource Verifier v%s (%s)\n", version, commit)
		return
	}
	if *showHelp {
		showUsage()
		return
	}

	files := flag.Args()
	if len(files) == 0 {
		fmt.Println("Error: no scope files specified")
		showUsage()
		os.Exit(1)
	}
	if *jsonOut && *sexpOut {
		log.Fatal("choose one of -json or -sexp")
	}
	if *noColor {
		color.NoColor = true
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Configuration failed: %v", err)
	}

	if *debugAgent {
		go func() {
			if err := agent.Listen(agent.Options{}); err != nil {
				log.Fatal(err)
			}
		}()
	}

	var metrics *resource.Metrics
	if *metricsAddr != "" {
		metrics = resource.NewMetrics()
		go serveMetrics(*metricsAddr, metrics)
	}

	runner := &runner{
		cfg:     cfg,
		metrics: metrics,
		json:    *jsonOut,
		sexp:    *sexpOut,
		verbose: *verbose,
		strict:  *strict || cfg.Strict,
	}

	failed := false
	for _, path := range files {
		if runner.verify(path) {
			failed = true
		}
	}

	if *watchMode {
		if err := runner.watch(files); err != nil {
			log.Fatalf("Watch failed: %v", err)
		}
		return
	}
	if failed {
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println("Aether Resource Verifier - deterministic resource lifecycle checking")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("    aether-resource-check [OPTIONS] <SCOPE_FILE>...")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("    --version     Show version information")
	fmt.Println("    --help        Show this help message")
	fmt.Println("    --config      Configuration file (default: discover " + config.DefaultPath + ")")
	fmt.Println("    --json        Emit the report as JSON")
	fmt.Println("    --sexp        Emit the report as an S-expression")
	fmt.Println("    --strict      Treat warnings as failures")
	fmt.Println("    --verbose     Print derived cleanup plans")
	fmt.Println("    --no-color    Disable colored output")
	fmt.Println("    --watch       Re-verify scope files whenever they change")
	fmt.Println("    --metrics     Serve verification metrics over HTTP on this address")
	fmt.Println("    --debug       Start a gops diagnostics agent")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("    aether-resource-check build/main.arsc.json")
	fmt.Println("    aether-resource-check --strict --json build/*.arsc.json")
	fmt.Println("    aether-resource-check --watch --verbose build/main.arsc.json")
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.Discover()
}

func serveMetrics(addr string, metrics *resource.Metrics) {
	mux := http.NewServeMux()
	mux.Handle(metricsURI+"/", gmetric.NewHandler(metricsURI, metrics.Service))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("metrics server: %v", err)
	}
}

// runner verifies scope files one at a time with a shared configuration.
type runner struct {
	cfg     *config.Config
	metrics *resource.Metrics

	json    bool
	sexp    bool
	verbose bool
	strict  bool
}

func (r *runner) options() resource.Options {
	return resource.Options{
		WarnThresholdPercent:   r.cfg.Contracts.WarnThresholdPercent,
		FrequencyWindow:        r.cfg.Advisor.FrequencyWindow,
		PoolFrequencyThreshold: r.cfg.Advisor.PoolThreshold,
		DisableAdvisor:         r.cfg.Advisor.Disabled,
	}
}

// verify runs one scope file end to end and reports whether it failed.
func (r *runner) verify(path string) bool {
	file, err := scopefile.Read(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return true
	}

	mgr := resource.NewManager(r.options(), r.metrics)
	for _, pool := range file.Pools {
		if err := mgr.RegisterPool(pool); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", path, err)
			return true
		}
	}
	for _, contract := range file.Contracts {
		if err := mgr.RegisterContract(contract); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", path, err)
			return true
		}
	}

	report := mgr.Verify(file.Program)

	switch {
	case r.json:
		data, err := scopefile.EncodeReport(report)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", path, err)
			return true
		}
		os.Stdout.Write(data)
		fmt.Println()
	case r.sexp:
		fmt.Println(report.ToSExpression())
	default:
		printer := diagnostics.NewPrinter(os.Stdout)
		printer.Verbose = r.verbose
		printer.Print(report)
	}

	return report.Failed(r.strict)
}

// watch re-verifies files as they change until interrupted.
func (r *runner) watch(files []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	changed := make(chan string, 16)
	w, err := watch.New(time.Duration(r.cfg.Watch.DebounceMS)*time.Millisecond, func(path string) {
		changed <- path
	})
	if err != nil {
		return err
	}
	defer w.Close()
	w.OnError = func(err error) { log.Printf("watch: %v", err) }

	for _, path := range files {
		if err := w.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
	}

	go func() { _ = w.Run(ctx) }()
	fmt.Printf("watching %d scope file(s), interrupt to stop\n", len(files))

	for {
		select {
		case <-ctx.Done():
			return nil
		case path := <-changed:
			fmt.Printf("\n%s changed, re-verifying\n", path)
			r.verify(path)
		}
	}
}
