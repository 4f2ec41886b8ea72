// Command flowkit runs flow documents from the command line or serves the
// execution API over HTTP.
//
//	flowkit run flow.yml --set topic="cats" --node summary
//	flowkit validate flow.yml
//	flowkit serve --config flowkit.yml --port 9090
//	flowkit version
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/kbukum/flowkit/bootstrap"
	"github.com/kbukum/flowkit/config"
	"github.com/kbukum/flowkit/engine"
	"github.com/kbukum/flowkit/flow"
	"github.com/kbukum/flowkit/server"
	"github.com/kbukum/flowkit/version"
)

const serviceName = "flowkit"

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}
	cmd, rest := args[0], args[1:]

	var err error
	switch cmd {
	case "run":
		err = runFlow(ctx, rest, stdout)
	case "validate":
		err = validateFlow(rest, stdout)
	case "serve":
		err = serve(ctx, rest)
	case "version":
		_, err = fmt.Fprintln(stdout, serviceName, version.Get().String())
	case "help", "-h", "--help":
		usage(stdout)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", cmd)
		usage(stderr)
		return 2
	}

	if err != nil {
		if errors.Is(err, errRunFailed) {
			return 1
		}
		fmt.Fprintln(stderr, "flowkit:", err)
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprint(w, `usage: flowkit <command> [flags]

commands:
  run <file>       execute a flow and print the result as JSON
  validate <file>  check a flow document
  serve            start the HTTP API
  version          print build information
`)
}

// errRunFailed marks a run that completed with node failures; the result
// has already been printed.
var errRunFailed = errors.New("run finished with failures")

func loadConfig(fs *flag.FlagSet, args []string) (*config.Config, error) {
	cfgFile := fs.String("config", "", "config file (default: search standard locations)")
	envFile := fs.String("env-file", "", "dotenv file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	var opts []config.Option
	if *cfgFile != "" {
		opts = append(opts, config.WithConfigFile(*cfgFile))
	}
	if *envFile != "" {
		opts = append(opts, config.WithEnvFile(*envFile))
	}

	var cfg config.Config
	if err := config.Load(serviceName, &cfg, opts...); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func runFlow(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	sets := fs.StringArray("set", nil, "override an input node value, id=value (repeatable)")
	nodeID := fs.String("node", "", "run a single node with --set supplying upstream outputs")
	cfg, err := loadConfig(fs, args)
	if err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("run: expected one flow file, got %d", fs.NArg())
	}
	values, err := parseSets(*sets)
	if err != nil {
		return err
	}

	g, err := flow.LoadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	if err := g.Validate(); err != nil {
		return err
	}

	// stdout carries the result document.
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stderr"
	}
	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		return err
	}
	metrics, err := app.InitTelemetry(ctx)
	if err != nil {
		return err
	}
	stack := bootstrap.NewStack(cfg, app.Logger, metrics)
	if err := app.RegisterComponent(stack.Preview); err != nil {
		return err
	}

	return app.RunTask(ctx, func(ctx context.Context) error {
		if *nodeID != "" {
			res, err := stack.Engine.RunNode(ctx, g, *nodeID, values)
			if err != nil {
				return err
			}
			return writeJSON(stdout, res)
		}

		res, err := stack.Engine.Run(ctx, g, engine.RunOptions{Overrides: values})
		if res != nil {
			if werr := writeJSON(stdout, res); werr != nil {
				return werr
			}
		}
		if err != nil {
			return err
		}
		if !res.Succeeded() {
			return errRunFailed
		}
		return nil
	})
}

func validateFlow(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("validate: expected one flow file, got %d", fs.NArg())
	}
	g, err := flow.LoadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	if err := g.Validate(); err != nil {
		return err
	}
	idx := flow.NewIndex(g)
	_, err = fmt.Fprintf(stdout, "ok: %d nodes, %d edges, %d entry nodes\n", len(g.Nodes), len(g.Edges), len(idx.EntryNodes(g)))
	return err
}

func serve(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	port := fs.Int("port", 0, "listen port (overrides config)")
	host := fs.String("host", "", "listen host (overrides config)")

	cfg, err := loadConfig(fs, args)
	if err != nil {
		return err
	}
	// Flags win over the file and the environment.
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *host != "" {
		cfg.Server.Host = *host
	}

	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		return err
	}
	metrics, err := app.InitTelemetry(ctx)
	if err != nil {
		return err
	}
	stack := bootstrap.NewStack(cfg, app.Logger, metrics)

	srv := server.New(cfg.Server, app.Logger)
	api := &server.API{
		Engine:      stack.Engine,
		Hub:         stack.Preview.Hub(),
		Components:  app.Components,
		ServiceName: cfg.Name,
	}
	api.Register(srv.Gin())

	// The hub must be running before the server accepts preview streams.
	if err := app.RegisterComponent(stack.Preview); err != nil {
		return err
	}
	if err := app.RegisterComponent(server.NewComponent(srv)); err != nil {
		return err
	}
	return app.Run(ctx)
}

// parseSets turns id=value pairs into a map. The value may contain '='.
func parseSets(sets []string) (map[string]string, error) {
	if len(sets) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(sets))
	for _, s := range sets {
		id, value, ok := strings.Cut(s, "=")
		if !ok || id == "" {
			return nil, fmt.Errorf("--set %q: expected id=value", s)
		}
		out[id] = value
	}
	return out, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
