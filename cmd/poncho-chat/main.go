// Poncho-chat — один вызов OpenAI-совместимого chat completion с инструментами.
//
// Использование:
//
//	./poncho-chat -config chat.yaml
//	./poncho-chat -config chat.yaml -env-file .env -tools tool-weather.py
//	./poncho-chat -endpoint http://127.0.0.1:8000/v1 -model merlinite-7b -prompt "Hello"
//	./poncho-chat -json=false -config chat.yaml
//	./poncho-chat -check -config chat.yaml
//
// Результат печатается в stdout как JSON {changed, original_messages, response, ...}.
// При ошибке печатается {changed:false, failed:true, msg} и код выхода 1.
// В режиме -check запрос к модели не отправляется, changed всегда false.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ilkoid/poncho-chat/pkg/agent"
	"github.com/ilkoid/poncho-chat/pkg/config"
	"github.com/ilkoid/poncho-chat/pkg/telemetry"
	"github.com/ilkoid/poncho-chat/pkg/utils"
)

// Version — версия утилиты (заполняется при сборке)
var Version = "dev"

// stringList — повторяемый строковый флаг.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

type options struct {
	configPath string
	envFiles   stringList
	endpoint   string
	model      string
	prompt     string
	system     string
	tools      string
	debug      bool
	trace      bool
	jsonOutput bool
	noColor    bool
	check      bool
	version    bool
}

func parseFlags(fs *flag.FlagSet, args []string) (options, error) {
	var o options
	fs.StringVar(&o.configPath, "config", "", "Path to YAML with invocation parameters")
	fs.Var(&o.envFiles, "env-file", "Env file for ${VAR} expansion (repeatable)")
	fs.StringVar(&o.endpoint, "endpoint", "", "Override endpoint_url")
	fs.StringVar(&o.model, "model", "", "Override model_name")
	fs.StringVar(&o.prompt, "prompt", "", "Override user_content")
	fs.StringVar(&o.system, "system", "", "Override system_content")
	fs.StringVar(&o.tools, "tools", "", "Override tool_modules (comma-separated locators)")
	fs.BoolVar(&o.debug, "debug", false, "Enable debug logging to stderr")
	fs.BoolVar(&o.trace, "trace", false, "Print OpenTelemetry spans to stderr")
	fs.BoolVar(&o.jsonOutput, "json", true, "Output in JSON format")
	fs.BoolVar(&o.noColor, "no-color", false, "Disable colors in human output")
	fs.BoolVar(&o.check, "check", false, "Build the conversation and load tools without calling the endpoint")
	fs.BoolVar(&o.version, "version", false, "Show version")

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.prompt == "" && fs.NArg() > 0 {
		o.prompt = strings.Join(fs.Args(), " ")
	}
	return o, nil
}

// overrides применяет непустые флаги поверх файла конфигурации.
func (o options) overrides(c *config.AppConfig) {
	if o.endpoint != "" {
		c.EndpointURL = o.endpoint
	}
	if o.model != "" {
		c.ModelName = o.model
	}
	if o.prompt != "" {
		c.UserContent = o.prompt
	}
	if o.system != "" {
		c.SystemContent = o.system
	}
	if o.tools != "" {
		c.ToolModules = o.tools
	}
	if o.debug {
		c.App.Debug = true
	}
	if o.trace {
		c.App.Trace = true
	}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("poncho-chat", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts, err := parseFlags(fs, args)
	if err != nil {
		return 2
	}

	if opts.version {
		fmt.Fprintf(stdout, "poncho-chat version %s\n", Version)
		return 0
	}

	if opts.debug {
		if err := utils.InitLogger(utils.LoggerOptions{Debug: true}); err != nil {
			fmt.Fprintf(stderr, "Warning: %v\n", err)
		}
	}

	ctx, shutdown := utils.SetupGracefulShutdownWithContext()
	defer shutdown()

	if opts.trace {
		stopTracer, err := telemetry.InitTracer(telemetry.ServiceName, stderr)
		if err != nil {
			fmt.Fprintf(stderr, "Warning: tracing disabled: %v\n", err)
		} else {
			defer flushTracer(stopTracer)
		}
	}

	client, err := agent.New(agent.Config{
		ConfigPath: opts.configPath,
		EnvFiles:   opts.envFiles,
		Overrides:  opts.overrides,
	})
	if err != nil {
		return fail(stdout, opts, err)
	}

	cfg := client.Config()
	if !opts.debug && (cfg.App.Debug || cfg.App.LogFile != "") {
		if err := utils.InitLogger(utils.LoggerOptions{File: cfg.App.LogFile, Debug: cfg.App.Debug}); err != nil {
			fmt.Fprintf(stderr, "Warning: %v\n", err)
		}
	}
	if !opts.trace && cfg.App.Trace {
		if stopTracer, err := telemetry.InitTracer(telemetry.ServiceName, stderr); err == nil {
			defer flushTracer(stopTracer)
		}
	}

	var result agent.Result
	if opts.check {
		result = client.Check()
	} else {
		result, err = client.Run(ctx)
		if err != nil {
			return fail(stdout, opts, err)
		}
	}

	if opts.jsonOutput {
		if err := printJSON(stdout, result); err != nil {
			fmt.Fprintf(stderr, "Error marshaling JSON: %v\n", err)
			return 1
		}
	} else {
		printHuman(stdout, result, opts.noColor)
	}
	return 0
}

func fail(stdout io.Writer, opts options, err error) int {
	if opts.jsonOutput {
		_ = printFailureJSON(stdout, err)
	} else {
		printFailureHuman(stdout, err, opts.noColor)
	}
	return 1
}

func flushTracer(stop func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = stop(ctx)
}
