// divectl builds and inspects dive computer protocol frames.
//
//	divectl [--config file] [--log-level level] <command> [flags]
//
// Commands:
//
//	encode <opcode>   print the hex frame for a command
//	decode <hex>      validate a frame and print its header and payload
//	checksum <hex>    print the checksum of raw bytes
//	gas               print PPO2, EAD and gas use for a depth and mix
//	demo              run a host against a simulated device in memory
package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hjeldin/dive-computer-proto/internal/config"
	"github.com/hjeldin/dive-computer-proto/internal/logging"
	"github.com/hjeldin/dive-computer-proto/internal/observability"
	"github.com/spf13/pflag"
)

var errUsage = errors.New("usage")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "divectl: %v\n", err)
		}
		os.Exit(1)
	}
}

// env carries what every subcommand needs.
type env struct {
	cfg    config.Config
	stdout io.Writer
	stderr io.Writer
}

func run(args []string, stdout, stderr io.Writer) error {
	var (
		configPath string
		logLevel   string
	)
	flags := pflag.NewFlagSet("divectl", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.SetInterspersed(false)
	flags.StringVarP(&configPath, "config", "c", "", "TOML config file")
	flags.StringVar(&logLevel, "log-level", "", "override the configured log level")
	flags.Usage = func() { usage(stderr, flags) }

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	logging.ApplyEnvOverrides(&cfg.Log)
	if logLevel != "" {
		lvl, ok := logging.ParseLevel(logLevel)
		if !ok {
			return fmt.Errorf("unknown log level %q", logLevel)
		}
		cfg.Log.Level = lvl
	}
	observability.InitLogger("divectl", cfg.Log)

	rest := flags.Args()
	if len(rest) == 0 {
		usage(stderr, flags)
		return errUsage
	}
	e := env{cfg: cfg, stdout: stdout, stderr: stderr}
	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "encode":
		return runEncode(e, cmdArgs)
	case "decode":
		return runDecode(e, cmdArgs)
	case "checksum":
		return runChecksum(e, cmdArgs)
	case "gas":
		return runGas(e, cmdArgs)
	case "demo":
		return runDemo(e, cmdArgs)
	case "help":
		usage(stdout, flags)
		return nil
	default:
		usage(stderr, flags)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func usage(w io.Writer, flags *pflag.FlagSet) {
	fmt.Fprintln(w, "usage: divectl [flags] <encode|decode|checksum|gas|demo> [args]")
	fmt.Fprintln(w)
	fmt.Fprint(w, flags.FlagUsages())
}

// parseHex accepts hex with optional whitespace, colons and a 0x prefix.
func parseHex(parts []string) ([]byte, error) {
	joined := strings.Join(parts, "")
	joined = strings.NewReplacer(" ", "", ":", "", "\t", "", "\n", "").Replace(joined)
	joined = strings.TrimPrefix(strings.TrimPrefix(joined, "0x"), "0X")
	if joined == "" {
		return nil, fmt.Errorf("no bytes given")
	}
	out, err := hex.DecodeString(joined)
	if err != nil {
		return nil, fmt.Errorf("parse hex: %w", err)
	}
	return out, nil
}
