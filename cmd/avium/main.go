package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"sort"

	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/zephyrtronium/avium"
	// import for side effects
	_ "github.com/zephyrtronium/avium/coreext"
)

var (
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration `FILE`",
	}
	logLevelFlag = cli.StringFlag{
		Name:  "log-level",
		Usage: "log level, overriding the configuration",
	}
	cpuProfileFlag = cli.StringFlag{
		Name:  "cpuprofile",
		Usage: "write a CPU profile to `FILE`",
	}
	memProfileFlag = cli.StringFlag{
		Name:  "memprofile",
		Usage: "write a heap profile to `FILE` on exit",
	}
)

// runner holds the state shared between the app's hooks and commands.
type runner struct {
	vm  *avium.VM
	cpu *os.File
}

func newApp() *cli.App {
	r := new(runner)
	app := cli.NewApp()
	app.Name = "avium"
	app.Usage = "inspect and exercise the avium object runtime"
	app.Version = avium.Version
	app.HideVersion = true // we have a command to print the version
	app.Commands = []cli.Command{
		typesCommand(r),
		describeCommand(r),
		demoCommand(r),
		gcCommand(r),
		versionCommand,
	}
	sort.Sort(cli.CommandsByName(app.Commands))
	app.Flags = []cli.Flag{configFlag, logLevelFlag, cpuProfileFlag, memProfileFlag}
	app.Before = r.before
	app.After = r.after
	return app
}

func (r *runner) before(ctx *cli.Context) error {
	cfg := avium.DefaultConfig()
	if path := ctx.GlobalString(configFlag.Name); path != "" {
		var err error
		cfg, err = avium.LoadConfig(path)
		if err != nil {
			return err
		}
	}
	if lvl := ctx.GlobalString(logLevelFlag.Name); lvl != "" {
		cfg.Log.Level = lvl
	}
	vm, err := avium.NewVM(cfg)
	if err != nil {
		return err
	}
	r.vm = vm
	if path := ctx.GlobalString(cpuProfileFlag.Name); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return errors.WithStack(err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return errors.WithStack(err)
		}
		r.cpu = f
	}
	return nil
}

func (r *runner) after(ctx *cli.Context) error {
	if r.cpu != nil {
		pprof.StopCPUProfile()
		if err := r.cpu.Close(); err != nil {
			return errors.WithStack(err)
		}
		r.cpu = nil
	}
	if path := ctx.GlobalString(memProfileFlag.Name); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return errors.WithStack(err)
		}
		defer f.Close()
		runtime.GC()
		return errors.WithStack(pprof.WriteHeapProfile(f))
	}
	return nil
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
