package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"runtime"
	"text/tabwriter"

	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/zephyrtronium/avium"
	"github.com/zephyrtronium/avium/coreext/collector"
	"github.com/zephyrtronium/avium/coreext/list"
	"github.com/zephyrtronium/avium/coreext/stream"
)

const (
	inspectCategory = "INSPECTION COMMANDS"
	miscCategory    = "MISCELLANEOUS COMMANDS"
)

func typesCommand(r *runner) cli.Command {
	return cli.Command{
		Action:    r.types,
		Name:      "types",
		Usage:     "List declared types",
		ArgsUsage: " ",
		Category:  inspectCategory,
	}
}

func (r *runner) types(ctx *cli.Context) error {
	w := tabwriter.NewWriter(ctx.App.Writer, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tBASE\tSIZE")
	for _, t := range avium.Types() {
		base := "-"
		if b := t.Base(); b != nil {
			base = b.Name()
		}
		fmt.Fprintf(w, "%s\t%s\t%d\n", t.Name(), base, t.Size())
	}
	return errors.WithStack(w.Flush())
}

var formatFlag = cli.StringFlag{
	Name:  "format",
	Usage: "output format: yaml, cbor, or dump",
	Value: "yaml",
}

func describeCommand(r *runner) cli.Command {
	return cli.Command{
		Action:    r.describe,
		Name:      "describe",
		Usage:     "Describe a declared type",
		ArgsUsage: "<type>",
		Category:  inspectCategory,
		Flags:     []cli.Flag{formatFlag},
		Description: `
Prints the layout of a type: its size, base chain depth, the slots it
resolves and which type provides each, its instance members, and its
enumeration constants. The cbor format is printed as a hex dump.`,
	}
}

func (r *runner) describe(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("describe requires exactly one type name")
	}
	name := ctx.Args().First()
	t, ok := avium.TypeByName(name)
	if !ok {
		return errors.Errorf("no type named %q", name)
	}
	d := t.Describe()
	w := ctx.App.Writer
	switch f := ctx.String(formatFlag.Name); f {
	case "yaml":
		b, err := d.YAML()
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return errors.WithStack(err)
	case "cbor":
		b, err := d.CBOR()
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, hex.Dump(b))
		return errors.WithStack(err)
	case "dump":
		_, err := io.WriteString(w, d.Dump())
		return errors.WithStack(err)
	default:
		return errors.Errorf("unknown format %q", f)
	}
}

func demoCommand(r *runner) cli.Command {
	return cli.Command{
		Action:    r.demo,
		Name:      "demo",
		Usage:     "Run a short tour of tasks, threads, and exceptions",
		ArgsUsage: " ",
		Category:  miscCategory,
	}
}

func (r *runner) demo(ctx *cli.Context) error {
	w := ctx.App.Writer
	code := r.vm.RunMain(func(vm *avium.VM, arg *avium.Object) int {
		order := list.New(vm, avium.IntType, 7)
		push := func(vm *avium.VM, n int64) {
			if err := list.Append(vm, order, vm.NewInt(n)); err != nil {
				vm.ThrowError(err)
			}
		}
		task, err := vm.NewTask(func(vm *avium.VM, arg *avium.Object) *avium.Object {
			push(vm, 2)
			push(vm, 3)
			vm.ReturnValue(vm.NewInt(4))
			push(vm, 5)
			vm.ReturnValue(vm.NewInt(6))
			return nil
		}, nil, avium.TaskOptions{Name: "interleave"})
		if err != nil {
			vm.ThrowError(err)
		}
		push(vm, 1)
		for v := vm.SwitchTo(task); v != vm.Exited; v = vm.SwitchTo(task) {
			if err := list.Append(vm, order, v); err != nil {
				vm.ThrowError(err)
			}
		}
		push(vm, 7)
		fmt.Fprintf(w, "task %s ran in order %s\n", task.Name(), vm.ToString(order))

		th, err := vm.Spawn(func(vm *avium.VM, arg *avium.Object) int {
			n, _ := avium.AsInt(arg)
			return int(n) * 2
		}, vm.NewInt(21), avium.ThreadOptions{Name: "doubler"})
		if err != nil {
			vm.ThrowError(err)
		}
		c, err := vm.Join(th)
		if err != nil {
			vm.ThrowError(err)
		}
		fmt.Fprintf(w, "%s exited with %d\n", vm.ToString(th.Object()), c)

		vm.Catch(avium.ExceptionType, func() {
			vm.Raise("raised in %s", task.Name())
		}, func(thrown *avium.Object, where avium.Location) {
			msg, _ := avium.ExceptionMessage(thrown)
			fmt.Fprintf(w, "caught %q at %v\n", msg, where)
		})

		mem := stream.NewMemory(vm, nil)
		if _, err := stream.WriteText(vm, mem, vm.ToString(order), "utf16"); err != nil {
			vm.ThrowError(err)
		}
		fmt.Fprintf(w, "%s holds %d bytes\n", vm.ToString(mem), vm.Length(mem))
		list.Delete(vm, order)
		return avium.ExitSuccess
	}, nil)
	if code != avium.ExitSuccess {
		return cli.NewExitError("demo failed", code)
	}
	return nil
}

func gcCommand(r *runner) cli.Command {
	return cli.Command{
		Action:    r.gc,
		Name:      "gc",
		Usage:     "Run a collection and print heap statistics",
		ArgsUsage: " ",
		Category:  inspectCategory,
	}
}

func (r *runner) gc(ctx *cli.Context) error {
	freed := collector.Collect(r.vm)
	fmt.Fprintf(ctx.App.Writer, "Freed %d objects\n", freed)
	return collector.ShowStats(r.vm, ctx.App.Writer)
}

var versionCommand = cli.Command{
	Action:    version,
	Name:      "version",
	Usage:     "Print version numbers",
	ArgsUsage: " ",
	Category:  miscCategory,
	Description: `
The output of this command is supposed to be machine-readable.`,
}

func version(ctx *cli.Context) error {
	w := ctx.App.Writer
	fmt.Fprintln(w, "Avium")
	fmt.Fprintln(w, "Version:", avium.Version)
	fmt.Fprintln(w, "Architecture:", runtime.GOARCH)
	fmt.Fprintln(w, "Go Version:", runtime.Version())
	fmt.Fprintln(w, "Platform:", avium.Platform())
	return nil
}
