package main

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zephyrtronium/avium"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var b bytes.Buffer
	app := newApp()
	app.Writer = &b
	app.ErrWriter = ioutil.Discard
	err := app.Run(append([]string{"avium", "--log-level", "error"}, args...))
	return b.String(), err
}

func TestCommands(t *testing.T) {
	cases := map[string]struct {
		args []string
		want []string
	}{
		"Version": {
			args: []string{"version"},
			want: []string{"Avium\n", "Version: " + avium.Version + "\n", "Platform: "},
		},
		"Types": {
			args: []string{"types"},
			want: []string{"NAME", "Int", "ArrayList", "MemoryStream", "FileStream", "Mutex"},
		},
		"DescribeYAML": {
			args: []string{"describe", "Int"},
			want: []string{"name: Int\n"},
		},
		"DescribeDump": {
			args: []string{"describe", "--format", "dump", "Stream"},
			want: []string{"Stream", "SeekEnd"},
		},
		"DescribeCBOR": {
			args: []string{"describe", "--format", "cbor", "Int"},
			want: []string{"00000000  "},
		},
		"Demo": {
			args: []string{"demo"},
			want: []string{
				"task interleave ran in order [1, 2, 3, 4, 5, 6, 7]\n",
				"Thread(doubler) exited with 42\n",
				`caught "raised in interleave" at `,
				"holds ",
			},
		},
		"GC": {
			args: []string{"gc"},
			want: []string{"Freed ", "Managed objects:"},
		},
	}
	for name, c := range cases {
		c := c
		t.Run(name, func(t *testing.T) {
			out, err := run(t, c.args...)
			require.NoError(t, err)
			for _, w := range c.want {
				assert.Contains(t, out, w)
			}
		})
	}
}

func TestCommandErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("verbose = true\n"), 0o644))
	cases := map[string][]string{
		"NoType":        {"describe"},
		"UnknownType":   {"describe", "NoSuchType"},
		"UnknownFormat": {"describe", "--format", "xml", "Int"},
		"MissingConfig": {"--config", filepath.Join(dir, "missing.toml"), "version"},
		"BadConfig":     {"--config", bad, "version"},
		"BadLevel":      {"--log-level", "loud", "version"},
	}
	for name, args := range cases {
		args := args
		t.Run(name, func(t *testing.T) {
			_, err := run(t, args...)
			assert.Error(t, err)
		})
	}
}

func TestProfile(t *testing.T) {
	dir := t.TempDir()
	cpu := filepath.Join(dir, "cpu.prof")
	mem := filepath.Join(dir, "mem.prof")
	_, err := run(t, "--cpuprofile", cpu, "--memprofile", mem, "version")
	require.NoError(t, err)
	for _, p := range []string{cpu, mem} {
		fi, err := os.Stat(p)
		require.NoError(t, err)
		assert.NotZero(t, fi.Size(), p)
	}
}
