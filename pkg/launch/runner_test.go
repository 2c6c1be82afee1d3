//go:build unix

package launch_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/pstart/api/v1beta1/configs"
	"github.com/macropower/pstart/pkg/execs"
	"github.com/macropower/pstart/pkg/launch"
	"github.com/macropower/pstart/pkg/profile"
	"github.com/macropower/pstart/pkg/resolve"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755)) //nolint:gosec // Test executable.

	return path
}

func newConfig(t *testing.T, dirs []string, requests ...*profile.LaunchRequest) *configs.Config {
	t.Helper()

	cfg := configs.New()
	cfg.SetSystemPath(false)
	cfg.SearchDirs = dirs
	cfg.Profiles["test"] = profile.New(requests...)

	return cfg
}

type recorder struct {
	events []launch.Event
}

func (r *recorder) Observe(_ context.Context, evt launch.Event) {
	r.events = append(r.events, evt)
}

func (r *recorder) count(match func(launch.Event) bool) int {
	n := 0

	for _, evt := range r.events {
		if match(evt) {
			n++
		}
	}

	return n
}

type harness struct {
	runner *launch.Runner
	rec    *recorder
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	diag   *bytes.Buffer
}

func newHarness(t *testing.T, cfg *configs.Config, opts ...launch.RunnerOpt) *harness {
	t.Helper()

	h := &harness{
		rec:    &recorder{},
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		diag:   &bytes.Buffer{},
	}

	opts = append([]launch.RunnerOpt{
		launch.WithStdout(h.stdout),
		launch.WithStderr(h.stderr),
		launch.WithObserver(h.rec, launch.NewPrinter(h.diag)),
	}, opts...)

	r, err := launch.NewRunner(cfg, opts...)
	require.NoError(t, err)

	h.runner = r

	return h
}

func statuses(report *launch.Report) []string {
	out := make([]string, 0, len(report.Outcomes))
	for _, o := range report.Outcomes {
		out = append(out, o.String())
	}

	return out
}

func TestRunner_OverrideTakesPrecedence(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	searchDir := filepath.Join(dir, "bin")
	overrideDir := filepath.Join(dir, "override")

	writeScript(t, searchDir, "nmap", `echo "searched $*"`)
	override := writeScript(t, overrideDir, "scan", `echo "override $*"`)

	cfg := newConfig(t, []string{searchDir},
		profile.NewRequest("nmap", profile.WithOptions("-sV"), profile.WithPath("/nonexistent/nmap")),
	)
	cfg.Overrides["nmap"] = override + " --fast"

	h := newHarness(t, cfg)

	report, err := h.runner.Run(t.Context(), "test")
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 1)

	out := report.Outcomes[0]
	assert.Equal(t, launch.StatusOK, out.Status)
	assert.Equal(t, launch.SourceOverride, out.Source)
	assert.Equal(t, execs.NewCommand(override, "--fast"), out.Command)
	assert.Equal(t, "override --fast\n", h.stdout.String(), "options are ignored for overrides")
	assert.Equal(t, "> "+override+" --fast\n", h.diag.String())
}

func TestRunner_ExplicitPathBeforeSearch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	searchDir := filepath.Join(dir, "bin")

	writeScript(t, searchDir, "burpsuite", `echo searched`)
	explicit := writeScript(t, filepath.Join(dir, "opt", "burp"), "burp", `echo "explicit $*"`)

	cfg := newConfig(t, []string{searchDir},
		profile.NewRequest("burpsuite", profile.WithPath(explicit), profile.WithOptions(`--project "my project"`)),
	)

	h := newHarness(t, cfg)

	report, err := h.runner.Run(t.Context(), "test")
	require.NoError(t, err)

	out := report.Outcomes[0]
	assert.Equal(t, launch.SourcePath, out.Source)
	assert.Equal(t, []string{explicit, "--project", "my project"}, out.Command.Argv())
	assert.Equal(t, "explicit --project my project\n", h.stdout.String())
}

func TestRunner_SearchOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first := filepath.Join(dir, "first")
	second := filepath.Join(dir, "second")

	writeScript(t, first, "tool", "echo first")
	writeScript(t, second, "tool", "echo second")
	writeScript(t, second, "other", "echo other")

	cfg := newConfig(t, []string{first, second},
		profile.NewRequest("tool"),
		profile.NewRequest("other"),
	)

	h := newHarness(t, cfg)

	report, err := h.runner.Run(t.Context(), "test")
	require.NoError(t, err)

	assert.Equal(t, "first\nother\n", h.stdout.String())
	assert.Equal(t, filepath.Join(first, "tool"), report.Outcomes[0].Command.Program)
	assert.Equal(t, filepath.Join(second, "other"), report.Outcomes[1].Command.Program)
	assert.Equal(t, launch.SourceSearch, report.Outcomes[1].Source)
}

func TestRunner_SystemPathFallback(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	preferred := filepath.Join(dir, "opt")
	system := filepath.Join(dir, "usr", "bin")

	require.NoError(t, os.MkdirAll(preferred, 0o755))
	nmap := writeScript(t, system, "nmap", `echo "sys $*"`)

	tcs := map[string]struct {
		resolver   *resolve.Resolver
		wantStdout string
		want       []string
	}{
		"system path enabled": {
			resolver: resolve.NewResolver(
				resolve.WithPreferredDirs(preferred),
				resolve.WithSystemPath(system),
			),
			wantStdout: "sys -sV 10.0.0.1\n",
			want:       []string{"nmap: ok"},
		},
		"system path disabled": {
			resolver: resolve.NewResolver(resolve.WithPreferredDirs(preferred)),
			want:     []string{"nmap: skipped (not-found)"},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := newConfig(t, nil, profile.NewRequest("nmap", profile.WithOptions("-sV 10.0.0.1")))
			h := newHarness(t, cfg, launch.WithResolver(tc.resolver))

			report, err := h.runner.Run(t.Context(), "test")
			require.NoError(t, err)

			assert.Equal(t, tc.want, statuses(report))
			assert.Equal(t, tc.wantStdout, h.stdout.String())

			if tc.wantStdout != "" {
				assert.Equal(t, launch.SourceSearch, report.Outcomes[0].Source)
				assert.Equal(t, nmap, report.Outcomes[0].Command.Program)
				assert.Equal(t, "test: 1 ok, 0 failed, 0 skipped", report.Summary())
			}
		})
	}
}

func TestRunner_ShellOperatorsInOptions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeScript(t, dir, "sqlmap", `for a in "$@"; do echo "$a"; done`)

	cfg := newConfig(t, []string{dir},
		profile.NewRequest("sqlmap", profile.WithOptions("-u http://x/?id=1&b=2 -oN out>scan.txt")),
	)

	h := newHarness(t, cfg)

	report, err := h.runner.Run(t.Context(), "test")
	require.NoError(t, err)

	assert.Equal(t, []string{"sqlmap: ok"}, statuses(report))
	assert.Equal(t, "-u\nhttp://x/?id=1&b=2\n-oN\nout>scan.txt\n", h.stdout.String())
}

func TestRunner_EmptyOverrideFallsThrough(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeScript(t, dir, "nmap", `echo "searched $*"`)

	cfg := newConfig(t, []string{dir}, profile.NewRequest("nmap", profile.WithOptions("-sV")))
	cfg.Overrides["nmap"] = ""

	h := newHarness(t, cfg)

	report, err := h.runner.Run(t.Context(), "test")
	require.NoError(t, err)

	assert.Equal(t, launch.SourceSearch, report.Outcomes[0].Source)
	assert.Equal(t, "searched -sV\n", h.stdout.String())
}

func TestRunner_NotFoundIsNotFatal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeScript(t, dir, "wireshark", "echo wireshark")

	cfg := newConfig(t, []string{dir},
		profile.NewRequest("nmap"),
		profile.NewRequest("wireshark"),
	)

	h := newHarness(t, cfg)

	report, err := h.runner.Run(t.Context(), "test")
	require.NoError(t, err)

	assert.Equal(t, []string{"nmap: skipped (not-found)", "wireshark: ok"}, statuses(report))
	assert.ErrorIs(t, report.Outcomes[0].Err, launch.ErrNotFound)
	assert.Equal(t, "wireshark\n", h.stdout.String())
	assert.Equal(t, 1, strings.Count(h.diag.String(), "Failed to find 'nmap'"))
	assert.Equal(t, 1, h.rec.count(func(evt launch.Event) bool {
		_, ok := evt.(launch.EventSkip)

		return ok
	}))

	err = report.Err()
	require.ErrorIs(t, err, launch.ErrLaunchFailed)
	assert.ErrorContains(t, err, "nmap")
}

func TestRunner_Sequential(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	marker := filepath.Join(dir, "order.txt")
	bin := filepath.Join(dir, "bin")

	// The first command is the slowest; if anything ran concurrently the
	// markers would be out of order.
	writeScript(t, bin, "a", "sleep 0.2; echo a >> '"+marker+"'")
	writeScript(t, bin, "b", "sleep 0.1; echo b >> '"+marker+"'")
	writeScript(t, bin, "c", "echo c >> '"+marker+"'")

	cfg := newConfig(t, []string{bin},
		profile.NewRequest("a"),
		profile.NewRequest("b"),
		profile.NewRequest("c"),
	)

	h := newHarness(t, cfg)

	_, err := h.runner.Run(t.Context(), "test")
	require.NoError(t, err)

	got, err := os.ReadFile(marker)
	require.NoError(t, err)
	assert.Equal(t, "a\nb\nc\n", string(got))

	var starts []string

	for _, evt := range h.rec.events {
		switch e := evt.(type) {
		case launch.EventStart:
			starts = append(starts, "start "+e.Request.Name)
		case launch.EventEnd:
			starts = append(starts, "end "+e.Request.Name)
		}
	}

	assert.Equal(t, []string{"start a", "end a", "start b", "end b", "start c", "end c"}, starts)
}

func TestRunner_ToolsProfile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	optBin := filepath.Join(dir, "opt", "tools", "bin")
	nmap := writeScript(t, optBin, "nmap", `echo "nmap $*"`)

	cfg := newConfig(t, []string{optBin},
		profile.NewRequest("nmap", profile.WithOptions("-sV -oN scan.txt 10.0.0.1")),
		profile.NewRequest("masscan"),
	)

	h := newHarness(t, cfg)

	report, err := h.runner.Run(t.Context(), "test")
	require.NoError(t, err)

	assert.Equal(t, "nmap -sV -oN scan.txt 10.0.0.1\n", h.stdout.String())
	assert.Equal(t,
		"> "+nmap+" -sV -oN scan.txt 10.0.0.1\nFailed to find 'masscan'\n",
		h.diag.String(),
	)
	assert.Equal(t, "test: 1 ok, 0 failed, 1 skipped", report.Summary())
}

func TestRunner_FailurePolicy(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		policy   launch.FailurePolicy
		exitCode string
		want     launch.Status
	}{
		"nonzero exit 1":  {policy: launch.PolicyNonZero, exitCode: "1", want: launch.StatusFailed},
		"nonzero exit 2":  {policy: launch.PolicyNonZero, exitCode: "2", want: launch.StatusFailed},
		"nonzero exit 0":  {policy: launch.PolicyNonZero, exitCode: "0", want: launch.StatusOK},
		"exit-one exit 1": {policy: launch.PolicyExitOne, exitCode: "1", want: launch.StatusFailed},
		"exit-one exit 2": {policy: launch.PolicyExitOne, exitCode: "2", want: launch.StatusOK},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			tool := writeScript(t, dir, "tool", "exit "+tc.exitCode)
			writeScript(t, dir, "next", "echo next")

			cfg := newConfig(t, []string{dir}, profile.NewRequest("tool"), profile.NewRequest("next"))
			h := newHarness(t, cfg, launch.WithFailurePolicy(tc.policy))

			report, err := h.runner.Run(t.Context(), "test")
			require.NoError(t, err)
			require.Len(t, report.Outcomes, 2)

			out := report.Outcomes[0]
			assert.Equal(t, tc.want, out.Status)
			assert.Equal(t, tc.exitCode, strconv.Itoa(out.ExitCode))
			assert.Equal(t, launch.StatusOK, report.Outcomes[1].Status, "later requests still run")
			assert.Equal(t, "next\n", h.stdout.String())

			failedLine := "Command: `" + tool + "` failed!"
			if tc.want == launch.StatusFailed {
				assert.Contains(t, h.diag.String(), failedLine)
				require.ErrorIs(t, out.Err, execs.ErrCommandExecution)
			} else {
				assert.NotContains(t, h.diag.String(), failedLine)
				require.NoError(t, out.Err)
			}
		})
	}
}

func TestRunner_SpawnErrorIsIsolated(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	notExecutable := filepath.Join(dir, "data.txt")
	require.NoError(t, os.WriteFile(notExecutable, []byte("text"), 0o600))
	writeScript(t, dir, "next", "echo next")

	cfg := newConfig(t, []string{dir},
		profile.NewRequest("broken", profile.WithPath(notExecutable)),
		profile.NewRequest("vanished", profile.WithPath(filepath.Join(dir, "missing"))),
		profile.NewRequest("next"),
	)

	h := newHarness(t, cfg)

	report, err := h.runner.Run(t.Context(), "test")
	require.NoError(t, err)

	assert.Equal(t, []string{"broken: failed", "vanished: failed", "next: ok"}, statuses(report))
	require.ErrorIs(t, report.Outcomes[0].Err, execs.ErrSpawn)
	require.ErrorIs(t, report.Outcomes[1].Err, execs.ErrSpawn)
	assert.Equal(t, -1, report.Outcomes[0].ExitCode)
	assert.Contains(t, h.diag.String(), "Command: `"+notExecutable+"` failed!")
	assert.Equal(t, "next\n", h.stdout.String())
}

func TestRunner_Stderr(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		opts []launch.RunnerOpt
		want string
	}{
		"suppressed by default": {},
		"suppressed explicitly": {
			opts: []launch.RunnerOpt{launch.WithSuppressStderr(true)},
		},
		"shown": {
			opts: []launch.RunnerOpt{launch.WithSuppressStderr(false)},
			want: "warning\n",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			writeScript(t, dir, "noisy", "echo output; echo warning >&2")

			cfg := newConfig(t, []string{dir}, profile.NewRequest("noisy"))
			h := newHarness(t, cfg, tc.opts...)

			_, err := h.runner.Run(t.Context(), "test")
			require.NoError(t, err)

			assert.Equal(t, "output\n", h.stdout.String())
			assert.Equal(t, tc.want, h.stderr.String())
		})
	}
}

func TestRunner_Condition(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeScript(t, dir, "linux-only", "echo linux-only")
	writeScript(t, dir, "other-only", "echo other-only")

	cfg := newConfig(t, []string{dir},
		profile.NewRequest("linux-only", profile.WithWhen(`profile == "test" && name == "linux-only"`)),
		profile.NewRequest("other-only", profile.WithWhen(`profile == "other"`)),
		profile.NewRequest("missing", profile.WithWhen(`onPath(name)`)),
	)

	h := newHarness(t, cfg)

	report, err := h.runner.Run(t.Context(), "test")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"linux-only: ok",
		"other-only: skipped (condition)",
		"missing: skipped (condition)",
	}, statuses(report))
	assert.Equal(t, "linux-only\n", h.stdout.String())
	assert.NotContains(t, h.diag.String(), "other-only")
	assert.NotContains(t, h.diag.String(), "Failed to find")
	require.NoError(t, report.Err(), "condition skips are not failures")
}

func TestRunner_ProfileNotFound(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	marker := filepath.Join(dir, "ran")
	writeScript(t, dir, "tool", "touch '"+marker+"'")

	cfg := newConfig(t, []string{dir}, profile.NewRequest("tool"))
	h := newHarness(t, cfg)

	report, err := h.runner.Run(t.Context(), "missing")
	require.ErrorIs(t, err, launch.ErrProfileNotFound)
	assert.Nil(t, report)
	assert.Empty(t, h.rec.events)
	assert.NoFileExists(t, marker)
}

func TestRunner_Canceled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeScript(t, dir, "tool", "echo tool")

	cfg := newConfig(t, []string{dir}, profile.NewRequest("tool"), profile.NewRequest("tool"))
	h := newHarness(t, cfg)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	report, err := h.runner.Run(ctx, "test")
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)

	assert.Equal(t, []string{"tool: skipped (canceled)", "tool: skipped (canceled)"}, statuses(report))
	assert.Empty(t, h.stdout.String())
}

func TestRunner_CanceledMidRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeScript(t, dir, "first", "echo first")
	writeScript(t, dir, "second", "echo second")

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	cancelAfterFirst := launch.ObserverFunc(func(_ context.Context, evt launch.Event) {
		if e, ok := evt.(launch.EventEnd); ok && e.Request.Name == "first" {
			cancel()
		}
	})

	cfg := newConfig(t, []string{dir}, profile.NewRequest("first"), profile.NewRequest("second"))
	h := newHarness(t, cfg, launch.WithObserver(cancelAfterFirst))

	report, err := h.runner.Run(ctx, "test")
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, []string{"first: ok", "second: skipped (canceled)"}, statuses(report))
	assert.Equal(t, "first\n", h.stdout.String())
}

func TestRunner_Confirm(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeScript(t, dir, "yes", "echo yes")
	writeScript(t, dir, "no", "echo no")

	var asked []string

	confirm := func(_ context.Context, c execs.Command) (bool, error) {
		asked = append(asked, filepath.Base(c.Program))

		return filepath.Base(c.Program) == "yes", nil
	}

	cfg := newConfig(t, []string{dir}, profile.NewRequest("no"), profile.NewRequest("yes"))
	h := newHarness(t, cfg, launch.WithConfirm(confirm))

	report, err := h.runner.Run(t.Context(), "test")
	require.NoError(t, err)

	assert.Equal(t, []string{"no", "yes"}, asked)
	assert.Equal(t, []string{"no: skipped (declined)", "yes: ok"}, statuses(report))
	assert.Equal(t, "yes\n", h.stdout.String())
	require.NoError(t, report.Err())
}

func TestRunner_ConfirmError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeScript(t, dir, "tool", "echo tool")

	errAborted := errors.New("aborted")
	confirm := func(context.Context, execs.Command) (bool, error) {
		return false, errAborted
	}

	cfg := newConfig(t, []string{dir}, profile.NewRequest("tool"), profile.NewRequest("tool"))
	h := newHarness(t, cfg, launch.WithConfirm(confirm))

	report, err := h.runner.Run(t.Context(), "test")
	require.ErrorIs(t, err, errAborted)

	assert.Equal(t, []string{"tool: skipped (canceled)", "tool: skipped (canceled)"}, statuses(report))
	assert.Empty(t, h.stdout.String())
}

type fakeExecutor struct {
	results map[string]int
	calls   []execs.Command
}

func (f *fakeExecutor) Exec(_ context.Context, c execs.Command) (*execs.Result, error) {
	f.calls = append(f.calls, c)

	code := f.results[c.Program]
	if code == 0 {
		return &execs.Result{}, nil
	}

	return &execs.Result{ExitCode: code}, execs.ErrCommandExecution
}

func TestRunner_WithExecutor(t *testing.T) {
	t.Parallel()

	cfg := newConfig(t, nil,
		profile.NewRequest("a", profile.WithPath("/opt/a"), profile.WithOptions("-x")),
		profile.NewRequest("b", profile.WithPath("/opt/b")),
	)
	fake := &fakeExecutor{results: map[string]int{"/opt/b": 3}}

	h := newHarness(t, cfg, launch.WithExecutor(fake))

	report, err := h.runner.Run(t.Context(), "test")
	require.NoError(t, err)

	assert.Equal(t, []execs.Command{execs.NewCommand("/opt/a", "-x"), execs.NewCommand("/opt/b")}, fake.calls)
	assert.Equal(t, []string{"a: ok", "b: failed"}, statuses(report))
	assert.Equal(t, 3, report.Outcomes[1].ExitCode)
}

func TestNewRunner_Errors(t *testing.T) {
	t.Parallel()

	_, err := launch.NewRunner(nil)
	require.ErrorIs(t, err, launch.ErrNoConfig)

	cfg := newConfig(t, nil, profile.NewRequest("nmap", profile.WithOptions(`-oN "scan.txt`)))

	_, err = launch.NewRunner(cfg)
	require.ErrorIs(t, err, configs.ErrInvalidConfig)
}
