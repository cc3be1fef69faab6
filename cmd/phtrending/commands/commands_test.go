package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"phtrending/lib/platforms/producthunt"
	"phtrending/lib/snapshot"
	"phtrending/lib/summary"
	"phtrending/lib/testutil"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// chdir moves into `dir` for the rest of the test.
func chdir(t *testing.T, dir string) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		os.Chdir(wd)
	})
}

// unsetToken clears PH_TOKEN for the rest of the test.
func unsetToken(t *testing.T) {
	t.Setenv(tokenEnv, "")
	require.NoError(t, os.Unsetenv(tokenEnv))
}

func TestLoadConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := loadConfig("")
	require.NoError(t, err)
	require.Equal(t, producthunt.DefaultEndpoint, cfg.Endpoint)
	require.Equal(t, producthunt.MaxPageSize, cfg.PageSize)
	require.True(t, *cfg.IncludeMedia)
	require.Equal(t, "output", cfg.OutputDir)
	require.Equal(t, "@hourly", cfg.Schedule)
	require.False(t, cfg.History.Enabled())
	require.False(t, cfg.Digest.Enabled())

	timeout, err := cfg.timeout()
	require.NoError(t, err)
	require.Equal(t, 30*time.Second, timeout)
	retention, err := cfg.retention()
	require.NoError(t, err)
	require.Equal(t, snapshot.RetainAll, retention)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "phtrending.json5", `{
  // comments are allowed
  page_size: 5,
  include_media: false,
  output_dir: "data",
  retention: "latest",
  timeout: "5s",
  history: { file: "history.db" },
  digest: { smtp: { server: "smtp.ph.test", port: 25 }, to: ["alice@ph.test"] },
}`)
	testutil.WriteFile(t, dir, "phtrending.local.json5", `{ page_size: 12 }`)

	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))
	chdir(t, nested)

	cfg, err := loadConfig("")
	require.NoError(t, err)
	require.Equal(t, 12, cfg.PageSize)
	require.False(t, *cfg.IncludeMedia)
	require.Equal(t, "data", cfg.OutputDir)
	require.True(t, cfg.History.Enabled())
	require.True(t, cfg.Digest.Enabled())
	require.Equal(t, 25, cfg.Digest.Smtp.Port)

	explicit, err := loadConfig(filepath.Join(dir, "phtrending.json5"))
	require.NoError(t, err)
	require.Equal(t, 12, explicit.PageSize)

	_, err = loadConfig(filepath.Join(dir, "missing.json5"))
	require.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadConfigInvalid(t *testing.T) {
	dir := t.TempDir()
	badTimeout := testutil.WriteFile(t, dir, "timeout.json5", `{ timeout: "soon" }`)
	badRetention := testutil.WriteFile(t, dir, "retention.json5", `{ retention: "weekly" }`)

	_, err := loadConfig(badTimeout)
	require.ErrorContains(t, err, "invalid timeout")
	_, err = loadConfig(badRetention)
	require.ErrorContains(t, err, "unknown retention policy")
}

func TestReadToken(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	unsetToken(t)

	_, err := readToken()
	require.True(t, errors.Is(err, ErrMissingToken))

	testutil.WriteFile(t, dir, ".env", "PH_TOKEN=from-dotenv\n")
	token, err := readToken()
	require.NoError(t, err)
	require.Equal(t, "from-dotenv", token)

	t.Setenv(tokenEnv, "from-env")
	token, err = readToken()
	require.NoError(t, err)
	require.Equal(t, "from-env", token)
}

func TestRunOnce(t *testing.T) {
	_, cleanup := testutil.SetupService(t, testutil.ServiceParams{Name: "cmd/phtrending"})
	defer cleanup()

	server := testutil.NewGraphQLServer(t, http.StatusOK, testutil.PostsPayload(
		testutil.TestPost(0, 10),
		testutil.TestPost(1, 5),
		testutil.TestPost(2, 3),
	))
	dir := t.TempDir()
	includeMedia := false
	cfg := Config{
		Endpoint:     server.URL,
		IncludeMedia: &includeMedia,
		OutputDir:    dir,
		HTMLIndex:    true,
	}.withDefaults()

	var out bytes.Buffer
	err := runOnce(context.Background(), cfg, "test-token", &out)
	require.NoError(t, err)
	require.Equal(t, int64(1), server.Hits())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	require.True(t, strings.HasPrefix(lines[0], "saved snapshot to "+filepath.Join(dir, "posts-")))
	require.Equal(t, "summary updated (1 data points)", lines[1])
	require.Equal(t, "index written to "+filepath.Join(dir, snapshot.IndexName), lines[2])

	s, err := summary.Load(dir)
	require.NoError(t, err)

	var table bytes.Buffer
	renderSummary(&table, s, 10)
	require.Contains(t, table.String(), "Product 0 (10)")
	require.Contains(t, table.String(), "18")
}

func TestRunOnceFetchFailure(t *testing.T) {
	server := testutil.NewGraphQLServer(t, http.StatusBadGateway, "upstream down")
	dir := filepath.Join(t.TempDir(), "output")
	cfg := Config{Endpoint: server.URL, OutputDir: dir}.withDefaults()

	var out bytes.Buffer
	err := runOnce(context.Background(), cfg, "test-token", &out)
	var networkErr *producthunt.NetworkError
	require.True(t, errors.As(err, &networkErr))
	require.Equal(t, http.StatusBadGateway, networkErr.Status)
	require.Empty(t, out.String())
}

// executeArgs runs the root command in-process with `args`, printing to `out`.
func executeArgs(t *testing.T, out io.Writer, args ...string) error {
	t.Cleanup(func() {
		*configPath = ""
		*outDir = ""
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
	})
	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)
	return execute(context.Background())
}

var errStdoutClosed = errors.New("stdout closed")

type closedWriter struct{}

func (closedWriter) Write([]byte) (int, error) {
	return 0, errStdoutClosed
}

func TestExecuteReturnsErrors(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	var out bytes.Buffer
	err := executeArgs(t, &out, "aggregate", "--config", filepath.Join(dir, "missing.json5"))
	require.True(t, errors.Is(err, os.ErrNotExist))
	require.ErrorContains(t, err, "failed to read config")

	plain := testutil.WriteFile(t, dir, "plain.json5", `{}`)
	err = executeArgs(t, &out, "history", "rebuild", "--config", plain)
	require.True(t, errors.Is(err, errHistoryDisabled))
	require.Empty(t, out.String())
}

func TestHistoryRebuildCommand(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	output := filepath.Join(dir, "output")

	writer := snapshot.NewWriter(snapshot.WriterOptions{Dir: output})
	_, _, err := writer.Write(context.Background(), []producthunt.Post{{ID: "1", Name: "Product 1", VotesCount: 4}})
	require.NoError(t, err)

	configFile := testutil.WriteFile(t, dir, "phtrending.json5", fmt.Sprintf(
		`{ output_dir: "elsewhere", history: { file: %q } }`, filepath.Join(dir, "history.db"),
	))

	var out bytes.Buffer
	err = executeArgs(t, &out, "history", "rebuild", "--config", configFile, "--out", output)
	require.NoError(t, err)
	require.Equal(t, "indexed 1 snapshots (0 skipped)\n", out.String())
}

func TestFetchPrintFailure(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv(tokenEnv, "test-token")

	server := testutil.NewGraphQLServer(t, http.StatusOK, testutil.PostsPayload(testutil.TestPost(0, 10)))
	configFile := testutil.WriteFile(t, dir, "phtrending.json5", fmt.Sprintf(`{ endpoint: %q }`, server.URL))

	err := executeArgs(t, closedWriter{}, "fetch", "--config", configFile)
	require.True(t, errors.Is(err, errStdoutClosed))
	require.ErrorContains(t, err, "failed to print snapshot")
	require.Equal(t, int64(1), server.Hits())

	var out bytes.Buffer
	err = executeArgs(t, &out, "fetch", "--config", configFile)
	require.NoError(t, err)
	require.Contains(t, out.String(), `"name": "Product 0"`)
}

const crashEnv = "PHTRENDING_TEST_SUBPROCESS"

// TestMissingTokenExits runs the root command in a child process since a
// missing credential terminates the process.
func TestMissingTokenExits(t *testing.T) {
	if os.Getenv(crashEnv) != "" {
		rootCmd.SetArgs(strings.Split(os.Getenv(crashEnv), " "))
		ExecuteContext(context.Background())
		return
	}

	server := testutil.NewGraphQLServer(t, http.StatusOK, testutil.PostsPayload())
	dir := t.TempDir()
	configFile := testutil.WriteFile(t, dir, "phtrending.json5", fmt.Sprintf(`{ endpoint: %q }`, server.URL))

	for _, command := range []string{"run", "fetch", "schedule"} {
		t.Run(command, func(t *testing.T) {
			child := exec.Command(os.Args[0], "-test.run=^TestMissingTokenExits$")
			child.Dir = dir
			child.Env = append(
				withoutToken(os.Environ()),
				fmt.Sprintf("%s=%s --config %s --out %s", crashEnv, command, configFile, filepath.Join(dir, "output")),
			)
			var stderr bytes.Buffer
			child.Stderr = &stderr

			err := child.Run()
			var exitErr *exec.ExitError
			require.True(t, errors.As(err, &exitErr), stderr.String())
			require.Equal(t, 1, exitErr.ExitCode())
			require.Contains(t, stderr.String(), "missing credential")
			require.Equal(t, int64(0), server.Hits())

			_, err = os.Stat(filepath.Join(dir, "output"))
			require.True(t, errors.Is(err, os.ErrNotExist))
		})
	}
}

func withoutToken(environ []string) []string {
	out := make([]string, 0, len(environ))
	for _, kv := range environ {
		if strings.HasPrefix(kv, tokenEnv+"=") {
			continue
		}
		out = append(out, kv)
	}
	return out
}
