package cli

import (
	"bytes"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/particula/pkg/config"
	"github.com/matzehuels/particula/pkg/errors"
	"github.com/matzehuels/particula/pkg/pipeline"
	"github.com/matzehuels/particula/pkg/shape"
)

// execute runs the root command with args against an isolated config and
// cache, returning what the command wrote to its output stream.
func execute(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	c := New(io.Discard)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--config", configPath}, args...))
	err := root.ExecuteContext(t.Context())
	return out.String(), err
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(io.Discard).RootCommand()

	want := []string{"sample", "shapes", "simulate", "live", "serve", "config", "cache", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd == root {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("--config flag missing")
	}
}

func TestConfigCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	out, err := execute(t, path, "config", "path")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != path {
		t.Errorf("config path = %q, want %q", out, path)
	}

	if _, err := execute(t, path, "config", "init"); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	_, err = execute(t, path, "config", "init")
	if !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("second init error = %v, want INVALID_PATH", err)
	}
	if _, err := execute(t, path, "config", "init", "--force"); err != nil {
		t.Errorf("init --force: %v", err)
	}

	out, err = execute(t, path, "config", "show")
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Decode(strings.NewReader(out))
	if err != nil {
		t.Fatalf("config show is not valid TOML: %v\n%s", err, out)
	}
	if cfg.Particles.Shape != string(shape.Default) {
		t.Errorf("shown shape = %q", cfg.Particles.Shape)
	}
}

func TestConfigShowRejectsBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[particles]\nshapes = \"kite\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, path, "config", "show"); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("error = %v, want INVALID_CONFIG", err)
	}
}

func TestSampleToStdout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	out, err := execute(t, path, "sample", "kite", "--seed", "3", "-n", "300", "-f", "txt", "--cols", "40", "--rows", "12", "-o", "-")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 12 {
		t.Errorf("got %d rows, want 12", len(lines))
	}
	if strings.TrimSpace(out) == "" {
		t.Error("rendered text is blank")
	}
}

func TestSampleWritesFiles(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "out", "galaxy")

	if _, err := execute(t, filepath.Join(dir, "config.toml"), "sample", "--seed", "9", "-n", "200", "-f", "svg,json", "-o", base); err != nil {
		t.Fatal(err)
	}
	for _, ext := range []string{".svg", ".json"} {
		data, err := os.ReadFile(base + ext)
		if err != nil {
			t.Fatalf("missing %s: %v", ext, err)
		}
		if len(data) == 0 {
			t.Errorf("%s is empty", ext)
		}
	}
}

func TestSampleErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"unknown shape", []string{"sample", "teapot"}, errors.ErrCodeInvalidShape},
		{"unknown format", []string{"sample", "-f", "gif", "-o", "-"}, errors.ErrCodeInvalidFormat},
		{"stdout needs one format", []string{"sample", "-f", "svg,png", "-o", "-"}, errors.ErrCodeInvalidInput},
		{"count out of range", []string{"sample", "--count=-4"}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, path, tt.args...)
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("code = %q, want %q (err %v)", got, tt.code, err)
			}
		})
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"svg"}},
		{"png", []string{"png"}},
		{"SVG, png,,json ", []string{"svg", "png", "json"}},
	}
	for _, tt := range tests {
		got := parseFormats(tt.in)
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("parseFormats(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestOutputPaths(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		formats []string
		want    map[string]string
	}{
		{"default base", "", []string{"svg"}, map[string]string{"svg": "kite.svg"}},
		{"single with extension", "art/k.png", []string{"png"}, map[string]string{"png": "art/k.png"}},
		{"single without extension", "art/k", []string{"svg"}, map[string]string{"svg": "art/k.svg"}},
		{"several strip extension", "art/k.svg", []string{"svg", "png"}, map[string]string{"svg": "art/k.svg", "png": "art/k.png"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := outputPaths(tt.output, "kite", tt.formats)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for f, p := range tt.want {
				if got[f] != p {
					t.Errorf("path[%s] = %q, want %q", f, got[f], p)
				}
			}
		})
	}
}

func TestSampleFlagsApply(t *testing.T) {
	cmd := &cobra.Command{}
	var flags sampleFlags
	fs := cmd.Flags()
	fs.IntVar(&flags.count, "count", 0, "")
	fs.Uint64Var(&flags.seed, "seed", 0, "")
	fs.StringVar(&flags.color, "color", "", "")
	if err := fs.Parse([]string{"--seed", "0"}); err != nil {
		t.Fatal(err)
	}
	flags.formats = "png"
	flags.scale = 2

	opts := pipeline.Options{Count: 900, Seed: 42, Color: "#00ff00"}
	flags.apply(fs, &opts)

	if opts.Count != 900 || opts.Color != "#00ff00" {
		t.Errorf("unset flags overrode config: %+v", opts)
	}
	if opts.Seed != 0 {
		t.Errorf("explicit --seed 0 ignored: seed = %d", opts.Seed)
	}
	if opts.Scale != 2 || len(opts.Formats) != 1 || opts.Formats[0] != "png" {
		t.Errorf("scale/formats = %v/%v", opts.Scale, opts.Formats)
	}
}

func TestRenderDefaults(t *testing.T) {
	cfg := config.Default()
	cfg.Particles.Shape = "kite"
	cfg.Particles.Count = 1234
	cfg.Particles.Seed = 8

	opts, err := renderDefaults(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if opts.Shape != "kite" || opts.Count != 1234 || opts.Seed != 8 {
		t.Errorf("opts = %+v", opts)
	}
	if opts.Scene.Count != 1234 {
		t.Errorf("scene count = %d", opts.Scene.Count)
	}

	cfg.Particles.Color = "mauve"
	if _, err := renderDefaults(cfg); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("bad color error = %v", err)
	}
}

func TestServerDefaults(t *testing.T) {
	cfg := config.Default()
	cfg.Particles.Shape = "sphere"
	cfg.Interaction.Tier = "low"
	cfg.Server.FPS = 24

	sess, rend, err := serverDefaults(cfg, log.New(io.Discard))
	if err != nil {
		t.Fatal(err)
	}
	if sess.Shape != shape.Sphere || sess.FPS != 24 || sess.Driver.Tier != "low" {
		t.Errorf("session template = %+v", sess)
	}
	if rend.Shape != "sphere" {
		t.Errorf("render shape = %q", rend.Shape)
	}

	cfg.Interaction.Tier = "ultra"
	if _, _, err := serverDefaults(cfg, nil); err == nil {
		t.Error("expected an error for an unknown tier")
	}
}

func TestOriginChecker(t *testing.T) {
	if originChecker(nil) != nil {
		t.Error("no allowed origins should keep the same-origin default")
	}

	check := originChecker([]string{"app.example.com", " LOCALHOST "})
	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://server.test", true},
		{"https://app.example.com", true},
		{"http://localhost:5173", true},
		{"https://evil.example.com", false},
		{"::bad", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "http://server.test/api/sessions/x/ws", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		if got := check(r); got != tt.want {
			t.Errorf("origin %q: got %v, want %v", tt.origin, got, tt.want)
		}
	}

	wildcard := originChecker([]string{"*"})
	r := httptest.NewRequest("GET", "http://server.test/", nil)
	r.Header.Set("Origin", "https://anywhere.test")
	if !wildcard(r) {
		t.Error("* should accept any origin")
	}
}

func TestDescribeAddr(t *testing.T) {
	if got := describeAddr(":8080"); got != "0.0.0.0:8080" {
		t.Errorf("describeAddr(:8080) = %q", got)
	}
	if got := describeAddr("127.0.0.1:9000"); got != "127.0.0.1:9000" {
		t.Errorf("describeAddr = %q", got)
	}
}

func TestCompletion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	for _, sh := range []string{"bash", "zsh", "fish", "powershell"} {
		out, err := execute(t, path, "completion", sh)
		if err != nil {
			t.Fatalf("%s: %v", sh, err)
		}
		if !strings.Contains(out, appName) {
			t.Errorf("%s completion does not mention %s", sh, appName)
		}
	}
	if _, err := execute(t, path, "completion", "tcsh"); err == nil {
		t.Error("expected an error for an unsupported shell")
	}
}

func TestCompleteShapes(t *testing.T) {
	got, directive := completeShapes(nil, nil, "")
	if len(got) != len(shape.All()) {
		t.Errorf("got %d completions, want %d", len(got), len(shape.All()))
	}
	if directive != cobra.ShellCompDirectiveNoFileComp {
		t.Errorf("directive = %v", directive)
	}
	if got, _ := completeShapes(nil, []string{"kite"}, ""); len(got) != 0 {
		t.Errorf("second argument completions = %v", got)
	}
}
