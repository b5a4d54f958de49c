package narrative

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// stubCLI writes an executable shell script standing in for the claude binary.
func stubCLI(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stub needs a POSIX sh")
	}
	path := filepath.Join(t.TempDir(), "claude")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCLIClient_Generate(t *testing.T) {
	path := stubCLI(t, `printf '%s\n' "$@" > "$(dirname "$0")/args.txt"
cat`)

	resp, err := NewCLIClient(path, "claude-test").Generate(context.Background(), "be brief", "Ada scored 72 overall")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.Content != "Ada scored 72 overall" {
		t.Errorf("Content = %q, want the piped prompt", resp.Content)
	}
	if resp.PromptTokens == 0 || resp.OutputTokens == 0 {
		t.Errorf("token estimates not set: %+v", resp)
	}

	data, err := os.ReadFile(filepath.Join(filepath.Dir(path), "args.txt"))
	if err != nil {
		t.Fatal(err)
	}
	got := strings.Split(strings.TrimSpace(string(data)), "\n")
	want := []string{"--print", "--output-format", "text", "--max-turns", "1", "--model", "claude-test", "--system-prompt", "be brief"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("args (-want +got):\n%s", diff)
	}
}

func TestCLIClient_NoModelFlag(t *testing.T) {
	args := NewCLIClient("claude", "").args("sys")
	for _, a := range args {
		if a == "--model" {
			t.Fatalf("unexpected --model in %v", args)
		}
	}
}

func TestCLIClient_Errors(t *testing.T) {
	failing := stubCLI(t, `cat >/dev/null
echo "quota exceeded" >&2
exit 3`)
	_, err := NewCLIClient(failing, "").Generate(context.Background(), "sys", "prompt")
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("failing CLI: err = %v, want stderr in message", err)
	}

	silent := stubCLI(t, `cat >/dev/null`)
	_, err = NewCLIClient(silent, "").Generate(context.Background(), "sys", "prompt")
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("silent CLI: err = %v, want ErrEmptyResponse", err)
	}

	missing := filepath.Join(t.TempDir(), "no-such-binary")
	if _, err := NewCLIClient(missing, "").Generate(context.Background(), "sys", "prompt"); err == nil {
		t.Error("missing binary should fail")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewCLIClient(silent, "").Generate(ctx, "sys", "prompt"); !errors.Is(err, context.Canceled) {
		t.Errorf("canceled context: err = %v", err)
	}
}
