package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"

	"github.com/danmuck/pamrfid/internal/audit"
	"github.com/danmuck/pamrfid/internal/config"
	"github.com/danmuck/pamrfid/internal/rfid"
)

type workspace struct {
	dir    string
	config string
	good   string
	other  string
}

func writeCapture(t *testing.T, dir, name, body string) string {
	t.Helper()
	frame, err := rfid.EncodeFrame(body)
	if err != nil {
		t.Fatalf("encode %s: %v", body, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, frame, 0o600); err != nil {
		t.Fatalf("write capture: %v", err)
	}
	return path
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	dir := t.TempDir()
	ws := &workspace{
		dir:    dir,
		config: filepath.Join(dir, "pamrfid.toml"),
		good:   writeCapture(t, dir, "good.bin", "0800012345"),
		other:  writeCapture(t, dir, "other.bin", "0300054321"),
	}
	body := fmt.Sprintf(`
[reader]
driver = "file"
port = %q
byte_timeout = "10ms"
wait_timeout = "1s"

[log]
level = "error"
syslog = false

[audit]
path = %q

[metrics]
addr = ""
`, ws.good, filepath.Join(dir, "audit.db"))
	if err := os.WriteFile(ws.config, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return ws
}

func (ws *workspace) run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(append([]string{"--config", ws.config}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestEnrollThenAuthenticate(t *testing.T) {
	ws := newWorkspace(t)

	code, out, errOut := ws.run(t, "enroll", "alice")
	if code != 0 {
		t.Fatalf("enroll exit=%d stderr=%s", code, errOut)
	}
	if !strings.Contains(out, "Enrolled alice with round tag ******4565") {
		t.Fatalf("unexpected enroll output %q", out)
	}
	cfg, err := config.Load(ws.config)
	if err != nil {
		t.Fatalf("reload config: %v", err)
	}
	if _, ok := cfg.User("alice"); !ok {
		t.Fatalf("alice not stored in config")
	}
	if strings.Contains(mustRead(t, ws.config), "08000123456F") {
		t.Fatalf("raw tag written to config")
	}

	code, out, errOut = ws.run(t, "auth", "--user", "alice", "--service", "login")
	if code != 0 {
		t.Fatalf("auth exit=%d stderr=%s", code, errOut)
	}
	want := "PAM RFID dev: Waiting for tag...\nPAM RFID dev: Access granted!\n"
	if out != want {
		t.Fatalf("auth output got=%q want=%q", out, want)
	}

	code, out, _ = ws.run(t, "auth", "--user", "alice", "--port", ws.other)
	if code != 7 {
		t.Fatalf("wrong tag exit got=%d want=7", code)
	}
	if !strings.HasSuffix(out, "Access denied!\n") {
		t.Fatalf("unexpected denial output %q", out)
	}

	code, out, _ = ws.run(t, "audit", "--limit", "5")
	if code != 0 {
		t.Fatalf("audit exit=%d", code)
	}
	var entries []audit.Entry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode audit output: %v\n%s", err, out)
	}
	got := make([]string, 0, len(entries))
	for _, e := range entries {
		got = append(got, e.User+"/"+e.Result+"/"+e.TagType)
	}
	if diff := cmp.Diff([]string{"alice/auth_err/rectangle", "alice/success/round"}, got); diff != "" {
		t.Fatalf("audit entries (-want +got):\n%s", diff)
	}
}

func TestEnrollRefusesExistingUserWithoutForce(t *testing.T) {
	ws := newWorkspace(t)
	if code, _, errOut := ws.run(t, "enroll", "alice"); code != 0 {
		t.Fatalf("enroll exit=%d stderr=%s", code, errOut)
	}
	code, _, errOut := ws.run(t, "enroll", "alice")
	if code != 1 || !strings.Contains(errOut, "already has a tag") {
		t.Fatalf("second enroll exit=%d stderr=%q", code, errOut)
	}
	if code, _, errOut := ws.run(t, "enroll", "--force", "--port", ws.other, "alice"); code != 0 {
		t.Fatalf("forced enroll exit=%d stderr=%s", code, errOut)
	}
	if code, _, _ := ws.run(t, "auth", "--user", "alice", "--port", ws.other); code != 0 {
		t.Fatalf("auth with replaced tag exit=%d", code)
	}
}

func TestAuthExitCodes(t *testing.T) {
	ws := newWorkspace(t)
	if code, _, errOut := ws.run(t, "enroll", "alice"); code != 0 {
		t.Fatalf("enroll exit=%d stderr=%s", code, errOut)
	}

	if code, _, _ := ws.run(t, "auth", "--user", "bob"); code != 25 {
		t.Fatalf("unenrolled user exit got=%d want=25", code)
	}

	var stdout, stderr bytes.Buffer
	code := run([]string{"--config", filepath.Join(ws.dir, "missing.toml"), "auth", "--user", "alice"}, &stdout, &stderr)
	if code != 25 {
		t.Fatalf("missing config exit got=%d want=25", code)
	}

	empty := filepath.Join(ws.dir, "empty.bin")
	if err := os.WriteFile(empty, nil, 0o600); err != nil {
		t.Fatalf("write empty capture: %v", err)
	}
	if code, _, _ := ws.run(t, "auth", "--user", "alice", "--port", empty); code != 7 {
		t.Fatalf("no tag exit got=%d want=7", code)
	}

	if code, out, _ := ws.run(t, "auth", "--user", "alice", "--port", filepath.Join(ws.dir, "nope")); code != 25 || !strings.Contains(out, "Sensor initialization failed!") {
		t.Fatalf("sensor failure exit=%d out=%q", code, out)
	}
}

func TestReadPrintsJSONWhenPiped(t *testing.T) {
	ws := newWorkspace(t)
	code, out, errOut := ws.run(t, "read")
	if code != 0 {
		t.Fatalf("read exit=%d stderr=%s", code, errOut)
	}
	var got tagJSON
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode read output: %v\n%s", err, out)
	}
	want := tagJSON{
		ID:       "0000074565",
		Number:   0x012345,
		Type:     "0x0800",
		TypeName: "round",
		Checksum: "0x6f",
		Raw:      "08000123456F",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("read output (-want +got):\n%s", diff)
	}
}

func TestWriteTagText(t *testing.T) {
	frame, err := rfid.EncodeFrame("0800012345")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	rec, err := rfid.DecodeFrame(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	var buf bytes.Buffer
	if err := writeTagText(&buf, rec); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "ID:       0000074565\nType:     round (0x0800)\nChecksum: 0x6f\nRAW:      08000123456F\n"
	if buf.String() != want {
		t.Fatalf("text output got=%q want=%q", buf.String(), want)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pamrfid.toml")
	var stdout, stderr bytes.Buffer
	if code := run([]string{"--config", path, "config", "init"}, &stdout, &stderr); code != 0 {
		t.Fatalf("init exit=%d stderr=%s", code, stderr.String())
	}
	stdout.Reset()
	if code := run([]string{"--config", path, "config", "validate"}, &stdout, &stderr); code != 0 {
		t.Fatalf("validate exit=%d stderr=%s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "driver=serial port=/dev/ttyUSB0 users=0") {
		t.Fatalf("unexpected validate output %q", stdout.String())
	}
	stderr.Reset()
	if code := run([]string{"--config", path, "config", "init"}, &stdout, &stderr); code != 1 {
		t.Fatalf("init over existing file exit=%d", code)
	}
}

func TestUnknownDriverRejected(t *testing.T) {
	ws := newWorkspace(t)
	code, _, errOut := ws.run(t, "read", "--driver", "carrier-pigeon")
	if code != 1 || !strings.Contains(errOut, "unknown driver") {
		t.Fatalf("exit=%d stderr=%q", code, errOut)
	}
}

func mustRead(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestWatchReturnsWhenCaptureExhausted(t *testing.T) {
	ws := newWorkspace(t)
	t.Setenv(gin.EnvGinMode, "")
	prev := gin.Mode()
	t.Cleanup(func() { gin.SetMode(prev) })

	done := make(chan int, 1)
	go func() {
		code, _, _ := ws.run(t, "watch", "--addr", "127.0.0.1:0")
		done <- code
	}()

	select {
	case code := <-done:
		if code != 0 {
			t.Fatalf("watch exit got=%d want=0", code)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch kept running after the capture was exhausted")
	}
	if gin.Mode() != gin.ReleaseMode {
		t.Fatalf("gin mode got=%s want=%s", gin.Mode(), gin.ReleaseMode)
	}
}
