package config

import (
	"fmt"
	"os"
)

func Template() string {
	return defaultTemplate
}

// WriteTemplate writes a commented starter config to path.
func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(defaultTemplate), 0o600)
}

const defaultTemplate = `# pamrfid configuration

[reader]
# serial reads a tty; file replays a captured byte stream.
driver = "serial"
port = "/dev/ttyUSB0"
baud_rate = 9600
byte_timeout = "2s"
# how long "pamrfid auth" waits for a tag to be presented
wait_timeout = "30s"
max_attempts = 3

[log]
level = "info"
syslog = true
syslog_tag = "pamrfid"

[audit]
# empty disables the audit trail
path = "/var/lib/pamrfid/audit.db"

[metrics]
# diagnostics endpoint served by "pamrfid watch"
addr = "127.0.0.1:9105"
# browser origins allowed to poll /last; empty allows only http://localhost:3000
# cors_origins = ["http://localhost:3000"]

[users]
# name = "<salt>,<sha256 hex of salt + raw tag>"
# use "pamrfid enroll <name>" to add entries
`
