package session

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/AlexsanderHamir/dbpool/internal/poolerr"
)

// ParseCredentialsFile reads the "user"/"password"/"url" key/value
// external form from spec §6, applying the same missing-key policy as
// the settings file provider: absence of any key is fatal.
func ParseCredentialsFile(path string) (Credentials, error) {
	f, err := os.Open(path)
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: opening credentials file: %w", poolerr.ErrConfigMissing, err)
	}
	defer f.Close()
	return ParseCredentialsReader(f)
}

// ParseCredentialsReader is ParseCredentialsFile without the filesystem.
func ParseCredentialsReader(r io.Reader) (Credentials, error) {
	values := make(map[string]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.Index(line, "=")
		if idx < 0 {
			continue
		}
		values[strings.TrimSpace(line[:idx])] = strings.TrimSpace(line[idx+1:])
	}
	if err := scanner.Err(); err != nil {
		return Credentials{}, fmt.Errorf("reading credentials: %w", err)
	}

	var missing []string
	for _, key := range []string{"user", "password", "url"} {
		if _, ok := values[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return Credentials{}, fmt.Errorf("%w: %s", poolerr.ErrConfigMissing, strings.Join(missing, ", "))
	}

	return Credentials{
		User:     values["user"],
		Password: values["password"],
		URL:      values["url"],
	}, nil
}
