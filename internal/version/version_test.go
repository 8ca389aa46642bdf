package version

import (
	"strings"
	"testing"
)

func TestUserAgentCarriesVersion(t *testing.T) {
	old := Version
	Version = "1.2.3"
	defer func() { Version = old }()

	if got := UserAgent(); got != "fxconvert/1.2.3" {
		t.Fatalf("unexpected user agent %q", got)
	}
	if !strings.HasPrefix(String(), "version: 1.2.3\n") {
		t.Fatalf("unexpected build info %q", String())
	}
}
