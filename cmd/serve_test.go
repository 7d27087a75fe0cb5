package cmd

import (
	"testing"

	"github.com/spf13/cobra"
)

func newServeFlags() *cobra.Command {
	c := &cobra.Command{Use: "serve"}
	c.Flags().Int("port", 8080, "")
	c.Flags().String("host", "0.0.0.0", "")
	c.Flags().String("session-secret", "", "")
	return c
}

func TestResolveServeHostPort(t *testing.T) {
	t.Run("flags", func(t *testing.T) {
		t.Setenv("WEB_PORT", "")
		t.Setenv("WEB_HOST", "")
		t.Setenv("WEB_SESSION_SECRET", "")
		c := newServeFlags()
		_ = c.Flags().Set("port", "9000")
		_ = c.Flags().Set("session-secret", "flag-secret")

		port, host, secret := resolveServeHostPort(c)
		if port != 9000 || host != "0.0.0.0" || secret != "flag-secret" {
			t.Errorf("got %d %q %q", port, host, secret)
		}
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("WEB_PORT", "7000")
		t.Setenv("WEB_HOST", "127.0.0.1")
		t.Setenv("WEB_SESSION_SECRET", "env-secret")

		port, host, secret := resolveServeHostPort(newServeFlags())
		if port != 7000 || host != "127.0.0.1" || secret != "env-secret" {
			t.Errorf("got %d %q %q", port, host, secret)
		}
	})

	t.Run("invalid port ignored", func(t *testing.T) {
		t.Setenv("WEB_PORT", "abc")
		t.Setenv("WEB_HOST", "")
		t.Setenv("WEB_SESSION_SECRET", "")

		port, _, _ := resolveServeHostPort(newServeFlags())
		if port != 8080 {
			t.Errorf("port = %d, want 8080", port)
		}
	})
}
