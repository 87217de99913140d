package commands

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunMigrations(t *testing.T) {
	t.Run("invalid-driver", func(t *testing.T) {
		restore := setEnv(t, map[string]string{
			"DB_DRIVER":           "invalid",
			"DB_CONNECTION_STRING": "postgres://localhost",
		})
		defer restore()

		err := RunMigrations()
		require.Error(t, err)
	})

	t.Run("invalid-connection-string", func(t *testing.T) {
		restore := setEnv(t, map[string]string{
			"DB_DRIVER":           "postgres",
			"DB_CONNECTION_STRING": "invalid-connection-string",
		})
		defer restore()

		err := RunMigrations()
		require.Error(t, err)
	})
}

func setEnv(t *testing.T, vars map[string]string) func() {
	t.Helper()
	originals := make(map[string]string, len(vars))
	hadOriginal := make(map[string]bool, len(vars))

	for k, v := range vars {
		if orig, ok := os.LookupEnv(k); ok {
			originals[k] = orig
			hadOriginal[k] = true
		}
		require.NoError(t, os.Setenv(k, v))
	}

	return func() {
		for k := range vars {
			if hadOriginal[k] {
				_ = os.Setenv(k, originals[k])
			} else {
				_ = os.Unsetenv(k)
			}
		}
	}
}
