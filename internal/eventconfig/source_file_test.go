package eventconfig_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pintcert/internal/eventconfig"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "years.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFileSource_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("parses a valid document", func(t *testing.T) {
		path := writeConfigFile(t, `{
			"2024": {
				"colors": ["#111111", "#222222", "#333333", "#444444"],
				"images": {"logo": "assets/logo.png"},
				"hour_rules": {"hours_per_day": 6, "hours_per_event": 30}
			},
			"_default": {
				"colors": ["#aaaaaa", "#bbbbbb", "#cccccc", "#dddddd"],
				"hour_rules": {"hours_per_day": 4, "hours_per_event": 40}
			}
		}`)

		doc, err := eventconfig.NewFileSource(path).Load(ctx)
		require.NoError(t, err)
		require.Len(t, doc, 2)

		assert.Equal(t, "assets/logo.png", doc["2024"].Images.Logo)
		assert.Equal(t, 6, doc["2024"].HourRules.HoursPerDay)
		assert.Equal(t, 40, doc[eventconfig.DefaultKey].HourRules.HoursPerEvent)
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		path := writeConfigFile(t, `{"2024": `)

		_, err := eventconfig.NewFileSource(path).Load(ctx)
		assert.Error(t, err)
	})

	t.Run("rejects an invalid entry", func(t *testing.T) {
		path := writeConfigFile(t, `{
			"2024": {
				"colors": ["#111111", "#222222", "#333333", "#444444"],
				"hour_rules": {"hours_per_day": 0, "hours_per_event": 30}
			}
		}`)

		_, err := eventconfig.NewFileSource(path).Load(ctx)
		assert.ErrorContains(t, err, "2024")
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := eventconfig.NewFileSource(filepath.Join(t.TempDir(), "absent.json")).Load(ctx)
		assert.Error(t, err)
	})
}
