package migrations

import (
	"io/fs"
	"regexp"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fileNamePattern = regexp.MustCompile(`^(\d{6})_([a-z_]+)\.(up|down)\.sql$`)

func TestEmbeddedMigrations_PairedAndContiguous(t *testing.T) {
	entries, err := fs.ReadDir(FS, ".")
	require.NoError(t, err)

	ups := map[int]string{}
	downs := map[int]string{}
	for _, entry := range entries {
		m := fileNamePattern.FindStringSubmatch(entry.Name())
		require.NotNil(t, m, "unexpected migration file name %q", entry.Name())

		version, err := strconv.Atoi(m[1])
		require.NoError(t, err)

		if m[3] == "up" {
			ups[version] = m[2]
		} else {
			downs[version] = m[2]
		}
	}

	require.NotEmpty(t, ups)
	assert.Equal(t, len(ups), len(downs), "every up migration needs a down migration")

	for v := 1; v <= len(ups); v++ {
		name, ok := ups[v]
		if assert.True(t, ok, "missing up migration %06d", v) {
			assert.Equal(t, name, downs[v], "down migration name mismatch for %06d", v)
		}
	}
}

func TestEmbeddedMigrations_NotEmpty(t *testing.T) {
	entries, err := fs.ReadDir(FS, ".")
	require.NoError(t, err)

	for _, entry := range entries {
		data, err := fs.ReadFile(FS, entry.Name())
		require.NoError(t, err)
		assert.NotEmpty(t, data, "%s is empty", entry.Name())
	}
}
