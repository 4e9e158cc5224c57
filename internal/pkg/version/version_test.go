//go:build unit

package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	info := parse("3f2c1ab9d0e4\n", "main\n", "v1.2.0", "dirty\n")
	assert.Equal(t, GitInfo{Commit: "3f2c1ab9d0e4", Branch: "main", Tag: "v1.2.0", Dirty: true}, info)
	assert.Equal(t, "v1.2.0 (main@3f2c1ab, dirty)", info.String())

	clean := parse("abc", "dev", "none", "clean")
	assert.False(t, clean.Dirty)
	assert.Equal(t, "none (dev@abc)", clean.String())
}
