/*
File: supervisor_test.go
Description: Tests for the restart supervisor's child detection and exit code
handling. The respawn loop itself is exercised end to end by running the
binary and is not unit-tested here.
*/

package restart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsChild(t *testing.T) {
	t.Setenv(childEnv, "")
	assert.False(t, IsChild())

	t.Setenv(childEnv, "1")
	assert.True(t, IsChild())

	t.Setenv(childEnv, "0")
	assert.False(t, IsChild())
}
