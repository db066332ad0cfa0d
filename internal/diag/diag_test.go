package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCounting(t *testing.T) {
	ResetErrors()
	defer ResetErrors()

	for i := 0; i < 5; i++ {
		Error("solve failed in cell %d", i)
	}
	Error("different failure")

	assert.Equal(t, 5, ErrorCount("solve failed in cell %d"))
	assert.Equal(t, 1, ErrorCount("different failure"))
	assert.Equal(t, 0, ErrorCount("never reported"))
}

func TestErrorCapKeepsCounting(t *testing.T) {
	ResetErrors()
	defer func() {
		ResetErrors()
		SetPrintMax(100)
	}()

	// Printing stops at the cap but the count keeps running.
	SetPrintMax(3)
	for i := 0; i < 10; i++ {
		Error("repeated failure %d", i)
	}
	assert.Equal(t, 10, ErrorCount("repeated failure %d"))
}

func TestResetErrors(t *testing.T) {
	Error("stale failure")
	ResetErrors()
	assert.Equal(t, 0, ErrorCount("stale failure"))
}
