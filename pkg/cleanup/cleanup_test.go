package cleanup

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunExecutesTasksInOrder(t *testing.T) {
	cleaner := New()

	var order []string
	cleaner.Add("first", func() error {
		order = append(order, "first")
		return nil
	})
	cleaner.Add("second", func() error {
		order = append(order, "second")
		return nil
	})

	cleaner.Run()
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestRunExecutesOnlyOnce(t *testing.T) {
	cleaner := New()

	runs := 0
	cleaner.Add("count", func() error {
		runs++
		return nil
	})

	cleaner.Run()
	cleaner.Run()
	assert.Equal(t, 1, runs)
}

func TestRunContinuesPastFailures(t *testing.T) {
	cleaner := New()

	var order []string
	cleaner.Add("failing", func() error {
		order = append(order, "failing")
		return fmt.Errorf("boom")
	})
	cleaner.Add("surviving", func() error {
		order = append(order, "surviving")
		return nil
	})

	cleaner.Run()
	assert.Equal(t, []string{"failing", "surviving"}, order)
}

func TestRunWithoutTasks(t *testing.T) {
	assert.NotPanics(t, func() {
		New().Run()
	})
}
