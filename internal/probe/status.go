// Package probe implements the status file loop: a write chain that keeps
// the file fresh and a check chain that randomly simulates a crash.
package probe

import "fmt"

const (
	// MaxValue bounds the random draw of a check cycle: [0, MaxValue).
	MaxValue = 10
	// TriggerValue is the draw that simulates the crash.
	TriggerValue = 7
)

const statusTemplate = "Pod is alive! 🤠\n" +
	"      Counter: %d\n" +
	"      Random number: %d.\n" +
	"      ----------------------------------"

// Status is the record mirrored into the status file.
type Status struct {
	Counter      int    `json:"counter"`
	RandomNumber int    `json:"random_number"`
	Text         string `json:"text"`
}

// NewStatus renders a Status for the given counter and random number.
func NewStatus(counter, randomNumber int) Status {
	return Status{
		Counter:      counter,
		RandomNumber: randomNumber,
		Text:         Render(counter, randomNumber),
	}
}

// Render returns the status file text.
func Render(counter, randomNumber int) string {
	return fmt.Sprintf(statusTemplate, counter, randomNumber)
}
