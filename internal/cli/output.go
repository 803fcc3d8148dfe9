package cli

import (
	"encoding/json"
	"fmt"
	"os"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// PrintEvent prints one inbound server event. In json mode the raw
// frame is passed through; in text mode it is summarized by type.
func (o *Output) PrintEvent(raw []byte) {
	if o.format == "json" {
		fmt.Println(string(raw))
		return
	}

	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		fmt.Println(string(raw))
		return
	}

	evtType, _ := generic["type"].(string)
	fmt.Printf("[%s]", evtType)
	if msg, ok := generic["message"].(string); ok && msg != "" {
		fmt.Printf(" %s", msg)
	}
	if roomID, ok := generic["roomId"].(string); ok && roomID != "" {
		fmt.Printf(" room=%s", roomID)
	}
	if round, ok := generic["currentRound"].(float64); ok && round > 0 {
		fmt.Printf(" round=%d", int(round))
	}
	if turn, ok := generic["currentTurnPlayerId"].(string); ok && turn != "" {
		fmt.Printf(" turn=%s", turn)
	}
	fmt.Println()
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]any{"error": map[string]string{"message": err.Error()}})
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}
