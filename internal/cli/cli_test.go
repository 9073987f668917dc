package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/models"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "version: dev")
	assert.Contains(t, out, "commit: unknown")
}

func TestSimulateCommand(t *testing.T) {
	t.Setenv("GRIDFAULT_KAFKA_CONSUMER_COUNT", "0")
	out, err := execute(t, "simulate", "--fault", "short_circuit", "--count", "1", "--feeder", "F-42")
	require.NoError(t, err)

	var msg models.WaveformMessage
	require.NoError(t, json.Unmarshal([]byte(out), &msg))
	assert.Equal(t, "F-42", msg.FeederID)
	assert.Equal(t, 1000, msg.Window.SamplingRateHz)
}

func TestSimulateRejectsUnknownFault(t *testing.T) {
	_, err := execute(t, "simulate", "--fault", "brownout")
	assert.Error(t, err)
}

func TestClassifyRequiresFile(t *testing.T) {
	classifyFile = ""
	_, err := execute(t, "classify")
	assert.Error(t, err)
}
