package connection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Subprocess talks to the analysis server by invoking its client binary
// once per query: `<binary> [args...] query <text>`. The binary forwards
// the query to the long-running server and prints the JSON reply on
// stdout. Server-side failures come back as an {"error": ...} envelope,
// which is surfaced as *QueryError.
type Subprocess struct {
	binary string
	args   []string
	logger *zap.Logger
}

// NewSubprocess creates a subprocess-backed connection. args are inserted
// before the query subcommand (e.g. workspace or configuration flags).
// A nil logger disables logging.
func NewSubprocess(binary string, args []string, logger *zap.Logger) *Subprocess {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Subprocess{binary: binary, args: args, logger: logger}
}

// QueryServer implements Connection. The context bounds the whole round
// trip; cancellation kills the subprocess.
func (c *Subprocess) QueryServer(ctx context.Context, query string) (json.RawMessage, error) {
	if c.binary == "" {
		return nil, fmt.Errorf("no server binary configured")
	}

	requestID := uuid.NewString()
	args := make([]string, 0, len(c.args)+2)
	args = append(args, c.args...)
	args = append(args, "query", query)

	c.logger.Debug("Issuing server query",
		zap.String("request_id", requestID),
		zap.String("query", query))

	cmd := exec.CommandContext(ctx, c.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	reply, parseErr := parseReply(stdout.Bytes())
	if parseErr != nil {
		if runErr != nil {
			// The run failed and stdout is not a JSON reply; treat
			// whatever the process emitted as the server's textual
			// error payload.
			return nil, &QueryError{Message: textualPayload(&stdout, &stderr, runErr)}
		}
		return nil, fmt.Errorf("malformed server reply: %w", parseErr)
	}

	if reply.Error != "" {
		c.logger.Debug("Server returned error envelope",
			zap.String("request_id", requestID),
			zap.String("error", reply.Error))
		return nil, &QueryError{Message: reply.Error}
	}

	c.logger.Debug("Server query completed",
		zap.String("request_id", requestID),
		zap.Int("reply_bytes", len(reply.raw)))
	return reply.raw, nil
}

// serverReply is the outermost document printed by the client binary.
// Successful queries carry their payload under "response"; failures carry
// a textual "error".
type serverReply struct {
	Error string `json:"error"`

	raw json.RawMessage
}

func parseReply(out []byte) (*serverReply, error) {
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty reply")
	}
	var reply serverReply
	if err := json.Unmarshal(trimmed, &reply); err != nil {
		return nil, err
	}
	reply.raw = json.RawMessage(trimmed)
	return &reply, nil
}

// textualPayload picks the most useful error text from a failed run:
// stdout first (legacy servers print validation errors there), then
// stderr, then the exec error itself.
func textualPayload(stdout, stderr *bytes.Buffer, runErr error) string {
	if s := strings.TrimSpace(stdout.String()); s != "" {
		return s
	}
	if s := strings.TrimSpace(stderr.String()); s != "" {
		return s
	}
	return runErr.Error()
}
