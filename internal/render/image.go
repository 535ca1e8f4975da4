package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// imageTimeout bounds the external layout call so a hung dot process
// cannot block the text/DOT outputs already computed.
const imageTimeout = 15 * time.Second

// ExternalToolError reports that the external layout renderer is
// missing or failed. Callers recover by falling back to DOT output.
type ExternalToolError struct {
	Tool string
	Err  error
}

func (e *ExternalToolError) Error() string {
	return fmt.Sprintf("external renderer %s: %v", e.Tool, e.Err)
}

func (e *ExternalToolError) Unwrap() error {
	return e.Err
}

// Image renders the graph to a PNG at outPath by piping DOT through the
// Graphviz dot binary. Returns ExternalToolError when dot is not on
// PATH or exits non-zero; the DOT text itself is always produced first
// and is unaffected by the failure.
func Image(ctx context.Context, v *View, outPath string) error {
	dotBin, err := exec.LookPath("dot")
	if err != nil {
		return &ExternalToolError{Tool: "dot", Err: err}
	}

	var src bytes.Buffer
	DOT(&src, v)

	ctx, cancel := context.WithTimeout(ctx, imageTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, dotBin, "-Tpng", "-o", outPath)
	cmd.Stdin = &src
	out, err := cmd.CombinedOutput()
	if err != nil {
		return &ExternalToolError{Tool: "dot", Err: fmt.Errorf("%w\n%s", err, strings.TrimSpace(string(out)))}
	}

	if _, err := os.Stat(outPath); err != nil {
		return &ExternalToolError{Tool: "dot", Err: fmt.Errorf("no output written: %w", err)}
	}
	return nil
}
