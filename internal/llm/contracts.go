package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/GreenhouseOperations/packingslip-parser/internal/slip"
)

// ErrTimeout marks a collaborator call that ran past its deadline. The
// orchestrator treats it like a malformed response: retry, then give up.
var ErrTimeout = errors.New("extraction call timed out")

// PageText is one page of extracted slip text, as handed to the collaborator.
type PageText struct {
	Number int
	Text   string
}

// ExtractRequest describes one collaborator call. Hint carries the failure
// reason from a previous attempt so a retry prompt can be refined.
type ExtractRequest struct {
	Pages []PageText
	Hint  string
}

// RecordExtractor is the narrow interface the pipeline depends on. The
// collaborator is non-deterministic and schema-free; everything it returns is
// a CandidateRecord until the validator says otherwise.
type RecordExtractor interface {
	ExtractRecords(ctx context.Context, req ExtractRequest) ([]slip.CandidateRecord, []byte /*rawJSON*/, error)
	Ping(ctx context.Context) error
}

// MalformedResponseError marks a collaborator response that could not be
// parsed into the expected JSON shape. The orchestrator retries these with an
// augmented prompt.
type MalformedResponseError struct {
	Reason string
	Raw    []byte
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed collaborator response: %s", e.Reason)
}
