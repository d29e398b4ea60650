package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/adalundhe/strata/core/executor"
	"github.com/adalundhe/strata/core/providers"
)

const summarizerTimeout = 5 * time.Second

// FailureSummarizer asks the cheap compute resource for a one-paragraph
// diagnosis of an exhausted escalation. It exists purely for the operator
// logs and is always best effort.
type FailureSummarizer struct {
	resources    ResourceResolver
	resourceName string
}

// NewFailureSummarizer builds a summarizer bound to the named resource.
func NewFailureSummarizer(resources ResourceResolver, resourceName string) *FailureSummarizer {
	return &FailureSummarizer{
		resources:    resources,
		resourceName: resourceName,
	}
}

// SummarizeFailures condenses the attempt history into a short diagnosis.
func (f *FailureSummarizer) SummarizeFailures(ctx context.Context, records []executor.AttemptRecord) (string, error) {
	if f.resources == nil {
		return "", nil
	}

	invoker, err := f.resources.Resolve(f.resourceName)
	if err != nil {
		return "", err
	}

	raw, err := invoker.Invoke(ctx, providers.Payload{
		Question: diagnosisPrompt(records),
	}, summarizerTimeout)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

func diagnosisPrompt(records []executor.AttemptRecord) string {
	var sb strings.Builder
	sb.WriteString("Summarize in one short paragraph why these query generation attempts failed:\n")
	for _, record := range records {
		fmt.Fprintf(&sb, "- attempt %d on %s: %s\n",
			record.AttemptIndex, record.ResourceName, record.ErrorDetail)
	}
	return sb.String()
}
