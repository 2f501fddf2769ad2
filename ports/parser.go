package ports

import (
	"context"

	"github.com/nilshoffmann/iSLS10/domain/annotation"
)

// LipidParser is the external name-parsing capability (goslin). One
// call covers the whole deduplicated name set for a run; the returned
// OriginalName values are a subset of the submitted names, with
// unparsable names silently omitted. Callers must diff the two sets
// themselves. An error from ParseNames is fatal for the normalization
// stage; there is no per-name fallback.
type LipidParser interface {
	ParseNames(ctx context.Context, names []string, grammar string) ([]annotation.Annotation, error)
}
