package pipeline

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/nilshoffmann/iSLS10/domain/annotation"
	"github.com/nilshoffmann/iSLS10/domain/measure"
	"github.com/nilshoffmann/iSLS10/ports"
)

// waterLossToken marks in-source fragmentation transitions; measured
// names carrying it are collapsed onto the parent species name.
const waterLossToken = "-H2O"

// chainPrefixRe matches the vendor's carbon prefix on the N-acyl chain,
// e.g. "Cer d18:1/C24:0". The parser grammar expects "/24:0".
var chainPrefixRe = regexp.MustCompile(`/C(\d)`)

// RewriteName rewrites a measured lipid name into parser-compatible
// syntax. The rules are fixed literal or single-pattern substitutions,
// applied in order; the result is stable under re-application.
func RewriteName(name string) string {
	s := strings.ReplaceAll(name, waterLossToken, "")
	s = chainPrefixRe.ReplaceAllString(s, "/$1")
	s = strings.ReplaceAll(s, "MHCer", "HexCer")
	s = strings.ReplaceAll(s, "DHCer", "Hex2Cer")
	s = strings.ReplaceAll(s, "Sphd", "Sph d")
	return s
}

// Normalize rewrites every distinct feature name, submits the
// deduplicated set to the external parser in a single batch, and joins
// the annotations back onto the long table by rewritten name.
//
// Names the parser omitted are returned as the unparsed set — the
// explicit difference between submitted and returned names — so no
// omission is ever silent. Their rows keep nil annotations and their
// original concentrations. A parser transport or decode error fails
// the whole stage; there is no per-name recovery because the call is
// one batch.
func Normalize(ctx context.Context, long []measure.LongRecord, parser ports.LipidParser, grammar string) ([]annotation.NormalizedRecord, []string, error) {
	rewritten := make(map[string]string) // original feature -> rewritten name
	submitSet := make(map[string]struct{})
	for _, r := range long {
		if _, ok := rewritten[r.Feature]; ok {
			continue
		}
		rw := RewriteName(r.Feature)
		rewritten[r.Feature] = rw
		submitSet[rw] = struct{}{}
	}

	submit := make([]string, 0, len(submitSet))
	for name := range submitSet {
		submit = append(submit, name)
	}
	sort.Strings(submit)

	parsed, err := parser.ParseNames(ctx, submit, grammar)
	if err != nil {
		return nil, nil, err
	}

	byName := make(map[string]*annotation.Annotation, len(parsed))
	for i := range parsed {
		byName[parsed[i].OriginalName] = &parsed[i]
	}

	// Every submitted name is either matched or reported: never neither.
	unparsed := make([]string, 0)
	for _, name := range submit {
		if _, ok := byName[name]; !ok {
			unparsed = append(unparsed, name)
		}
	}

	out := make([]annotation.NormalizedRecord, 0, len(long))
	for _, r := range long {
		rw := rewritten[r.Feature]
		rec := annotation.NormalizedRecord{
			LongRecord:          r,
			SpeciesNameOriginal: r.Feature,
			SpeciesName:         rw,
		}
		if ann, ok := byName[rw]; ok {
			rec.LipidName = ann.NormalizedName
			rec.Parsed = ann
		}
		out = append(out, rec)
	}
	return out, unparsed, nil
}
