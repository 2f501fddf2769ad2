package pipeline

import (
	"context"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/nilshoffmann/iSLS10/domain/annotation"
	"github.com/nilshoffmann/iSLS10/domain/stats"
)

// statGroup collects the measured concentrations of one normalized
// feature, split by stratification code.
type statGroup struct {
	lipidName   string
	speciesName string
	a           []float64
	b           []float64
}

// Compare runs the two-group comparison per normalized feature:
// log2 fold change of group means, Welch's two-sided t-test, then one
// correction pass over the full feature p-value vector. Degenerate
// groups (size < 2 in either arm, zero variance in both arms, zero
// group-B mean) yield NaN metrics for that feature only; the batch
// never aborts on them.
func Compare(ctx context.Context, cohort []annotation.CohortRecord, params stats.Params) ([]stats.FeatureStats, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	codeA, codeB, err := groupCodes(cohort, params.GroupField)
	if err != nil {
		return nil, err
	}

	type groupKey struct {
		lipidName   string
		speciesName string
	}
	grouped := make(map[groupKey]*statGroup)
	order := make([]groupKey, 0)
	for _, r := range cohort {
		key := groupKey{lipidName: r.LipidName, speciesName: r.SpeciesName}
		g, ok := grouped[key]
		if !ok {
			g = &statGroup{lipidName: r.LipidName, speciesName: r.SpeciesName}
			grouped[key] = g
			order = append(order, key)
		}
		if !r.HasConc() {
			continue
		}
		switch r.Metadata[params.GroupField] {
		case codeA:
			g.a = append(g.a, r.Conc)
		case codeB:
			g.b = append(g.b, r.Conc)
		}
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].lipidName != order[j].lipidName {
			return order[i].lipidName < order[j].lipidName
		}
		return order[i].speciesName < order[j].speciesName
	})

	results := make([]stats.FeatureStats, len(order))
	eg, _ := errgroup.WithContext(ctx)
	workers := params.Workers
	if workers < 1 {
		workers = 1
	}
	eg.SetLimit(workers)
	for i, key := range order {
		eg.Go(func() error {
			results[i] = testFeature(grouped[key])
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	applyCorrection(results, params.Correction)
	for i := range results {
		results[i].Method = params.Correction
		results[i].Significance = stats.Classify(results[i].Log2FC, results[i].FDR, params.FCMin, params.FDRMax)
	}
	return results, nil
}

// groupCodes finds the two stratification codes. Group B is the
// lexically higher code, fixing the fold-change direction convention.
func groupCodes(cohort []annotation.CohortRecord, field string) (codeA, codeB string, err error) {
	seen := make(map[string]struct{})
	codes := make([]string, 0, 2)
	for _, r := range cohort {
		v, ok := r.Metadata[field]
		if !ok || v == "" {
			continue
		}
		if _, dup := seen[v]; !dup {
			seen[v] = struct{}{}
			codes = append(codes, v)
		}
	}
	if len(codes) != 2 {
		return "", "", fmt.Errorf("stratification field %q must have exactly two codes, found %d", field, len(codes))
	}
	sort.Strings(codes)
	return codes[0], codes[1], nil
}

// testFeature computes fold change and Welch's t-test for one feature.
func testFeature(g *statGroup) stats.FeatureStats {
	res := stats.FeatureStats{
		LipidName:   g.lipidName,
		SpeciesName: g.speciesName,
		NA:          len(g.a),
		NB:          len(g.b),
		MeanA:       math.NaN(),
		MeanB:       math.NaN(),
		Log2FC:      math.NaN(),
		TStat:       math.NaN(),
		PValue:      math.NaN(),
		FDR:         math.NaN(),
	}

	if len(g.a) > 0 {
		res.MeanA = mean(g.a)
	}
	if len(g.b) > 0 {
		res.MeanB = mean(g.b)
	}
	if len(g.a) > 0 && len(g.b) > 0 && res.MeanB != 0 {
		res.Log2FC = math.Log2(res.MeanB / res.MeanA)
	}

	if len(g.a) < 2 || len(g.b) < 2 {
		return res
	}

	nA, nB := float64(len(g.a)), float64(len(g.b))
	varA, varB := variance(g.a, res.MeanA), variance(g.b, res.MeanB)

	se := math.Sqrt(varA/nA + varB/nB)
	if se == 0 {
		// No variance in either arm: the test statistic is undefined.
		return res
	}
	res.TStat = (res.MeanB - res.MeanA) / se

	// Welch-Satterthwaite degrees of freedom
	df := math.Pow(varA/nA+varB/nB, 2) /
		(math.Pow(varA/nA, 2)/(nA-1) + math.Pow(varB/nB, 2)/(nB-1))

	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	res.PValue = 2 * tDist.CDF(-math.Abs(res.TStat))
	return res
}

// applyCorrection corrects the full feature-level p-value vector in a
// single pass. NaN p-values stay NaN and do not enter the family size.
func applyCorrection(results []stats.FeatureStats, method stats.Correction) {
	idx := make([]int, 0, len(results))
	for i := range results {
		if !math.IsNaN(results[i].PValue) {
			idx = append(idx, i)
		}
	}
	m := len(idx)
	if m == 0 {
		return
	}

	switch method {
	case stats.CorrectionBonferroni:
		for _, i := range idx {
			results[i].FDR = math.Min(results[i].PValue*float64(m), 1)
		}
	default:
		// Benjamini-Hochberg step-up: rank ascending, q = p*m/rank,
		// then enforce monotonicity from the largest p downwards.
		sort.Slice(idx, func(a, b int) bool {
			return results[idx[a]].PValue < results[idx[b]].PValue
		})
		q := make([]float64, m)
		for rank, i := range idx {
			q[rank] = results[i].PValue * float64(m) / float64(rank+1)
		}
		for rank := m - 2; rank >= 0; rank-- {
			q[rank] = math.Min(q[rank], q[rank+1])
		}
		for rank, i := range idx {
			results[i].FDR = math.Min(q[rank], 1)
		}
	}
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func variance(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return sumSq / float64(len(values)-1)
}
