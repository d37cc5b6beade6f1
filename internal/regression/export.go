package regression

import (
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// pointExport is the serialized form of a fitted point model.
type pointExport struct {
	ID           uuid.UUID `json:"id"`
	Kind         Kind      `json:"kind"`
	FeatureNames []string  `json:"feature_names"`
	Normalize    bool      `json:"normalize"`
	Means        []float64 `json:"means,omitempty"`
	Scales       []float64 `json:"scales,omitempty"`
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
}

// ExportJSON serializes fitted point model state.
func (m *PointModel) ExportJSON() ([]byte, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	return json.Marshal(pointExport{
		ID:           m.id,
		Kind:         KindPoint,
		FeatureNames: m.featureNames,
		Normalize:    m.opt.Normalize,
		Means:        m.means,
		Scales:       m.scales,
		Intercept:    m.intercept,
		Coefficients: m.coef,
	})
}

// bayesExport carries the posterior summary rather than the raw trace,
// which is large and reproducible from the seed.
type bayesExport struct {
	ID           uuid.UUID          `json:"id"`
	Kind         Kind               `json:"kind"`
	Hierarchical bool               `json:"hierarchical"`
	FeatureNames []string           `json:"feature_names"`
	GroupLevels  []string           `json:"group_levels,omitempty"`
	Draws        int                `json:"draws"`
	Tune         int                `json:"tune"`
	Chains       int                `json:"chains"`
	Posterior    []ParameterSummary `json:"posterior"`
}

// ExportJSON serializes fitted Bayesian model state.
func (m *BayesianModel) ExportJSON() ([]byte, error) {
	summary, err := m.Summary()
	if err != nil {
		return nil, err
	}
	return json.Marshal(bayesExport{
		ID:           m.id,
		Kind:         KindBayesian,
		Hierarchical: m.layout.hierarchical,
		FeatureNames: m.featureNames,
		GroupLevels:  m.groupLevels,
		Draws:        m.opt.Draws,
		Tune:         m.opt.Tune,
		Chains:       m.opt.Chains,
		Posterior:    summary,
	})
}
