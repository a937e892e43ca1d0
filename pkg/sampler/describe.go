package sampler

import (
	"github.com/montanaflynn/stats"

	"github.com/matzehuels/particula/pkg/errors"
)

// Stats summarizes the spatial distribution of a cloud.
type Stats struct {
	Count        int     `json:"count"`
	MeanRadius   float64 `json:"mean_radius"`
	MedianRadius float64 `json:"median_radius"`
	P95Radius    float64 `json:"p95_radius"`
	MaxRadius    float64 `json:"max_radius"`
	RadiusStdDev float64 `json:"radius_stddev"`
	Extent       Vec3    `json:"extent"`
	MeanJitter   float64 `json:"mean_jitter"`
}

// Describe computes distance-from-origin statistics for c.
// It returns an INVALID_INPUT error for an empty cloud.
func Describe(c *PointCloud) (Stats, error) {
	if c.Len() == 0 {
		return Stats{}, errors.New(errors.ErrCodeInvalidInput, "cannot describe an empty point cloud")
	}

	radii := make(stats.Float64Data, c.Len())
	for i, p := range c.Points {
		radii[i] = p.Len()
	}

	var (
		s   = Stats{Count: c.Len()}
		err error
	)
	if s.MeanRadius, err = radii.Mean(); err != nil {
		return Stats{}, errors.Wrap(errors.ErrCodeInternal, err, "mean radius")
	}
	if s.MedianRadius, err = radii.Median(); err != nil {
		return Stats{}, errors.Wrap(errors.ErrCodeInternal, err, "median radius")
	}
	if s.P95Radius, err = radii.Percentile(95); err != nil {
		return Stats{}, errors.Wrap(errors.ErrCodeInternal, err, "p95 radius")
	}
	if s.MaxRadius, err = radii.Max(); err != nil {
		return Stats{}, errors.Wrap(errors.ErrCodeInternal, err, "max radius")
	}
	if s.RadiusStdDev, err = radii.StandardDeviation(); err != nil {
		return Stats{}, errors.Wrap(errors.ErrCodeInternal, err, "radius stddev")
	}
	if s.MeanJitter, err = stats.Mean(c.Jitter); err != nil {
		return Stats{}, errors.Wrap(errors.ErrCodeInternal, err, "mean jitter")
	}

	lo, hi := c.Bounds()
	s.Extent = Vec3{hi.X - lo.X, hi.Y - lo.Y, hi.Z - lo.Z}
	return s, nil
}
