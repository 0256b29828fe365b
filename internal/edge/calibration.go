package edge

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Bucket is one row of the frozen calibration table: historical outcomes
// for edges whose magnitude fell in [MinEdge, MaxEdge).
type Bucket struct {
	MinEdge float64 `json:"min_edge"`
	MaxEdge float64 `json:"max_edge"`
	Samples int     `json:"samples"`
	Wins    int     `json:"wins"`
	ROI     float64 `json:"roi"`
}

// WinRate returns the bucket's empirical win rate
func (b Bucket) WinRate() float64 {
	if b.Samples == 0 {
		return 0
	}
	return float64(b.Wins) / float64(b.Samples)
}

// Calibration maps an edge magnitude to an empirical win probability. The
// table is produced offline from historical outcomes and loaded frozen; the
// pipeline never updates it.
type Calibration struct {
	Buckets    []Bucket `json:"buckets"`
	MinSamples int      `json:"min_samples"`
}

// DefaultCalibration returns the built-in table, used when no external
// table is configured. Values come from multi-season closing-line backtests.
func DefaultCalibration() *Calibration {
	return &Calibration{
		MinSamples: 25,
		Buckets: []Bucket{
			{MinEdge: 0.0, MaxEdge: 1.0, Samples: 412, Wins: 203, ROI: -0.042},
			{MinEdge: 1.0, MaxEdge: 2.0, Samples: 368, Wins: 190, ROI: -0.011},
			{MinEdge: 2.0, MaxEdge: 3.0, Samples: 301, Wins: 162, ROI: 0.028},
			{MinEdge: 3.0, MaxEdge: 4.0, Samples: 214, Wins: 119, ROI: 0.061},
			{MinEdge: 4.0, MaxEdge: 5.0, Samples: 141, Wins: 81, ROI: 0.097},
			{MinEdge: 5.0, MaxEdge: 6.5, Samples: 87, Wins: 51, ROI: 0.118},
			{MinEdge: 6.5, MaxEdge: 8.0, Samples: 39, Wins: 23, ROI: 0.126},
			{MinEdge: 8.0, MaxEdge: 99.0, Samples: 18, Wins: 10, ROI: 0.064},
		},
	}
}

// LoadCalibration reads a frozen calibration table from a JSON file.
func LoadCalibration(path string) (*Calibration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read calibration file: %w", err)
	}

	var cal Calibration
	if err := json.Unmarshal(data, &cal); err != nil {
		return nil, fmt.Errorf("failed to parse calibration file: %w", err)
	}
	if err := cal.Validate(); err != nil {
		return nil, err
	}
	return &cal, nil
}

// Validate checks the table is usable: non-empty, sane bounds, and sorted
// ascending by lower bound.
func (c *Calibration) Validate() error {
	if len(c.Buckets) == 0 {
		return fmt.Errorf("calibration table has no buckets")
	}
	if c.MinSamples <= 0 {
		return fmt.Errorf("calibration min_samples must be positive, got %d", c.MinSamples)
	}
	sort.Slice(c.Buckets, func(i, j int) bool {
		return c.Buckets[i].MinEdge < c.Buckets[j].MinEdge
	})
	for _, b := range c.Buckets {
		if b.MaxEdge <= b.MinEdge {
			return fmt.Errorf("calibration bucket [%.1f, %.1f) has inverted bounds", b.MinEdge, b.MaxEdge)
		}
		if b.Wins > b.Samples {
			return fmt.Errorf("calibration bucket [%.1f, %.1f) has more wins than samples", b.MinEdge, b.MaxEdge)
		}
	}
	return nil
}

// WinProbability returns the empirical win probability for an edge
// magnitude. When the matching bucket has too few samples, the cumulative
// win rate at that threshold (all samples with magnitude at or above the
// bucket's lower bound) is used instead of the unstable per-bucket rate.
func (c *Calibration) WinProbability(magnitude float64) float64 {
	bucket := c.bucketFor(magnitude)
	if bucket == nil {
		// Beyond the table's range: use the cumulative rate from the
		// last bucket's threshold.
		last := c.Buckets[len(c.Buckets)-1]
		return c.cumulativeRate(last.MinEdge)
	}

	if bucket.Samples >= c.MinSamples {
		return bucket.WinRate()
	}
	return c.cumulativeRate(bucket.MinEdge)
}

// BucketROI returns the matching bucket's historical ROI, or 0 if the
// magnitude falls outside the table.
func (c *Calibration) BucketROI(magnitude float64) float64 {
	if bucket := c.bucketFor(magnitude); bucket != nil {
		return bucket.ROI
	}
	return 0
}

func (c *Calibration) bucketFor(magnitude float64) *Bucket {
	for i := range c.Buckets {
		if magnitude >= c.Buckets[i].MinEdge && magnitude < c.Buckets[i].MaxEdge {
			return &c.Buckets[i]
		}
	}
	return nil
}

// cumulativeRate pools every bucket at or above the threshold. Falls back
// to the whole table's pooled rate if even that has no samples.
func (c *Calibration) cumulativeRate(threshold float64) float64 {
	var samples, wins int
	for _, b := range c.Buckets {
		if b.MinEdge >= threshold {
			samples += b.Samples
			wins += b.Wins
		}
	}
	if samples == 0 {
		for _, b := range c.Buckets {
			samples += b.Samples
			wins += b.Wins
		}
	}
	if samples == 0 {
		return 0
	}
	return float64(wins) / float64(samples)
}
