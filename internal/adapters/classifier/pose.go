package classifier

import (
	"fmt"
	"math"

	"github.com/bft-labs/gesturebridge/internal/domain"
)

// Pose layout: 25 joints, each x, y, z.
const (
	PoseJoints = 25
	PoseValues = PoseJoints * 3
)

// Joint indices used by the pose features.
const (
	JointHead      = 3
	JointHandLeft  = 4
	JointHandRight = 7
	JointFootRight = 19
	JointFootLeft  = 22
)

// PoseFeatureCount is the length of the vector produced by PoseExtractor.
const PoseFeatureCount = 5

var posePairs = [PoseFeatureCount][2]int{
	{JointHandLeft, JointHandRight},
	{JointHandLeft, JointFootLeft},
	{JointHandRight, JointFootRight},
	{JointHandLeft, JointHead},
	{JointHandRight, JointHead},
}

// PoseExtractor turns a 75-value skeleton into five joint distances.
type PoseExtractor struct{}

// Extract implements ports.FeatureExtractor.
func (PoseExtractor) Extract(pose []float64) ([]float64, error) {
	if len(pose) != PoseValues {
		return nil, fmt.Errorf("%w: pose has %d values, want %d", domain.ErrMalformedMessage, len(pose), PoseValues)
	}
	out := make([]float64, PoseFeatureCount)
	for i, p := range posePairs {
		out[i] = jointDistance(pose, p[0], p[1])
	}
	return out, nil
}

func jointDistance(pose []float64, a, b int) float64 {
	dx := pose[3*a] - pose[3*b]
	dy := pose[3*a+1] - pose[3*b+1]
	dz := pose[3*a+2] - pose[3*b+2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
