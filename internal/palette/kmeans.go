package palette

import (
	"context"
	"math/rand/v2"
	"slices"

	"github.com/muesli/clusters"
)

// partition runs Lloyd's k-means over obs with centroids seeded from k
// distinct observations chosen by a PCG source derived from seed. A round
// reassigns every observation and recentres every cluster; clusters that
// received no observation keep their previous centre. It stops after
// maxIterations rounds or as soon as no centre moves, and reports how many
// rounds ran.
func partition(ctx context.Context, obs clusters.Observations, k, maxIterations int, seed uint64) (clusters.Clusters, int, error) {
	if k > len(obs) {
		k = len(obs)
	}
	rng := rand.New(rand.NewPCG(seed, seed))
	cc := make(clusters.Clusters, k)
	for i, idx := range rng.Perm(len(obs))[:k] {
		cc[i].Center = slices.Clone(obs[idx].Coordinates())
	}

	rounds := 0
	for rounds < maxIterations {
		if err := ctx.Err(); err != nil {
			return nil, rounds, err
		}
		rounds++
		cc.Reset()
		for _, o := range obs {
			n := cc.Nearest(o)
			cc[n].Append(o)
		}
		moved := false
		for i := range cc {
			prev := cc[i].Center
			cc[i].Recenter()
			if !slices.Equal(prev, cc[i].Center) {
				moved = true
			}
		}
		if !moved {
			break
		}
	}
	return cc, rounds, nil
}
