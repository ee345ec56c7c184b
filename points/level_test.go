package points

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		total int
		want  Tier
	}{
		{0, TierBronze},
		{999, TierBronze},
		{1000, TierSilver},
		{2499, TierSilver},
		{2500, TierGold},
		{4999, TierGold},
		{5000, TierPlatinum},
		{9999, TierPlatinum},
		{10000, TierDiamond},
		{123456, TierDiamond},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, Classify(c.total), "total=%d", c.total)
	}
}
