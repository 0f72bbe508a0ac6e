// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package sets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	// Sets are created empty.
	s := Make[int](10)
	assert.Len(t, s, 0)

	s.Insert(9, 5, 9)
	assert.Len(t, s, 2)
	assert.True(t, s.Has(5))
	assert.False(t, s.Has(7))
	assert.Equal(t, []int{5, 9}, Sorted(s))
}

func TestDistinct(t *testing.T) {
	assert.Equal(t, []string{"737", "A320"}, Distinct([]string{"737", "A320", "737"}))
	assert.Empty(t, Distinct[int](nil))
}
