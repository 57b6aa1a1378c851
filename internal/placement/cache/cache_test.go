package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"

	id "equilibrium/pkg/domain"
)

func TestKey(t *testing.T) {
	member, err := id.ParseMemberID("7b0c8a6e-2f55-4d8f-9a43-1d1f0a2b3c4d")
	assert.NoError(t, err)
	depth := 2

	assert.Equal(t, "eq:tree:0:_:_", Key(0, nil, nil))
	assert.Equal(t, "eq:tree:3:7b0c8a6e-2f55-4d8f-9a43-1d1f0a2b3c4d:2", Key(3, &member, &depth))
	assert.NotEqual(t, Key(1, nil, nil), Key(2, nil, nil))
}
