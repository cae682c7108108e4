package pathfind_test

import (
	"testing"

	gomock "go.uber.org/mock/gomock"

	"github.com/stretchr/testify/require"

	"github.com/floweryclover/settlement-engine/engine/pathfind"
	"github.com/floweryclover/settlement-engine/engine/pathfind/mocks"
	"github.com/floweryclover/settlement-engine/engine/threadreg"
)

func TestPathfindOverMockedCostGrid(t *testing.T) {
	ctrl := gomock.NewController(t)

	grid := mocks.NewMockCostGrid(ctrl)
	grid.EXPECT().Size().Return(8, 8).AnyTimes()
	grid.EXPECT().At(gomock.Any()).Return(uint32(0)).AnyTimes()

	p := pathfind.New(1, 100, pathfind.DefaultStepCosts)
	handle := p.Pathfind(threadreg.MainId, grid, pathfind.Pos{X: 0, Y: 0}, pathfind.Pos{X: 2, Y: 0})

	ctx, ok := p.GetPathContext(handle, 0)
	require.True(t, ok, "expected a resolvable path over the mocked empty grid")
	require.NotNil(t, ctx.Current)
}
