package vec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDir_VectorsAndOpposites(t *testing.T) {
	assert.Equal(t, Vec2{X: 0, Y: -1}, DirUp.Cell())
	assert.Equal(t, Vec2Float{X: 1, Y: 0}, DirRight.Vector())
	assert.Equal(t, DirDown, DirUp.Opposite())
	assert.Equal(t, DirRight, DirLeft.Opposite())
	assert.Equal(t, Vec2{}, DirNone.Cell(), "DirNone не должен давать смещения")
	assert.False(t, DirNone.Valid())
}

func TestDirTowards(t *testing.T) {
	assert.Equal(t, DirRight, DirTowards(Vec2Float{X: 5, Y: 1}))
	assert.Equal(t, DirUp, DirTowards(Vec2Float{X: 1, Y: -3}))
	assert.Equal(t, DirNone, DirTowards(Vec2Float{}))
}

func TestVec2Float_Cell(t *testing.T) {
	assert.Equal(t, Vec2{X: 2, Y: 0}, Vec2Float{X: 32, Y: 15.9}.Cell(16))
	assert.Equal(t, Vec2{X: -1, Y: 0}, Vec2Float{X: -0.5, Y: 0}.Cell(16), "Отрицательные координаты округляются вниз")
	assert.Equal(t, 18, Vec2{}.ManhattanTo(Vec2{X: 9, Y: 9}))
	assert.Equal(t, ParseDir("east"), DirRight)
}
