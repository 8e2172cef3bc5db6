package spatial

import (
	"math/rand"
	"testing"

	"github.com/annel0/overworld/internal/physics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func worldRect() physics.Rect {
	return physics.Rect{X: 0, Y: 0, W: 640, H: 480}
}

func contains(list []physics.Collidable, obj physics.Collidable) bool {
	for _, c := range list {
		if c == obj {
			return true
		}
	}
	return false
}

func countOf(list []physics.Collidable, obj physics.Collidable) int {
	n := 0
	for _, c := range list {
		if c == obj {
			n++
		}
	}
	return n
}

func TestQuadtree_RetrieveIsSupersetOfOverlaps(t *testing.T) {
	qt := NewQuadtreeWithLimits(worldRect(), 4, 5)
	rng := rand.New(rand.NewSource(42))

	boxes := make([]*physics.Box, 0, 200)
	for i := 0; i < 200; i++ {
		b := physics.NewBox(rng.Float64()*620, rng.Float64()*460, 4+rng.Float64()*20, 4+rng.Float64()*20, true)
		boxes = append(boxes, b)
		qt.Insert(b)
	}
	require.Equal(t, 200, qt.Len())

	for q := 0; q < 50; q++ {
		query := physics.Rect{X: rng.Float64() * 600, Y: rng.Float64() * 440, W: 40, H: 40}
		got := qt.Retrieve(query, nil)

		for _, b := range boxes {
			if b.Bounds().Overlaps(query) {
				assert.True(t, contains(got, b), "Пересекающийся объект должен быть найден")
			}
		}
		for _, c := range got {
			assert.Equal(t, 1, countOf(got, c), "Объекты не должны дублироваться")
		}
	}
}

func TestQuadtree_StraddlingObjectStaysInParent(t *testing.T) {
	qt := NewQuadtreeWithLimits(worldRect(), 2, 3)

	// Заполняем левый верхний квадрант, чтобы вызвать деление
	for i := 0; i < 3; i++ {
		qt.Insert(physics.NewBox(float64(10+i*20), 10, 8, 8, true))
	}
	center := physics.NewBox(310, 230, 20, 20, true)
	qt.Insert(center)

	require.NotNil(t, qt.root.children, "Корень должен быть разделён")
	assert.Same(t, qt.root, qt.owners[center], "Объект на границе квадрантов хранится в родителе")

	got := qt.Retrieve(physics.Rect{X: 600, Y: 400, W: 10, H: 10}, nil)
	assert.True(t, contains(got, center), "Объект родителя возвращается любым запросом через этот узел")
}

func TestQuadtree_RemoveLeavesNoStaleEntries(t *testing.T) {
	qt := NewQuadtreeWithLimits(worldRect(), 2, 4)
	boxes := make([]*physics.Box, 0, 20)
	for i := 0; i < 20; i++ {
		b := physics.NewBox(float64(i*30), float64(i*20), 10, 10, true)
		boxes = append(boxes, b)
		qt.Insert(b)
	}

	for i, b := range boxes {
		if i%2 == 0 {
			qt.Remove(b)
		}
	}
	assert.Equal(t, 10, qt.Len())

	got := qt.Retrieve(worldRect(), nil)
	for i, b := range boxes {
		if i%2 == 0 {
			assert.False(t, contains(got, b), "Удалённый объект не должен возвращаться")
		} else {
			assert.True(t, contains(got, b))
		}
	}

	for _, b := range boxes {
		qt.Remove(b)
	}
	assert.Equal(t, 0, qt.Len())
	assert.Nil(t, qt.root.children, "Пустое дерево должно схлопнуться")
}

func TestQuadtree_RepeatedInsertRemoveAcrossTicks(t *testing.T) {
	qt := NewQuadtree(worldRect())
	mover := physics.NewBox(0, 0, 16, 16, true)

	for tick := 0; tick < 100; tick++ {
		qt.Remove(mover)
		mover.X = float64(tick * 5)
		mover.Y = float64(tick * 3)
		qt.Insert(mover)
		qt.Insert(mover) // повторная вставка не создаёт дубликат
	}

	assert.Equal(t, 1, qt.Len())
	got := qt.Retrieve(mover.Bounds(), nil)
	assert.Equal(t, 1, countOf(got, mover))

	// Удаление отсутствующего объекта не является ошибкой
	qt.Remove(physics.NewBox(1, 1, 1, 1, true))
	assert.Equal(t, 1, qt.Len())
}

func TestQuadtree_InsertRelocatesMovedObject(t *testing.T) {
	qt := NewQuadtreeWithLimits(worldRect(), 1, 4)
	anchor := physics.NewBox(600, 440, 8, 8, true)
	qt.Insert(anchor)

	mover := physics.NewBox(10, 10, 8, 8, true)
	qt.Insert(mover)

	mover.X, mover.Y = 500, 400
	qt.Insert(mover)

	got := qt.Retrieve(physics.Rect{X: 495, Y: 395, W: 20, H: 20}, nil)
	assert.True(t, contains(got, mover), "Объект должен находиться по новым границам")
	assert.Equal(t, 2, qt.Len())
	assert.Contains(t, qt.Stats(), "2 objects")

	qt.Clear()
	assert.Equal(t, 0, qt.Len())
	assert.False(t, qt.Contains(mover))
}
