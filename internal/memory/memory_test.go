package memory

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingAllocator records how many times each block was released.
type countingAllocator struct {
	released map[*byte]int
	fail     bool
}

func newCountingAllocator() *countingAllocator {
	return &countingAllocator{released: make(map[*byte]int)}
}

func (a *countingAllocator) Allocate(size int) (*Memory, error) {
	if a.fail {
		return nil, ErrAllocation
	}
	return New(make([]byte, size), func(b []byte) {
		a.released[&b[0]]++
	}), nil
}

func TestMemoryReleaseOnce(t *testing.T) {
	calls := 0
	m := New([]byte{1, 2}, func([]byte) { calls++ })
	m.Release()
	m.Release()
	assert.Equal(t, 1, calls)
	assert.Nil(t, m.Bytes())

	var nilMem *Memory
	assert.NotPanics(t, nilMem.Release)
}

func TestBrokerCopyIsExact(t *testing.T) {
	b := NewBroker(HeapAllocator{})
	frame := []byte{9, 8, 7, 6, 5}

	m := b.Copy(frame)
	require.NotNil(t, m)
	assert.Equal(t, frame, m.Bytes())
	assert.NotSame(t, &frame[0], &m.Bytes()[0])
	assert.NotEqual(t, m.ID(), b.Copy(frame).ID())
}

func TestBrokerAllocationFailure(t *testing.T) {
	a := newCountingAllocator()
	a.fail = true
	b := NewBroker(a)
	assert.Nil(t, b.Copy([]byte{1}))

	short := AllocatorFunc(func(size int) (*Memory, error) {
		return New(make([]byte, size-1), nil), nil
	})
	b.SetAllocator(short)
	assert.Nil(t, b.Copy([]byte{1, 2, 3}))

	b.SetAllocator(nil)
	assert.False(t, b.HasAllocator())
	assert.Nil(t, b.Copy([]byte{1}))
}

func TestRegistryReleaseByPointer(t *testing.T) {
	a := newCountingAllocator()
	b := NewBroker(a)

	var frames []*Memory
	for i := 0; i < 4; i++ {
		m := b.Copy([]byte{byte(i), 0})
		b.Track(m)
		frames = append(frames, m)
	}
	require.Equal(t, 4, b.InFlight())

	data := frames[2].Bytes()
	assert.True(t, b.Return(data))
	assert.Equal(t, 1, a.released[&data[0]])
	assert.Equal(t, 3, b.InFlight())

	// Returning the same frame again, or memory never delivered, is a no-op.
	assert.False(t, b.Return(data))
	assert.False(t, b.Return([]byte{2, 0}))
	assert.False(t, b.Return(nil))
	assert.Equal(t, 1, a.released[&data[0]])
}

func TestRegistryDrain(t *testing.T) {
	var order []byte
	r := NewRegistry()
	for i := 0; i < 5; i++ {
		r.Add(New([]byte{byte(i)}, func(b []byte) { order = append(order, b[0]) }))
	}

	assert.Equal(t, 5, r.Drain())
	assert.Zero(t, r.Len())
	assert.Equal(t, []byte{0, 1, 2, 3, 4}, order)

	assert.Equal(t, 0, r.Drain())
	assert.Equal(t, 5, len(order))
}

func TestRegistryReplacesAliasedMemory(t *testing.T) {
	block := make([]byte, 4)
	var released []int
	first := New(block, func([]byte) { released = append(released, 1) })
	second := New(block, func([]byte) { released = append(released, 2) })

	r := NewRegistry()
	r.Add(first)
	r.Add(first)
	assert.Empty(t, released)

	r.Add(second)
	assert.Equal(t, []int{1}, released)
	assert.Equal(t, 1, r.Len())

	assert.Equal(t, 1, r.Drain())
	assert.Equal(t, []int{1, 2}, released)
}

func TestRegistryIgnoresEmptyMemory(t *testing.T) {
	r := NewRegistry()
	r.Add(New(nil, nil))
	assert.Zero(t, r.Len())
}

func TestMmapAllocator(t *testing.T) {
	m, err := MmapAllocator{}.Allocate(4096)
	require.NoError(t, err)
	require.Equal(t, 4096, m.Len())
	m.Bytes()[4095] = 1
	m.Release()

	_, err = MmapAllocator{}.Allocate(0)
	if err != nil {
		assert.True(t, errors.Is(err, ErrAllocation))
	}
}
