package lstm

import (
	"math/rand"
)

const (
	testingV  = 5
	testingE  = 3
	testingNH = 4
	testingNL = 2
)

// CreateTestingConfig returns a two-layer configuration small enough
// for finite-difference gradient checks.
func CreateTestingConfig() Config {
	return Config{
		VocabSize: testingV,
		EmSz:      testingE,
		NH:        testingNH,
		NL:        testingNL,
	}
}

// CreateTestingModel creates a model from CreateTestingConfig with
// parameters drawn from seed.
func CreateTestingModel(seed int64) *Model {
	m, e := NewModel(CreateTestingConfig(), rand.New(rand.NewSource(seed)))
	if e != nil {
		panic("CreateTestingModel failed at NewModel: " + e.Error())
	}
	return m
}

// CreateTestingWindow returns a window of 4 time steps over 2 streams.
func CreateTestingWindow() (x, y [][]int32) {
	stream := [][]int32{
		{0, 1, 2, 3, 4},
		{4, 2, 2, 1, 0},
	}
	T := len(stream[0]) - 1
	x = make([][]int32, T)
	y = make([][]int32, T)
	for t := 0; t < T; t++ {
		x[t] = []int32{stream[0][t], stream[1][t]}
		y[t] = []int32{stream[0][t+1], stream[1][t+1]}
	}
	return x, y
}
