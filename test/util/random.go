package testutil

import (
	"fmt"
	"math/rand"

	"gradintake/lib/scrapers/gradcafe"
)

// RandomSwitch returns a function that will output various integers at different weights.
//
// Ex. RandomSwitch(2, 3, 5) will return a function that will output:
//   - `0` 20% of the time
//   - `1` 30% of the time
//   - `2` 50% of the time
func RandomSwitch(weights ...int) func(rndm *rand.Rand) int {
	if len(weights) == 0 {
		panic("a random switch must have at least 1 probability")
	}

	var sum int
	for _, p := range weights {
		if p == 0 {
			panic("cannot have weight that is 0")
		}
		sum += p
	}

	return func(rndm *rand.Rand) int {
		value := rndm.Intn(sum)

		threshold := 0
		for i := 0; i < len(weights); i++ {
			threshold += weights[i]
			if value < threshold {
				return i
			}
		}

		panic(fmt.Sprintf("random value generated was out of bounds: %d", value))
	}
}

// RandomString generates a random lowercase string given the pseudo random source.
func RandomString(rndm *rand.Rand, length int) string {
	str := make([]rune, length)
	for i := 0; i < length; i++ {
		str[i] = 'a' + rune(rndm.Intn(26))
	}
	return string(str)
}

var randomStatuses = []gradcafe.Status{
	gradcafe.StatusAccepted,
	gradcafe.StatusRejected,
	gradcafe.StatusWaitlisted,
	gradcafe.StatusInterview,
	gradcafe.StatusUnknown,
}

var randomDegrees = []gradcafe.Degree{
	gradcafe.DegreePhD,
	gradcafe.DegreeMasters,
	gradcafe.DegreeOther,
	gradcafe.DegreeUnknown,
}

// RandomEntry generates a survey entry with a random amount of optional
// fields populated. Keys are drawn from a space of keySpace values so
// that collisions occur and merge tests exercise deduplication.
func RandomEntry(rndm *rand.Rand, keySpace int) gradcafe.Entry {
	n := rndm.Intn(keySpace)
	entry := gradcafe.Entry{
		EntryURL:   fmt.Sprintf("/result/%d", n),
		Program:    fmt.Sprintf("program-%d", n%7),
		University: fmt.Sprintf("university-%d", n%5),
		Status:     randomStatuses[rndm.Intn(len(randomStatuses))],
		Degree:     randomDegrees[rndm.Intn(len(randomDegrees))],
		SourcePage: rndm.Intn(100) + 1,
	}
	if rndm.Intn(2) == 0 {
		gpa := float64(rndm.Intn(400)) / 100
		entry.GPA = &gpa
	}
	if rndm.Intn(2) == 0 {
		entry.DecisionDate = "2024-03-15"
	}
	if rndm.Intn(2) == 0 {
		entry.Comments = RandomString(rndm, 24)
	}
	if rndm.Intn(3) == 0 {
		entry.Scores = map[string]float64{
			gradcafe.ScoreGRETotal: float64(300 + rndm.Intn(41)),
		}
	}
	return entry
}
