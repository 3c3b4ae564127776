package dataset

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"gradintake/lib/scrapers/gradcafe"
	"gradintake/services/ingest"
	testutil "gradintake/test/util"
)

func entry(url, program, university string) gradcafe.Entry {
	return gradcafe.Entry{
		EntryURL:   url,
		Program:    program,
		University: university,
		Status:     gradcafe.StatusAccepted,
	}
}

func TestMergeDeduplicatesByCompositeKey(t *testing.T) {
	shards := []ingest.Shard{
		{
			Seq:  1,
			Path: "shard-0001-p1.jsonl",
			Entries: []gradcafe.Entry{
				entry("/result/1", "CS", "U1"),
				entry("/result/2", "Stats", "U2"),
			},
		},
		{
			Seq:  2,
			Path: "shard-0002-p1.jsonl",
			Entries: []gradcafe.Entry{
				entry("/result/1", "CS", "U1"),
				entry("/result/3", "Physics", "U3"),
			},
		},
	}

	merged := Merge(shards)
	require.Len(t, merged, 3)
}

// Same entry URL with a different program or university is a different
// record, not a duplicate.
func TestMergeKeyIsComposite(t *testing.T) {
	shards := []ingest.Shard{
		{
			Seq:  1,
			Path: "shard-0001-p1.jsonl",
			Entries: []gradcafe.Entry{
				entry("/result/1", "CS", "U1"),
				entry("/result/1", "Math", "U1"),
				entry("/result/1", "CS", "U2"),
			},
		},
	}
	merged := Merge(shards)
	require.Len(t, merged, 3)
}

func TestMergePrefersMorePopulatedEntry(t *testing.T) {
	gpa := 3.5
	sparse := entry("/result/1", "CS", "U1")
	rich := entry("/result/1", "CS", "U1")
	rich.GPA = &gpa
	rich.DecisionDate = "2024-03-15"

	// the richer entry sits in the OLDER shard, so field count must
	// beat recency
	shards := []ingest.Shard{
		{Seq: 1, Path: "shard-0001-p1.jsonl", Entries: []gradcafe.Entry{rich}},
		{Seq: 2, Path: "shard-0002-p1.jsonl", Entries: []gradcafe.Entry{sparse}},
	}

	merged := Merge(shards)
	require.Len(t, merged, 1)
	require.NotNil(t, merged[0].GPA)
	require.Equal(t, 3.5, *merged[0].GPA)
	require.Equal(t, "2024-03-15", merged[0].DecisionDate)
}

func TestMergeTieGoesToNewerShard(t *testing.T) {
	old := entry("/result/1", "CS", "U1")
	old.Comments = "older observation"
	newer := entry("/result/1", "CS", "U1")
	newer.Comments = "newer observation"

	shards := []ingest.Shard{
		{Seq: 1, Path: "shard-0001-p1.jsonl", Entries: []gradcafe.Entry{old}},
		{Seq: 2, Path: "shard-0002-p1.jsonl", Entries: []gradcafe.Entry{newer}},
	}

	merged := Merge(shards)
	require.Len(t, merged, 1)
	require.Equal(t, "newer observation", merged[0].Comments)
}

func TestMergeIsOrderIndependent(t *testing.T) {
	rndm := rand.New(rand.NewSource(42))

	shards := make([]ingest.Shard, 4)
	for i := range shards {
		entries := make([]gradcafe.Entry, 50)
		for j := range entries {
			entries[j] = testutil.RandomEntry(rndm, 30)
		}
		shards[i] = ingest.Shard{
			Seq:     i + 1,
			Path:    "shard",
			Entries: entries,
		}
	}

	expected := Merge(shards)

	for trial := 0; trial < 10; trial++ {
		shuffled := make([]ingest.Shard, len(shards))
		copy(shuffled, shards)
		rndm.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		got := Merge(shuffled)
		if diff := cmp.Diff(expected, got); diff != "" {
			t.Fatal(diff)
		}
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	rndm := rand.New(rand.NewSource(7))

	entries := make([]gradcafe.Entry, 100)
	for i := range entries {
		entries[i] = testutil.RandomEntry(rndm, 40)
	}
	shard := ingest.Shard{Seq: 1, Path: "shard-0001-p1.jsonl", Entries: entries}

	once := Merge([]ingest.Shard{shard})
	again := Merge([]ingest.Shard{{Seq: 1, Path: "shard-0001-p1.jsonl", Entries: once}})

	if diff := cmp.Diff(once, again); diff != "" {
		t.Fatal(diff)
	}
}

func TestMergeOutputIsSorted(t *testing.T) {
	shards := []ingest.Shard{
		{
			Seq:  1,
			Path: "shard-0001-p1.jsonl",
			Entries: []gradcafe.Entry{
				entry("/result/9", "CS", "U1"),
				entry("/result/1", "Math", "U1"),
				entry("/result/1", "CS", "U1"),
			},
		},
	}
	merged := Merge(shards)
	require.Len(t, merged, 3)
	require.Equal(t, "/result/1", merged[0].EntryURL)
	require.Equal(t, "CS", merged[0].Program)
	require.Equal(t, "Math", merged[1].Program)
	require.Equal(t, "/result/9", merged[2].EntryURL)
}
