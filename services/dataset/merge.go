package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"gradintake/lib/scrapers/gradcafe"
	"gradintake/services/ingest"
)

// Merge folds any number of shards (from any number of runs, possibly
// overlapping in page range) into the canonical deduplicated set.
//
// Dedup policy, fixed on purpose because dataset reproducibility
// depends on it: entries sharing a composite key keep the one with the
// most populated fields; equal counts are broken by the most recent
// shard (higher sequence number, then lexicographically later shard
// name). Shards are sorted before folding, so the result is independent
// of the order they are passed in, and re-merging already-merged output
// changes nothing.
func Merge(shards []ingest.Shard) []gradcafe.Entry {
	ordered := make([]ingest.Shard, len(shards))
	copy(ordered, shards)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Seq != ordered[j].Seq {
			return ordered[i].Seq < ordered[j].Seq
		}
		return ordered[i].Path < ordered[j].Path
	})

	byKey := map[gradcafe.Key]gradcafe.Entry{}
	for _, shard := range ordered {
		for _, e := range shard.Entries {
			key := e.Key()
			prev, seen := byKey[key]
			if !seen {
				byKey[key] = e
				continue
			}
			// later shards win ties because ordered is sorted oldest
			// first, so >= keeps the newest among equals
			if e.PopulatedFields() >= prev.PopulatedFields() {
				byKey[key] = e
			}
		}
	}

	out := make([]gradcafe.Entry, 0, len(byKey))
	for _, e := range byKey {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Key(), out[j].Key()
		if a.EntryURL != b.EntryURL {
			return a.EntryURL < b.EntryURL
		}
		if a.Program != b.Program {
			return a.Program < b.Program
		}
		return a.University < b.University
	})
	return out
}

// WriteCanonical regenerates the canonical dataset file in full.
func WriteCanonical(path string, entries []gradcafe.Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	err = os.WriteFile(path, append(data, '\n'), 0644)
	if err != nil {
		return fmt.Errorf("write canonical dataset: %w", err)
	}
	return nil
}

func ReadCanonical(path string) ([]gradcafe.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []gradcafe.Entry
	err = json.Unmarshal(data, &entries)
	if err != nil {
		return nil, fmt.Errorf("parse canonical dataset: %w", err)
	}
	return entries, nil
}
