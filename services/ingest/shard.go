package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"gradintake/lib/scrapers/gradcafe"
)

// Shard files are named shard-<seq>-p<start>.jsonl. The sequence number
// increases monotonically across runs and decides recency during
// merge tie-breaks.
var shardNamePattern = regexp.MustCompile(`^shard-(\d{4})-p(\d+)\.jsonl$`)

// ShardWriter appends extracted entries for a page range to an
// append-only JSONL file, flushing after every page so that a crash
// loses at most the in-flight page's entries. A shard is never mutated
// after its page completes, only appended to.
type ShardWriter struct {
	f         *os.File
	path      string
	seq       int
	startPage int
	lastPage  int
	entries   int
}

// NewShardWriter creates the next shard file under dir for a fetch pass
// beginning at startPage.
func NewShardWriter(dir string, startPage int) (*ShardWriter, error) {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	seq, err := nextSequence(dir)
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("shard-%04d-p%d.jsonl", seq, startPage)
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("create shard %s: %w", name, err)
	}

	slog.Info("opened shard", "path", path, "start_page", startPage)
	return &ShardWriter{
		f:         f,
		path:      path,
		seq:       seq,
		startPage: startPage,
		lastPage:  startPage - 1,
	}, nil
}

func nextSequence(dir string) (int, error) {
	names, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	seq := 1
	for _, entry := range names {
		m := shardNamePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		if n >= seq {
			seq = n + 1
		}
	}
	return seq, nil
}

// AppendPage writes one fetched page's entries and syncs the file
// before returning, so completed pages survive process termination.
func (w *ShardWriter) AppendPage(page int, entries []gradcafe.Entry) error {
	for _, e := range entries {
		line, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal entry: %w", err)
		}
		_, err = w.f.Write(append(line, '\n'))
		if err != nil {
			return fmt.Errorf("append to shard: %w", err)
		}
	}
	err := w.f.Sync()
	if err != nil {
		return fmt.Errorf("flush shard: %w", err)
	}
	w.lastPage = page
	w.entries += len(entries)
	return nil
}

func (w *ShardWriter) Path() string { return w.path }
func (w *ShardWriter) Entries() int { return w.entries }

func (w *ShardWriter) Close() error {
	slog.Info(
		"closing shard",
		"path", w.path,
		"pages", fmt.Sprintf("%d-%d", w.startPage, w.lastPage),
		"entries", w.entries,
	)
	return w.f.Close()
}

// Shard is a fully read shard file, ready to merge.
type Shard struct {
	Path    string
	Seq     int
	Entries []gradcafe.Entry
}

// ReadShard loads a shard file. Lines that fail to parse are logged and
// skipped; a truncated final line from an interrupted run must not
// poison the rest of the shard.
func ReadShard(path string) (Shard, error) {
	m := shardNamePattern.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return Shard{}, fmt.Errorf("not a shard file: %s", path)
	}
	seq, _ := strconv.Atoi(m[1])

	f, err := os.Open(path)
	if err != nil {
		return Shard{}, err
	}
	defer f.Close()

	shard := Shard{Path: path, Seq: seq}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	dropped := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e gradcafe.Entry
		err := json.Unmarshal(line, &e)
		if err != nil {
			dropped++
			continue
		}
		shard.Entries = append(shard.Entries, e)
	}
	if err := scanner.Err(); err != nil {
		return Shard{}, fmt.Errorf("read shard %s: %w", path, err)
	}
	if dropped > 0 {
		slog.Warn("dropped malformed shard lines", "path", path, "count", dropped)
	}
	return shard, nil
}

// ListShards reads every shard under dir, ordered by sequence then
// name so the merge fold sees a stable ordering regardless of
// filesystem iteration order.
func ListShards(dir string) ([]Shard, error) {
	names, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var shards []Shard
	for _, entry := range names {
		if !shardNamePattern.MatchString(entry.Name()) {
			continue
		}
		shard, err := ReadShard(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		shards = append(shards, shard)
	}
	sort.Slice(shards, func(i, j int) bool {
		if shards[i].Seq != shards[j].Seq {
			return shards[i].Seq < shards[j].Seq
		}
		return shards[i].Path < shards[j].Path
	})
	return shards, nil
}
