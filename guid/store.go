package guid

import (
	"bytes"
	"errors"
	"os"

	bencode "github.com/jackpal/bencode-go"
)

// record is the on-disk shape of the GUID store, the direct descendant
// of the teacher's dhtStore (Id []byte, Remotes map[string][]byte):
// here we persist only the one scalar spec.md asks for, plus the
// banned-GUID snapshot the servent refuses to regenerate into.
type record struct {
	ID     string   "id"
	Banned []string "banned"
}

// Store persists the servent GUID (and a snapshot of banned GUIDs it
// must never collide with) across restarts, bencode-encoded the same
// way the teacher encodes its own DHT node store.
type Store struct {
	Path string
}

// Load reads the GUID from disk. It returns ok=false (no error) if the
// file is absent or the stored GUID is malformed, signalling the
// caller should regenerate, per spec.md §6.
func (s *Store) Load() (g GUID, ok bool, err error) {
	f, err := os.Open(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return GUID{}, false, nil
	}
	if err != nil {
		return GUID{}, false, err
	}
	defer f.Close()

	var rec record
	if err := bencode.Unmarshal(f, &rec); err != nil {
		return GUID{}, false, nil
	}
	if len(rec.ID) != Size {
		return GUID{}, false, nil
	}
	copy(g[:], rec.ID)
	if !g.Valid() {
		return GUID{}, false, nil
	}
	return g, true, nil
}

// Save writes the GUID (and the banned-GUID snapshot) to disk.
func (s *Store) Save(g GUID, banned []GUID) error {
	rec := record{ID: string(g[:])}
	for _, b := range banned {
		rec.Banned = append(rec.Banned, string(b[:]))
	}
	var buf bytes.Buffer
	if err := bencode.Marshal(&buf, rec); err != nil {
		return err
	}
	return os.WriteFile(s.Path, buf.Bytes(), 0o600)
}
