package savers

import (
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/samuelfneumann/energyac/memory"
)

// fileEnumerator enumerates filenames
type fileEnumerator struct {
	i         int
	name      string
	extension string
}

// filename returns the name of the next consecutive enumerated file
func (f *fileEnumerator) filename() string {
	f.i++
	return fmt.Sprintf("%v%v%v", f.name, f.i, f.extension)
}

// FilenameEnumerator returns a function which will return filenames
// with a counter integer suffix. Each time the returned function is
// called, the filename counter suffix will be one higher than on the
// previous call, starting at start+1.
func FilenameEnumerator(start int, filename, extension string) func() string {
	enum := fileEnumerator{i: start, name: filename, extension: extension}
	return enum.filename
}

// Batches implements memory.BatchSaver. Each saved batch is
// gob-encoded to its own enumerated file, batch1.gob, batch2.gob, and
// so on.
type Batches struct {
	filename func() string
	saved    int
}

// NewBatches returns a new Batches saver which saves to dir, creating
// the directory if needed
func NewBatches(dir string) (*Batches, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("newBatches: could not create directory: %v",
			err)
	}
	return &Batches{
		filename: FilenameEnumerator(0, filepath.Join(dir, "batch"), ".gob"),
	}, nil
}

// SaveBatch saves a single batch to the next enumerated file
func (b *Batches) SaveBatch(batch *memory.RawBatch) error {
	err := writeFile(b.filename(), func(w io.Writer) error {
		return gob.NewEncoder(w).Encode(batch)
	})
	if err != nil {
		return fmt.Errorf("saveBatch: %v", err)
	}
	b.saved++
	return nil
}

// Saved returns the number of batches saved
func (b *Batches) Saved() int {
	return b.saved
}

// LoadBatch loads a batch saved by a Batches saver
func LoadBatch(filename string) (*memory.RawBatch, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loadBatch: could not open data file: %v", err)
	}
	defer file.Close()

	batch := new(memory.RawBatch)
	if err := gob.NewDecoder(file).Decode(batch); err != nil {
		return nil, fmt.Errorf("loadBatch: could not decode data: %v", err)
	}
	return batch, nil
}
