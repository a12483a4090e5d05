// Package cache implements the CachePersister: content-keyed, on-disk
// persistence of per-document word records, invalidated by path, mtime, and
// size. The cache is strictly an optimisation — write failures are never
// fatal, and read failures force a re-parse.
package cache

import (
	"crypto/md5" //nolint:gosec // content-addressing key, not a security boundary
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/TillBeemelmanns/PDFCompare/pkg/pdfmodel"
)

const (
	magic           = "PDFC"
	formatVersion   = uint16(1)
	defaultDirPerm  = 0o750
	defaultFilePerm = 0o600
)

// Persister is a directory-rooted, content-keyed document cache. One file
// per document, named "<key>.dat", written with a temp-file-then-rename
// discipline so a concurrent reader never observes a torn write.
type Persister struct {
	dir string
}

// New creates a Persister rooted at dir, creating the directory if needed.
func New(dir string) (*Persister, error) {
	if err := os.MkdirAll(dir, defaultDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &Persister{dir: dir}, nil
}

// ContentKey computes the content key md5(path || 0 || mtime_ns || 0 || size)
// for a reference document's current on-disk state.
func ContentKey(absPath string, mtime time.Time, size int64) string {
	h := md5.New() //nolint:gosec // content-addressing key, not a security boundary

	h.Write([]byte(absPath))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(mtime.UnixNano(), 10)))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(size, 10)))

	return fmt.Sprintf("%x", h.Sum(nil))
}

func (p *Persister) path(key string) string {
	return filepath.Join(p.dir, key+".dat")
}

// Load reads a cached NormalizedDocument by content key. It returns
// (nil, nil) on a cache miss (file does not exist). A corrupt or
// unsupported-version entry returns pdfmodel.ErrCorruptCache and removes the
// offending file so the next run re-parses cleanly.
func (p *Persister) Load(key string) (*pdfmodel.NormalizedDocument, error) {
	f, err := os.Open(p.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to open cache entry: %w", err)
	}
	defer f.Close()

	doc, err := decode(f)
	if err != nil {
		_ = os.Remove(p.path(key))
		return nil, fmt.Errorf("%w: %s", pdfmodel.ErrCorruptCache, err)
	}

	return doc, nil
}

// Save persists a NormalizedDocument under key using a temp-file-then-rename
// write so concurrent readers never see a partial file.
func (p *Persister) Save(key string, doc *pdfmodel.NormalizedDocument) error {
	tmp, err := os.CreateTemp(p.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}

	tmpName := tmp.Name()

	if err := encode(tmp, doc); err != nil {
		tmp.Close()
		os.Remove(tmpName)

		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp cache file: %w", err)
	}

	if err := os.Chmod(tmpName, defaultFilePerm); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set cache file permissions: %w", err)
	}

	if err := os.Rename(tmpName, p.path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to rename cache file into place: %w", err)
	}

	return nil
}

// Delete removes a cache entry by key. Missing files are not an error.
func (p *Persister) Delete(key string) error {
	if err := os.Remove(p.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}

	return nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}

	_, err := io.WriteString(w, s)

	return err
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}

	return string(buf), nil
}

func writeRect(w io.Writer, r pdfmodel.Rectangle) error {
	vals := [4]float32{float32(r.X0), float32(r.Y0), float32(r.X1), float32(r.Y1)}
	return binary.Write(w, binary.LittleEndian, vals)
}

func readRect(r io.Reader) (pdfmodel.Rectangle, error) {
	var vals [4]float32
	if err := binary.Read(r, binary.LittleEndian, &vals); err != nil {
		return pdfmodel.Rectangle{}, err
	}

	return pdfmodel.Rectangle{X0: float64(vals[0]), Y0: float64(vals[1]), X1: float64(vals[2]), Y1: float64(vals[3])}, nil
}

func encode(w io.Writer, doc *pdfmodel.NormalizedDocument) error {
	if _, err := io.WriteString(w, magic); err != nil {
		return err
	}

	if err := binary.Write(w, binary.LittleEndian, formatVersion); err != nil {
		return err
	}

	if err := writeString(w, doc.DocID); err != nil {
		return err
	}

	if err := writeString(w, doc.Path); err != nil {
		return err
	}

	if err := binary.Write(w, binary.LittleEndian, doc.UpdatedAt.UnixNano()); err != nil {
		return err
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(len(doc.PageDims))); err != nil {
		return err
	}

	for _, d := range doc.PageDims {
		if err := binary.Write(w, binary.LittleEndian, [2]float32{float32(d.Width), float32(d.Height)}); err != nil {
			return err
		}
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(len(doc.Words))); err != nil {
		return err
	}

	for _, word := range doc.Words {
		if err := writeString(w, word.Raw); err != nil {
			return err
		}

		if err := writeString(w, word.Token); err != nil {
			return err
		}

		if err := binary.Write(w, binary.LittleEndian, int32(word.Page)); err != nil {
			return err
		}

		if err := writeRect(w, word.BBox); err != nil {
			return err
		}

		if err := binary.Write(w, binary.LittleEndian, uint32(len(word.MergedFrom))); err != nil {
			return err
		}

		for i, r := range word.MergedFrom {
			if err := writeRect(w, r); err != nil {
				return err
			}

			if err := binary.Write(w, binary.LittleEndian, int32(word.MergedPages[i])); err != nil {
				return err
			}
		}
	}

	return nil
}

func decode(r io.Reader) (*pdfmodel.NormalizedDocument, error) {
	magicBuf := make([]byte, len(magic))
	if _, err := io.ReadFull(r, magicBuf); err != nil {
		return nil, fmt.Errorf("failed to read magic: %w", err)
	}

	if string(magicBuf) != magic {
		return nil, fmt.Errorf("bad magic %q", magicBuf)
	}

	var version uint16
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("failed to read version: %w", err)
	}

	if version != formatVersion {
		return nil, fmt.Errorf("unsupported cache format version %d", version)
	}

	docID, err := readString(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read doc id: %w", err)
	}

	path, err := readString(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read path: %w", err)
	}

	var updatedAtNanos int64
	if err := binary.Read(r, binary.LittleEndian, &updatedAtNanos); err != nil {
		return nil, fmt.Errorf("failed to read updated_at: %w", err)
	}

	var pageCount uint32
	if err := binary.Read(r, binary.LittleEndian, &pageCount); err != nil {
		return nil, fmt.Errorf("failed to read page count: %w", err)
	}

	pageDims := make([]pdfmodel.PageDim, pageCount)

	for i := range pageDims {
		var dims [2]float32
		if err := binary.Read(r, binary.LittleEndian, &dims); err != nil {
			return nil, fmt.Errorf("failed to read page dims: %w", err)
		}

		pageDims[i] = pdfmodel.PageDim{Width: float64(dims[0]), Height: float64(dims[1])}
	}

	var wordCount uint32
	if err := binary.Read(r, binary.LittleEndian, &wordCount); err != nil {
		return nil, fmt.Errorf("failed to read word count: %w", err)
	}

	words := make([]pdfmodel.NormalizedWord, wordCount)

	for i := range words {
		raw, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read raw word %d: %w", i, err)
		}

		token, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read token %d: %w", i, err)
		}

		var page int32
		if err := binary.Read(r, binary.LittleEndian, &page); err != nil {
			return nil, fmt.Errorf("failed to read page index %d: %w", i, err)
		}

		bbox, err := readRect(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read bbox %d: %w", i, err)
		}

		var mergedCount uint32
		if err := binary.Read(r, binary.LittleEndian, &mergedCount); err != nil {
			return nil, fmt.Errorf("failed to read merged count %d: %w", i, err)
		}

		merged := make([]pdfmodel.Rectangle, mergedCount)
		mergedPages := make([]int, mergedCount)

		for j := range merged {
			rect, err := readRect(r)
			if err != nil {
				return nil, fmt.Errorf("failed to read merged rect %d/%d: %w", i, j, err)
			}

			var rectPage int32
			if err := binary.Read(r, binary.LittleEndian, &rectPage); err != nil {
				return nil, fmt.Errorf("failed to read merged rect page %d/%d: %w", i, j, err)
			}

			merged[j] = rect
			mergedPages[j] = int(rectPage)
		}

		if mergedCount == 0 {
			mergedPages = nil
		}

		words[i] = pdfmodel.NormalizedWord{
			Raw:          raw,
			Token:        token,
			Page:         int(page),
			BBox:         bbox,
			MergedFrom:   merged,
			MergedPages:  mergedPages,
			DocWordIndex: i,
		}
	}

	return &pdfmodel.NormalizedDocument{
		DocID:     docID,
		Path:      path,
		Words:     words,
		PageDims:  pageDims,
		UpdatedAt: time.Unix(0, updatedAtNanos).UTC(),
	}, nil
}
