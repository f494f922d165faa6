package feedback

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// DefaultFileName is the backing file used when no path is configured.
const DefaultFileName = "complaints.json"

// ErrMalformedFile is returned when the backing file exists but is not a
// JSON array of feedback objects.
var ErrMalformedFile = errors.New("malformed feedback file")

var entryKeys = []string{"type", "company", "product", "message"}

// Store owns the full collection of records and the JSON file backing it.
// Every Add rewrites the whole file before returning.
type Store struct {
	path    string
	records []Record
	log     zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for load/save diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) {
		s.log = log
	}
}

// Open builds a Store for path and loads its records. A missing file
// yields an empty store.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{path: path, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}

	records, err := s.load()
	if err != nil {
		return nil, err
	}
	s.records = records
	return s, nil
}

// Path returns the location of the backing file.
func (s *Store) Path() string {
	return s.path
}

// Len returns the number of records held.
func (s *Store) Len() int {
	return len(s.records)
}

func (s *Store) load() ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.log.Debug().Str("path", s.path).Msg("feedback file not found, starting empty")
			return []Record{}, nil
		}
		return nil, fmt.Errorf("reading feedback file %s: %w", s.path, err)
	}

	records, err := decode(data, s.log)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", s.path, err)
	}

	s.log.Debug().Str("path", s.path).Int("records", len(records)).Msg("feedback loaded")
	return records, nil
}

func decode(data []byte, log zerolog.Logger) ([]Record, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: invalid UTF-8", ErrMalformedFile)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformedFile)
	}

	doc := gjson.ParseBytes(data)
	if !doc.IsArray() {
		return nil, fmt.Errorf("%w: top-level value is not an array", ErrMalformedFile)
	}

	elems := doc.Array()
	records := make([]Record, 0, len(elems))
	for i, el := range elems {
		fields, err := decodeEntry(el)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d %v", ErrMalformedFile, i, err)
		}

		kind := KindFromTag(fields[0])
		if string(kind) != fields[0] {
			log.Debug().Int("entry", i).Str("type", fields[0]).Msg("unrecognised type tag, treating as Complaint")
		}
		records = append(records, New(kind, fields[1], fields[2], fields[3]))
	}

	return records, nil
}

// decodeEntry returns the entryKeys values of one object in entryKeys
// order. A repeated key keeps its last value.
func decodeEntry(el gjson.Result) ([4]string, error) {
	var fields [4]string
	if !el.IsObject() {
		return fields, errors.New("is not an object")
	}

	var seen [4]bool
	var err error
	el.ForEach(func(k, v gjson.Result) bool {
		for j, key := range entryKeys {
			if k.String() != key {
				continue
			}
			if v.Type != gjson.String {
				err = fmt.Errorf("has non-string %q", key)
				return false
			}
			fields[j] = v.String()
			seen[j] = true
		}
		return true
	})
	if err != nil {
		return fields, err
	}

	for j, key := range entryKeys {
		if !seen[j] {
			return fields, fmt.Errorf("has no %q", key)
		}
	}
	return fields, nil
}

// Save writes every record to the backing file, replacing its contents.
// The write happens in place; there is no temp file or backup.
func (s *Store) Save() error {
	entries := make([]Entry, 0, len(s.records))
	for _, r := range s.records {
		entries = append(entries, r.StructuredForm())
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("encoding feedback: %w", err)
	}

	if err := os.WriteFile(s.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing feedback file %s: %w", s.path, err)
	}

	s.log.Debug().Str("path", s.path).Int("records", len(entries)).Msg("feedback saved")
	return nil
}

// Add appends r and persists the collection before returning. If the save
// fails, r is dropped again so memory matches the last good save.
func (s *Store) Add(r Record) error {
	s.records = append(s.records, r)
	if err := s.Save(); err != nil {
		s.records = s.records[:len(s.records)-1]
		return err
	}
	return nil
}

// List returns the records whose kind equals kind, or all records when
// kind is empty. Order is insertion order. The returned slice is a copy.
func (s *Store) List(kind Kind) []Record {
	out := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		if kind == "" || r.Kind() == kind {
			out = append(out, r)
		}
	}
	return out
}
