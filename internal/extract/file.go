package extract

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/BartekS5/brewlake/pkg/models"
)

// FileSource serves raw records from a local NDJSON snapshot, one JSON
// object per line. It backs the reprocess command: a bronze capture or a
// filtered extract can be replayed through the full engine.
type FileSource struct {
	Path     string
	PageSize int

	once    sync.Once
	records []models.RawRecord
	loadErr error
}

func NewFileSource(path string, pageSize int) *FileSource {
	if pageSize <= 0 {
		pageSize = DefaultPerPage
	}
	return &FileSource{Path: path, PageSize: pageSize}
}

func (s *FileSource) Extract(ctx context.Context, page int) ([]models.RawRecord, bool, error) {
	s.once.Do(s.load)
	if s.loadErr != nil {
		return nil, false, s.loadErr
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	start := (page - 1) * s.PageSize
	if start >= len(s.records) {
		return nil, false, nil
	}
	end := start + s.PageSize
	if end > len(s.records) {
		end = len(s.records)
	}
	return s.records[start:end], end < len(s.records), nil
}

func (s *FileSource) load() {
	f, err := os.Open(s.Path)
	if err != nil {
		s.loadErr = err
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(line))
		dec.UseNumber()
		var rec models.RawRecord
		if err := dec.Decode(&rec); err != nil {
			s.loadErr = fmt.Errorf("%s line %d: %w", s.Path, lineNo, err)
			return
		}
		s.records = append(s.records, rec)
	}
	if err := scanner.Err(); err != nil {
		s.loadErr = fmt.Errorf("reading %s: %w", s.Path, err)
	}
}
