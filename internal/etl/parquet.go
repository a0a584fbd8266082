package etl

import (
	"fmt"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/BartekS5/brewlake/pkg/models"
)

// writeParquetFile writes rows to path in one row group. A single marshal
// goroutine keeps the output bytes deterministic for identical input, which
// the idempotent partition swap relies on.
func writeParquetFile(path string, sample interface{}, rows []interface{}) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}

	pw, err := writer.NewParquetWriter(fw, sample, 1)
	if err != nil {
		fw.Close()
		return fmt.Errorf("creating parquet writer for %s: %w", path, err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, row := range rows {
		if err := pw.Write(row); err != nil {
			fw.Close()
			return fmt.Errorf("writing row to %s: %w", path, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return fmt.Errorf("finalizing %s: %w", path, err)
	}
	return fw.Close()
}

// readRecordsFile loads one silver partition file.
func readRecordsFile(path string) ([]models.NormalizedRecord, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(models.NormalizedRecord), 1)
	if err != nil {
		return nil, fmt.Errorf("creating parquet reader for %s: %w", path, err)
	}
	defer pr.ReadStop()

	records := make([]models.NormalizedRecord, pr.GetNumRows())
	if err := pr.Read(&records); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return records, nil
}
