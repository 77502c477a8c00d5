package output

import (
	"math"

	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/lucasjlepore/fitdaily/aggregate"
)

type metricParquetRow struct {
	UserName         string  `parquet:"name=userName, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	ValueGeneratedAt string  `parquet:"name=valueGeneratedAt, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	SName            string  `parquet:"name=s_name, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Date             string  `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Type             string  `parquet:"name=type, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Unit             string  `parquet:"name=unit, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	ValueType        string  `parquet:"name=valueType, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Value            float64 `parquet:"name=value, type=DOUBLE"`
}

// WriteParquet writes rows as a SNAPPY-compressed parquet file. Null values are
// stored as NaN.
func WriteParquet(path string, rows aggregate.Table) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	if err := writeParquet(fw, rows); err != nil {
		_ = fw.Close()
		return err
	}
	return fw.Close()
}

// MarshalParquet is WriteParquet into memory.
func MarshalParquet(rows aggregate.Table) ([]byte, error) {
	fw := parquetbuffer.NewBufferFile()
	if err := writeParquet(fw, rows); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return append([]byte(nil), fw.Bytes()...), nil
}

func writeParquet(fw source.ParquetFile, rows aggregate.Table) error {
	pw, err := writer.NewParquetWriter(fw, new(metricParquetRow), 4)
	if err != nil {
		return err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, r := range rows.Rows() {
		row := metricParquetRow{
			UserName:         r.UserName,
			ValueGeneratedAt: r.ValueGeneratedAt.Format(TimestampLayout),
			SName:            r.SName,
			Date:             r.Date.Format(DateLayout),
			Type:             r.Type,
			Unit:             r.Unit,
			ValueType:        r.ValueType,
			Value:            valueOrNaN(r.Value),
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			return err
		}
	}
	return pw.WriteStop()
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
