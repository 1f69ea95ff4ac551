package data

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/contactkeval/option-pricer/internal/models"
)

var ErrInvalidRow = errors.New("invalid contract row")

// contractRow is one line of a batch file.
type contractRow struct {
	Strike            float64 `csv:"strike"`
	ImpliedVolatility float64 `csv:"implied_volatility"`
	TimeToExpiry      float64 `csv:"time_to_expiry"`
	Side              string  `csv:"side"`
}

// LoadBatchCSV reads contracts with the header
// strike,implied_volatility,time_to_expiry,side. Non-positive numeric fields
// are accepted; the kernel prices them as 0. NaN and infinite fields are
// rejected with ErrInvalidRow.
func LoadBatchCSV(r io.Reader) (*models.OptionBatch, error) {
	var rows []*contractRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return models.NewOptionBatch(0), nil
		}
		return nil, fmt.Errorf("decode contracts: %w", err)
	}

	batch := models.NewOptionBatch(len(rows))
	for i, row := range rows {
		// +2: header line and 1-based numbering
		line := i + 2

		side, err := models.ParseOptionSide(row.Side)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrInvalidRow, line, err)
		}
		for _, f := range []struct {
			name string
			v    float64
		}{
			{"strike", row.Strike},
			{"implied_volatility", row.ImpliedVolatility},
			{"time_to_expiry", row.TimeToExpiry},
		} {
			if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
				return nil, fmt.Errorf("%w: line %d: %s is %v", ErrInvalidRow, line, f.name, f.v)
			}
		}
		batch.Append(models.Option{
			Strike:            row.Strike,
			ImpliedVolatility: row.ImpliedVolatility,
			TimeToExpiry:      row.TimeToExpiry,
			Side:              side,
		})
	}
	return batch, nil
}

// LoadBatchFile opens path and decodes it with LoadBatchCSV.
func LoadBatchFile(path string) (*models.OptionBatch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open contracts file: %w", err)
	}
	defer f.Close()

	return LoadBatchCSV(f)
}

// WriteBatchCSV encodes batch in the format LoadBatchCSV reads.
func WriteBatchCSV(w io.Writer, batch *models.OptionBatch) error {
	if err := batch.Validate(); err != nil {
		return err
	}

	rows := make([]*contractRow, batch.Len())
	for i := range rows {
		rows[i] = &contractRow{
			Strike:            batch.Strike[i],
			ImpliedVolatility: batch.ImpliedVolatility[i],
			TimeToExpiry:      batch.TimeToExpiry[i],
			Side:              batch.Side[i].String(),
		}
	}

	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("encode contracts: %w", err)
	}
	return nil
}

// WriteBatchFile creates (or truncates) path and encodes batch into it.
func WriteBatchFile(path string, batch *models.OptionBatch) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create contracts file: %w", err)
	}
	defer f.Close()

	if err := WriteBatchCSV(f, batch); err != nil {
		return err
	}
	return f.Close()
}
