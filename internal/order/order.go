package order

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"robotorder/internal/components/failure"
)

// Columns is the header of the orders table, fields of Order are read from
// the columns with these names in this order.
var Columns = []string{"Order number", "Head", "Body", "Legs", "Address"}

// Order is one row of the orders table.
type Order struct {
	Number  string
	Head    string
	Body    string
	Legs    string
	Address string
}

func (o Order) String() string {
	return fmt.Sprintf("order %s (head=%s body=%s legs=%s)", o.Number, o.Head, o.Body, o.Legs)
}

// Batch keeps the row order of the source file.
type Batch []Order

func ReadFile(path string) (Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, failure.Wrap(failure.ErrParse, "open orders file", err)
	}
	defer f.Close()

	batch, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return batch, nil
}

func Read(r io.Reader) (Batch, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, failure.New(failure.ErrParse, "missing header row")
	}
	if err != nil {
		return nil, failure.Wrap(failure.ErrParse, "read header", err)
	}

	index, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	batch := Batch{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// csv.ErrFieldCount is reported here for rows that don't match
			// the header width.
			return nil, failure.Wrap(failure.ErrParse, "read row", err)
		}

		field := func(i int) string {
			return strings.TrimSpace(record[index[i]])
		}
		o := Order{
			Number:  field(0),
			Head:    field(1),
			Body:    field(2),
			Legs:    field(3),
			Address: field(4),
		}
		if o.Number == "" {
			line, _ := reader.FieldPos(index[0])
			return nil, failure.New(failure.ErrParse, "row on line %d has an empty order number", line)
		}
		// order numbers name the receipt files
		if strings.ContainsAny(o.Number, `/\`) || o.Number == "." || o.Number == ".." {
			line, _ := reader.FieldPos(index[0])
			return nil, failure.New(failure.ErrParse, "row on line %d has an invalid order number %q", line, o.Number)
		}
		batch = append(batch, o)
	}

	return batch, nil
}

func columnIndex(header []string) ([]int, error) {
	positions := map[string]int{}
	for i, name := range header {
		name = strings.TrimPrefix(name, "\ufeff")
		positions[strings.TrimSpace(name)] = i
	}

	index := make([]int, len(Columns))
	for i, name := range Columns {
		pos, ok := positions[name]
		if !ok {
			return nil, failure.New(failure.ErrParse, "missing column %q", name)
		}
		index[i] = pos
	}
	return index, nil
}
