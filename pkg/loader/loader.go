package loader

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/g-uva/makespan-scheduler/pkg/core"
)

// ReadJobsCSV parses a CSV of:
//
//	id,length[,tag[,vm]]
//
// where length is the job size in MI and vm optionally binds the job to a
// resource id. The first row is a header.
func ReadJobsCSV(r io.Reader) ([]core.Workload, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	if _, err := cr.Read(); err != nil {
		return nil, errors.Wrap(err, "read jobs header")
	}

	var wls []core.Workload
	for row := 2; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.Wrapf(err, "read jobs row %d", row)
		}
		if len(rec) < 2 {
			return nil, errors.Errorf("jobs row %d: want at least 2 fields, got %d", row, len(rec))
		}
		length, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "jobs row %d: length", row)
		}
		w := core.Workload{ID: strings.TrimSpace(rec[0]), MI: length}
		if len(rec) >= 3 {
			w.Tag = rec[2]
		}
		if len(rec) >= 4 {
			w.BoundTo = strings.TrimSpace(rec[3])
		}
		wls = append(wls, w)
	}
	return wls, nil
}

// ReadResourcesCSV parses a CSV of:
//
//	id,pes,mips
//
// one row per resource, after a header row.
func ReadResourcesCSV(r io.Reader) ([]core.Node, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	if _, err := cr.Read(); err != nil {
		return nil, errors.Wrap(err, "read resources header")
	}

	var nodes []core.Node
	for row := 2; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.Wrapf(err, "read resources row %d", row)
		}
		if len(rec) < 3 {
			return nil, errors.Errorf("resources row %d: want 3 fields, got %d", row, len(rec))
		}
		pes, err := strconv.Atoi(strings.TrimSpace(rec[1]))
		if err != nil {
			return nil, errors.Wrapf(err, "resources row %d: pes", row)
		}
		mips, err := strconv.ParseFloat(strings.TrimSpace(rec[2]), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "resources row %d: mips", row)
		}
		nodes = append(nodes, core.Node{ID: strings.TrimSpace(rec[0]), PEs: pes, MIPS: mips})
	}
	return nodes, nil
}

func LoadJobsFromCSV(path string) ([]core.Workload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "LoadJobsFromCSV: open %s", path)
	}
	defer f.Close()
	return ReadJobsCSV(f)
}

func LoadResourcesFromCSV(path string) ([]core.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "LoadResourcesFromCSV: open %s", path)
	}
	defer f.Close()
	return ReadResourcesCSV(f)
}
