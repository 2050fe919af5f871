// Package report turns collected QNG samples into a cumulative z-test and
// writes it to an Excel workbook with a line chart of the z-score.
package report

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/bits"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Thiagojm/medqrng_go/naming"
)

// Column headers and sheet name of the generated workbook.
const (
	SheetName    = "Zscore"
	HeaderSample = "samples"
	HeaderTime   = "time"
	headerOnes   = "ones"
	headerMean   = "cumulative_mean"
	headerZ      = "z_test"
)

// CSVTimeLayout is the timestamp layout written by the collector.
const CSVTimeLayout = "20060102T15:04:05"

// Row is one sample: its label, ones count, and the running statistics.
type Row struct {
	Label          string
	Ones           int
	CumulativeMean float64
	ZScore         float64
}

// CountOnes returns the number of set bits in the first bitCount bits of buf,
// read MSB-first.
func CountOnes(buf []byte, bitCount int) int {
	if bitCount <= 0 || len(buf) == 0 {
		return 0
	}
	used := (bitCount + 7) / 8
	if used > len(buf) {
		used = len(buf)
		bitCount = used * 8
	}
	total := 0
	for _, b := range buf[:used-1] {
		total += bits.OnesCount8(b)
	}
	lastBits := bitCount - (used-1)*8
	mask := byte(0xFF) << (8 - lastBits)
	return total + bits.OnesCount8(buf[used-1]&mask)
}

// ReadBin splits a .bin file into blocks of blockBits bits and counts the
// ones in each. A short final block is counted as is.
func ReadBin(path string, blockBits int) ([]Row, error) {
	if blockBits <= 0 || blockBits%8 != 0 {
		return nil, errors.New("block size must be a positive multiple of 8 bits for .bin files")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	buf := make([]byte, blockBits/8)
	var rows []Row
	for block := 1; ; block++ {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			rows = append(rows, Row{Label: strconv.Itoa(block), Ones: CountOnes(buf[:n], n*8)})
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// ReadCSV reads a two-column timestamp,ones file without header. Labels are
// the timestamps formatted as HH:MM:SS when they parse.
func ReadCSV(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		if len(rec) < 2 {
			continue
		}
		field := strings.TrimSpace(rec[1])
		ones, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("invalid ones value %q: %w", field, err)
		}
		rows = append(rows, Row{Label: timeLabel(strings.TrimSpace(rec[0])), Ones: ones})
	}
	return rows, nil
}

func timeLabel(s string) string {
	for _, layout := range []string{CSVTimeLayout, time.RFC3339, "2006-01-02 15:04:05", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04:05")
		}
	}
	return s
}

// ZTest fills in the cumulative mean and z-score of each row for blocks of
// blockBits fair bits:
//
//	z_i = (mean_i - n/2) / (sqrt(n/4) / sqrt(i+1))
func ZTest(rows []Row, blockBits int) []Row {
	expectedMean := 0.5 * float64(blockBits)
	expectedStdDev := math.Sqrt(float64(blockBits) * 0.25)
	if expectedStdDev == 0 {
		return rows
	}
	sum := 0
	for i := range rows {
		sum += rows[i].Ones
		k := float64(i + 1)
		mean := float64(sum) / k
		rows[i].CumulativeMean = mean
		rows[i].ZScore = (mean - expectedMean) / (expectedStdDev / math.Sqrt(k))
	}
	return rows
}

// WriteExcel writes rows next to path with a .xlsx extension and returns the
// workbook path.
func WriteExcel(rows []Row, path string, info naming.Info, firstHeader string) (string, error) {
	if len(rows) == 0 {
		return "", errors.New("no data to write")
	}
	out := strings.TrimSuffix(path, filepath.Ext(path)) + ".xlsx"
	f := excelize.NewFile()
	defer f.Close()

	if def := f.GetSheetName(0); def != SheetName {
		if _, err := f.NewSheet(SheetName); err != nil {
			return "", err
		}
		f.DeleteSheet(def)
	}

	cells := []struct {
		cell  string
		value string
	}{
		{"A1", firstHeader}, {"B1", headerOnes}, {"C1", headerMean}, {"D1", headerZ},
	}
	for _, c := range cells {
		if err := f.SetCellStr(SheetName, c.cell, c.value); err != nil {
			return "", err
		}
	}
	for i, r := range rows {
		row := i + 2
		if err := f.SetSheetRow(SheetName, fmt.Sprintf("A%d", row), &[]interface{}{r.Label, r.Ones, round6(r.CumulativeMean), round6(r.ZScore)}); err != nil {
			return "", err
		}
	}

	end := len(rows) + 1
	title := filepath.Base(path)
	if info.Serial != "" {
		title += " (" + info.Serial + ")"
	}
	chart := &excelize.Chart{
		Type: excelize.Line,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$D$1", SheetName),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", SheetName, end),
			Values:     fmt.Sprintf("%s!$D$2:$D$%d", SheetName, end),
		}},
		Title:  []excelize.RichTextRun{{Text: title}},
		Legend: excelize.ChartLegend{Position: "none"},
		XAxis:  excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: fmt.Sprintf("Number of Samples - one sample every %d second(s)", info.IntervalSeconds)}}},
		YAxis:  excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: fmt.Sprintf("Z-score - Sample Size = %d bits", info.Bits)}}, MajorGridLines: true},
	}
	if err := f.AddChart(SheetName, "F2", chart); err != nil {
		return "", err
	}
	if err := f.SaveAs(out); err != nil {
		return "", err
	}
	return out, nil
}

func round6(v float64) float64 { return math.Round(v*1e6) / 1e6 }

// Convert reads a collected .bin or .csv file, runs the z-test and writes the
// workbook. It returns the workbook path.
func Convert(path string) (string, error) {
	info, err := naming.Parse(path)
	if err != nil {
		return "", err
	}

	var (
		rows   []Row
		header string
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bin":
		rows, err = ReadBin(path, info.Bits)
		header = HeaderSample
	case ".csv":
		rows, err = ReadCSV(path)
		header = HeaderTime
	default:
		return "", fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
	if err != nil {
		return "", err
	}
	return WriteExcel(ZTest(rows, info.Bits), path, info, header)
}
