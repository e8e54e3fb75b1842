package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/KaramelBytes/productpulse/internal/metrics"
	"github.com/KaramelBytes/productpulse/internal/utils"
)

// Extract file names written by WriteExtracts.
const (
	FileDAU          = "dau.csv"
	FileFeatureTrend = "feature_trend.csv"
	FileCohorts      = "cohort_retention.csv"
	FileSentiment    = "sentiment_trend.csv"
	FileFunnel       = "funnel.csv"
)

func pctCell(v float64) string { return strconv.FormatFloat(v*100, 'f', 1, 64) }

func writeRows(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// WriteFunnelCSV writes one row per stage with conversion percentages rounded to one decimal.
func WriteFunnelCSV(w io.Writer, f metrics.FunnelResult) error {
	rows := make([][]string, 0, len(f.Stages))
	for _, st := range f.Stages {
		rows = append(rows, []string{
			st.Name,
			strconv.Itoa(st.Users),
			pctCell(st.OverallConversion),
			pctCell(st.StepConversion),
			pctCell(st.StepDrop),
		})
	}
	return writeRows(w, []string{"stage", "users", "overall_conversion_pct", "step_conversion_pct", "step_drop_pct"}, rows)
}

// WriteDAUCSV writes the daily active user series with its rolling mean.
// The rolling column is empty until a full window has been observed.
func WriteDAUCSV(w io.Writer, a metrics.ActivityResult) error {
	rows := make([][]string, 0, len(a.Daily.Points))
	for i, p := range a.Daily.Points {
		rolling := ""
		if i < len(a.Rolling) && a.Rolling[i].Valid {
			rolling = strconv.FormatFloat(a.Rolling[i].Mean, 'f', 2, 64)
		}
		rows = append(rows, []string{p.Key, strconv.Itoa(p.Users), rolling})
	}
	return writeRows(w, []string{"date", "active_users", "rolling_avg"}, rows)
}

// WriteFeatureTrendCSV writes weekly event counts for the top features.
func WriteFeatureTrendCSV(w io.Writer, t metrics.FeatureTrend) error {
	rows := make([][]string, 0, len(t.Weekly))
	for _, wk := range t.Weekly {
		rows = append(rows, []string{wk.Key, wk.Feature, strconv.Itoa(wk.Events)})
	}
	return writeRows(w, []string{"week_start", "feature_name", "events"}, rows)
}

// WriteCohortCSV writes the cohort matrix in long form.
func WriteCohortCSV(w io.Writer, m metrics.CohortMatrix) error {
	var rows [][]string
	for _, row := range m.Rows {
		for off, rate := range row.Rates {
			rows = append(rows, []string{
				row.Cohort,
				strconv.Itoa(row.Size),
				strconv.Itoa(off),
				strconv.Itoa(row.Retained[off]),
				pctCell(rate),
			})
		}
	}
	return writeRows(w, []string{"cohort", "cohort_size", "month_offset", "active_users", "retention_pct"}, rows)
}

// WriteSentimentCSV writes monthly sentiment counts.
func WriteSentimentCSV(w io.Writer, s metrics.SentimentTrend) error {
	rows := make([][]string, 0, len(s.Buckets))
	for _, bk := range s.Buckets {
		rows = append(rows, []string{bk.Key, string(bk.Sentiment), strconv.Itoa(bk.Count)})
	}
	return writeRows(w, []string{"month", "sentiment", "count"}, rows)
}

// WriteExtracts writes every CSV extract into dir and returns the written paths.
func WriteExtracts(dir string, res *metrics.Results) ([]string, error) {
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("create extract dir: %w", err)
	}
	extracts := []struct {
		name  string
		write func(io.Writer) error
	}{
		{FileDAU, func(w io.Writer) error { return WriteDAUCSV(w, res.Activity) }},
		{FileFeatureTrend, func(w io.Writer) error { return WriteFeatureTrendCSV(w, res.FeatureTrend) }},
		{FileCohorts, func(w io.Writer) error { return WriteCohortCSV(w, res.Cohorts) }},
		{FileSentiment, func(w io.Writer) error { return WriteSentimentCSV(w, res.Sentiment) }},
		{FileFunnel, func(w io.Writer) error { return WriteFunnelCSV(w, res.Funnel) }},
	}
	paths := make([]string, 0, len(extracts))
	for _, ex := range extracts {
		var buf bytes.Buffer
		if err := ex.write(&buf); err != nil {
			return paths, fmt.Errorf("%s: %w", ex.name, err)
		}
		path := filepath.Join(dir, ex.name)
		if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
