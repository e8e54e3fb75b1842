package eventstore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/productpulse/internal/logging"
)

// DefaultTimestampLayout matches the timestamps written by the mock data generator.
const DefaultTimestampLayout = "2006-01-02 15:04:05"

// Options controls how table files are parsed.
type Options struct {
	// TimestampLayout is tried first for timestamp columns; fallbacks follow.
	TimestampLayout string
	// Delimiter for CSV. If 0, ',' is used ('\t' for .tsv files).
	Delimiter rune
	// Location used for layouts without zone information. Defaults to UTC.
	Location *time.Location
}

// DefaultOptions returns the options used by the CLI when nothing is configured.
func DefaultOptions() Options {
	return Options{TimestampLayout: DefaultTimestampLayout, Location: time.UTC}
}

var requiredColumns = map[string][]string{
	TableUsers:    {"user_id", "signup_date"},
	TableSessions: {"session_id", "user_id", "start_time", "end_time"},
	TableUsage:    {"session_id", "feature_name", "usage_timestamp"},
	TableFeedback: {"feedback_id", "user_id", "rating", "feature_name", "comments", "session_id"},
}

// LoadDir reads users.csv, sessions.csv, feature_usage.csv and the optional
// feedback.csv from dir.
func LoadDir(dir string, opt Options) (*Dataset, error) {
	ds := &Dataset{SourceDir: dir}
	var err error
	if ds.Users, err = LoadUsers(filepath.Join(dir, TableUsers+".csv"), opt); err != nil {
		return nil, err
	}
	if ds.Sessions, err = LoadSessions(filepath.Join(dir, TableSessions+".csv"), opt); err != nil {
		return nil, err
	}
	if ds.Usage, err = LoadUsage(filepath.Join(dir, TableUsage+".csv"), opt); err != nil {
		return nil, err
	}
	ds.Feedback, err = LoadFeedback(filepath.Join(dir, TableFeedback+".csv"), opt)
	if err != nil {
		if !errors.Is(err, ErrTableNotFound) {
			return nil, err
		}
		logging.Warn().Str("table", TableFeedback).Msg("feedback table absent, continuing without feedback")
		ds.Feedback = nil
	}
	counts := ds.Counts()
	for _, table := range Tables {
		logging.Info().Str("table", table).Int("rows", counts[table]).Msg("table loaded")
	}
	return ds, nil
}

// LoadUsers parses a users table.
func LoadUsers(path string, opt Options) ([]User, error) {
	var out []User
	err := readTable(path, TableUsers, opt, func(row tableRow) error {
		signup, err := row.date("signup_date")
		if err != nil {
			return err
		}
		out = append(out, User{
			ID:         row.str("user_id"),
			SignupDate: signup,
			Channel:    row.str("channel"),
			Region:     row.str("region"),
		})
		return nil
	})
	return out, err
}

// LoadSessions parses a sessions table.
func LoadSessions(path string, opt Options) ([]Session, error) {
	var out []Session
	err := readTable(path, TableSessions, opt, func(row tableRow) error {
		start, err := row.timestamp("start_time")
		if err != nil {
			return err
		}
		end, err := row.timestamp("end_time")
		if err != nil {
			return err
		}
		out = append(out, Session{
			ID:         row.str("session_id"),
			UserID:     row.str("user_id"),
			StartTime:  start,
			EndTime:    end,
			DeviceType: row.str("device_type"),
		})
		return nil
	})
	return out, err
}

// LoadUsage parses a feature usage table.
func LoadUsage(path string, opt Options) ([]FeatureUsageEvent, error) {
	var out []FeatureUsageEvent
	err := readTable(path, TableUsage, opt, func(row tableRow) error {
		ts, err := row.timestamp("usage_timestamp")
		if err != nil {
			return err
		}
		out = append(out, FeatureUsageEvent{
			SessionID: row.str("session_id"),
			Feature:   row.str("feature_name"),
			Timestamp: ts,
		})
		return nil
	})
	return out, err
}

// LoadFeedback parses a feedback table.
func LoadFeedback(path string, opt Options) ([]FeedbackEntry, error) {
	var out []FeedbackEntry
	err := readTable(path, TableFeedback, opt, func(row tableRow) error {
		rating, err := row.integer("rating")
		if err != nil {
			return err
		}
		out = append(out, FeedbackEntry{
			ID:        row.str("feedback_id"),
			UserID:    row.str("user_id"),
			Rating:    rating,
			Feature:   row.str("feature_name"),
			Comments:  row.raw("comments"),
			SessionID: row.str("session_id"),
		})
		return nil
	})
	return out, err
}

type tableRow struct {
	table  string
	num    int
	rec    []string
	index  map[string]int
	layout string
	loc    *time.Location
}

func (r tableRow) raw(col string) string {
	i, ok := r.index[col]
	if !ok || i >= len(r.rec) {
		return ""
	}
	return r.rec[i]
}

func (r tableRow) str(col string) string { return strings.TrimSpace(r.raw(col)) }

func (r tableRow) wrap(col string, err error) error {
	return &RowError{Table: r.table, Row: r.num, Column: col, Err: err}
}

func (r tableRow) integer(col string) (int, error) {
	v := r.str(col)
	i, err := strconv.Atoi(v)
	if err != nil {
		// tolerate "4.0" style ratings written by spreadsheet tools
		f, ferr := strconv.ParseFloat(v, 64)
		if ferr != nil {
			return 0, r.wrap(col, err)
		}
		i = int(f)
	}
	return i, nil
}

func (r tableRow) date(col string) (time.Time, error) {
	v := r.str(col)
	if t, err := time.ParseInLocation("2006-01-02", v, r.loc); err == nil {
		return t, nil
	}
	t, err := parseTimestamp(v, r.layout, r.loc)
	if err != nil {
		return time.Time{}, r.wrap(col, err)
	}
	return truncateDay(t), nil
}

func (r tableRow) timestamp(col string) (time.Time, error) {
	t, err := parseTimestamp(r.str(col), r.layout, r.loc)
	if err != nil {
		return time.Time{}, r.wrap(col, err)
	}
	return t, nil
}

func parseTimestamp(s, layout string, loc *time.Location) (time.Time, error) {
	layouts := []string{layout, time.RFC3339, "2006-01-02 15:04", "2006-01-02T15:04:05", "2006-01-02"}
	for _, l := range layouts {
		if l == "" {
			continue
		}
		if t, err := time.ParseInLocation(l, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func readTable(path, table string, opt Options, fn func(tableRow) error) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s (%s): %w", table, path, ErrTableNotFound)
		}
		return fmt.Errorf("open %s: %w", table, err)
	}
	defer f.Close()

	delim := opt.Delimiter
	if delim == 0 {
		delim = ','
		if strings.HasSuffix(strings.ToLower(path), ".tsv") {
			delim = '\t'
		}
	}
	loc := opt.Location
	if loc == nil {
		loc = time.UTC
	}
	layout := opt.TimestampLayout
	if layout == "" {
		layout = DefaultTimestampLayout
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comma = delim

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("read %s header: %w", table, err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, col := range requiredColumns[table] {
		if _, ok := index[col]; !ok {
			return &SchemaError{Table: table, Column: col}
		}
	}

	num := 0
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("read %s row %d: %w", table, num+1, err)
		}
		num++
		if isBlank(rec) {
			continue
		}
		row := tableRow{table: table, num: num, rec: rec, index: index, layout: layout, loc: loc}
		if err := fn(row); err != nil {
			return err
		}
	}
	return nil
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
