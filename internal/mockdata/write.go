package mockdata

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/KaramelBytes/productpulse/internal/eventstore"
	"github.com/KaramelBytes/productpulse/internal/utils"
)

const dateLayout = "2006-01-02"

// WriteDir writes the four tables of ds as CSV files into dir, returning the
// written paths keyed by table name.
func WriteDir(dir string, ds *eventstore.Dataset) (map[string]string, error) {
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	ts := eventstore.DefaultTimestampLayout

	tables := map[string][][]string{
		eventstore.TableUsers:    {{"user_id", "signup_date", "channel", "region"}},
		eventstore.TableSessions: {{"session_id", "user_id", "start_time", "end_time", "device_type"}},
		eventstore.TableUsage:    {{"session_id", "feature_name", "usage_timestamp"}},
		eventstore.TableFeedback: {{"feedback_id", "user_id", "rating", "feature_name", "comments", "session_id"}},
	}
	for _, u := range ds.Users {
		tables[eventstore.TableUsers] = append(tables[eventstore.TableUsers],
			[]string{u.ID, u.SignupDate.Format(dateLayout), u.Channel, u.Region})
	}
	for _, s := range ds.Sessions {
		tables[eventstore.TableSessions] = append(tables[eventstore.TableSessions],
			[]string{s.ID, s.UserID, s.StartTime.Format(ts), s.EndTime.Format(ts), s.DeviceType})
	}
	for _, e := range ds.Usage {
		tables[eventstore.TableUsage] = append(tables[eventstore.TableUsage],
			[]string{e.SessionID, e.Feature, e.Timestamp.Format(ts)})
	}
	for _, f := range ds.Feedback {
		tables[eventstore.TableFeedback] = append(tables[eventstore.TableFeedback],
			[]string{f.ID, f.UserID, strconv.Itoa(f.Rating), f.Feature, f.Comments, f.SessionID})
	}

	paths := make(map[string]string, len(tables))
	for _, name := range eventstore.Tables {
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		if err := w.WriteAll(tables[name]); err != nil {
			return paths, fmt.Errorf("encode %s: %w", name, err)
		}
		path := filepath.Join(dir, name+".csv")
		if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
			return paths, fmt.Errorf("write %s: %w", name, err)
		}
		paths[name] = path
	}
	return paths, nil
}
