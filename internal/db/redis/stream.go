package redis

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/facility/internal/db"
)

// XAddMulti appends entries to stream in one DoMulti round-trip, preserving order.
// ids is aligned with entries; a failed entry has an empty id and the first
// failure is returned as the error.
func (s *Store) XAddMulti(ctx context.Context, stream string, maxLen int64, entries []db.StreamEntry) ([]string, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	cmds := make([]rueidis.Completed, len(entries))
	for i, e := range entries {
		if maxLen > 0 {
			cmds[i] = withFields(s.b().Xadd().Key(stream).
				Maxlen().Almost().Threshold(strconv.FormatInt(maxLen, 10)).
				Id("*").FieldValue(), e.Fields)
		} else {
			cmds[i] = withFields(s.b().Xadd().Key(stream).Id("*").FieldValue(), e.Fields)
		}
	}

	results := s.client.DoMulti(ctx, cmds...)
	ids := make([]string, len(entries))
	var firstErr error
	for i, res := range results {
		id, err := res.ToString()
		if err != nil {
			if firstErr == nil {
				firstErr = &db.Error{Op: db.OpXAdd, Err: fmt.Errorf("stream %s entry %d: %w", stream, i, err)}
			}
			continue
		}
		ids[i] = id
	}
	return ids, firstErr
}

type fieldValuer[T any] interface {
	FieldValue(field, value string) T
	Build() rueidis.Completed
}

// withFields appends fields in sorted order so entries are deterministic.
func withFields[T fieldValuer[T]](cmd T, fields map[string]string) rueidis.Completed {
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		cmd = cmd.FieldValue(k, fields[k])
	}
	return cmd.Build()
}
