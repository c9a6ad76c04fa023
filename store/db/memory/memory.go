// Package memory implements the store driver on in-process maps.
//
// The memory driver is intended for development and tests only: data is
// volatile and vector search is a linear scan with application-layer cosine
// similarity. Production deployments use the postgres driver.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/coachdesk/coachdesk/store"
)

type DB struct {
	mu sync.RWMutex

	users      map[int32]*store.User
	channels   map[int32]*store.Channel
	messages   map[string]*store.Message
	calendar   map[int32]*store.CalendarEntry
	reminders  map[int32]*store.Reminder
	embeddings map[string]*store.MessageEmbedding // keyed by messageID + "/" + model
	auditLog   []*store.AuditLogEntry

	nextUserID     int32
	nextChannelID  int32
	nextCalendarID int32
	nextReminderID int32
	nextAuditID    int64
}

// NewDB creates an empty in-memory driver.
func NewDB() store.Driver {
	return &DB{
		users:      make(map[int32]*store.User),
		channels:   make(map[int32]*store.Channel),
		messages:   make(map[string]*store.Message),
		calendar:   make(map[int32]*store.CalendarEntry),
		reminders:  make(map[int32]*store.Reminder),
		embeddings: make(map[string]*store.MessageEmbedding),
	}
}

func (d *DB) Migrate(_ context.Context) error { return nil }

func (d *DB) Close() error { return nil }

func (d *DB) AuditStore() store.AuditStore { return d }

// Users

func (d *DB) CreateUser(_ context.Context, user *store.User) (*store.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextUserID++
	created := *user
	created.ID = d.nextUserID
	d.users[created.ID] = &created
	return &created, nil
}

func (d *DB) ListUsers(_ context.Context, find *store.FindUser) ([]*store.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	list := []*store.User{}
	for _, u := range d.users {
		if find.ID != nil && u.ID != *find.ID {
			continue
		}
		if len(find.IDs) > 0 && !containsID(find.IDs, u.ID) {
			continue
		}
		copied := *u
		list = append(list, &copied)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

// Channels

func (d *DB) CreateChannel(_ context.Context, channel *store.Channel) (*store.Channel, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextChannelID++
	created := *channel
	created.ID = d.nextChannelID
	created.MemberIDs = append([]int32(nil), channel.MemberIDs...)
	d.channels[created.ID] = &created

	copied := created
	return &copied, nil
}

func (d *DB) ListChannels(_ context.Context, find *store.FindChannel) ([]*store.Channel, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	list := []*store.Channel{}
	for _, c := range d.channels {
		if find.ID != nil && c.ID != *find.ID {
			continue
		}
		if find.MemberID != nil && !c.HasMember(*find.MemberID) {
			continue
		}
		copied := *c
		copied.MemberIDs = append([]int32(nil), c.MemberIDs...)
		list = append(list, &copied)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].LastMessageTs > list[j].LastMessageTs })
	return list, nil
}

func (d *DB) UpdateChannel(_ context.Context, update *store.UpdateChannel) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	c, ok := d.channels[update.ID]
	if !ok {
		return errors.Errorf("channel %d not found", update.ID)
	}
	if update.LastMessageText != nil {
		c.LastMessageText = *update.LastMessageText
	}
	if update.LastMessageTs != nil {
		c.LastMessageTs = *update.LastMessageTs
	}
	return nil
}

// Messages

func (d *DB) CreateMessage(_ context.Context, message *store.Message) (*store.Message, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	copied := *message
	d.messages[copied.ID] = &copied
	result := copied
	return &result, nil
}

func (d *DB) ListMessages(_ context.Context, find *store.FindMessage) ([]*store.Message, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	list := []*store.Message{}
	for _, m := range d.messages {
		if find.ID != nil && m.ID != *find.ID {
			continue
		}
		if find.ChannelID != nil && m.ChannelID != *find.ChannelID {
			continue
		}
		copied := *m
		list = append(list, &copied)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedTs > list[j].CreatedTs })
	if find.Limit > 0 && len(list) > find.Limit {
		list = list[:find.Limit]
	}
	return list, nil
}

// Calendar

func (d *DB) CreateCalendarEntry(_ context.Context, entry *store.CalendarEntry) (*store.CalendarEntry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextCalendarID++
	created := *entry
	created.ID = d.nextCalendarID
	d.calendar[created.ID] = &created

	copied := created
	return &copied, nil
}

func (d *DB) ListCalendarEntries(_ context.Context, find *store.FindCalendarEntry) ([]*store.CalendarEntry, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	list := []*store.CalendarEntry{}
	for _, e := range d.calendar {
		if find.ID != nil && e.ID != *find.ID {
			continue
		}
		if find.OwnerID != nil && e.OwnerID != *find.OwnerID {
			continue
		}
		if find.StartTsAfter != nil && e.StartTs < *find.StartTsAfter {
			continue
		}
		if find.StartTsBefore != nil && e.StartTs > *find.StartTsBefore {
			continue
		}
		if excludedStatus(find.ExcludeStatus, e.Status) {
			continue
		}
		copied := *e
		list = append(list, &copied)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].StartTs < list[j].StartTs })
	return list, nil
}

func (d *DB) UpdateCalendarEntry(_ context.Context, update *store.UpdateCalendarEntry) (*store.CalendarEntry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.calendar[update.ID]
	if !ok {
		return nil, errors.Errorf("calendar entry %d not found", update.ID)
	}
	if update.Title != nil {
		e.Title = *update.Title
	}
	if update.StartTs != nil {
		e.StartTs = *update.StartTs
	}
	if update.EndTs != nil {
		e.EndTs = *update.EndTs
	}
	if update.Status != nil {
		e.Status = *update.Status
	}
	copied := *e
	return &copied, nil
}

// Reminders

func (d *DB) CreateReminder(_ context.Context, reminder *store.Reminder) (*store.Reminder, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextReminderID++
	created := *reminder
	created.ID = d.nextReminderID
	d.reminders[created.ID] = &created

	copied := created
	return &copied, nil
}

func (d *DB) ListReminders(_ context.Context, find *store.FindReminder) ([]*store.Reminder, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	list := []*store.Reminder{}
	for _, r := range d.reminders {
		if find.ID != nil && r.ID != *find.ID {
			continue
		}
		if find.OwnerID != nil && r.OwnerID != *find.OwnerID {
			continue
		}
		if find.Status != nil && r.Status != *find.Status {
			continue
		}
		copied := *r
		list = append(list, &copied)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].DueTs < list[j].DueTs })
	return list, nil
}

// Message embeddings

func (d *DB) UpsertMessageEmbedding(_ context.Context, embedding *store.MessageEmbedding) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	copied := *embedding
	copied.MemberIDs = append([]int32(nil), embedding.MemberIDs...)
	copied.Embedding = append([]float32(nil), embedding.Embedding...)
	d.embeddings[embedding.MessageID+"/"+embedding.Model] = &copied
	return nil
}

func (d *DB) MessageVectorSearch(_ context.Context, opts *store.MessageVectorSearchOptions) ([]*store.MessageMatch, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	results := []*store.MessageMatch{}
	for _, e := range d.embeddings {
		if e.Model != opts.Model {
			continue
		}
		if !containsID(e.MemberIDs, opts.MemberID) {
			continue
		}
		if opts.ChannelID != nil && e.ChannelID != *opts.ChannelID {
			continue
		}
		results = append(results, &store.MessageMatch{
			MessageID: e.MessageID,
			ChannelID: e.ChannelID,
			SenderID:  e.SenderID,
			Text:      e.Text,
			CreatedTs: e.CreatedTs,
			Score:     cosineSimilarity(opts.Vector, e.Embedding),
		})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results, nil
}

// Audit log

func (d *DB) CreateAuditLogEntry(_ context.Context, entry *store.AuditLogEntry) (*store.AuditLogEntry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextAuditID++
	created := *entry
	created.ID = d.nextAuditID
	d.auditLog = append(d.auditLog, &created)

	copied := created
	return &copied, nil
}

func (d *DB) UpdateAuditLogEntryStatus(_ context.Context, id int64, status store.AuditStatus, result *string, executedTs *int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, e := range d.auditLog {
		if e.ID == id {
			e.Status = status
			if result != nil {
				e.Result = result
			}
			if executedTs != nil {
				e.ExecutedTs = executedTs
			}
			return nil
		}
	}
	return errors.Errorf("audit log entry %d not found", id)
}

func (d *DB) ListAuditLogEntries(_ context.Context, find *store.FindAuditLogEntry) ([]*store.AuditLogEntry, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	list := []*store.AuditLogEntry{}
	for _, e := range d.auditLog {
		if find.ActorID != nil && e.ActorID != *find.ActorID {
			continue
		}
		if find.FunctionName != nil && e.FunctionName != *find.FunctionName {
			continue
		}
		copied := *e
		list = append(list, &copied)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedTs > list[j].CreatedTs })
	if find.Offset > 0 {
		if find.Offset >= len(list) {
			return []*store.AuditLogEntry{}, nil
		}
		list = list[find.Offset:]
	}
	if find.Limit > 0 && len(list) > find.Limit {
		list = list[:find.Limit]
	}
	return list, nil
}

func containsID(ids []int32, id int32) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func excludedStatus(excluded []store.EventStatus, status store.EventStatus) bool {
	for _, s := range excluded {
		if s == status {
			return true
		}
	}
	return false
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
