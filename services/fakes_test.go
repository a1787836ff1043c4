package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"retailtasks/models"
	repository "retailtasks/repositories"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var errStore = errors.New("store unavailable")

func duplicateKey(index string) error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{
		Code:    11000,
		Message: fmt.Sprintf("E11000 duplicate key error collection: retailtasks index: %s dup key", index),
	}}}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// analytics

type incrementCall struct {
	company primitive.ObjectID
	day     time.Time
	inc     map[string]int
	set     map[string]interface{}
}

type fakeAnalyticsRepo struct {
	mu         sync.Mutex
	days       map[string]*models.Analytics
	increments []incrementCall
	saveErr    error
	inserts    int
	// beforeUpdate runs at the start of Update, outside the lock, to let a
	// test slip a concurrent write between a load and its write back.
	beforeUpdate func()
}

func newFakeAnalyticsRepo() *fakeAnalyticsRepo {
	return &fakeAnalyticsRepo{days: map[string]*models.Analytics{}}
}

func dayKey(company primitive.ObjectID, day time.Time) string {
	return company.Hex() + "/" + day.Format("2006-01-02")
}

func cloneAnalytics(a *models.Analytics) *models.Analytics {
	c := *a
	c.DepartmentStats = make(map[string]*models.DepartmentStats, len(a.DepartmentStats))
	for k, v := range a.DepartmentStats {
		d := *v
		c.DepartmentStats[k] = &d
	}
	c.UserStats = make(map[string]*models.UserStats, len(a.UserStats))
	for k, v := range a.UserStats {
		u := *v
		c.UserStats[k] = &u
	}
	return &c
}

func (r *fakeAnalyticsRepo) FindDay(ctx context.Context, company primitive.ObjectID, day time.Time) (*models.Analytics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.days[dayKey(company, day)]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return cloneAnalytics(a), nil
}

func (r *fakeAnalyticsRepo) Insert(ctx context.Context, analytics *models.Analytics) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := dayKey(analytics.Company, analytics.Date)
	if _, ok := r.days[key]; ok {
		return duplicateKey(repository.AnalyticsDayIndex)
	}
	analytics.ID = primitive.NewObjectID()
	r.days[key] = cloneAnalytics(analytics)
	r.inserts++
	return nil
}

func (r *fakeAnalyticsRepo) Update(ctx context.Context, id primitive.ObjectID, set bson.M, inc map[string]int) error {
	if hook := r.beforeUpdate; hook != nil {
		r.beforeUpdate = nil
		hook()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	for key, a := range r.days {
		if a.ID != id {
			continue
		}
		updated, err := applyUpdate(a, set, inc)
		if err != nil {
			return err
		}
		r.days[key] = updated
		return nil
	}
	return fmt.Errorf("analytics %s: %w", id.Hex(), mongo.ErrNoDocuments)
}

func (r *fakeAnalyticsRepo) Increment(ctx context.Context, company primitive.ObjectID, day time.Time, inc map[string]int, set map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.increments = append(r.increments, incrementCall{company: company, day: day, inc: inc, set: set})

	key := dayKey(company, day)
	a, ok := r.days[key]
	if !ok {
		a = models.NewAnalytics(company, day)
		a.ID = primitive.NewObjectID()
	}
	updated, err := applyUpdate(a, bson.M(set), inc)
	if err != nil {
		return err
	}
	r.days[key] = updated
	return nil
}

// applyUpdate runs $set and $inc with dotted paths against a copy of a.
func applyUpdate(a *models.Analytics, set bson.M, inc map[string]int) (*models.Analytics, error) {
	leaves, err := flattenAnalytics(a)
	if err != nil {
		return nil, err
	}
	flat := map[string]interface{}{}
	for path, v := range leaves {
		flat[path] = v
	}
	for path, v := range set {
		flat[path] = v
	}
	for path, n := range inc {
		flat[path] = numberAt(flat[path]) + int64(n)
	}

	nested := bson.M{}
	for path, v := range flat {
		parts := strings.Split(path, ".")
		doc := nested
		for _, part := range parts[:len(parts)-1] {
			next, ok := doc[part].(bson.M)
			if !ok {
				next = bson.M{}
				doc[part] = next
			}
			doc = next
		}
		doc[parts[len(parts)-1]] = v
	}

	raw, err := bson.Marshal(nested)
	if err != nil {
		return nil, err
	}
	var out models.Analytics
	if err := bson.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	out.ID, out.Company, out.Date = a.ID, a.Company, a.Date
	out.Normalize()
	return &out, nil
}

func numberAt(v interface{}) int64 {
	rv, ok := v.(bson.RawValue)
	if !ok {
		return 0
	}
	if i, ok := rv.Int32OK(); ok {
		return int64(i)
	}
	if i, ok := rv.Int64OK(); ok {
		return i
	}
	if f, ok := rv.DoubleOK(); ok {
		return int64(f)
	}
	return 0
}

func (r *fakeAnalyticsRepo) FindRange(ctx context.Context, company primitive.ObjectID, start, end time.Time, sections []string) ([]models.Analytics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Analytics
	for _, a := range r.days {
		if a.Company == company && !a.Date.Before(start) && !a.Date.After(end) {
			out = append(out, *cloneAnalytics(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *fakeAnalyticsRepo) day(company primitive.ObjectID, day time.Time) *models.Analytics {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.days[dayKey(company, models.StartOfDay(day))]
}

// stubAnalytics records the analytics hooks it receives and returns err.
type stubAnalytics struct {
	AnalyticsService
	err   error
	calls []string
}

func (s *stubAnalytics) RecordTaskCreated(ctx context.Context, task *models.Task) error {
	s.calls = append(s.calls, "created")
	return s.err
}

func (s *stubAnalytics) RecordTaskCompleted(ctx context.Context, task *models.Task) error {
	s.calls = append(s.calls, "completed")
	return s.err
}

func (s *stubAnalytics) RecordTaskModified(ctx context.Context, task, previous *models.Task) error {
	s.calls = append(s.calls, "modified")
	return s.err
}

func (s *stubAnalytics) RecordTaskDeleted(ctx context.Context, task *models.Task) error {
	s.calls = append(s.calls, "deleted")
	return s.err
}

func (s *stubAnalytics) RecordTaskViewed(ctx context.Context, company primitive.ObjectID) error {
	s.calls = append(s.calls, "viewed")
	return s.err
}

func (s *stubAnalytics) RecordLogin(ctx context.Context, user *models.User) error {
	s.calls = append(s.calls, "login")
	return s.err
}

func (s *stubAnalytics) RecordProfileUpdate(ctx context.Context, company primitive.ObjectID) error {
	s.calls = append(s.calls, "profile")
	return s.err
}

func (s *stubAnalytics) RecordPasswordChange(ctx context.Context, company primitive.ObjectID) error {
	s.calls = append(s.calls, "password")
	return s.err
}

func (s *stubAnalytics) AddUser(ctx context.Context, company, user primitive.ObjectID) error {
	s.calls = append(s.calls, "add_user")
	return s.err
}

func (s *stubAnalytics) EnsureToday(ctx context.Context, company primitive.ObjectID) (*models.Analytics, error) {
	s.calls = append(s.calls, "ensure_today")
	return nil, s.err
}

// users

type fakeUserRepo struct {
	users map[primitive.ObjectID]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[primitive.ObjectID]*models.User{}}
	for _, u := range users {
		if u.ID.IsZero() {
			u.ID = primitive.NewObjectID()
		}
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	for _, u := range r.users {
		if u.Username == user.Username {
			return duplicateKey(repository.UsernameIndex)
		}
		if u.WorkEmail == user.WorkEmail {
			return duplicateKey(repository.WorkEmailIndex)
		}
	}
	user.ID = primitive.NewObjectID()
	c := *user
	r.users[user.ID] = &c
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	c := *u
	return &c, nil
}

func (r *fakeUserRepo) find(match func(*models.User) bool) (*models.User, error) {
	for _, u := range r.users {
		if match(u) {
			c := *u
			return &c, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Username == username })
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.WorkEmail == email })
}

func (r *fakeUserRepo) ListByCompany(ctx context.Context, company primitive.ObjectID) ([]models.User, error) {
	out := []models.User{}
	for _, u := range r.users {
		if u.Company == company {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) HasUsers(ctx context.Context, company primitive.ObjectID) (bool, error) {
	for _, u := range r.users {
		if u.Company == company {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return mongo.ErrNoDocuments
	}
	c := *user
	r.users[user.ID] = &c
	return nil
}

// companies

type fakeCompanyRepo struct {
	companies map[primitive.ObjectID]*models.Company
	// createErrs are returned by successive Create calls before succeeding.
	createErrs []error
	attempts   int
}

func newFakeCompanyRepo(companies ...*models.Company) *fakeCompanyRepo {
	r := &fakeCompanyRepo{companies: map[primitive.ObjectID]*models.Company{}}
	for _, c := range companies {
		if c.ID.IsZero() {
			c.ID = primitive.NewObjectID()
		}
		r.companies[c.ID] = c
	}
	return r
}

func (r *fakeCompanyRepo) Create(ctx context.Context, company *models.Company) error {
	r.attempts++
	if len(r.createErrs) > 0 {
		err := r.createErrs[0]
		r.createErrs = r.createErrs[1:]
		return err
	}
	company.ID = primitive.NewObjectID()
	c := *company
	r.companies[company.ID] = &c
	return nil
}

func (r *fakeCompanyRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Company, error) {
	c, ok := r.companies[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return c, nil
}

func (r *fakeCompanyRepo) GetByCode(ctx context.Context, code string) (*models.Company, error) {
	for _, c := range r.companies {
		if c.Code == code {
			return c, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeCompanyRepo) ListIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(r.companies))
	for id := range r.companies {
		ids = append(ids, id)
	}
	return ids, nil
}

// departments

type fakeDepartmentRepo struct {
	departments map[primitive.ObjectID]*models.Department
}

func newFakeDepartmentRepo(departments ...*models.Department) *fakeDepartmentRepo {
	r := &fakeDepartmentRepo{departments: map[primitive.ObjectID]*models.Department{}}
	for _, d := range departments {
		if d.ID.IsZero() {
			d.ID = primitive.NewObjectID()
		}
		r.departments[d.ID] = d
	}
	return r
}

func (r *fakeDepartmentRepo) Create(ctx context.Context, department *models.Department) error {
	for _, d := range r.departments {
		if d.Company == department.Company && d.Name == department.Name {
			return duplicateKey(repository.DepartmentNameIndex)
		}
	}
	department.ID = primitive.NewObjectID()
	c := *department
	r.departments[department.ID] = &c
	return nil
}

func (r *fakeDepartmentRepo) GetByID(ctx context.Context, company, id primitive.ObjectID) (*models.Department, error) {
	d, ok := r.departments[id]
	if !ok || d.Company != company {
		return nil, mongo.ErrNoDocuments
	}
	return d, nil
}

func (r *fakeDepartmentRepo) FindByName(ctx context.Context, company primitive.ObjectID, name string) (*models.Department, error) {
	for _, d := range r.departments {
		if d.Company == company && d.Name == name {
			return d, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeDepartmentRepo) ListByCompany(ctx context.Context, company primitive.ObjectID) ([]models.Department, error) {
	out := []models.Department{}
	for _, d := range r.departments {
		if d.Company == company {
			out = append(out, *d)
		}
	}
	return out, nil
}

// tasks

type fakeTaskRepo struct {
	tasks     map[primitive.ObjectID]*models.Task
	updateErr error
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: map[primitive.ObjectID]*models.Task{}}
}

func cloneTask(t *models.Task) *models.Task {
	c := *t
	c.Images = append([]models.Image(nil), t.Images...)
	return &c
}

func (r *fakeTaskRepo) Create(ctx context.Context, task *models.Task) error {
	task.ID = primitive.NewObjectID()
	r.tasks[task.ID] = cloneTask(task)
	return nil
}

func (r *fakeTaskRepo) GetByID(ctx context.Context, company, id primitive.ObjectID) (*models.Task, error) {
	t, ok := r.tasks[id]
	if !ok || t.Company != company {
		return nil, mongo.ErrNoDocuments
	}
	return cloneTask(t), nil
}

func (r *fakeTaskRepo) List(ctx context.Context, company primitive.ObjectID, filter models.TaskFilter) ([]models.Task, error) {
	out := []models.Task{}
	for _, t := range r.tasks {
		if t.Company != company {
			continue
		}
		if filter.Completed != nil && t.Completed != *filter.Completed {
			continue
		}
		out = append(out, *cloneTask(t))
	}
	return out, nil
}

func (r *fakeTaskRepo) Update(ctx context.Context, task *models.Task) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.tasks[task.ID]; !ok {
		return mongo.ErrNoDocuments
	}
	r.tasks[task.ID] = cloneTask(task)
	return nil
}

func (r *fakeTaskRepo) Delete(ctx context.Context, company, id primitive.ObjectID) error {
	t, ok := r.tasks[id]
	if !ok || t.Company != company {
		return mongo.ErrNoDocuments
	}
	delete(r.tasks, id)
	return nil
}

func (r *fakeTaskRepo) AddImages(ctx context.Context, id primitive.ObjectID, images []models.Image) error {
	t, ok := r.tasks[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	t.Images = append(t.Images, images...)
	return nil
}

func (r *fakeTaskRepo) RemoveImage(ctx context.Context, id, fileID primitive.ObjectID) error {
	t, ok := r.tasks[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	kept := t.Images[:0]
	for _, img := range t.Images {
		if img.FileID != fileID {
			kept = append(kept, img)
		}
	}
	t.Images = kept
	return nil
}

func (r *fakeTaskRepo) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for _, t := range r.tasks {
		if !t.Completed && !t.IsOverdue && t.DueDate.Before(now) {
			t.IsOverdue = true
			n++
		}
	}
	return n, nil
}

// history and comments

type fakeHistoryRepo struct {
	entries   []models.History
	createErr error
	deleted   []primitive.ObjectID
}

func (r *fakeHistoryRepo) Create(ctx context.Context, entry *models.History) error {
	if r.createErr != nil {
		return r.createErr
	}
	entry.ID = primitive.NewObjectID()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeHistoryRepo) ListByTask(ctx context.Context, task primitive.ObjectID) ([]models.History, error) {
	out := []models.History{}
	for _, e := range r.entries {
		if e.Task == task {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeHistoryRepo) DeleteByTask(ctx context.Context, task primitive.ObjectID) error {
	r.deleted = append(r.deleted, task)
	return nil
}

func (r *fakeHistoryRepo) actions() []models.ActionType {
	out := make([]models.ActionType, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.ActionType
	}
	return out
}

type fakeCommentRepo struct {
	comments []models.Comment
	deleted  []primitive.ObjectID
}

func (r *fakeCommentRepo) Create(ctx context.Context, comment *models.Comment) error {
	comment.ID = primitive.NewObjectID()
	r.comments = append(r.comments, *comment)
	return nil
}

func (r *fakeCommentRepo) ListByTask(ctx context.Context, task primitive.ObjectID) ([]models.Comment, error) {
	out := []models.Comment{}
	for _, c := range r.comments {
		if c.Task == task {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCommentRepo) DeleteByTask(ctx context.Context, task primitive.ObjectID) error {
	r.deleted = append(r.deleted, task)
	return nil
}

// notifications

type fakeNotificationRepo struct {
	notifications []models.Notification
	readLinks     []string
	createErr     error
}

func (r *fakeNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	if r.createErr != nil {
		return r.createErr
	}
	notification.ID = primitive.NewObjectID()
	r.notifications = append(r.notifications, *notification)
	return nil
}

func (r *fakeNotificationRepo) ListByUser(ctx context.Context, user primitive.ObjectID) ([]models.Notification, error) {
	out := []models.Notification{}
	for _, n := range r.notifications {
		if n.User == user {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) MarkRead(ctx context.Context, user, id primitive.ObjectID) error {
	for i := range r.notifications {
		if r.notifications[i].ID == id && r.notifications[i].User == user {
			r.notifications[i].Read = true
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (r *fakeNotificationRepo) MarkReadByLink(ctx context.Context, user primitive.ObjectID, link string) error {
	r.readLinks = append(r.readLinks, link)
	for i := range r.notifications {
		if r.notifications[i].User == user && r.notifications[i].Link == link {
			r.notifications[i].Read = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) DeleteByUser(ctx context.Context, user primitive.ObjectID) error {
	kept := r.notifications[:0]
	for _, n := range r.notifications {
		if n.User != user {
			kept = append(kept, n)
		}
	}
	r.notifications = kept
	return nil
}

func (r *fakeNotificationRepo) CountUnread(ctx context.Context, user primitive.ObjectID) (int64, error) {
	var n int64
	for _, x := range r.notifications {
		if x.User == user && !x.Read {
			n++
		}
	}
	return n, nil
}

func (r *fakeNotificationRepo) forUser(user primitive.ObjectID) []models.Notification {
	out, _ := r.ListByUser(context.Background(), user)
	return out
}

// images

type fakeImageRepo struct {
	files     map[primitive.ObjectID]*fakeFile
	uploadErr error
	deleteErr error
}

type fakeFile struct {
	name        string
	company     primitive.ObjectID
	contentType string
	data        []byte
}

func newFakeImageRepo() *fakeImageRepo {
	return &fakeImageRepo{files: map[primitive.ObjectID]*fakeFile{}}
}

func (r *fakeImageRepo) Upload(ctx context.Context, filename string, data io.Reader, uploadedBy, company primitive.ObjectID, contentType string) (primitive.ObjectID, error) {
	if r.uploadErr != nil {
		return primitive.NilObjectID, r.uploadErr
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return primitive.NilObjectID, err
	}
	id := primitive.NewObjectID()
	r.files[id] = &fakeFile{name: filename, company: company, contentType: contentType, data: b}
	return id, nil
}

func (r *fakeImageRepo) Download(ctx context.Context, fileID primitive.ObjectID) (*repository.StoredImage, error) {
	f, ok := r.files[fileID]
	if !ok {
		return nil, fmt.Errorf("image %s: %w", fileID.Hex(), mongo.ErrNoDocuments)
	}
	return &repository.StoredImage{
		Company:     f.company,
		Filename:    f.name,
		ContentType: f.contentType,
		Length:      int64(len(f.data)),
		Body:        io.NopCloser(bytes.NewReader(f.data)),
	}, nil
}

func (r *fakeImageRepo) Delete(ctx context.Context, fileID primitive.ObjectID) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.files[fileID]; !ok {
		return fmt.Errorf("image %s: %w", fileID.Hex(), mongo.ErrNoDocuments)
	}
	delete(r.files, fileID)
	return nil
}

// messages

type fakeMessageRepo struct {
	messages []models.Message
}

func (r *fakeMessageRepo) Create(ctx context.Context, message *models.Message) error {
	message.ID = primitive.NewObjectID()
	r.messages = append(r.messages, *message)
	return nil
}

func (r *fakeMessageRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error) {
	for _, m := range r.messages {
		if m.ID == id {
			c := m
			return &c, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeMessageRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	for i, m := range r.messages {
		if m.ID == id {
			r.messages = append(r.messages[:i], r.messages[i+1:]...)
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func involves(m models.Message, user primitive.ObjectID) bool {
	return m.Sender == user || m.Recipient == user
}

func (r *fakeMessageRepo) ListThread(ctx context.Context, user primitive.ObjectID, threadID string) ([]models.Message, error) {
	out := []models.Message{}
	for _, m := range r.messages {
		if m.ThreadID == threadID && involves(m, user) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) MarkThreadRead(ctx context.Context, user primitive.ObjectID, threadID string) error {
	for i := range r.messages {
		if r.messages[i].ThreadID == threadID && r.messages[i].Recipient == user {
			r.messages[i].Read = true
		}
	}
	return nil
}

func (r *fakeMessageRepo) summaries(match func(models.Message) bool) []models.ThreadSummary {
	latest := map[string]models.Message{}
	for _, m := range r.messages {
		if !match(m) {
			continue
		}
		if cur, ok := latest[m.ThreadID]; !ok || m.CreatedAt.After(cur.CreatedAt) {
			latest[m.ThreadID] = m
		}
	}
	out := []models.ThreadSummary{}
	for thread, m := range latest {
		out = append(out, models.ThreadSummary{ThreadID: thread, MessageID: m.ID, Sender: m.Sender, Recipient: m.Recipient, Subject: m.Subject, Read: m.Read, CreatedAt: m.CreatedAt})
	}
	return out
}

func (r *fakeMessageRepo) Inbox(ctx context.Context, user primitive.ObjectID) ([]models.ThreadSummary, error) {
	return r.summaries(func(m models.Message) bool { return m.Recipient == user }), nil
}

func (r *fakeMessageRepo) Sent(ctx context.Context, user primitive.ObjectID) ([]models.ThreadSummary, error) {
	return r.summaries(func(m models.Message) bool { return m.Sender == user }), nil
}

func (r *fakeMessageRepo) CountUnread(ctx context.Context, user primitive.ObjectID) (int64, error) {
	var n int64
	for _, m := range r.messages {
		if m.Recipient == user && !m.Read {
			n++
		}
	}
	return n, nil
}

func (r *fakeMessageRepo) RecentUnread(ctx context.Context, user primitive.ObjectID, since time.Time, limit int64) ([]models.Message, error) {
	out := []models.Message{}
	for _, m := range r.messages {
		if m.Recipient == user && !m.Read && m.CreatedAt.After(since) && int64(len(out)) < limit {
			out = append(out, m)
		}
	}
	return out, nil
}

// schedules

type fakeScheduleRepo struct {
	schedules map[primitive.ObjectID]*models.Schedule
}

func newFakeScheduleRepo() *fakeScheduleRepo {
	return &fakeScheduleRepo{schedules: map[primitive.ObjectID]*models.Schedule{}}
}

func (r *fakeScheduleRepo) Create(ctx context.Context, schedule *models.Schedule) error {
	schedule.ID = primitive.NewObjectID()
	c := *schedule
	r.schedules[schedule.ID] = &c
	return nil
}

func (r *fakeScheduleRepo) GetByID(ctx context.Context, company, id primitive.ObjectID) (*models.Schedule, error) {
	s, ok := r.schedules[id]
	if !ok || s.Company != company {
		return nil, mongo.ErrNoDocuments
	}
	c := *s
	return &c, nil
}

func (r *fakeScheduleRepo) Exists(ctx context.Context, company primitive.ObjectID, employeeName string, weekStart time.Time) (bool, error) {
	for _, s := range r.schedules {
		if s.Company == company && s.EmployeeName == employeeName && s.WeekStartDate.Equal(weekStart) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeScheduleRepo) ListByCompany(ctx context.Context, company primitive.ObjectID) ([]models.Schedule, error) {
	out := []models.Schedule{}
	for _, s := range r.schedules {
		if s.Company == company {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeScheduleRepo) UpdateDays(ctx context.Context, schedule *models.Schedule) error {
	if _, ok := r.schedules[schedule.ID]; !ok {
		return mongo.ErrNoDocuments
	}
	c := *schedule
	r.schedules[schedule.ID] = &c
	return nil
}

func (r *fakeScheduleRepo) Delete(ctx context.Context, company, id primitive.ObjectID) error {
	s, ok := r.schedules[id]
	if !ok || s.Company != company {
		return mongo.ErrNoDocuments
	}
	delete(r.schedules, id)
	return nil
}

// change requests

type fakeChangeRequestRepo struct {
	requests map[primitive.ObjectID]*models.ChangeRequest
}

func newFakeChangeRequestRepo() *fakeChangeRequestRepo {
	return &fakeChangeRequestRepo{requests: map[primitive.ObjectID]*models.ChangeRequest{}}
}

func (r *fakeChangeRequestRepo) Create(ctx context.Context, request *models.ChangeRequest) error {
	request.ID = primitive.NewObjectID()
	c := *request
	r.requests[request.ID] = &c
	return nil
}

func (r *fakeChangeRequestRepo) GetByID(ctx context.Context, company, id primitive.ObjectID) (*models.ChangeRequest, error) {
	req, ok := r.requests[id]
	if !ok || req.Company != company {
		return nil, mongo.ErrNoDocuments
	}
	c := *req
	return &c, nil
}

func (r *fakeChangeRequestRepo) ListByCompany(ctx context.Context, company primitive.ObjectID) ([]models.ChangeRequest, error) {
	out := []models.ChangeRequest{}
	for _, req := range r.requests {
		if req.Company == company {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (r *fakeChangeRequestRepo) UpdateStatus(ctx context.Context, company, id primitive.ObjectID, status models.RequestStatus) error {
	req, ok := r.requests[id]
	if !ok || req.Company != company {
		return mongo.ErrNoDocuments
	}
	req.Status = status
	return nil
}
