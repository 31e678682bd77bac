package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rayus223/backend/internal/common"
	"github.com/Rayus223/backend/internal/domain/application"
	"github.com/Rayus223/backend/internal/domain/teacher"
	"github.com/Rayus223/backend/internal/domain/vacancy"
)

// memoryStore mirrors the postgres repositories' atomicity: every
// mutation runs under one lock, evaluating the domain gates against the
// state it will write.
type memoryStore struct {
	mu        sync.Mutex
	vacancies map[common.UUID]*vacancy.Vacancy
	apps      map[common.UUID][]application.Application
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		vacancies: make(map[common.UUID]*vacancy.Vacancy),
		apps:      make(map[common.UUID][]application.Application),
	}
}

func (s *memoryStore) addVacancy(v vacancy.Vacancy) common.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.ID == "" {
		v.ID = common.NewUUID()
	}
	if v.Status == "" {
		v.Status = vacancy.StatusOpen
	}
	s.vacancies[v.ID] = &v
	return v.ID
}

type fakeApplicationRepo struct {
	store *memoryStore
}

func (r *fakeApplicationRepo) Apply(ctx context.Context, vacancyID, teacherID common.UUID) (*application.ApplyResult, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	v, ok := r.store.vacancies[vacancyID]
	if !ok {
		return nil, vacancy.ErrNotFound
	}
	apps := r.store.apps[vacancyID]
	decision, err := vacancy.Admit(*v, apps, teacherID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	r.store.apps[vacancyID] = append(apps, decision.Application)
	if decision.CloseVacancy {
		v.Status = vacancy.StatusClosed
	}
	snapshot := make([]application.Application, len(r.store.apps[vacancyID]))
	copy(snapshot, r.store.apps[vacancyID])
	return &application.ApplyResult{
		Application:   decision.Application,
		Applications:  snapshot,
		VacancyClosed: decision.CloseVacancy,
	}, nil
}

func (r *fakeApplicationRepo) SetStatus(ctx context.Context, vacancyID, applicationID common.UUID, target application.Status) ([]application.Application, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	v, ok := r.store.vacancies[vacancyID]
	if !ok {
		return nil, vacancy.ErrNotFound
	}
	apps := r.store.apps[vacancyID]
	switch target {
	case application.StatusAccepted:
		resolved, err := vacancy.ResolveAcceptance(apps, applicationID)
		if err != nil {
			return nil, err
		}
		r.store.apps[vacancyID] = resolved
		v.Status = vacancy.StatusClosed
		snapshot := make([]application.Application, len(resolved))
		copy(snapshot, resolved)
		return snapshot, nil
	case application.StatusRejected:
		for i := range apps {
			if apps[i].ID == applicationID {
				if !application.CanTransition(apps[i].Status, application.StatusRejected) {
					return nil, application.ErrInvalidTransition
				}
				apps[i].Status = application.StatusRejected
				snapshot := make([]application.Application, len(apps))
				copy(snapshot, apps)
				return snapshot, nil
			}
		}
		return nil, application.ErrNotFound
	default:
		return nil, application.ErrInvalidTransition
	}
}

func (r *fakeApplicationRepo) ListByVacancy(ctx context.Context, vacancyID common.UUID) ([]application.Application, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	snapshot := make([]application.Application, len(r.store.apps[vacancyID]))
	copy(snapshot, r.store.apps[vacancyID])
	return snapshot, nil
}

func (r *fakeApplicationRepo) ListByTeacher(ctx context.Context, teacherID common.UUID) ([]application.Application, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var items []application.Application
	for _, apps := range r.store.apps {
		for _, app := range apps {
			if app.TeacherID == teacherID {
				items = append(items, app)
			}
		}
	}
	return items, nil
}

type fakeVacancyRepo struct {
	store *memoryStore
}

func (r *fakeVacancyRepo) Create(ctx context.Context, v vacancy.Vacancy) (*vacancy.Vacancy, error) {
	id := r.store.addVacancy(v)
	return r.GetByID(ctx, id)
}

func (r *fakeVacancyRepo) Update(ctx context.Context, v vacancy.Vacancy) (*vacancy.Vacancy, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	current, ok := r.store.vacancies[v.ID]
	if !ok {
		return nil, vacancy.ErrNotFound
	}
	v.Status = current.Status
	r.store.vacancies[v.ID] = &v
	copied := v
	return &copied, nil
}

func (r *fakeVacancyRepo) UpdateStatus(ctx context.Context, id common.UUID, status vacancy.Status) (*vacancy.Vacancy, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	v, ok := r.store.vacancies[id]
	if !ok {
		return nil, vacancy.ErrNotFound
	}
	v.Status = status
	copied := *v
	return &copied, nil
}

func (r *fakeVacancyRepo) GetByID(ctx context.Context, id common.UUID) (*vacancy.Vacancy, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	v, ok := r.store.vacancies[id]
	if !ok {
		return nil, vacancy.ErrNotFound
	}
	copied := *v
	return &copied, nil
}

func (r *fakeVacancyRepo) ListOpen(ctx context.Context, limit, offset int) ([]vacancy.Vacancy, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var items []vacancy.Vacancy
	for _, v := range r.store.vacancies {
		if v.Status == vacancy.StatusOpen {
			items = append(items, *v)
		}
	}
	return items, nil
}

func (r *fakeVacancyRepo) ListAvailable(ctx context.Context, teacherID common.UUID, limit, offset int) ([]vacancy.Vacancy, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var items []vacancy.Vacancy
	for id, v := range r.store.vacancies {
		if v.Status != vacancy.StatusOpen {
			continue
		}
		apps := r.store.apps[id]
		if len(apps) >= vacancy.MaxApplications {
			continue
		}
		applied := false
		for _, app := range apps {
			if app.TeacherID == teacherID {
				applied = true
				break
			}
		}
		if !applied {
			items = append(items, *v)
		}
	}
	return items, nil
}

type fakeTeacherRepo struct {
	mu       sync.Mutex
	teachers map[common.UUID]*teacher.Teacher
}

func newFakeTeacherRepo() *fakeTeacherRepo {
	return &fakeTeacherRepo{teachers: make(map[common.UUID]*teacher.Teacher)}
}

func (r *fakeTeacherRepo) add(name string) common.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := common.NewUUID()
	r.teachers[id] = &teacher.Teacher{ID: id, FullName: name, Subjects: []string{"math"}}
	return id
}

func (r *fakeTeacherRepo) GetByID(ctx context.Context, id common.UUID) (*teacher.Teacher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.teachers[id]
	if !ok {
		return nil, teacher.ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTeacherRepo) Upsert(ctx context.Context, t teacher.Teacher) (*teacher.Teacher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.teachers[t.ID] = &t
	copied := t
	return &copied, nil
}

type recordingNotifier struct {
	mu  sync.Mutex
	ids []common.UUID
}

func (n *recordingNotifier) VacancyUpdated(id common.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ids = append(n.ids, id)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.ids)
}

type serviceFixture struct {
	store    *memoryStore
	teachers *fakeTeacherRepo
	notifier *recordingNotifier
	service  *ApplicationService
}

func newServiceFixture() *serviceFixture {
	store := newMemoryStore()
	teachers := newFakeTeacherRepo()
	notifier := &recordingNotifier{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := NewApplicationService(&fakeApplicationRepo{store: store}, &fakeVacancyRepo{store: store}, teachers, notifier, logger)
	return &serviceFixture{store: store, teachers: teachers, notifier: notifier, service: service}
}

func TestApplyFirstApplicant(t *testing.T) {
	f := newServiceFixture()
	vacancyID := f.store.addVacancy(vacancy.Vacancy{Title: "Math tutor"})
	teacherID := f.teachers.add("T1")

	result, err := f.service.Apply(context.Background(), vacancyID, teacherID)
	require.NoError(t, err)
	assert.Len(t, result.Applications, 1)
	assert.Equal(t, application.StatusPending, result.Application.Status)
	assert.False(t, result.VacancyClosed)
	assert.Equal(t, 1, f.notifier.count())
}

func TestApplyFifthClosesVacancy(t *testing.T) {
	f := newServiceFixture()
	vacancyID := f.store.addVacancy(vacancy.Vacancy{Title: "Science tutor"})
	for i := 0; i < 4; i++ {
		_, err := f.service.Apply(context.Background(), vacancyID, f.teachers.add("T"))
		require.NoError(t, err)
	}

	fifth := f.teachers.add("T5")
	result, err := f.service.Apply(context.Background(), vacancyID, fifth)
	require.NoError(t, err)
	assert.Len(t, result.Applications, 5)
	assert.True(t, result.VacancyClosed)

	// a sixth applicant is refused by the closed gate
	_, err = f.service.Apply(context.Background(), vacancyID, f.teachers.add("T6"))
	assert.True(t, errors.Is(err, vacancy.ErrClosed))

	// the fifth applicant retrying a committed apply is a duplicate,
	// even though that commit closed the vacancy
	_, err = f.service.Apply(context.Background(), vacancyID, fifth)
	assert.True(t, errors.Is(err, vacancy.ErrDuplicateApplication))
}

func TestApplyDuplicate(t *testing.T) {
	f := newServiceFixture()
	vacancyID := f.store.addVacancy(vacancy.Vacancy{Title: "English tutor"})
	teacherID := f.teachers.add("T1")

	_, err := f.service.Apply(context.Background(), vacancyID, teacherID)
	require.NoError(t, err)

	// a retry of a committed apply is a duplicate, never a second entry
	_, err = f.service.Apply(context.Background(), vacancyID, teacherID)
	assert.True(t, errors.Is(err, vacancy.ErrDuplicateApplication))
	assert.Len(t, f.store.apps[vacancyID], 1)
}

func TestApplyFailedAttemptIsRepeatable(t *testing.T) {
	f := newServiceFixture()
	vacancyID := f.store.addVacancy(vacancy.Vacancy{Title: "Physics tutor"})
	teacherID := common.NewUUID() // no profile yet

	_, err := f.service.Apply(context.Background(), vacancyID, teacherID)
	require.Error(t, err)
	assert.Empty(t, f.store.apps[vacancyID])

	// once the precondition is fixed the same call succeeds
	f.teachers.mu.Lock()
	f.teachers.teachers[teacherID] = &teacher.Teacher{ID: teacherID, FullName: "T1"}
	f.teachers.mu.Unlock()
	_, err = f.service.Apply(context.Background(), vacancyID, teacherID)
	assert.NoError(t, err)
}

func TestApplyVacancyNotFound(t *testing.T) {
	f := newServiceFixture()
	teacherID := f.teachers.add("T1")
	_, err := f.service.Apply(context.Background(), common.NewUUID(), teacherID)
	assert.True(t, errors.Is(err, vacancy.ErrNotFound))
}

func TestAcceptanceCascade(t *testing.T) {
	f := newServiceFixture()
	vacancyID := f.store.addVacancy(vacancy.Vacancy{Title: "Chemistry tutor"})
	var first common.UUID
	for i := 0; i < 3; i++ {
		result, err := f.service.Apply(context.Background(), vacancyID, f.teachers.add("T"))
		require.NoError(t, err)
		if i == 0 {
			first = result.Application.ID
		}
	}

	updated, err := f.service.SetStatus(context.Background(), vacancyID, first, application.StatusAccepted)
	require.NoError(t, err)

	accepted, rejected := 0, 0
	for _, app := range updated {
		switch app.Status {
		case application.StatusAccepted:
			accepted++
			assert.Equal(t, first, app.ID)
		case application.StatusRejected:
			rejected++
		}
	}
	assert.Equal(t, 1, accepted)
	assert.Equal(t, 2, rejected)
	assert.Equal(t, vacancy.StatusClosed, f.store.vacancies[vacancyID].Status)
}

func TestPlainRejectionDoesNotCascade(t *testing.T) {
	f := newServiceFixture()
	vacancyID := f.store.addVacancy(vacancy.Vacancy{Title: "History tutor"})
	first, err := f.service.Apply(context.Background(), vacancyID, f.teachers.add("T1"))
	require.NoError(t, err)
	_, err = f.service.Apply(context.Background(), vacancyID, f.teachers.add("T2"))
	require.NoError(t, err)

	updated, err := f.service.SetStatus(context.Background(), vacancyID, first.Application.ID, application.StatusRejected)
	require.NoError(t, err)

	pending := 0
	for _, app := range updated {
		if app.Status == application.StatusPending {
			pending++
		}
	}
	assert.Equal(t, 1, pending)
	assert.Equal(t, vacancy.StatusOpen, f.store.vacancies[vacancyID].Status)
}

func TestSetStatusRejectsInvalidTargets(t *testing.T) {
	f := newServiceFixture()
	vacancyID := f.store.addVacancy(vacancy.Vacancy{Title: "Biology tutor"})
	result, err := f.service.Apply(context.Background(), vacancyID, f.teachers.add("T1"))
	require.NoError(t, err)
	appID := result.Application.ID

	_, err = f.service.SetStatus(context.Background(), vacancyID, appID, application.StatusPending)
	assert.True(t, errors.Is(err, application.ErrInvalidTransition))

	// terminal states stay terminal
	_, err = f.service.SetStatus(context.Background(), vacancyID, appID, application.StatusRejected)
	require.NoError(t, err)
	_, err = f.service.SetStatus(context.Background(), vacancyID, appID, application.StatusAccepted)
	assert.True(t, errors.Is(err, application.ErrInvalidTransition))
}

func TestConcurrentApplyLastSlot(t *testing.T) {
	f := newServiceFixture()
	vacancyID := f.store.addVacancy(vacancy.Vacancy{Title: "Music tutor"})
	for i := 0; i < 4; i++ {
		_, err := f.service.Apply(context.Background(), vacancyID, f.teachers.add("T"))
		require.NoError(t, err)
	}

	t5 := f.teachers.add("T5")
	t6 := f.teachers.add("T6")
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for _, id := range []common.UUID{t5, t6} {
		wg.Add(1)
		go func(teacherID common.UUID) {
			defer wg.Done()
			_, err := f.service.Apply(context.Background(), vacancyID, teacherID)
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)

	var succeeded, failed int
	for err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, errors.Is(err, vacancy.ErrCapacityExceeded) || errors.Is(err, vacancy.ErrClosed), "unexpected error: %v", err)
			failed++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, failed)
	assert.Len(t, f.store.apps[vacancyID], vacancy.MaxApplications)
	assert.Equal(t, vacancy.StatusClosed, f.store.vacancies[vacancyID].Status)
}

func TestListAvailableExcludesFullClosedAndApplied(t *testing.T) {
	f := newServiceFixture()
	teacherID := f.teachers.add("T1")

	openID := f.store.addVacancy(vacancy.Vacancy{Title: "Open"})
	closedID := f.store.addVacancy(vacancy.Vacancy{Title: "Closed", Status: vacancy.StatusClosed})
	appliedID := f.store.addVacancy(vacancy.Vacancy{Title: "Applied"})
	_, err := f.service.Apply(context.Background(), appliedID, teacherID)
	require.NoError(t, err)

	fullID := f.store.addVacancy(vacancy.Vacancy{Title: "Full"})
	for i := 0; i < 5; i++ {
		_, err := f.service.Apply(context.Background(), fullID, f.teachers.add("T"))
		require.NoError(t, err)
	}

	items, err := f.service.ListAvailable(context.Background(), teacherID, 20, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, openID, items[0].ID)
	_ = closedID
}

func TestListApplicantsResolvesIdentity(t *testing.T) {
	f := newServiceFixture()
	vacancyID := f.store.addVacancy(vacancy.Vacancy{Title: "Math tutor"})
	teacherID := f.teachers.add("Ada Lovelace")
	_, err := f.service.Apply(context.Background(), vacancyID, teacherID)
	require.NoError(t, err)

	applicants, err := f.service.ListApplicants(context.Background(), vacancyID)
	require.NoError(t, err)
	require.Len(t, applicants, 1)
	assert.Equal(t, "Ada Lovelace", applicants[0].FullName)
	assert.Equal(t, teacherID, applicants[0].TeacherID)

	_, err = f.service.ListApplicants(context.Background(), common.NewUUID())
	assert.True(t, errors.Is(err, vacancy.ErrNotFound))
}
