package attendance

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"crm/internal/domain/auth"
	"crm/internal/domain/notifications"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (n *recordingNotifier) Notify(_ context.Context, evt notifications.Event) (notifications.Result, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, evt)
	return notifications.Result{}, nil
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newTestService(t *testing.T, c *clock) (*Service, *MockStoreAPI, *recordingNotifier) {
	t.Helper()
	ctrl := gomock.NewController(t)
	store := NewMockStoreAPI(ctrl)
	notifier := &recordingNotifier{}
	svc := NewService(store, notifier, time.UTC)
	svc.now = c.Now
	return svc, store, notifier
}

// applyTo runs the mutation callback against rec the way the store does
// inside its row lock.
func applyTo(rec *Record) func(context.Context, string, time.Time, func(*Record) error) (*Record, error) {
	return func(_ context.Context, _ string, _ time.Time, fn func(*Record) error) (*Record, error) {
		snapshot := *rec
		snapshot.Breaks = append([]Break(nil), rec.Breaks...)
		if err := fn(&snapshot); err != nil {
			return nil, err
		}
		*rec = snapshot
		return rec, nil
	}
}

func TestService_CheckInLateScenario(t *testing.T) {
	c := &clock{now: time.Date(2024, 2, 1, 9, 20, 0, 0, time.UTC)}
	svc, store, notifier := newTestService(t, c)
	actor := auth.NewActor("u1", auth.RoleDeveloper)

	rec := &Record{ID: "a1", UserID: "u1"}
	store.EXPECT().
		CheckIn(gomock.Any(), "u1", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), c.now, gomock.Any(), StatusLate).
		DoAndReturn(func(_ context.Context, _ string, day, checkIn time.Time, input CheckInput, status Status) (*Record, error) {
			rec.WorkDate = day
			rec.CheckIn = CheckInfo{Time: &checkIn, Location: input.Location}
			rec.Status = status
			return rec, nil
		})
	store.EXPECT().UpdateDay(gomock.Any(), "u1", gomock.Any(), gomock.Any()).DoAndReturn(applyTo(rec)).Times(2)

	got, err := svc.CheckIn(context.Background(), actor, CheckInput{Location: "office"})
	require.NoError(t, err)
	assert.Equal(t, StatusLate, got.Status)

	c.now = time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	_, err = svc.StartBreak(context.Background(), actor)
	require.NoError(t, err)

	c.now = time.Date(2024, 2, 1, 18, 20, 0, 0, time.UTC)
	got, err = svc.CheckOut(context.Background(), actor, CheckInput{Location: "office"})
	require.NoError(t, err)

	assert.InDelta(t, 9.0, got.WorkingHours, 1e-9)
	assert.Equal(t, StatusLate, got.Status, "check-out must not reclassify")

	require.Len(t, notifier.events, 2)
	for _, evt := range notifier.events {
		assert.Equal(t, "hr", evt.To.Room)
		assert.Equal(t, notifications.TypeAttendanceUpdate, evt.Type)
	}
	assert.InDelta(t, 9.0, notifier.events[1].Data["workingHours"], 1e-9)
}

func TestService_CheckInDuplicate(t *testing.T) {
	c := &clock{now: time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)}
	svc, store, notifier := newTestService(t, c)

	store.EXPECT().
		CheckIn(gomock.Any(), "u1", gomock.Any(), gomock.Any(), gomock.Any(), StatusPresent).
		Return(nil, ErrDuplicateCheckIn)

	_, err := svc.CheckIn(context.Background(), auth.NewActor("u1", auth.RoleSales), CheckInput{})
	assert.ErrorIs(t, err, ErrDuplicateCheckIn)
	assert.Empty(t, notifier.events)
}

func TestService_CheckOutErrors(t *testing.T) {
	checkIn := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	checkOut := time.Date(2024, 2, 1, 17, 0, 0, 0, time.UTC)

	type testCase struct {
		name      string
		setupMock func(m *MockStoreAPI)
		wantErr   error
	}

	tests := []testCase{
		{
			name: "NoRecord",
			setupMock: func(m *MockStoreAPI) {
				m.EXPECT().UpdateDay(gomock.Any(), "u1", gomock.Any(), gomock.Any()).Return(nil, ErrNotFound)
			},
			wantErr: ErrNotCheckedIn,
		},
		{
			name: "RecordWithoutCheckIn",
			setupMock: func(m *MockStoreAPI) {
				m.EXPECT().UpdateDay(gomock.Any(), "u1", gomock.Any(), gomock.Any()).DoAndReturn(applyTo(&Record{ID: "a1"}))
			},
			wantErr: ErrNotCheckedIn,
		},
		{
			name: "AlreadyCheckedOut",
			setupMock: func(m *MockStoreAPI) {
				rec := &Record{ID: "a1", CheckIn: CheckInfo{Time: &checkIn}, CheckOut: CheckInfo{Time: &checkOut}, WorkingHours: 8}
				m.EXPECT().UpdateDay(gomock.Any(), "u1", gomock.Any(), gomock.Any()).DoAndReturn(applyTo(rec))
			},
			wantErr: ErrDuplicateCheckOut,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, notifier := newTestService(t, &clock{now: checkOut})
			tt.setupMock(store)

			_, err := svc.CheckOut(context.Background(), auth.NewActor("u1", auth.RoleSales), CheckInput{})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, notifier.events)
		})
	}
}

func TestService_BreakRules(t *testing.T) {
	checkIn := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	c := &clock{now: time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)}
	svc, store, _ := newTestService(t, c)
	actor := auth.NewActor("u1", auth.RoleSales)

	rec := &Record{ID: "a1", CheckIn: CheckInfo{Time: &checkIn}}
	store.EXPECT().UpdateDay(gomock.Any(), "u1", gomock.Any(), gomock.Any()).DoAndReturn(applyTo(rec)).AnyTimes()

	_, err := svc.EndBreak(context.Background(), actor)
	assert.ErrorIs(t, err, ErrNoOpenBreak)

	_, err = svc.StartBreak(context.Background(), actor)
	require.NoError(t, err)
	_, err = svc.StartBreak(context.Background(), actor)
	assert.ErrorIs(t, err, ErrBreakInProgress)

	c.now = c.now.Add(30 * time.Minute)
	got, err := svc.EndBreak(context.Background(), actor)
	require.NoError(t, err)
	require.Len(t, got.Breaks, 1)
	require.NotNil(t, got.Breaks[0].End)

	c.now = time.Date(2024, 2, 1, 17, 30, 0, 0, time.UTC)
	got, err = svc.CheckOut(context.Background(), actor, CheckInput{})
	require.NoError(t, err)
	assert.InDelta(t, 8.0, got.WorkingHours, 1e-9)

	_, err = svc.StartBreak(context.Background(), actor)
	assert.ErrorIs(t, err, ErrDuplicateCheckOut)
}

func TestService_Override(t *testing.T) {
	checkIn := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	checkOut := time.Date(2024, 2, 1, 17, 0, 0, 0, time.UTC)
	hr := auth.NewActor("hr1", auth.RoleHR)

	t.Run("RequiresCapability", func(t *testing.T) {
		svc, _, _ := newTestService(t, &clock{now: checkOut})
		_, err := svc.Override(context.Background(), auth.NewActor("u1", auth.RoleSales), "a1", OverrideInput{})
		assert.ErrorIs(t, err, ErrNotAuthorized)
	})

	t.Run("RejectsUnknownStatus", func(t *testing.T) {
		svc, _, _ := newTestService(t, &clock{now: checkOut})
		status := Status("sleeping")
		_, err := svc.Override(context.Background(), hr, "a1", OverrideInput{Status: &status})
		assert.ErrorIs(t, err, ErrInvalidOverride)
	})

	t.Run("StampsApprover", func(t *testing.T) {
		svc, store, notifier := newTestService(t, &clock{now: checkOut})
		rec := &Record{ID: "a1", UserID: "u1", Status: StatusLate, CheckIn: CheckInfo{Time: &checkIn}, CheckOut: CheckInfo{Time: &checkOut}, WorkingHours: 8}
		store.EXPECT().
			Update(gomock.Any(), "a1", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, fn func(*Record) error) (*Record, error) {
				if err := fn(rec); err != nil {
					return nil, err
				}
				return rec, nil
			})

		status := StatusPresent
		notes := "traffic"
		hours := 7.25
		got, err := svc.Override(context.Background(), hr, "a1", OverrideInput{Status: &status, Notes: &notes, WorkingHours: &hours})
		require.NoError(t, err)
		assert.Equal(t, StatusPresent, got.Status)
		assert.Equal(t, "traffic", got.Notes)
		assert.Equal(t, 7.25, got.WorkingHours)
		require.NotNil(t, got.ApprovedBy)
		assert.Equal(t, "hr1", *got.ApprovedBy)
		assert.Len(t, notifier.events, 1)
	})

	t.Run("RecomputesOnTimeChange", func(t *testing.T) {
		svc, store, _ := newTestService(t, &clock{now: checkOut})
		rec := &Record{ID: "a1", CheckIn: CheckInfo{Time: &checkIn}, CheckOut: CheckInfo{Time: &checkOut}, WorkingHours: 8}
		store.EXPECT().
			Update(gomock.Any(), "a1", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, fn func(*Record) error) (*Record, error) {
				if err := fn(rec); err != nil {
					return nil, err
				}
				return rec, nil
			})

		later := checkOut.Add(90 * time.Minute)
		got, err := svc.Override(context.Background(), hr, "a1", OverrideInput{CheckOutTime: &later})
		require.NoError(t, err)
		assert.True(t, math.Abs(got.WorkingHours-9.5) < 1e-9)
	})
}

func TestService_ListScopesToCaller(t *testing.T) {
	svc, store, _ := newTestService(t, &clock{now: time.Now()})

	store.EXPECT().List(gomock.Any(), ListFilter{UserID: "u1", Limit: 10}).Return(nil, nil)
	_, err := svc.List(context.Background(), auth.NewActor("u1", auth.RoleSales), ListFilter{UserID: "someone-else", Limit: 10})
	require.NoError(t, err)

	store.EXPECT().List(gomock.Any(), ListFilter{UserID: "u9", Limit: 10}).Return(nil, nil)
	_, err = svc.List(context.Background(), auth.NewActor("hr1", auth.RoleHR), ListFilter{UserID: "u9", Limit: 10})
	require.NoError(t, err)
}

func TestService_TodayWithoutRecord(t *testing.T) {
	svc, store, _ := newTestService(t, &clock{now: time.Now()})
	store.EXPECT().GetDay(gomock.Any(), "u1", gomock.Any()).Return(nil, ErrNotFound)

	rec, err := svc.Today(context.Background(), auth.NewActor("u1", auth.RoleSales))
	require.NoError(t, err)
	assert.Nil(t, rec)
}
