package projects

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"crm/internal/domain/auth"
	"crm/internal/domain/leads"
	"crm/internal/domain/notifications"
	"crm/internal/platform/metrics"
)

type recordingNotifier struct {
	events []notifications.Event
}

func (n *recordingNotifier) Notify(_ context.Context, evt notifications.Event) (notifications.Result, error) {
	n.events = append(n.events, evt)
	return notifications.Result{}, nil
}

var fixedNow = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func TestConverter_ConvertLead(t *testing.T) {
	type testCase struct {
		name          string
		setupMock     func(m *MockStoreAPI)
		wantID        string
		wantConverted bool
		wantErr       error
		wantEvents    int
	}

	tests := []testCase{
		{
			name: "Converted",
			setupMock: func(m *MockStoreAPI) {
				m.EXPECT().
					ConvertLead(gomock.Any(), "lead-1", gomock.Any()).
					DoAndReturn(func(_ context.Context, _ string, build func(*leads.Lead) *Project) (*Project, error) {
						p := build(&leads.Lead{ID: "lead-1", Company: "ACME", PotentialValue: decimal.NewFromInt(75000)})
						p.ID = "proj-1"
						return p, nil
					})
			},
			wantID:        "proj-1",
			wantConverted: true,
			wantEvents:    1,
		},
		{
			name: "AlreadyConverted",
			setupMock: func(m *MockStoreAPI) {
				m.EXPECT().ConvertLead(gomock.Any(), "lead-1", gomock.Any()).Return(nil, nil)
			},
		},
		{
			name: "MissingLead",
			setupMock: func(m *MockStoreAPI) {
				m.EXPECT().ConvertLead(gomock.Any(), "lead-1", gomock.Any()).Return(nil, leads.ErrNotFound)
			},
			wantErr: leads.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			store := NewMockStoreAPI(ctrl)
			tt.setupMock(store)
			notifier := &recordingNotifier{}
			collector := metrics.New()

			c := NewConverter(store, notifier, collector)
			c.now = func() time.Time { return fixedNow }

			id, converted, err := c.ConvertLead(context.Background(), "lead-1")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id)
			assert.Equal(t, tt.wantConverted, converted)
			require.Len(t, notifier.events, tt.wantEvents)
			if tt.wantEvents > 0 {
				evt := notifier.events[0]
				assert.Equal(t, notifications.TypeProjectCreated, evt.Type)
				assert.True(t, evt.To.Broadcast)
				assert.Equal(t, "lead-1", evt.Data["leadId"])
			}
		})
	}
}

func TestService_Create(t *testing.T) {
	manager := auth.NewActor("00000000-0000-0000-0000-000000000001", auth.RoleManager)
	developer := auth.NewActor("00000000-0000-0000-0000-000000000002", auth.RoleDeveloper)

	type testCase struct {
		name      string
		actor     auth.Actor
		input     CreateInput
		setupMock func(m *MockStoreAPI)
		wantErr   error
	}

	tests := []testCase{
		{
			name:  "Success",
			actor: manager,
			input: CreateInput{Name: " Portal ", Budget: decimal.NewFromInt(1000)},
			setupMock: func(m *MockStoreAPI) {
				m.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name:  "RetriesDuplicateCode",
			actor: manager,
			input: CreateInput{Name: "Portal"},
			setupMock: func(m *MockStoreAPI) {
				gomock.InOrder(
					m.EXPECT().Create(gomock.Any(), gomock.Any()).Return(ErrDuplicateCode),
					m.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil),
				)
			},
		},
		{
			name:      "NotAuthorized",
			actor:     developer,
			input:     CreateInput{Name: "Portal"},
			setupMock: func(*MockStoreAPI) {},
			wantErr:   ErrNotAuthorized,
		},
		{
			name:      "MissingName",
			actor:     manager,
			input:     CreateInput{Name: "  "},
			setupMock: func(*MockStoreAPI) {},
			wantErr:   ErrInvalidProject,
		},
		{
			name:      "NegativeBudget",
			actor:     manager,
			input:     CreateInput{Name: "Portal", Budget: decimal.NewFromInt(-5)},
			setupMock: func(*MockStoreAPI) {},
			wantErr:   ErrInvalidProject,
		},
		{
			name:  "StoreError",
			actor: manager,
			input: CreateInput{Name: "Portal"},
			setupMock: func(m *MockStoreAPI) {
				m.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("boom"))
			},
			wantErr: errors.New("boom"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			store := NewMockStoreAPI(ctrl)
			tt.setupMock(store)
			svc := NewService(store, &recordingNotifier{})
			svc.now = func() time.Time { return fixedNow }

			p, err := svc.Create(context.Background(), tt.actor, tt.input)
			if tt.wantErr != nil {
				require.Error(t, err)
				if errors.Is(tt.wantErr, ErrNotAuthorized) || errors.Is(tt.wantErr, ErrInvalidProject) {
					assert.ErrorIs(t, err, tt.wantErr)
				} else {
					assert.EqualError(t, err, tt.wantErr.Error())
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Portal", p.Name)
			assert.Equal(t, StatusPlanning, p.Status)
			assert.Equal(t, fixedNow, p.Timeline.StartDate)
			require.NotNil(t, p.CreatedBy)
			assert.Equal(t, tt.actor.UserID, *p.CreatedBy)
		})
	}
}

func TestService_ReadRequiresCapability(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStoreAPI(ctrl)
	svc := NewService(store, nil)

	_, err := svc.List(context.Background(), auth.NewActor("u", auth.RoleEmployee), ListFilter{})
	assert.ErrorIs(t, err, ErrNotAuthorized)

	_, err = svc.Get(context.Background(), auth.NewActor("u", auth.RoleDeveloper), "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	store.EXPECT().List(gomock.Any(), ListFilter{Limit: 10}).Return([]*Project{{Name: "Portal"}}, nil)
	got, err := svc.List(context.Background(), auth.NewActor("u", auth.RoleSales), ListFilter{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
