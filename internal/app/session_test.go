package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dkeye/voicebridge/internal/core/mocks"
	"github.com/dkeye/voicebridge/internal/domain"
)

func TestEnsureReusesValidSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	rtc := mocks.NewMockRTCService(ctrl)
	ctx := context.Background()

	rtc.EXPECT().CreateSession(gomock.Any()).Return(domain.ConferenceID("c1"), nil).Times(1)
	rtc.EXPECT().SessionExists(gomock.Any(), domain.ConferenceID("c1")).Return(true, nil).Times(1)

	s := NewSessionContext(rtc, NewRegistry())
	first, err := s.Ensure(ctx)
	require.NoError(t, err)
	second, err := s.Ensure(ctx)
	require.NoError(t, err)

	assert.Equal(t, domain.ConferenceID("c1"), first)
	assert.Equal(t, first, second)
}

func TestEnsureRecreatesAfterValidationFailure(t *testing.T) {
	for name, exists := range map[string]func() (bool, error){
		"missing": func() (bool, error) { return false, nil },
		"error":   func() (bool, error) { return false, errors.New("vendor down") },
	} {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			rtc := mocks.NewMockRTCService(ctrl)
			ctx := context.Background()

			gomock.InOrder(
				rtc.EXPECT().CreateSession(gomock.Any()).Return(domain.ConferenceID("c1"), nil),
				rtc.EXPECT().SessionExists(gomock.Any(), domain.ConferenceID("c1")).DoAndReturn(
					func(context.Context, domain.ConferenceID) (bool, error) { return exists() }),
				rtc.EXPECT().CreateSession(gomock.Any()).Return(domain.ConferenceID("c2"), nil),
			)

			reg := NewRegistry()
			s := NewSessionContext(rtc, reg)

			first, err := s.Ensure(ctx)
			require.NoError(t, err)
			reg.Add(&domain.Participant{ID: "p1"})

			second, err := s.Ensure(ctx)
			require.NoError(t, err)
			assert.NotEqual(t, first, second)
			assert.Equal(t, domain.ConferenceID("c2"), s.Current())
			assert.Equal(t, 0, reg.Count())
		})
	}
}

func TestEnsureCreatesOnceForConcurrentCallers(t *testing.T) {
	ctrl := gomock.NewController(t)
	rtc := mocks.NewMockRTCService(ctrl)

	rtc.EXPECT().CreateSession(gomock.Any()).DoAndReturn(func(context.Context) (domain.ConferenceID, error) {
		time.Sleep(20 * time.Millisecond)
		return "c1", nil
	}).Times(1)
	rtc.EXPECT().SessionExists(gomock.Any(), domain.ConferenceID("c1")).Return(true, nil).AnyTimes()

	s := NewSessionContext(rtc, NewRegistry())

	var wg sync.WaitGroup
	ids := make([]domain.ConferenceID, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := s.Ensure(context.Background())
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, domain.ConferenceID("c1"), id)
	}
}

func TestEnsureWrapsCreateFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	rtc := mocks.NewMockRTCService(ctrl)
	rtc.EXPECT().CreateSession(gomock.Any()).Return(domain.ConferenceID(""), errors.New("401 unauthorized"))

	s := NewSessionContext(rtc, NewRegistry())
	_, err := s.Ensure(context.Background())
	require.ErrorIs(t, err, domain.ErrSessionUnavailable)
	assert.Empty(t, s.Current())
}

func TestInvalidateIgnoresStaleID(t *testing.T) {
	ctrl := gomock.NewController(t)
	rtc := mocks.NewMockRTCService(ctrl)
	rtc.EXPECT().CreateSession(gomock.Any()).Return(domain.ConferenceID("c1"), nil)

	s := NewSessionContext(rtc, NewRegistry())
	_, err := s.Ensure(context.Background())
	require.NoError(t, err)

	assert.False(t, s.Invalidate("c0"))
	assert.True(t, s.IsCurrent("c1"))
	assert.True(t, s.Invalidate("c1"))
	assert.False(t, s.IsCurrent("c1"))
}

func TestRegisterOnlyIntoActiveConference(t *testing.T) {
	ctrl := gomock.NewController(t)
	rtc := mocks.NewMockRTCService(ctrl)
	gomock.InOrder(
		rtc.EXPECT().CreateSession(gomock.Any()).Return(domain.ConferenceID("c1"), nil),
		rtc.EXPECT().CreateSession(gomock.Any()).Return(domain.ConferenceID("c2"), nil),
	)
	reg := NewRegistry()
	s := NewSessionContext(rtc, reg)
	ctx := context.Background()

	_, err := s.Ensure(ctx)
	require.NoError(t, err)
	assert.True(t, s.Register("c1", participant("a")))
	assert.True(t, reg.Has("a"))

	require.True(t, s.Invalidate("c1"))
	assert.False(t, s.Register("c1", participant("late")))

	conf, err := s.Ensure(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.ConferenceID("c2"), conf)
	assert.False(t, s.Register("c1", participant("late")))
	assert.False(t, reg.Has("late"))
	assert.False(t, reg.Has("a"))
	assert.Equal(t, 0, reg.Count())
}
