package screen

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vadimtrunov/CineDeck/internal/core"
)

func TestFlow_StartsOnLogin(t *testing.T) {
	f := New()
	require.Equal(t, Login, f.State())
	_, ok := f.Selected()
	require.False(t, ok)
}

func TestFlow_HappyPath(t *testing.T) {
	f := New()
	item := core.MediaItem{Kind: core.KindMovie, ID: 550, Title: "Fight Club"}

	steps := []struct {
		fire func() (State, error)
		want State
	}{
		{func() (State, error) { return f.Fire(SignUpRequested) }, SignUp},
		{func() (State, error) { return f.Fire(SignUpSucceeded) }, Login},
		{func() (State, error) { return f.Fire(SignUpRequested) }, SignUp},
		{func() (State, error) { return f.Fire(BackToLogin) }, Login},
		{func() (State, error) { return f.Fire(LoginSucceeded) }, Home},
		{func() (State, error) { return f.Select(item) }, Details},
		{func() (State, error) { return f.Fire(Back) }, Home},
		{func() (State, error) { return f.Fire(Logout) }, Login},
	}
	for i, s := range steps {
		got, err := s.fire()
		require.NoError(t, err, "step %d", i)
		require.Equal(t, s.want, got, "step %d", i)
		require.Equal(t, s.want, f.State(), "step %d", i)
	}
}

func TestFlow_SelectedOnlyInDetails(t *testing.T) {
	f := New()
	_, err := f.Fire(LoginSucceeded)
	require.NoError(t, err)

	item := core.MediaItem{Kind: core.KindSeries, ID: 1399}
	_, err = f.Select(item)
	require.NoError(t, err)
	got, ok := f.Selected()
	require.True(t, ok)
	require.Equal(t, item.Key(), got.Key())

	_, err = f.Fire(Back)
	require.NoError(t, err)
	_, ok = f.Selected()
	require.False(t, ok)
}

func TestFlow_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name  string
		setup []Event
		ev    Event
		stays State
	}{
		{"logout from login", nil, Logout, Login},
		{"back from home", []Event{LoginSucceeded}, Back, Home},
		{"login from signup", []Event{SignUpRequested}, LoginSucceeded, SignUp},
		{"signup from home", []Event{LoginSucceeded}, SignUpRequested, Home},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New()
			for _, ev := range tt.setup {
				_, err := f.Fire(ev)
				require.NoError(t, err)
			}
			got, err := f.Fire(tt.ev)
			require.ErrorIs(t, err, ErrInvalidTransition)
			require.Equal(t, tt.stays, got)
			require.Equal(t, tt.stays, f.State())
		})
	}
}

func TestFlow_DetailsRequiresHome(t *testing.T) {
	f := New()
	_, err := f.Select(core.MediaItem{Kind: core.KindMovie, ID: 1})
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.Equal(t, Login, f.State())
	_, ok := f.Selected()
	require.False(t, ok)
}

func TestFlow_FireCannotEnterDetails(t *testing.T) {
	f := New()
	_, err := f.Fire(LoginSucceeded)
	require.NoError(t, err)
	_, err = f.Fire(selectItem)
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.Equal(t, Home, f.State())
}

func TestFlow_OnTransition(t *testing.T) {
	f := New()
	type rec struct {
		from, to State
		ev       Event
	}
	var got []rec
	f.OnTransition(func(from, to State, ev Event) { got = append(got, rec{from, to, ev}) })

	_, _ = f.Fire(LoginSucceeded)
	_, _ = f.Fire(Back)
	_, _ = f.Fire(Logout)

	require.Equal(t, []rec{
		{Login, Home, LoginSucceeded},
		{Home, Login, Logout},
	}, got)
}

func TestStateAndEventStrings(t *testing.T) {
	require.Equal(t, "details", Details.String())
	require.Equal(t, "signup_requested", SignUpRequested.String())
	require.Equal(t, "State(9)", State(9).String())
}
