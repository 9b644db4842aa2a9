package history

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/moldhistory/internal/tabular"
)

func staticLoader(tables tabular.Tables) Loader {
	return LoaderFunc(func(context.Context) (tabular.Tables, error) { return tables, nil })
}

func TestStore_Reload(t *testing.T) {
	s := NewStore(staticLoader(fixtureTables()))
	assert.Equal(t, StateIdle, s.Status().State)
	assert.Empty(t, s.Events())

	require.NoError(t, s.Reload(context.Background()))

	st := s.Status()
	assert.Equal(t, StateReady, st.State)
	assert.Equal(t, 9, st.Total)
	assert.Equal(t, 2, st.Counts[SourceLocation])
	assert.Equal(t, 3, st.Counts[SourceShipment])
	assert.Equal(t, 4, st.Counts[SourceStatus])
	assert.NotEmpty(t, st.LoadID)
	assert.Len(t, s.Events(), 9)
	assert.Equal(t, "Sato", s.Index().EmployeeName("E1"))
	assert.False(t, s.Loading())
}

func TestStore_FailedReloadKeepsPreviousSnapshot(t *testing.T) {
	fail := false
	loadErr := errors.New("load table shiplog: connection refused")
	s := NewStore(LoaderFunc(func(context.Context) (tabular.Tables, error) {
		if fail {
			return nil, loadErr
		}
		return fixtureTables(), nil
	}))

	require.NoError(t, s.Reload(context.Background()))
	before := s.Events()

	fail = true
	err := s.Reload(context.Background())
	require.ErrorIs(t, err, loadErr)

	st := s.Status()
	assert.Equal(t, StateFailed, st.State)
	assert.Equal(t, MsgLoadFailed, st.Message)
	assert.Contains(t, st.Error, "connection refused")
	assert.Equal(t, before, s.Events())
}

func TestStore_FirstFailureShowsEmptyCollection(t *testing.T) {
	s := NewStore(LoaderFunc(func(context.Context) (tabular.Tables, error) {
		return nil, errors.New("boom")
	}))

	require.Error(t, s.Reload(context.Background()))

	res := NewEngine(s).PageResult()
	assert.Empty(t, res.Events)
	assert.False(t, res.Empty)
	assert.Equal(t, StateFailed, res.Status.State)
	assert.Equal(t, MsgLoadFailed, res.Message)
}

func TestStore_ConcurrentReloadIsRejected(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	s := NewStore(LoaderFunc(func(context.Context) (tabular.Tables, error) {
		close(started)
		<-release
		return fixtureTables(), nil
	}))

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		firstErr = s.Reload(context.Background())
	}()

	<-started
	assert.True(t, s.Loading())
	assert.Equal(t, StateLoading, s.Status().State)
	assert.ErrorIs(t, s.Reload(context.Background()), ErrReloadInProgress)

	close(release)
	wg.Wait()
	require.NoError(t, firstErr)
	assert.Equal(t, StateReady, s.Status().State)
}

func TestEngine_Flow(t *testing.T) {
	s := NewStore(staticLoader(fixtureTables()))
	require.NoError(t, s.Reload(context.Background()))
	e := NewEngine(s, WithPageSize(4))

	res := e.PageResult()
	assert.Equal(t, 9, res.TotalCount)
	assert.Equal(t, 3, res.TotalPages)
	assert.Equal(t, 1, res.CurrentPage)
	assert.Len(t, res.Events, 4)
	assert.Equal(t, "shipment-102", res.Events[0].ID)

	res = e.SetPage(99)
	assert.Equal(t, 3, res.CurrentPage)
	assert.Len(t, res.Events, 1)

	action := ActionShipIn
	res = e.SetFilter(FilterPatch{Action: &action})
	assert.Equal(t, 1, res.CurrentPage, "filter change returns to the first page")
	assert.Equal(t, 2, res.TotalCount)
	assert.Equal(t, 2, res.Aggregates.InOutCount)

	res = e.SetSort(SortDate)
	assert.Equal(t, Sort{SortDate, Asc}, res.Sort)
	assert.Equal(t, "shipment-101", res.Events[0].ID)

	res = e.SetFilter(FilterPatch{Keyword: strptr("no such thing")})
	assert.True(t, res.Empty)
	assert.Equal(t, MsgNoMatches, res.Message)

	res = e.ResetFilter()
	assert.Equal(t, 9, res.TotalCount)
	assert.Len(t, e.Filtered(), 9)
}

func TestEngine_SessionsAreIndependent(t *testing.T) {
	s := NewStore(staticLoader(fixtureTables()))
	require.NoError(t, s.Reload(context.Background()))

	a := NewEngine(s)
	b := NewEngine(s)

	a.SetFilter(FilterPatch{Rack: strptr("B2")})
	assert.Equal(t, 1, a.PageResult().TotalCount)
	assert.Equal(t, 9, b.PageResult().TotalCount)
}

func TestEngine_InitialOptions(t *testing.T) {
	s := NewStore(nil)
	st := s.Publish(fixtureTables())
	assert.Equal(t, StateReady, st.State)
	assert.Equal(t, 9, st.Total)

	e := NewEngine(s,
		WithPageSize(1),
		WithFilter(Filter{Action: ActionShipIn}),
		WithSort(Sort{Key: SortDate, Dir: Asc}),
	)

	res := e.PageResult()
	assert.Equal(t, 2, res.TotalCount)
	assert.Equal(t, 2, res.TotalPages)
	assert.Equal(t, Sort{SortDate, Asc}, res.Sort)
	assert.Equal(t, "shipment-101", res.Events[0].ID)

	all := e.Filtered()
	require.Len(t, all, 2)
	assert.Equal(t, "shipment-101", all[0].ID)
	for _, ev := range all {
		assert.Equal(t, ActionShipIn, ev.Action)
	}
}

func TestEngine_ZeroSortKeepsDefault(t *testing.T) {
	e := NewEngine(NewStore(nil), WithSort(Sort{}))
	assert.Equal(t, DefaultSort, e.Sort())
}
