package notes

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/pocketnotes/internal/apperr"
	"github.com/starford/pocketnotes/internal/events"
	"github.com/starford/pocketnotes/internal/models"
)

// shoppingFixture is the two-note store from the filter scenario:
// "Shopping" is newer than "Work plan".
func shoppingFixture() *fakeStore {
	s := newFakeStore()
	s.seed(map[string]models.Note{
		"k1": {ID: "1", Description: "Shopping", Date: day(2)},
		"k2": {ID: "2", Description: "Work plan", Date: day(1)},
	})
	return s
}

func newList(t *testing.T, s *fakeStore, opts ...Option) (*ListController, *fakePrompt) {
	t.Helper()
	p := &fakePrompt{answer: true}
	opts = append([]Option{WithPrompt(p), WithLogger(quietLogger())}, opts...)
	c := NewListController(s, opts...)
	require.NoError(t, c.Refresh(context.Background()))
	return c, p
}

func TestRefresh_SortsNewestFirst(t *testing.T) {
	s := newFakeStore()
	s.seed(map[string]models.Note{
		"a": {ID: "old", Description: "x", Date: day(1)},
		"b": {ID: "new", Description: "y", Date: day(9)},
		"c": {ID: "mid", Description: "z", Date: day(5)},
	})
	c, _ := newList(t, s)

	assert.Equal(t, []string{"new", "mid", "old"}, ids(c.Master()))
	assert.Equal(t, []string{"new", "mid", "old"}, ids(c.Displayed()))
}

func TestRefresh_Idempotent(t *testing.T) {
	c, _ := newList(t, shoppingFixture())
	c.SetFilter("o")
	first := c.Displayed()

	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, first, c.Displayed())
}

func TestRefresh_EqualDatesKeepStoreOrder(t *testing.T) {
	s := newFakeStore()
	s.seed(map[string]models.Note{
		"k1": {ID: "first", Description: "a", Date: day(3)},
		"k2": {ID: "second", Description: "b", Date: day(3)},
	})
	c, _ := newList(t, s)
	assert.Equal(t, []string{"first", "second"}, ids(c.Displayed()))
}

func TestRefresh_StoreFailureAlertsAndKeepsLists(t *testing.T) {
	s := shoppingFixture()
	c, p := newList(t, s)
	before := c.Displayed()

	s.fetchErr = errBoom
	err := c.Refresh(context.Background())

	require.ErrorIs(t, err, apperr.ErrStore)
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, before, c.Displayed())
	require.Len(t, p.alerts, 1)
	assert.Equal(t, "Error", p.alerts[0].title)
	assert.Contains(t, p.alerts[0].message, "connection refused")
}

func TestSetFilter_Scenario(t *testing.T) {
	c, _ := newList(t, shoppingFixture())

	c.SetFilter("sho")
	assert.Equal(t, []string{"1"}, ids(c.Displayed()))

	c.SetFilter("")
	assert.Equal(t, []string{"1", "2"}, ids(c.Displayed()))
}

func TestSetFilter_MatchesCaseInsensitiveOldestFirst(t *testing.T) {
	s := newFakeStore()
	s.seed(map[string]models.Note{
		"a": {ID: "1", Description: "Plan trip", Date: day(1)},
		"b": {ID: "2", Description: "PLANT seeds", Date: day(7)},
		"c": {ID: "3", Description: "groceries", Date: day(4)},
		"d": {ID: "4", Description: "work plan", Date: day(5)},
	})
	c, _ := newList(t, s)

	c.SetFilter("PlAn")
	// Every matching note, ascending by date.
	assert.Equal(t, []string{"1", "4", "2"}, ids(c.Displayed()))
	// Master keeps its own order.
	assert.Equal(t, []string{"2", "4", "3", "1"}, ids(c.Master()))
}

func TestSetFilter_BlankRestoresMaster(t *testing.T) {
	c, _ := newList(t, shoppingFixture())
	for _, blank := range []string{"", "   ", "\t\n"} {
		c.SetFilter("work")
		c.SetFilter(blank)
		assert.Equal(t, c.Master(), c.Displayed(), "filter %q", blank)
	}
}

func TestSetFilter_NoMatches(t *testing.T) {
	c, _ := newList(t, shoppingFixture())
	c.SetFilter("zzz")
	assert.Empty(t, c.Displayed())
	assert.Len(t, c.Master(), 2)
}

func TestRefresh_ReappliesActiveFilter(t *testing.T) {
	s := shoppingFixture()
	c, _ := newList(t, s)
	c.SetFilter("shop")

	s.seed(map[string]models.Note{"k3": {ID: "3", Description: "Shop again", Date: day(1)}})
	require.NoError(t, c.Refresh(context.Background()))

	assert.Equal(t, []string{"3", "1"}, ids(c.Displayed()))
	assert.Equal(t, "shop", c.Filter())
}

func TestOnChange_ReceivesDisplayedList(t *testing.T) {
	c, _ := newList(t, shoppingFixture())
	var got [][]string
	c.OnChange(func(list []models.Note) { got = append(got, ids(list)) })

	c.SetFilter("work")
	require.NoError(t, c.Refresh(context.Background()))

	assert.Equal(t, [][]string{{"2"}, {"2"}}, got)
}

func TestOnChange_ObserverMayReadController(t *testing.T) {
	c, _ := newList(t, shoppingFixture())
	var seen int
	c.OnChange(func([]models.Note) { seen = len(c.Master()) })
	c.SetFilter("x")
	assert.Equal(t, 2, seen)
}

func TestDeleteByID_RemovesFromStoreAndLists(t *testing.T) {
	s := shoppingFixture()
	pub := &fakePublisher{}
	c, p := newList(t, s, WithPublisher(pub))
	c.SetFilter("o")

	require.NoError(t, c.DeleteByID(context.Background(), "2"))

	assert.Equal(t, []string{confirmDeleteMessage}, p.confirms)
	assert.Equal(t, []string{"1"}, ids(c.Master()))
	assert.Equal(t, []string{"1"}, ids(c.Displayed()))

	recs, err := s.Memory.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "k1", recs[0].Key)

	evs := pub.published()
	require.Len(t, evs, 1)
	assert.Equal(t, events.NoteDeleted, evs[0].Topic)
	assert.Equal(t, "2", evs[0].Note.ID)
}

func TestDeleteByID_UnknownIDIsNoOp(t *testing.T) {
	s := shoppingFixture()
	c, _ := newList(t, s)
	master, displayed := c.Master(), c.Displayed()
	fetchesBefore, _, _ := s.calls()

	require.NoError(t, c.DeleteByID(context.Background(), "nope"))

	fetches, _, deletes := s.calls()
	assert.Equal(t, fetchesBefore, fetches, "no re-fetch for an unknown id")
	assert.Zero(t, deletes)
	assert.Equal(t, master, c.Master())
	assert.Equal(t, displayed, c.Displayed())
}

func TestDeleteByID_DeclinedDoesNothing(t *testing.T) {
	s := shoppingFixture()
	c, p := newList(t, s)
	p.answer = false

	require.NoError(t, c.DeleteByID(context.Background(), "1"))

	_, _, deletes := s.calls()
	assert.Zero(t, deletes)
	assert.Len(t, c.Master(), 2)
}

func TestDeleteByID_RecordGoneRemotelyKeepsLocalState(t *testing.T) {
	s := shoppingFixture()
	c, p := newList(t, s)

	// Another writer removed the record after our last refresh.
	require.NoError(t, s.Memory.Delete(context.Background(), "k1"))

	require.NoError(t, c.DeleteByID(context.Background(), "1"))

	_, _, deletes := s.calls()
	assert.Zero(t, deletes)
	assert.Equal(t, []string{"1", "2"}, ids(c.Master()))
	assert.Zero(t, p.alertCount())
}

func TestDeleteByID_StoreFailures(t *testing.T) {
	t.Run("fetch", func(t *testing.T) {
		s := shoppingFixture()
		c, p := newList(t, s)
		s.fetchErr = errBoom

		err := c.DeleteByID(context.Background(), "1")
		require.ErrorIs(t, err, apperr.ErrStore)
		assert.Len(t, c.Master(), 2)
		assert.Equal(t, 1, p.alertCount())
	})
	t.Run("delete", func(t *testing.T) {
		s := shoppingFixture()
		c, p := newList(t, s)
		s.deleteErr = errBoom

		err := c.DeleteByID(context.Background(), "1")
		require.ErrorIs(t, err, apperr.ErrStore)
		require.ErrorIs(t, err, errBoom)
		assert.Len(t, c.Master(), 2)
		assert.Len(t, c.Displayed(), 2)
		assert.Equal(t, 1, p.alertCount())
	})
}

func TestNewAndEditNavigate(t *testing.T) {
	nav := &fakeNav{}
	c, _ := newList(t, shoppingFixture(), WithNavigator(nav))

	require.NoError(t, c.New(context.Background()))
	require.NoError(t, c.Edit(context.Background(), models.Note{ID: "1", Description: "Shopping"}))

	require.Len(t, nav.gotos, 2)
	assert.Equal(t, RouteNew, nav.gotos[0].route)
	assert.Equal(t, RouteEdit, nav.gotos[1].route)
	assert.Equal(t, map[string]string{"name": "Shopping"}, nav.gotos[1].params)
}

func TestFollow_RefreshesOnEvents(t *testing.T) {
	s := shoppingFixture()
	c, _ := newList(t, s)

	bus := events.NewBus(quietLogger())
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop := c.Follow(ctx, bus)
	defer stop()

	var mu sync.Mutex
	var latest []string
	c.OnChange(func(list []models.Note) {
		mu.Lock()
		latest = ids(list)
		mu.Unlock()
	})

	s.seed(map[string]models.Note{"k3": {ID: "3", Description: "New one", Date: day(20)}})
	bus.Publish(events.Event{Topic: events.NoteAdded})

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(latest) == 3 && latest[0] == "3"
	}, 2*time.Second, 10*time.Millisecond)
}
