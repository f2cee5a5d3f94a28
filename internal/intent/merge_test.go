package intent

import (
	"testing"

	"github.com/tbourn/go-booking-backend/internal/schedule"
)

func newMerger() Merger { return NewMerger(schedule.DefaultCalendar()) }

func TestMerge_HourFromSideChannel(t *testing.T) {
	obs, found, err := FromSideChannel(`Perfecto [MEMORIA]{"hora":"5"}[/MEMORIA]`)
	if err != nil || !found {
		t.Fatalf("found=%v err=%v", found, err)
	}
	got := newMerger().Merge(Collected{}, obs)
	if got.TimeIntent != "17:00" {
		t.Fatalf("time = %q, want 17:00", got.TimeIntent)
	}
}

func TestMerge_BlacklistedNameLeavesFieldUnchanged(t *testing.T) {
	m := newMerger()

	got := m.Merge(Collected{}, Observed{Name: strptr("hola")})
	if got.Name != "" {
		t.Fatalf("name should stay absent, got %q", got.Name)
	}

	got = m.Merge(Collected{Name: "Ana"}, Observed{Name: strptr("  Señor ")})
	if got.Name != "Ana" {
		t.Fatalf("name should stay Ana, got %q", got.Name)
	}

	got = m.Merge(Collected{}, Observed{Name: strptr("maría   josé")})
	if got.Name != "María José" {
		t.Fatalf("name = %q", got.Name)
	}
}

func TestMerge_RejectedTimeClearsStoredTime(t *testing.T) {
	m := newMerger()
	prev := Collected{Name: "Ana", TimeIntent: "10:00", Service: "Corte"}
	got := m.Merge(prev, Observed{Time: strptr("20:00")})
	if got.TimeIntent != "" {
		t.Fatalf("time should be dropped, got %q", got.TimeIntent)
	}
	if got.Name != "Ana" || got.Service != "Corte" {
		t.Fatalf("other fields must survive: %+v", got)
	}
}

func TestMerge_EmptyValuesAreIgnored(t *testing.T) {
	m := newMerger()
	prev := Collected{Name: "Ana", DateIntent: "viernes", TimeIntent: "10:00", Service: "Corte"}
	got := m.Merge(prev, Observed{Name: strptr(""), Date: strptr("  "), Time: strptr(""), Service: strptr("")})
	if got != prev {
		t.Fatalf("got %+v want %+v", got, prev)
	}
}

func TestMerge_DateStoredVerbatim(t *testing.T) {
	got := newMerger().Merge(Collected{}, Observed{Date: strptr(" viernes 19 ")})
	if got.DateIntent != "viernes 19" {
		t.Fatalf("date = %q", got.DateIntent)
	}
}

func TestMerge_ServiceUnion(t *testing.T) {
	m := newMerger()
	cases := []struct {
		prev, obs, want string
	}{
		{"", "corte de pelo", "Corte"},
		{"Corte", "barba", "Corte + Barba"},
		{"Corte + Barba", "Barba", "Corte + Barba"},
		{"Barba", "cejas", "Barba + Cejas"},
		{"Corte", "Tinte", "Tinte"},
		{"Tinte", "Corte", "Corte"},
	}
	for _, tc := range cases {
		got := m.Merge(Collected{Service: tc.prev}, Observed{Service: strptr(tc.obs)})
		if got.Service != tc.want {
			t.Errorf("prev=%q obs=%q: got %q want %q", tc.prev, tc.obs, got.Service, tc.want)
		}
	}
}

func TestMerge_Idempotent(t *testing.T) {
	m := newMerger()
	states := []Collected{
		{},
		{Name: "Ana"},
		{Name: "Luis", DateIntent: "MAÑANA", TimeIntent: "10:00", Service: "Corte"},
		{Service: "Tinte", TimeIntent: "17:00"},
	}
	observations := []Observed{
		{},
		{Name: strptr("hola"), Time: strptr("5")},
		{Name: strptr("pedro"), Service: strptr("barba")},
		{Time: strptr("21:00"), Date: strptr("lunes")},
		{Service: strptr("Corte + Cejas"), Time: strptr("08:00")},
		{Service: strptr("Manicure")},
		FromText("Hola, soy carlos, quiero corte y barba el sábado a las 4"),
	}
	for _, s := range states {
		for _, o := range observations {
			once := m.Merge(s, o)
			twice := m.Merge(once, o)
			if once != twice {
				t.Errorf("not idempotent for %+v / %+v: %+v != %+v", s, o, once, twice)
			}
		}
	}
}
